// Package domain contains the core domain types for the strategy context.
package domain

import (
	"strings"
	"time"

	"github.com/fd1az/allocation-ledger/internal/apperror"
)

// MsgIDRequired is reported when a strategy command carries no id.
const MsgIDRequired = "id is required"

// Status is a strategy's run state.
type Status string

const (
	StatusActive Status = "ACTIVE"
	StatusPaused Status = "PAUSED"
)

func (s Status) String() string { return string(s) }

// Strategy is a registry entry. Strategies never seen before are ACTIVE.
type Strategy struct {
	ID        string
	Status    Status
	UpdatedAt time.Time
}

// ValidateID rejects a missing or blank id.
func ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return apperror.Validation(apperror.CodeRequiredField, MsgIDRequired)
	}
	return nil
}
