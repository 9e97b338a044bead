// Package domain contains the allocation ledger's core types and money rules.
package domain

import "fmt"

// Allocation is the binary placement of an investor's balance.
type Allocation string

const (
	Stable   Allocation = "STABLE"
	Invested Allocation = "INVESTED"
)

// Valid reports whether a is one of the two known allocations.
func (a Allocation) Valid() bool {
	return a == Stable || a == Invested
}

func (a Allocation) String() string {
	return string(a)
}

// ParseAllocation parses a stored allocation value.
func ParseAllocation(s string) (Allocation, error) {
	a := Allocation(s)
	if !a.Valid() {
		return "", fmt.Errorf("unknown allocation %q", s)
	}
	return a, nil
}
