// Package rest exposes the ledger over HTTP.
package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/fd1az/allocation-ledger/business/ledger/domain"
	"github.com/fd1az/allocation-ledger/internal/logger"
	"github.com/fd1az/allocation-ledger/internal/web"
)

// Ledger is the subset of the ledger service the handlers use.
type Ledger interface {
	Deposit(ctx context.Context, req domain.DepositRequest) (domain.DepositResult, error)
	Account(investor string) (domain.Snapshot, error)
	TotalFees() decimal.Decimal
}

// Handler serves the deposit, account and fee endpoints.
type Handler struct {
	ledger Ledger
	logger logger.LoggerInterface
}

func NewHandler(ledger Ledger, log logger.LoggerInterface) *Handler {
	return &Handler{ledger: ledger, logger: log}
}

// RegisterRoutes mounts the handlers under r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/deposit", h.HandleDeposit)
	r.Get("/api/accounts/{investor}", h.HandleGetAccount)
	r.Get("/api/fees", h.HandleGetFees)
}

type depositRequest struct {
	Investor   string          `json:"investor"`
	StrategyID string          `json:"strategyId"`
	Amount     json.RawMessage `json:"amount"`
	Asset      string          `json:"asset"`
}

type depositResponse struct {
	Investor          string            `json:"investor"`
	StrategyID        string            `json:"strategyId"`
	Asset             string            `json:"asset"`
	NewBalance        json.Number       `json:"newBalance"`
	Allocation        domain.Allocation `json:"allocation"`
	FeeCharged        json.Number       `json:"feeCharged"`
	PlatformTotalFees json.Number       `json:"platformTotalFees"`
	Simulated         bool              `json:"simulated"`
	DecidedAt         time.Time         `json:"decidedAt"`
}

type accountResponse struct {
	Investor       string            `json:"investor"`
	StrategyID     string            `json:"strategyId"`
	Balance        json.Number       `json:"balance"`
	Allocation     domain.Allocation `json:"allocation"`
	LastDecisionAt time.Time         `json:"lastDecisionAt"`
}

type feesResponse struct {
	PlatformTotalFees json.Number `json:"platformTotalFees"`
}

// money renders d as an exact JSON number.
func money(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

// HandleDeposit handles POST /api/deposit.
func (h *Handler) HandleDeposit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body depositRequest
	if err := web.DecodeJSON(r, &body); err != nil {
		web.WriteError(ctx, w, h.logger, err)
		return
	}

	req := domain.DepositRequest{
		Investor:   body.Investor,
		StrategyID: body.StrategyID,
		Asset:      body.Asset,
	}

	amount, err := domain.ParseAmount(body.Amount)
	if err != nil {
		// investor and strategy violations are reported first
		if perr := req.ValidateParties(); perr != nil {
			err = perr
		}
		web.WriteError(ctx, w, h.logger, err)
		return
	}
	req.Amount = amount

	res, err := h.ledger.Deposit(ctx, req)
	if err != nil {
		web.WriteError(ctx, w, h.logger, err)
		return
	}

	web.WriteJSON(w, http.StatusOK, depositResponse{
		Investor:          res.Investor,
		StrategyID:        res.StrategyID,
		Asset:             res.Asset,
		NewBalance:        money(res.NewBalance),
		Allocation:        res.Allocation,
		FeeCharged:        money(res.FeeCharged),
		PlatformTotalFees: money(res.PlatformTotalFees),
		Simulated:         res.Simulated,
		DecidedAt:         res.DecidedAt,
	})
}

// HandleGetAccount handles GET /api/accounts/{investor}.
func (h *Handler) HandleGetAccount(w http.ResponseWriter, r *http.Request) {
	acct, err := h.ledger.Account(chi.URLParam(r, "investor"))
	if err != nil {
		web.WriteError(r.Context(), w, h.logger, err)
		return
	}

	web.WriteJSON(w, http.StatusOK, accountResponse{
		Investor:       acct.Investor,
		StrategyID:     acct.StrategyID,
		Balance:        money(acct.Balance),
		Allocation:     acct.Allocation,
		LastDecisionAt: acct.LastDecisionAt,
	})
}

// HandleGetFees handles GET /api/fees.
func (h *Handler) HandleGetFees(w http.ResponseWriter, _ *http.Request) {
	web.WriteJSON(w, http.StatusOK, feesResponse{PlatformTotalFees: money(h.ledger.TotalFees())})
}
