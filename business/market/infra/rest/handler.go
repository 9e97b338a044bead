// Package rest exposes market tickers over HTTP.
package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fd1az/allocation-ledger/business/market/domain"
	"github.com/fd1az/allocation-ledger/internal/logger"
	"github.com/fd1az/allocation-ledger/internal/web"
)

// TickerReader is the subset of the market service the handler uses.
type TickerReader interface {
	Ticker(ctx context.Context, symbol string) (domain.Ticker, error)
}

type Handler struct {
	market TickerReader
	logger logger.LoggerInterface
}

func NewHandler(market TickerReader, log logger.LoggerInterface) *Handler {
	return &Handler{market: market, logger: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/market/{symbol}", h.HandleGetTicker)
}

type tickerResponse struct {
	Symbol      string      `json:"symbol"`
	Price       json.Number `json:"price"`
	ChangeRatio json.Number `json:"changeRatio"`
	Source      string      `json:"source"`
	At          time.Time   `json:"at"`
}

// HandleGetTicker handles GET /api/market/{symbol}.
func (h *Handler) HandleGetTicker(w http.ResponseWriter, r *http.Request) {
	t, err := h.market.Ticker(r.Context(), chi.URLParam(r, "symbol"))
	if err != nil {
		web.WriteError(r.Context(), w, h.logger, err)
		return
	}

	web.WriteJSON(w, http.StatusOK, tickerResponse{
		Symbol:      t.Symbol,
		Price:       json.Number(t.Price.String()),
		ChangeRatio: json.Number(t.ChangeRatio.String()),
		Source:      t.Source,
		At:          t.At,
	})
}
