// Package rest exposes the strategy registry over HTTP.
package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fd1az/allocation-ledger/business/strategy/domain"
	"github.com/fd1az/allocation-ledger/internal/logger"
	"github.com/fd1az/allocation-ledger/internal/web"
)

// Registry is the subset of the strategy registry the handlers use.
type Registry interface {
	Pause(ctx context.Context, id string) (domain.Strategy, error)
	Resume(ctx context.Context, id string) (domain.Strategy, error)
	Status(id string) (domain.Strategy, error)
	List() []domain.Strategy
}

type Handler struct {
	registry Registry
	logger   logger.LoggerInterface
}

func NewHandler(registry Registry, log logger.LoggerInterface) *Handler {
	return &Handler{registry: registry, logger: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/strategies", h.HandleList)
	r.Post("/api/strategies/pause", h.HandlePause)
	r.Post("/api/strategies/resume", h.HandleResume)
	r.Get("/api/strategies/{id}", h.HandleGet)
}

type commandRequest struct {
	ID string `json:"id"`
}

type commandResponse struct {
	Message string        `json:"message"`
	ID      string        `json:"id"`
	Status  domain.Status `json:"status"`
}

type strategyResponse struct {
	ID        string        `json:"id"`
	Status    domain.Status `json:"status"`
	UpdatedAt *time.Time    `json:"updatedAt,omitempty"`
}

type listResponse struct {
	Strategies []strategyResponse `json:"strategies"`
}

func toResponse(s domain.Strategy) strategyResponse {
	out := strategyResponse{ID: s.ID, Status: s.Status}
	if !s.UpdatedAt.IsZero() {
		at := s.UpdatedAt
		out.UpdatedAt = &at
	}
	return out
}

// HandlePause handles POST /api/strategies/pause.
func (h *Handler) HandlePause(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, "Strategy paused", h.registry.Pause)
}

// HandleResume handles POST /api/strategies/resume.
func (h *Handler) HandleResume(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, "Strategy resumed", h.registry.Resume)
}

func (h *Handler) command(w http.ResponseWriter, r *http.Request, message string,
	apply func(ctx context.Context, id string) (domain.Strategy, error)) {
	ctx := r.Context()

	var body commandRequest
	if err := web.DecodeJSON(r, &body); err != nil {
		web.WriteError(ctx, w, h.logger, err)
		return
	}

	s, err := apply(ctx, body.ID)
	if err != nil {
		web.WriteError(ctx, w, h.logger, err)
		return
	}

	web.WriteJSON(w, http.StatusOK, commandResponse{Message: message, ID: s.ID, Status: s.Status})
}

// HandleList handles GET /api/strategies.
func (h *Handler) HandleList(w http.ResponseWriter, _ *http.Request) {
	list := h.registry.List()
	out := listResponse{Strategies: make([]strategyResponse, 0, len(list))}
	for _, s := range list {
		out.Strategies = append(out.Strategies, toResponse(s))
	}
	web.WriteJSON(w, http.StatusOK, out)
}

// HandleGet handles GET /api/strategies/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	s, err := h.registry.Status(chi.URLParam(r, "id"))
	if err != nil {
		web.WriteError(r.Context(), w, h.logger, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, toResponse(s))
}
