package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fd1az/allocation-ledger/business/strategy/domain"
	"github.com/fd1az/allocation-ledger/internal/logger"
)

// Registry tracks strategy run states. Unknown ids are ACTIVE; Pause and
// Resume record the id so it shows up in List.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]domain.Strategy
	now        func() time.Time
	logger     logger.LoggerInterface
}

// NewRegistry creates a registry with the seed ids recorded as ACTIVE.
func NewRegistry(log logger.LoggerInterface, seedIDs ...string) *Registry {
	r := &Registry{
		strategies: make(map[string]domain.Strategy, len(seedIDs)),
		now:        time.Now,
		logger:     log,
	}
	for _, id := range seedIDs {
		if domain.ValidateID(id) != nil {
			continue
		}
		r.strategies[id] = domain.Strategy{ID: id, Status: domain.StatusActive, UpdatedAt: r.now().UTC()}
	}
	return r
}

// Pause marks id PAUSED. Pausing a paused strategy is a no-op.
func (r *Registry) Pause(ctx context.Context, id string) (domain.Strategy, error) {
	return r.set(ctx, id, domain.StatusPaused)
}

// Resume marks id ACTIVE. Resuming an unknown strategy records it as ACTIVE.
func (r *Registry) Resume(ctx context.Context, id string) (domain.Strategy, error) {
	return r.set(ctx, id, domain.StatusActive)
}

func (r *Registry) set(ctx context.Context, id string, status domain.Status) (domain.Strategy, error) {
	if err := domain.ValidateID(id); err != nil {
		return domain.Strategy{}, err
	}

	r.mu.Lock()
	prev, known := r.strategies[id]
	s := domain.Strategy{ID: id, Status: status, UpdatedAt: r.now().UTC()}
	if known && prev.Status == status {
		s = prev
	} else {
		r.strategies[id] = s
	}
	r.mu.Unlock()

	if !known || prev.Status != status {
		r.logger.Info(ctx, "strategy status changed", "strategy_id", id, "status", status)
	}
	return s, nil
}

// Status returns id's state, ACTIVE when never recorded.
func (r *Registry) Status(id string) (domain.Strategy, error) {
	if err := domain.ValidateID(id); err != nil {
		return domain.Strategy{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if s, ok := r.strategies[id]; ok {
		return s, nil
	}
	return domain.Strategy{ID: id, Status: domain.StatusActive}, nil
}

// List returns every recorded strategy ordered by id.
func (r *Registry) List() []domain.Strategy {
	r.mu.RLock()
	out := make([]domain.Strategy, 0, len(r.strategies))
	for _, s := range r.strategies {
		out = append(out, s)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Active returns the ids of recorded ACTIVE strategies, ordered.
func (r *Registry) Active() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.strategies))
	for id, s := range r.strategies {
		if s.Status == domain.StatusActive {
			ids = append(ids, id)
		}
	}
	r.mu.RUnlock()

	sort.Strings(ids)
	return ids
}
