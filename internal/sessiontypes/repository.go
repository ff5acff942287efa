package sessiontypes

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Repository defines the interface for session type storage
type Repository interface {
	Create(ctx context.Context, req *CreateRequest) (*SessionType, error)
	GetByID(ctx context.Context, id string) (*SessionType, error)
	List(ctx context.Context) ([]*SessionType, error)
	Update(ctx context.Context, st *SessionType) error
	Delete(ctx context.Context, id string) error
}

// InMemoryRepository stores session types in memory; used by tests and demo
// mode.
type InMemoryRepository struct {
	mu    sync.RWMutex
	types map[string]*SessionType
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		types: make(map[string]*SessionType),
	}
}

// Create validates and stores a new session type
func (r *InMemoryRepository) Create(ctx context.Context, req *CreateRequest) (*SessionType, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	st := &SessionType{
		ID:              uuid.New().String(),
		Name:            req.Name,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		PriceCents:      req.PriceCents,
		Color:           req.Color,
	}

	r.mu.Lock()
	r.types[st.ID] = st
	r.mu.Unlock()

	return st, nil
}

// GetByID retrieves a session type by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*SessionType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st, ok := r.types[id]
	if !ok {
		return nil, ErrNotFound
	}
	return st, nil
}

// List returns all session types sorted by name. Session types are public
// catalog data, not scoped per professional.
func (r *InMemoryRepository) List(ctx context.Context) ([]*SessionType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*SessionType, 0, len(r.types))
	for _, st := range r.types {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Update replaces an existing session type
func (r *InMemoryRepository) Update(ctx context.Context, st *SessionType) error {
	req := CreateRequest{
		Name:            st.Name,
		DurationMinutes: st.DurationMinutes,
		PriceCents:      st.PriceCents,
	}
	if err := req.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.types[st.ID]; !ok {
		return ErrNotFound
	}
	r.types[st.ID] = st
	return nil
}

// Delete removes a session type
func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.types[id]; !ok {
		return ErrNotFound
	}
	delete(r.types, id)
	return nil
}
