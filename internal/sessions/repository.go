package sessions

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Repository defines the interface for session storage
type Repository interface {
	Create(ctx context.Context, s *Session) error
	GetByID(ctx context.Context, id string) (*Session, error)
	ListByProfessional(ctx context.Context, professionalID string) ([]*Session, error)
	// ListByProfessionalBetween returns sessions overlapping [from, to).
	ListByProfessionalBetween(ctx context.Context, professionalID string, from, to time.Time) ([]*Session, error)
	ListByPatient(ctx context.Context, patientID string) ([]*Session, error)
	Update(ctx context.Context, s *Session) error
	// DeleteByPatient removes all of a patient's sessions, part of LGPD
	// erasure.
	DeleteByPatient(ctx context.Context, patientID string) error
}

// InMemoryRepository stores sessions in memory; used by tests and demo mode.
type InMemoryRepository struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{sessions: make(map[string]*Session)}
}

// Create stores a new session
func (r *InMemoryRepository) Create(ctx context.Context, s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
	return nil
}

// GetByID retrieves a session by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// ListByProfessional returns all sessions for a professional, oldest first
func (r *InMemoryRepository) ListByProfessional(ctx context.Context, professionalID string) ([]*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Session
	for _, s := range r.sessions {
		if s.ProfessionalID == professionalID {
			out = append(out, s)
		}
	}
	sortByStart(out)
	return out, nil
}

// ListByProfessionalBetween returns sessions overlapping [from, to)
func (r *InMemoryRepository) ListByProfessionalBetween(ctx context.Context, professionalID string, from, to time.Time) ([]*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Session
	for _, s := range r.sessions {
		if s.ProfessionalID == professionalID && s.StartTime.Before(to) && s.EndTime.After(from) {
			out = append(out, s)
		}
	}
	sortByStart(out)
	return out, nil
}

// ListByPatient returns all sessions for a patient, oldest first
func (r *InMemoryRepository) ListByPatient(ctx context.Context, patientID string) ([]*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Session
	for _, s := range r.sessions {
		if s.PatientID == patientID {
			out = append(out, s)
		}
	}
	sortByStart(out)
	return out, nil
}

// Update replaces an existing session
func (r *InMemoryRepository) Update(ctx context.Context, s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[s.ID]; !ok {
		return ErrSessionNotFound
	}
	r.sessions[s.ID] = s
	return nil
}

// DeleteByPatient removes all sessions belonging to a patient
func (r *InMemoryRepository) DeleteByPatient(ctx context.Context, patientID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, s := range r.sessions {
		if s.PatientID == patientID {
			delete(r.sessions, id)
		}
	}
	return nil
}

func sortByStart(sessions []*Session) {
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].StartTime.Before(sessions[j].StartTime) })
}
