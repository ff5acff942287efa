package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores sessions in the relational database.
type PostgresRepository struct {
	pool db
}

// NewPostgresRepository initializes a repo backed by a pgx pool.
func NewPostgresRepository(pool db) *PostgresRepository {
	if pool == nil {
		panic("sessions: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

const sessionColumns = `id, professional_id, patient_id, session_type_id, start_time, end_time, status, paid, price_cents, notes, satisfaction, created_at`

// Create inserts a new session row.
func (r *PostgresRepository) Create(ctx context.Context, s *Session) error {
	query := `
		INSERT INTO sessions (id, professional_id, patient_id, session_type_id, start_time, end_time, status, paid, price_cents)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`
	if err := r.pool.QueryRow(ctx, query,
		s.ID, s.ProfessionalID, s.PatientID, s.SessionTypeID,
		s.StartTime, s.EndTime, s.Status, s.Paid, s.PriceCents,
	).Scan(&s.CreatedAt); err != nil {
		return fmt.Errorf("sessions: insert failed: %w", err)
	}
	return nil
}

// GetByID fetches a session.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Session, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
	return scanSession(row)
}

// ListByProfessional returns a professional's full agenda, oldest first.
func (r *PostgresRepository) ListByProfessional(ctx context.Context, professionalID string) ([]*Session, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE professional_id = $1 ORDER BY start_time`, professionalID)
	if err != nil {
		return nil, fmt.Errorf("sessions: list failed: %w", err)
	}
	return collectSessions(rows)
}

// ListByProfessionalBetween returns sessions overlapping [from, to).
func (r *PostgresRepository) ListByProfessionalBetween(ctx context.Context, professionalID string, from, to time.Time) ([]*Session, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+sessionColumns+` FROM sessions
		WHERE professional_id = $1 AND start_time < $3 AND end_time > $2
		ORDER BY start_time`, professionalID, from, to)
	if err != nil {
		return nil, fmt.Errorf("sessions: range list failed: %w", err)
	}
	return collectSessions(rows)
}

// ListByPatient returns a patient's sessions, oldest first.
func (r *PostgresRepository) ListByPatient(ctx context.Context, patientID string) ([]*Session, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE patient_id = $1 ORDER BY start_time`, patientID)
	if err != nil {
		return nil, fmt.Errorf("sessions: patient list failed: %w", err)
	}
	return collectSessions(rows)
}

// Update replaces mutable fields of an existing row.
func (r *PostgresRepository) Update(ctx context.Context, s *Session) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE sessions SET status = $2, paid = $3, notes = $4, satisfaction = $5 WHERE id = $1`,
		s.ID, s.Status, s.Paid, s.Notes, s.Satisfaction)
	if err != nil {
		return fmt.Errorf("sessions: update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteByPatient removes all of a patient's sessions. The foreign key on
// sessions cascades this when the patient row is deleted; deleting explicitly
// keeps the behavior the same for every repository.
func (r *PostgresRepository) DeleteByPatient(ctx context.Context, patientID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE patient_id = $1`, patientID); err != nil {
		return fmt.Errorf("sessions: delete by patient failed: %w", err)
	}
	return nil
}

func collectSessions(rows pgx.Rows) ([]*Session, error) {
	defer rows.Close()

	var out []*Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanSession(row pgx.Row) (*Session, error) {
	var s Session
	if err := row.Scan(
		&s.ID, &s.ProfessionalID, &s.PatientID, &s.SessionTypeID,
		&s.StartTime, &s.EndTime, &s.Status, &s.Paid, &s.PriceCents,
		&s.Notes, &s.Satisfaction, &s.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("sessions: scan failed: %w", err)
	}
	return &s, nil
}
