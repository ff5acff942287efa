package sessiontypes

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository stores session types in the relational database.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("sessiontypes: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

// Create inserts a new row.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateRequest) (*SessionType, error) {
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
	query := `
		INSERT INTO session_types (id, name, description, duration_minutes, price_cents, color)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := r.pool.Exec(ctx, query,
		st.ID, st.Name, st.Description, st.DurationMinutes, st.PriceCents, st.Color,
	); err != nil {
		return nil, fmt.Errorf("sessiontypes: insert failed: %w", err)
	}
	return st, nil
}

// GetByID fetches one session type.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*SessionType, error) {
	query := `
		SELECT id, name, description, duration_minutes, price_cents, color
		FROM session_types
		WHERE id = $1
	`
	var st SessionType
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&st.ID, &st.Name, &st.Description, &st.DurationMinutes, &st.PriceCents, &st.Color,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("sessiontypes: select failed: %w", err)
	}
	return &st, nil
}

// List returns the full catalog ordered by name.
func (r *PostgresRepository) List(ctx context.Context) ([]*SessionType, error) {
	query := `
		SELECT id, name, description, duration_minutes, price_cents, color
		FROM session_types
		ORDER BY name
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sessiontypes: list failed: %w", err)
	}
	defer rows.Close()

	var out []*SessionType
	for rows.Next() {
		var st SessionType
		if err := rows.Scan(&st.ID, &st.Name, &st.Description, &st.DurationMinutes, &st.PriceCents, &st.Color); err != nil {
			return nil, fmt.Errorf("sessiontypes: scan failed: %w", err)
		}
		out = append(out, &st)
	}
	return out, rows.Err()
}

// Update replaces an existing row.
func (r *PostgresRepository) Update(ctx context.Context, st *SessionType) error {
	req := CreateRequest{Name: st.Name, DurationMinutes: st.DurationMinutes, PriceCents: st.PriceCents}
	if err := req.Validate(); err != nil {
		return err
	}

	query := `
		UPDATE session_types
		SET name = $2, description = $3, duration_minutes = $4, price_cents = $5, color = $6
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		st.ID, st.Name, st.Description, st.DurationMinutes, st.PriceCents, st.Color,
	)
	if err != nil {
		return fmt.Errorf("sessiontypes: update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a row.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM session_types WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("sessiontypes: delete failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
