package notifications

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository stores notifications in the relational database.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("notifications: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

// Create inserts a new notification row.
func (r *PostgresRepository) Create(ctx context.Context, n *Notification) error {
	query := `
		INSERT INTO notifications (id, recipient_id, kind, message, read)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	if err := r.pool.QueryRow(ctx, query, n.ID, n.RecipientID, n.Kind, n.Message, n.Read).Scan(&n.CreatedAt); err != nil {
		return fmt.Errorf("notifications: insert failed: %w", err)
	}
	return nil
}

// ListByRecipient returns a recipient's notifications, newest first.
func (r *PostgresRepository) ListByRecipient(ctx context.Context, recipientID string) ([]*Notification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, recipient_id, kind, message, read, created_at
		FROM notifications WHERE recipient_id = $1
		ORDER BY created_at DESC`, recipientID)
	if err != nil {
		return nil, fmt.Errorf("notifications: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Kind, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("notifications: scan failed: %w", err)
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}

// MarkRead marks one notification as read, scoped to the recipient.
func (r *PostgresRepository) MarkRead(ctx context.Context, id, recipientID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE notifications SET read = TRUE WHERE id = $1 AND recipient_id = $2`, id, recipientID)
	if err != nil {
		return fmt.Errorf("notifications: mark read failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// MarkAllRead marks every notification of the recipient as read.
func (r *PostgresRepository) MarkAllRead(ctx context.Context, recipientID string) error {
	if _, err := r.pool.Exec(ctx,
		`UPDATE notifications SET read = TRUE WHERE recipient_id = $1`, recipientID); err != nil {
		return fmt.Errorf("notifications: mark all read failed: %w", err)
	}
	return nil
}
