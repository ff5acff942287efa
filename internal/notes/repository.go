package notes

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Repository stores clinical notes. Tags are kept as a text[] column.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a notes repository.
func NewRepository(db *sql.DB) *Repository {
	if db == nil {
		panic("notes: database required")
	}
	return &Repository{db: db}
}

// Create inserts a new note owned by the professional.
func (r *Repository) Create(ctx context.Context, professionalID, patientID string, req *CreateNoteRequest) (*ClinicalNote, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	note := &ClinicalNote{
		ID:             uuid.New().String(),
		PatientID:      patientID,
		ProfessionalID: professionalID,
		SessionID:      req.SessionID,
		Content:        req.Content,
		Tags:           req.Tags,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if note.Tags == nil {
		note.Tags = []string{}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO clinical_notes (id, patient_id, professional_id, session_id, content, tags, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $7)`,
		note.ID, note.PatientID, note.ProfessionalID, note.SessionID, note.Content, pq.Array(note.Tags), now)
	if err != nil {
		return nil, fmt.Errorf("notes: insert failed: %w", err)
	}
	return note, nil
}

// ListByPatient returns a professional's notes for one patient, newest first.
func (r *Repository) ListByPatient(ctx context.Context, professionalID, patientID string) ([]ClinicalNote, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, patient_id, professional_id, COALESCE(session_id, ''), content, tags, created_at, updated_at
		FROM clinical_notes
		WHERE professional_id = $1 AND patient_id = $2
		ORDER BY created_at DESC`, professionalID, patientID)
	if err != nil {
		return nil, fmt.Errorf("notes: list failed: %w", err)
	}
	defer rows.Close()

	var out []ClinicalNote
	for rows.Next() {
		var n ClinicalNote
		if err := rows.Scan(&n.ID, &n.PatientID, &n.ProfessionalID, &n.SessionID,
			&n.Content, pq.Array(&n.Tags), &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("notes: scan failed: %w", err)
		}
		if n.Tags == nil {
			n.Tags = []string{}
		}
		out = append(out, n)
	}
	if out == nil {
		out = []ClinicalNote{}
	}
	return out, rows.Err()
}

// Get returns one note owned by the professional.
func (r *Repository) Get(ctx context.Context, professionalID, id string) (*ClinicalNote, error) {
	var n ClinicalNote
	err := r.db.QueryRowContext(ctx, `
		SELECT id, patient_id, professional_id, COALESCE(session_id, ''), content, tags, created_at, updated_at
		FROM clinical_notes
		WHERE id = $1 AND professional_id = $2`, id, professionalID).Scan(
		&n.ID, &n.PatientID, &n.ProfessionalID, &n.SessionID,
		&n.Content, pq.Array(&n.Tags), &n.CreatedAt, &n.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNoteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("notes: get failed: %w", err)
	}
	if n.Tags == nil {
		n.Tags = []string{}
	}
	return &n, nil
}

// Update replaces content and tags of a note owned by the professional.
func (r *Repository) Update(ctx context.Context, professionalID, id string, req *CreateNoteRequest) (*ClinicalNote, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE clinical_notes SET content = $3, tags = $4, updated_at = $5
		WHERE id = $1 AND professional_id = $2`,
		id, professionalID, req.Content, pq.Array(tags), time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("notes: update failed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("notes: update failed: %w", err)
	}
	if affected == 0 {
		return nil, ErrNoteNotFound
	}
	return r.Get(ctx, professionalID, id)
}

// Delete removes a note owned by the professional.
func (r *Repository) Delete(ctx context.Context, professionalID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM clinical_notes WHERE id = $1 AND professional_id = $2`, id, professionalID)
	if err != nil {
		return fmt.Errorf("notes: delete failed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("notes: delete failed: %w", err)
	}
	if affected == 0 {
		return ErrNoteNotFound
	}
	return nil
}
