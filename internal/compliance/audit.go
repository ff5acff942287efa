// Package compliance keeps the LGPD audit trail: who accessed or changed a
// patient's clinical data, and when.
package compliance

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/psiclinic/platform/pkg/logging"
)

// AuditEventType represents the type of audit event.
type AuditEventType string

const (
	// EventNotesRead is logged when a professional reads clinical notes.
	EventNotesRead AuditEventType = "lgpd.notes_read"
	// EventTranscriptRead is logged when an intake transcript is read.
	EventTranscriptRead AuditEventType = "lgpd.transcript_read"
	// EventConsentGranted is logged when a patient record is created with consent.
	EventConsentGranted AuditEventType = "lgpd.consent_granted"
	// EventRecordErased is logged when a patient record is deleted.
	EventRecordErased AuditEventType = "lgpd.record_erased"
)

// AuditEvent represents an immutable audit record.
type AuditEvent struct {
	ID        string          `json:"id"`
	EventType AuditEventType  `json:"event_type"`
	ActorID   string          `json:"actor_id"`
	PatientID string          `json:"patient_id"`
	Details   json.RawMessage `json:"details,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// AuditService handles audit logging.
type AuditService struct {
	db     *sql.DB
	logger *logging.Logger
}

// NewAuditService creates a new audit service.
func NewAuditService(db *sql.DB, logger *logging.Logger) *AuditService {
	if db == nil {
		panic("compliance: database required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AuditService{db: db, logger: logger}
}

// LogEvent records an audit event.
func (s *AuditService) LogEvent(ctx context.Context, event AuditEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	// An empty RawMessage is not valid JSON; store SQL NULL instead.
	var details any
	if len(event.Details) > 0 {
		details = []byte(event.Details)
	}

	query := `
		INSERT INTO audit_events (id, event_type, actor_id, patient_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		event.ID, event.EventType, event.ActorID, event.PatientID, details, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("compliance: failed to log audit event: %w", err)
	}
	return nil
}

// RecordAccess logs a data access without failing the caller. It satisfies
// the Auditor interfaces the data-bearing handlers consume.
func (s *AuditService) RecordAccess(ctx context.Context, actorID, patientID, action string) {
	if err := s.LogEvent(ctx, AuditEvent{
		EventType: AuditEventType("lgpd." + action),
		ActorID:   actorID,
		PatientID: patientID,
	}); err != nil {
		s.logger.Error("failed to record audit event", "error", err, "action", action, "patient_id", patientID)
	}
}

// LogErasure records that a patient's data was deleted on request.
func (s *AuditService) LogErasure(ctx context.Context, actorID, patientID, reason string) error {
	details, _ := json.Marshal(map[string]string{"reason": reason})
	return s.LogEvent(ctx, AuditEvent{
		EventType: EventRecordErased,
		ActorID:   actorID,
		PatientID: patientID,
		Details:   details,
	})
}

// ListByPatient returns the audit trail of one patient, newest first.
func (s *AuditService) ListByPatient(ctx context.Context, patientID string) ([]AuditEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event_type, actor_id, patient_id, COALESCE(details, 'null'), created_at
		FROM audit_events WHERE patient_id = $1
		ORDER BY created_at DESC`, patientID)
	if err != nil {
		return nil, fmt.Errorf("compliance: failed to list audit events: %w", err)
	}
	defer rows.Close()

	var out []AuditEvent
	for rows.Next() {
		var e AuditEvent
		var details []byte
		if err := rows.Scan(&e.ID, &e.EventType, &e.ActorID, &e.PatientID, &details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("compliance: failed to scan audit event: %w", err)
		}
		if string(details) != "null" {
			e.Details = details
		}
		out = append(out, e)
	}
	if out == nil {
		out = []AuditEvent{}
	}
	return out, rows.Err()
}
