package intake

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/psiclinic/platform/internal/observability/metrics"
	"github.com/psiclinic/platform/internal/patients"
	"github.com/psiclinic/platform/pkg/logging"
)

var intakeTracer = otel.Tracer("psiclinic.internal.intake")

// ErrIntakeCompleted is returned when a patient writes after their intake is
// already finished.
var ErrIntakeCompleted = errors.New("intake already completed")

// Notifier delivers the completion notice to the professional.
type Notifier interface {
	Notify(ctx context.Context, recipientID, kind, message string)
}

// Reply is the assistant's answer to one patient message.
type Reply struct {
	Message   string `json:"message"`
	Completed bool   `json:"completed"`
}

// Service drives the guided intake conversation: it keeps the transcript in
// Redis, asks the model for the next question, and flags the patient record
// when the conversation finishes.
type Service struct {
	llm      LLMClient
	store    *TranscriptStore
	patients patients.Repository
	notifier Notifier
	metrics  *metrics.IntakeMetrics
	logger   *logging.Logger

	// maxTurns bounds the conversation; hitting it completes the intake
	// even if the model never emitted the completion marker.
	maxTurns int
}

// NewService constructs the intake service. store, notifier and metrics may
// be nil.
func NewService(llm LLMClient, store *TranscriptStore, patientRepo patients.Repository, notifier Notifier, maxTurns int, logger *logging.Logger) *Service {
	if llm == nil {
		panic("intake: llm client required")
	}
	if patientRepo == nil {
		panic("intake: patient repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if maxTurns <= 0 {
		maxTurns = 20
	}
	return &Service{
		llm:      llm,
		store:    store,
		patients: patientRepo,
		notifier: notifier,
		logger:   logger,
		maxTurns: maxTurns,
	}
}

// WithMetrics attaches prometheus instrumentation.
func (s *Service) WithMetrics(m *metrics.IntakeMetrics) *Service {
	s.metrics = m
	return s
}

// HandleMessage processes one patient message and returns the assistant's
// reply.
func (s *Service) HandleMessage(ctx context.Context, patientID, text string) (*Reply, error) {
	ctx, span := intakeTracer.Start(ctx, "intake.handle_message")
	defer span.End()
	span.SetAttributes(attribute.String("psiclinic.patient_id", patientID))

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("intake: message is required")
	}

	patient, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if patient.IntakeCompleted {
		s.metrics.ObserveTurn("already_completed", 0)
		return nil, ErrIntakeCompleted
	}

	history, err := s.store.List(ctx, patientID)
	if err != nil {
		// A lost transcript degrades the conversation, it does not stop it.
		s.logger.Error("failed to load intake transcript", "error", err, "patient_id", patientID)
		history = nil
	}

	userMsg := ChatMessage{Role: ChatRoleUser, Content: text}
	if err := s.store.Append(ctx, patientID, userMsg); err != nil {
		s.logger.Error("failed to store intake message", "error", err, "patient_id", patientID)
	}

	began := time.Now()
	resp, err := s.llm.Complete(ctx, LLMRequest{
		System:      []string{systemPrompt},
		Messages:    append(history, userMsg),
		Temperature: 0.4,
		MaxTokens:   1024,
	})
	llmSeconds := time.Since(began).Seconds()
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveTurn("error", llmSeconds)
		return nil, fmt.Errorf("intake: completion failed: %w", err)
	}

	completed := strings.Contains(resp.Text, completionMarker)
	replyText := strings.TrimSpace(strings.ReplaceAll(resp.Text, completionMarker, ""))

	if err := s.store.Append(ctx, patientID, ChatMessage{Role: ChatRoleAssistant, Content: replyText}); err != nil {
		s.logger.Error("failed to store intake reply", "error", err, "patient_id", patientID)
	}

	userTurns := 1
	for _, msg := range history {
		if msg.Role == ChatRoleUser {
			userTurns++
		}
	}
	if userTurns >= s.maxTurns {
		completed = true
	}

	if completed {
		s.completeIntake(ctx, patient)
		s.metrics.ObserveTurn("completed", llmSeconds)
	} else {
		s.metrics.ObserveTurn("ok", llmSeconds)
	}

	return &Reply{Message: replyText, Completed: completed}, nil
}

// Transcript returns the stored conversation for a patient.
func (s *Service) Transcript(ctx context.Context, patientID string) ([]ChatMessage, error) {
	if _, err := s.patients.GetByID(ctx, patientID); err != nil {
		return nil, err
	}
	msgs, err := s.store.List(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []ChatMessage{}
	}
	return msgs, nil
}

// ErasePatientData removes the stored conversation. The patients handler
// calls it when a record is erased under LGPD.
func (s *Service) ErasePatientData(ctx context.Context, patientID string) error {
	if s.store == nil {
		return nil
	}
	return s.store.Clear(ctx, patientID)
}

func (s *Service) completeIntake(ctx context.Context, patient *patients.Patient) {
	patient.IntakeCompleted = true
	if err := s.patients.Update(ctx, patient); err != nil {
		s.logger.Error("failed to flag intake completed", "error", err, "patient_id", patient.ID)
		return
	}
	s.logger.Info("intake completed", "patient_id", patient.ID)
	if s.notifier != nil {
		s.notifier.Notify(ctx, patient.ProfessionalID, "intake_completed",
			fmt.Sprintf("%s finished the intake conversation", patient.Name))
	}
}
