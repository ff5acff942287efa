package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/psiclinic/platform/pkg/logging"
)

// RecipientResolver maps a notification recipient to an email address. It
// returns an error when the recipient has no address on file.
type RecipientResolver interface {
	EmailFor(ctx context.Context, recipientID string) (address, name string, err error)
}

// Service stores in-app notifications and optionally fans them out to email.
// It satisfies the Notifier interfaces the domain services consume.
type Service struct {
	repo     Repository
	email    EmailSender
	resolver RecipientResolver
	logger   *logging.Logger
	now      func() time.Time
}

// NewService constructs the notifications service. email and resolver may be
// nil; notifications then stay in-app only.
func NewService(repo Repository, email EmailSender, resolver RecipientResolver, logger *logging.Logger) *Service {
	if repo == nil {
		panic("notifications: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, email: email, resolver: resolver, logger: logger, now: time.Now}
}

// Notify records an in-app notification and, when email is configured,
// mirrors it to the recipient's inbox. Delivery failures are logged, never
// surfaced: notifying must not fail the action that triggered it.
func (s *Service) Notify(ctx context.Context, recipientID, kind, message string) {
	n := &Notification{
		ID:          uuid.New().String(),
		RecipientID: recipientID,
		Kind:        kind,
		Message:     message,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		s.logger.Error("failed to store notification", "error", err, "recipient_id", recipientID, "kind", kind)
		return
	}

	if s.email == nil || s.resolver == nil {
		return
	}
	address, name, err := s.resolver.EmailFor(ctx, recipientID)
	if err != nil || address == "" {
		return
	}
	if err := s.email.Send(ctx, EmailMessage{
		To:      address,
		ToName:  name,
		Subject: subjectFor(kind),
		Body:    message,
	}); err != nil {
		s.logger.Error("failed to email notification", "error", err, "recipient_id", recipientID, "kind", kind)
	}
}

// List returns the recipient's notifications, newest first.
func (s *Service) List(ctx context.Context, recipientID string) ([]*Notification, error) {
	return s.repo.ListByRecipient(ctx, recipientID)
}

// MarkRead marks one notification as read.
func (s *Service) MarkRead(ctx context.Context, id, recipientID string) error {
	return s.repo.MarkRead(ctx, id, recipientID)
}

// MarkAllRead marks all of the recipient's notifications as read.
func (s *Service) MarkAllRead(ctx context.Context, recipientID string) error {
	return s.repo.MarkAllRead(ctx, recipientID)
}

func subjectFor(kind string) string {
	switch kind {
	case "session_booked":
		return "New session booked"
	case "session_cancelled":
		return "Session cancelled"
	case "payment_recorded":
		return "Payment recorded"
	case "patient_invited":
		return "You were invited to PsiClinic"
	case "intake_completed":
		return "Intake conversation completed"
	default:
		return "PsiClinic notification"
	}
}
