package sessions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/psiclinic/platform/internal/identity"
	"github.com/psiclinic/platform/internal/observability/metrics"
	"github.com/psiclinic/platform/internal/scheduling"
	"github.com/psiclinic/platform/internal/sessiontypes"
	"github.com/psiclinic/platform/pkg/logging"
)

var sessionsTracer = otel.Tracer("psiclinic.internal.sessions")

// Catalog resolves session types for duration and price.
type Catalog interface {
	GetByID(ctx context.Context, id string) (*sessiontypes.SessionType, error)
}

// Notifier delivers in-app notifications. Recipient is a user ID for
// professionals and a patient profile ID for patients. Implementations must
// not block the booking path.
type Notifier interface {
	Notify(ctx context.Context, recipientID, kind, message string)
}

// Service owns the session lifecycle: availability, booking with commit-time
// re-validation, and status transitions.
type Service struct {
	repo     Repository
	catalog  Catalog
	notifier Notifier
	policy   scheduling.Policy
	logger   *logging.Logger

	schedMetrics   *metrics.SchedulingMetrics
	bookingMetrics *metrics.BookingMetrics

	now func() time.Time
}

// NewService constructs the sessions service. notifier and the metrics may
// be nil.
func NewService(repo Repository, catalog Catalog, notifier Notifier, policy scheduling.Policy, logger *logging.Logger) *Service {
	if repo == nil {
		panic("sessions: repository required")
	}
	if catalog == nil {
		panic("sessions: session type catalog required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:     repo,
		catalog:  catalog,
		notifier: notifier,
		policy:   policy,
		logger:   logger,
		now:      time.Now,
	}
}

// WithMetrics attaches prometheus instrumentation.
func (s *Service) WithMetrics(sched *metrics.SchedulingMetrics, booking *metrics.BookingMetrics) *Service {
	s.schedMetrics = sched
	s.bookingMetrics = booking
	return s
}

// Availability returns the bookable slots for a professional and session
// type over the policy window, starting now.
func (s *Service) Availability(ctx context.Context, professionalID, sessionTypeID string) ([]scheduling.DaySlots, error) {
	ctx, span := sessionsTracer.Start(ctx, "sessions.availability")
	defer span.End()
	span.SetAttributes(attribute.String("psiclinic.professional_id", professionalID))

	began := s.now()
	days, err := s.computeAvailability(ctx, professionalID, sessionTypeID, began)
	elapsed := time.Since(began).Seconds()
	if err != nil {
		span.RecordError(err)
		s.schedMetrics.ObserveCompute("error", elapsed, 0)
		return nil, err
	}

	total := 0
	for _, d := range days {
		total += len(d.Slots)
	}
	s.schedMetrics.ObserveCompute("ok", elapsed, total)
	return days, nil
}

// Book commits a session at an offered slot. The slot is re-validated
// against the live calendar inside this call: a start that is no longer
// offered because another session overlaps it fails with ErrSlotConflict.
func (s *Service) Book(ctx context.Context, req *BookRequest) (*Session, error) {
	ctx, span := sessionsTracer.Start(ctx, "sessions.book")
	defer span.End()

	if err := req.Validate(); err != nil {
		s.bookingMetrics.ObserveBooking("invalid")
		return nil, err
	}
	span.SetAttributes(
		attribute.String("psiclinic.professional_id", req.ProfessionalID),
		attribute.String("psiclinic.patient_id", req.PatientID),
	)

	st, err := s.sessionType(ctx, req.SessionTypeID)
	if err != nil {
		s.bookingMetrics.ObserveBooking("invalid")
		return nil, err
	}

	now := s.now()
	days, err := s.computeAvailability(ctx, req.ProfessionalID, req.SessionTypeID, now)
	if err != nil {
		return nil, err
	}
	if !slotOffered(days, req.StartTime) {
		end := req.StartTime.Add(time.Duration(st.DurationMinutes) * time.Minute)
		taken, cErr := s.hasOverlap(ctx, req.ProfessionalID, req.StartTime, end)
		if cErr != nil {
			return nil, cErr
		}
		if taken {
			span.RecordError(ErrSlotConflict)
			s.bookingMetrics.ObserveBooking("conflict")
			return nil, ErrSlotConflict
		}
		s.bookingMetrics.ObserveBooking("unavailable")
		return nil, ErrSlotUnavailable
	}

	session := &Session{
		ID:             uuid.New().String(),
		ProfessionalID: req.ProfessionalID,
		PatientID:      req.PatientID,
		SessionTypeID:  st.ID,
		StartTime:      req.StartTime.UTC(),
		EndTime:        req.StartTime.Add(time.Duration(st.DurationMinutes) * time.Minute).UTC(),
		Status:         scheduling.StatusScheduled,
		PriceCents:     st.PriceCents,
		CreatedAt:      now.UTC(),
	}
	if err := s.repo.Create(ctx, session); err != nil {
		span.RecordError(err)
		s.bookingMetrics.ObserveBooking("error")
		return nil, err
	}

	s.bookingMetrics.ObserveBooking("booked")
	s.logger.Info("session booked",
		"session_id", session.ID,
		"professional_id", session.ProfessionalID,
		"patient_id", session.PatientID,
		"start", session.StartTime,
	)
	// The side that did not book gets told about it.
	when := session.StartTime.In(s.policy.Location).Format("Mon 02 Jan 15:04")
	if req.ActorRole == identity.RoleProfessional {
		s.notify(ctx, session.PatientID, "session_booked",
			fmt.Sprintf("Your %s session is booked for %s", st.Name, when))
	} else {
		s.notify(ctx, session.ProfessionalID, "session_booked",
			fmt.Sprintf("New %s session booked for %s", st.Name, when))
	}
	return session, nil
}

// Cancel marks a scheduled session as cancelled by the patient, freeing its
// slot for rebooking.
func (s *Service) Cancel(ctx context.Context, id string) (*Session, error) {
	session, err := s.transition(ctx, id, scheduling.StatusCancelledByPatient)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, session.ProfessionalID, "session_cancelled",
		fmt.Sprintf("Session on %s was cancelled by the patient", session.StartTime.In(s.policy.Location).Format("Mon 02 Jan 15:04")))
	return session, nil
}

// Complete marks a scheduled session as completed, optionally recording the
// patient's satisfaction score and the professional's session notes.
func (s *Service) Complete(ctx context.Context, id string, req *CompleteRequest) (*Session, error) {
	if req == nil {
		req = &CompleteRequest{}
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	session, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Status != scheduling.StatusScheduled {
		return nil, ErrInvalidTransition
	}
	session.Status = scheduling.StatusCompleted
	if req.Satisfaction != nil {
		session.Satisfaction = req.Satisfaction
	}
	if req.Notes != "" {
		session.Notes = req.Notes
	}
	if err := s.repo.Update(ctx, session); err != nil {
		return nil, err
	}
	s.bookingMetrics.ObserveTransition(string(scheduling.StatusCompleted))
	s.logger.Info("session status changed", "session_id", session.ID, "status", scheduling.StatusCompleted)
	return session, nil
}

// MarkNoShow marks a scheduled session as a no-show. The interval keeps
// blocking the calendar for record keeping.
func (s *Service) MarkNoShow(ctx context.Context, id string) (*Session, error) {
	return s.transition(ctx, id, scheduling.StatusNoShow)
}

// MarkPaid records payment for a session and notifies the patient.
func (s *Service) MarkPaid(ctx context.Context, id string) (*Session, error) {
	session, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Paid {
		return session, nil
	}
	session.Paid = true
	if err := s.repo.Update(ctx, session); err != nil {
		return nil, err
	}
	s.logger.Info("session paid", "session_id", session.ID, "price_cents", session.PriceCents)
	s.notify(ctx, session.PatientID, "payment_recorded",
		fmt.Sprintf("Payment of %s recorded for your session on %s",
			FormatPrice(session.PriceCents),
			session.StartTime.In(s.policy.Location).Format("02 Jan")))
	return session, nil
}

// ListForProfessional returns a professional's agenda.
func (s *Service) ListForProfessional(ctx context.Context, professionalID string) ([]*Session, error) {
	return s.repo.ListByProfessional(ctx, professionalID)
}

// ListForPatient returns a patient's sessions.
func (s *Service) ListForPatient(ctx context.Context, patientID string) ([]*Session, error) {
	return s.repo.ListByPatient(ctx, patientID)
}

// Get returns a single session.
func (s *Service) Get(ctx context.Context, id string) (*Session, error) {
	return s.repo.GetByID(ctx, id)
}

// ErasePatientData removes a patient's sessions when their record is erased.
func (s *Service) ErasePatientData(ctx context.Context, patientID string) error {
	return s.repo.DeleteByPatient(ctx, patientID)
}

func (s *Service) computeAvailability(ctx context.Context, professionalID, sessionTypeID string, windowStart time.Time) ([]scheduling.DaySlots, error) {
	st, err := s.sessionType(ctx, sessionTypeID)
	if err != nil {
		return nil, err
	}

	from := windowStart.In(s.policy.Location)
	dayStart := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, s.policy.Location)
	// Trailing sessions may run past closing, so load a day beyond the window.
	to := dayStart.AddDate(0, 0, s.policy.WindowDays+1)

	committed, err := s.repo.ListByProfessionalBetween(ctx, professionalID, dayStart, to)
	if err != nil {
		return nil, err
	}

	intervals := make([]scheduling.SessionInterval, 0, len(committed))
	for _, session := range committed {
		intervals = append(intervals, session.Interval())
	}
	return scheduling.ComputeAvailableSlots(intervals, st.DurationMinutes, windowStart, s.policy)
}

func (s *Service) sessionType(ctx context.Context, id string) (*sessiontypes.SessionType, error) {
	st, err := s.catalog.GetByID(ctx, id)
	if err != nil {
		return nil, ErrUnknownSessionType
	}
	return st, nil
}

func (s *Service) hasOverlap(ctx context.Context, professionalID string, start, end time.Time) (bool, error) {
	committed, err := s.repo.ListByProfessionalBetween(ctx, professionalID, start, end)
	if err != nil {
		return false, err
	}
	for _, session := range committed {
		if session.Status.Blocks() && scheduling.Overlaps(start, end, session.StartTime, session.EndTime) {
			return true, nil
		}
	}
	return false, nil
}

// transition enforces that lifecycle changes only leave the scheduled state.
func (s *Service) transition(ctx context.Context, id string, to scheduling.SessionStatus) (*Session, error) {
	session, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Status != scheduling.StatusScheduled {
		return nil, ErrInvalidTransition
	}
	session.Status = to
	if err := s.repo.Update(ctx, session); err != nil {
		return nil, err
	}
	s.bookingMetrics.ObserveTransition(string(to))
	s.logger.Info("session status changed", "session_id", session.ID, "status", to)
	return session, nil
}

func (s *Service) notify(ctx context.Context, recipientID, kind, message string) {
	if s.notifier == nil || recipientID == "" {
		return
	}
	s.notifier.Notify(ctx, recipientID, kind, message)
}

func slotOffered(days []scheduling.DaySlots, start time.Time) bool {
	for _, d := range days {
		for _, slot := range d.Slots {
			if slot.Equal(start) {
				return true
			}
		}
	}
	return false
}

// FormatPrice renders cents as Brazilian reais, e.g. 18000 -> "R$ 180,00".
func FormatPrice(cents int64) string {
	return fmt.Sprintf("R$ %d,%02d", cents/100, cents%100)
}
