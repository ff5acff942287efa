package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psiclinic/platform/internal/identity"
	"github.com/psiclinic/platform/internal/scheduling"
	"github.com/psiclinic/platform/internal/sessiontypes"
	"github.com/psiclinic/platform/pkg/logging"
)

// Monday 2026-01-05 08:00 UTC, one hour before the clinic opens.
var testNow = time.Date(2026, time.January, 5, 8, 0, 0, 0, time.UTC)

type notification struct {
	recipientID string
	kind        string
	message     string
}

type recordingNotifier struct {
	sent []notification
}

func (n *recordingNotifier) Notify(ctx context.Context, recipientID, kind, message string) {
	n.sent = append(n.sent, notification{recipientID, kind, message})
}

func newTestSessionsService(t *testing.T) (*Service, *InMemoryRepository, *recordingNotifier, string) {
	t.Helper()

	catalog := sessiontypes.NewInMemoryRepository()
	st, err := catalog.Create(context.Background(), &sessiontypes.CreateRequest{
		Name:            "Individual Therapy",
		DurationMinutes: 50,
		PriceCents:      18000,
	})
	require.NoError(t, err)

	repo := NewInMemoryRepository()
	notifier := &recordingNotifier{}
	svc := NewService(repo, catalog, notifier, scheduling.DefaultPolicy(time.UTC), logging.Default())
	svc.now = func() time.Time { return testNow }
	return svc, repo, notifier, st.ID
}

func TestBookAtOfferedSlot(t *testing.T) {
	svc, _, notifier, stID := newTestSessionsService(t)

	start := time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC)
	session, err := svc.Book(context.Background(), &BookRequest{
		ProfessionalID: "prof-1",
		PatientID:      "pat-1",
		SessionTypeID:  stID,
		StartTime:      start,
	})
	require.NoError(t, err)

	assert.Equal(t, start, session.StartTime)
	assert.Equal(t, start.Add(50*time.Minute), session.EndTime)
	assert.Equal(t, scheduling.StatusScheduled, session.Status)
	assert.Equal(t, int64(18000), session.PriceCents)
	assert.False(t, session.Paid)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "prof-1", notifier.sent[0].recipientID)
	assert.Equal(t, "session_booked", notifier.sent[0].kind)
}

func TestBookByProfessionalNotifiesPatient(t *testing.T) {
	svc, _, notifier, stID := newTestSessionsService(t)

	_, err := svc.Book(context.Background(), &BookRequest{
		ProfessionalID: "prof-1",
		PatientID:      "pat-1",
		SessionTypeID:  stID,
		StartTime:      time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC),
		ActorRole:      identity.RoleProfessional,
	})
	require.NoError(t, err)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "pat-1", notifier.sent[0].recipientID)
	assert.Equal(t, "session_booked", notifier.sent[0].kind)
}

func TestBookTakenSlotConflicts(t *testing.T) {
	svc, _, _, stID := newTestSessionsService(t)

	start := time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC)
	_, err := svc.Book(context.Background(), &BookRequest{
		ProfessionalID: "prof-1", PatientID: "pat-1", SessionTypeID: stID, StartTime: start,
	})
	require.NoError(t, err)

	// Same slot again, and a slot inside the booked interval.
	_, err = svc.Book(context.Background(), &BookRequest{
		ProfessionalID: "prof-1", PatientID: "pat-2", SessionTypeID: stID, StartTime: start,
	})
	assert.ErrorIs(t, err, ErrSlotConflict)

	_, err = svc.Book(context.Background(), &BookRequest{
		ProfessionalID: "prof-1", PatientID: "pat-2", SessionTypeID: stID,
		StartTime: start.Add(30 * time.Minute),
	})
	assert.ErrorIs(t, err, ErrSlotConflict)
}

func TestBookOutsideOfferedSlots(t *testing.T) {
	svc, _, _, stID := newTestSessionsService(t)

	cases := []struct {
		name  string
		start time.Time
	}{
		{"before opening", time.Date(2026, time.January, 5, 8, 30, 0, 0, time.UTC)},
		{"misaligned", time.Date(2026, time.January, 5, 9, 15, 0, 0, time.UTC)},
		{"weekend", time.Date(2026, time.January, 10, 10, 0, 0, 0, time.UTC)},
		{"in the past", time.Date(2026, time.January, 2, 10, 0, 0, 0, time.UTC)},
		{"beyond window", time.Date(2026, time.February, 2, 10, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Book(context.Background(), &BookRequest{
				ProfessionalID: "prof-1", PatientID: "pat-1", SessionTypeID: stID, StartTime: tc.start,
			})
			assert.ErrorIs(t, err, ErrSlotUnavailable)
		})
	}
}

func TestCancelFreesSlotForRebooking(t *testing.T) {
	svc, _, notifier, stID := newTestSessionsService(t)

	start := time.Date(2026, time.January, 5, 10, 0, 0, 0, time.UTC)
	session, err := svc.Book(context.Background(), &BookRequest{
		ProfessionalID: "prof-1", PatientID: "pat-1", SessionTypeID: stID, StartTime: start,
	})
	require.NoError(t, err)

	cancelled, err := svc.Cancel(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, scheduling.StatusCancelledByPatient, cancelled.Status)

	// The professional hears about the cancellation.
	last := notifier.sent[len(notifier.sent)-1]
	assert.Equal(t, "session_cancelled", last.kind)
	assert.Equal(t, "prof-1", last.recipientID)

	// The freed slot can be booked again.
	rebooked, err := svc.Book(context.Background(), &BookRequest{
		ProfessionalID: "prof-1", PatientID: "pat-2", SessionTypeID: stID, StartTime: start,
	})
	require.NoError(t, err)
	assert.Equal(t, start, rebooked.StartTime)
}

func TestAvailabilityOmitsBlockedSlots(t *testing.T) {
	svc, _, _, stID := newTestSessionsService(t)

	start := time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC)
	_, err := svc.Book(context.Background(), &BookRequest{
		ProfessionalID: "prof-1", PatientID: "pat-1", SessionTypeID: stID, StartTime: start,
	})
	require.NoError(t, err)

	days, err := svc.Availability(context.Background(), "prof-1", stID)
	require.NoError(t, err)
	require.NotEmpty(t, days)

	monday := days[0]
	assert.Equal(t, time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC), monday.Day)
	for _, slot := range monday.Slots {
		assert.False(t, scheduling.Overlaps(slot, slot.Add(50*time.Minute), start, start.Add(50*time.Minute)),
			"offered slot %v overlaps the booked session", slot)
	}
	// 09:00 and 09:30 are gone; 10:00 survives.
	assert.Equal(t, time.Date(2026, time.January, 5, 10, 0, 0, 0, time.UTC), monday.Slots[0])
}

func TestAvailabilityForOtherProfessionalUnaffected(t *testing.T) {
	svc, _, _, stID := newTestSessionsService(t)

	start := time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC)
	_, err := svc.Book(context.Background(), &BookRequest{
		ProfessionalID: "prof-1", PatientID: "pat-1", SessionTypeID: stID, StartTime: start,
	})
	require.NoError(t, err)

	days, err := svc.Availability(context.Background(), "prof-2", stID)
	require.NoError(t, err)
	require.NotEmpty(t, days)
	assert.Equal(t, start, days[0].Slots[0])
}

func TestStatusTransitionsLeaveScheduledOnly(t *testing.T) {
	svc, _, _, stID := newTestSessionsService(t)

	session, err := svc.Book(context.Background(), &BookRequest{
		ProfessionalID: "prof-1", PatientID: "pat-1", SessionTypeID: stID,
		StartTime: time.Date(2026, time.January, 5, 11, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	score := 5
	completed, err := svc.Complete(context.Background(), session.ID, &CompleteRequest{
		Satisfaction: &score,
		Notes:        "Good progress on sleep routine",
	})
	require.NoError(t, err)
	assert.Equal(t, scheduling.StatusCompleted, completed.Status)
	require.NotNil(t, completed.Satisfaction)
	assert.Equal(t, 5, *completed.Satisfaction)
	assert.Equal(t, "Good progress on sleep routine", completed.Notes)

	_, err = svc.Cancel(context.Background(), session.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = svc.MarkNoShow(context.Background(), session.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.Complete(context.Background(), "missing", nil)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestCompleteRejectsOutOfRangeSatisfaction(t *testing.T) {
	svc, _, _, stID := newTestSessionsService(t)

	session, err := svc.Book(context.Background(), &BookRequest{
		ProfessionalID: "prof-1", PatientID: "pat-1", SessionTypeID: stID,
		StartTime: time.Date(2026, time.January, 6, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	for _, score := range []int{0, 6, -1} {
		_, err := svc.Complete(context.Background(), session.ID, &CompleteRequest{Satisfaction: &score})
		assert.ErrorIs(t, err, ErrInvalidSatisfaction, "score %d", score)
	}
}

func TestMarkPaidNotifiesPatientOnce(t *testing.T) {
	svc, _, notifier, stID := newTestSessionsService(t)

	session, err := svc.Book(context.Background(), &BookRequest{
		ProfessionalID: "prof-1", PatientID: "pat-1", SessionTypeID: stID,
		StartTime: time.Date(2026, time.January, 5, 14, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	sent := len(notifier.sent)

	paid, err := svc.MarkPaid(context.Background(), session.ID)
	require.NoError(t, err)
	assert.True(t, paid.Paid)

	require.Len(t, notifier.sent, sent+1)
	last := notifier.sent[len(notifier.sent)-1]
	assert.Equal(t, "pat-1", last.recipientID)
	assert.Equal(t, "payment_recorded", last.kind)
	assert.Contains(t, last.message, "R$ 180,00")

	// Marking again is a no-op.
	_, err = svc.MarkPaid(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Len(t, notifier.sent, sent+1)
}

func TestBookUnknownSessionType(t *testing.T) {
	svc, _, _, _ := newTestSessionsService(t)

	_, err := svc.Book(context.Background(), &BookRequest{
		ProfessionalID: "prof-1", PatientID: "pat-1", SessionTypeID: "nope",
		StartTime: time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, ErrUnknownSessionType)

	_, err = svc.Availability(context.Background(), "prof-1", "nope")
	assert.ErrorIs(t, err, ErrUnknownSessionType)
}

func TestErasePatientDataFreesCalendar(t *testing.T) {
	svc, _, _, stID := newTestSessionsService(t)

	start := time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC)
	_, err := svc.Book(context.Background(), &BookRequest{
		ProfessionalID: "prof-1",
		PatientID:      "pat-1",
		SessionTypeID:  stID,
		StartTime:      start,
	})
	require.NoError(t, err)

	days, err := svc.Availability(context.Background(), "prof-1", stID)
	require.NoError(t, err)
	require.False(t, slotOffered(days, start))

	require.NoError(t, svc.ErasePatientData(context.Background(), "pat-1"))

	days, err = svc.Availability(context.Background(), "prof-1", stID)
	require.NoError(t, err)
	assert.True(t, slotOffered(days, start))
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "R$ 180,00", FormatPrice(18000))
	assert.Equal(t, "R$ 0,50", FormatPrice(50))
	assert.Equal(t, "R$ 1234,05", FormatPrice(123405))
}
