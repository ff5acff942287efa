package notifications

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psiclinic/platform/pkg/logging"
)

type recordingSender struct {
	sent []EmailMessage
	fail bool
}

func (s *recordingSender) Send(ctx context.Context, msg EmailMessage) error {
	if s.fail {
		return errors.New("smtp down")
	}
	s.sent = append(s.sent, msg)
	return nil
}

type staticResolver map[string]string

func (r staticResolver) EmailFor(ctx context.Context, recipientID string) (string, string, error) {
	addr, ok := r[recipientID]
	if !ok {
		return "", "", errors.New("no address on file")
	}
	return addr, "Recipient", nil
}

func TestNotifyStoresAndEmails(t *testing.T) {
	repo := NewInMemoryRepository()
	sender := &recordingSender{}
	svc := NewService(repo, sender, staticResolver{"pat-1": "ana@example.com"}, logging.Default())

	svc.Notify(context.Background(), "pat-1", "payment_recorded", "Payment of R$ 180,00 recorded")

	list, err := svc.List(context.Background(), "pat-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "payment_recorded", list[0].Kind)
	assert.False(t, list[0].Read)

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "ana@example.com", sender.sent[0].To)
	assert.Equal(t, "Payment recorded", sender.sent[0].Subject)
}

func TestNotifySurvivesEmailFailure(t *testing.T) {
	repo := NewInMemoryRepository()
	sender := &recordingSender{fail: true}
	svc := NewService(repo, sender, staticResolver{"pat-1": "ana@example.com"}, logging.Default())

	svc.Notify(context.Background(), "pat-1", "session_booked", "New session booked")

	list, err := svc.List(context.Background(), "pat-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestNotifyWithoutResolverStaysInApp(t *testing.T) {
	repo := NewInMemoryRepository()
	sender := &recordingSender{}
	svc := NewService(repo, sender, nil, logging.Default())

	svc.Notify(context.Background(), "prof-1", "session_cancelled", "Session cancelled")

	assert.Empty(t, sender.sent)
	list, err := svc.List(context.Background(), "prof-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMarkReadScopedToRecipient(t *testing.T) {
	repo := NewInMemoryRepository()
	svc := NewService(repo, nil, nil, logging.Default())

	svc.Notify(context.Background(), "pat-1", "session_booked", "one")
	svc.Notify(context.Background(), "pat-1", "session_booked", "two")

	list, err := svc.List(context.Background(), "pat-1")
	require.NoError(t, err)
	require.Len(t, list, 2)

	// Another recipient cannot mark it.
	err = svc.MarkRead(context.Background(), list[0].ID, "pat-2")
	assert.ErrorIs(t, err, ErrNotificationNotFound)

	require.NoError(t, svc.MarkRead(context.Background(), list[0].ID, "pat-1"))
	require.NoError(t, svc.MarkAllRead(context.Background(), "pat-1"))

	list, err = svc.List(context.Background(), "pat-1")
	require.NoError(t, err)
	for _, n := range list {
		assert.True(t, n.Read)
	}
}
