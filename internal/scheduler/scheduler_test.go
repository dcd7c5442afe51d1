package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/barberia/internal/config"
	"github.com/mamadbah2/barberia/internal/domain/models"
	"github.com/mamadbah2/barberia/internal/service/reporting"
)

type stubJournal struct {
	entries []models.JournalEntry
	err     error
}

func (j *stubJournal) Record(context.Context, models.JournalEntry) error { return nil }

func (j *stubJournal) EntriesBetween(context.Context, time.Time, time.Time) ([]models.JournalEntry, error) {
	return j.entries, j.err
}

type stubNotifier struct {
	sent []models.OutboundMessageRequest
}

func (n *stubNotifier) SendOutbound(_ context.Context, req models.OutboundMessageRequest) error {
	n.sent = append(n.sent, req)
	return nil
}

func newTestScheduler(journal *stubJournal, notifier *stubNotifier, schedule string) *Scheduler {
	cfg := config.DigestConfig{OwnerPhone: "573000000000", CronSchedule: schedule}
	s := NewScheduler(cfg, time.UTC, reporting.NewService(journal, time.UTC, nil), notifier, nil)
	s.now = func() time.Time { return time.Date(2026, 10, 15, 20, 0, 0, 0, time.UTC) }
	return s
}

func TestSendDailyDigest(t *testing.T) {
	journal := &stubJournal{entries: []models.JournalEntry{
		{Action: models.JournalBooked, Success: true, Date: "2026-10-16", Time: "09:00", StaffMember: "Carlos", CustomerName: "Juan", ServiceName: "Corte", Price: 20000},
	}}
	notifier := &stubNotifier{}

	newTestScheduler(journal, notifier, "0 20 * * *").sendDailyDigest()

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "573000000000", notifier.sent[0].To)
	assert.Contains(t, notifier.sent[0].Message, "Resumen del día 2026-10-15")
	assert.Contains(t, notifier.sent[0].Message, "Juan")
}

func TestSendDailyDigestSkipsOnJournalError(t *testing.T) {
	notifier := &stubNotifier{}

	newTestScheduler(&stubJournal{err: errors.New("mongo down")}, notifier, "0 20 * * *").sendDailyDigest()

	assert.Empty(t, notifier.sent)
}

func TestStartRejectsInvalidSchedule(t *testing.T) {
	s := newTestScheduler(&stubJournal{}, &stubNotifier{}, "every evening")
	assert.Error(t, s.Start())
}

func TestStartAndStop(t *testing.T) {
	s := newTestScheduler(&stubJournal{}, &stubNotifier{}, "0 20 * * *")
	require.NoError(t, s.Start())
	s.Stop()
}
