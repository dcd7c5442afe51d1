package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/barberia/internal/domain/models"
	"github.com/mamadbah2/barberia/internal/metrics"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) BusySlots(ctx context.Context, staff, date string) ([]string, error) {
	args := m.Called(ctx, staff, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockBackend) CreateBooking(ctx context.Context, draft models.Draft) error {
	return m.Called(ctx, draft).Error(0)
}

func (m *mockBackend) FindBookings(ctx context.Context, name string) ([]models.Booking, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *mockBackend) CancelBooking(ctx context.Context, ref models.BookingRef) error {
	return m.Called(ctx, ref).Error(0)
}

type memJournal struct {
	entries []models.JournalEntry
	err     error
}

func (j *memJournal) Record(_ context.Context, entry models.JournalEntry) error {
	if j.err != nil {
		return j.err
	}
	j.entries = append(j.entries, entry)
	return nil
}

func (j *memJournal) EntriesBetween(context.Context, time.Time, time.Time) ([]models.JournalEntry, error) {
	return j.entries, nil
}

func validDraft() models.Draft {
	return models.Draft{
		CustomerName: "Juan Perez",
		Phone:        "3001234567",
		StaffMember:  "Carlos",
		Date:         "2026-10-16",
		Time:         "09:00",
		Service:      &models.Service{ID: "1", Name: "Corte", Price: 20000},
	}
}

func TestCommitSuccess(t *testing.T) {
	backend := new(mockBackend)
	journal := &memJournal{}
	draft := validDraft()
	backend.On("CreateBooking", mock.Anything, draft).Return(nil).Once()

	c := NewCommitter(backend, journal, time.Second, nil)
	require.NoError(t, c.Commit(context.Background(), draft))

	backend.AssertExpectations(t)
	require.Len(t, journal.entries, 1)
	assert.Equal(t, models.JournalBooked, journal.entries[0].Action)
	assert.True(t, journal.entries[0].Success)
	assert.Equal(t, "Corte", journal.entries[0].ServiceName)
	assert.False(t, journal.entries[0].CreatedAt.IsZero())
}

func TestCommitBackendFailure(t *testing.T) {
	backend := new(mockBackend)
	journal := &memJournal{}
	draft := validDraft()
	backend.On("CreateBooking", mock.Anything, draft).Return(errors.New("timeout")).Once()

	c := NewCommitter(backend, journal, time.Second, nil)
	err := c.Commit(context.Background(), draft)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")

	require.Len(t, journal.entries, 1)
	assert.False(t, journal.entries[0].Success)
	assert.Equal(t, "timeout", journal.entries[0].Error)
}

// commitCount reads the commit counter for one outcome from the default registry.
func commitCount(t *testing.T, outcome string) float64 {
	t.Helper()
	metrics.Register()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "barberia_booking_commits_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "outcome" && l.GetValue() == outcome {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestCommitRejectsInvalidDraft(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *models.Draft)
	}{
		{"missing name", func(d *models.Draft) { d.CustomerName = "" }},
		{"short phone", func(d *models.Draft) { d.Phone = "12" }},
		{"missing staff", func(d *models.Draft) { d.StaffMember = "" }},
		{"bad date", func(d *models.Draft) { d.Date = "16/10/2026" }},
		{"bad time", func(d *models.Draft) { d.Time = "9am" }},
		{"missing service", func(d *models.Draft) { d.Service = nil }},
		{"free service", func(d *models.Draft) { d.Service = &models.Service{ID: "9", Name: "Gratis"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := new(mockBackend)
			journal := &memJournal{}
			draft := validDraft()
			tt.mutate(&draft)

			failures := commitCount(t, "failure")
			c := NewCommitter(backend, journal, time.Second, nil)
			err := c.Commit(context.Background(), draft)

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidDraft))
			backend.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything)
			assert.Empty(t, journal.entries)
			assert.Equal(t, failures, commitCount(t, "failure"))
		})
	}
}

func TestCommitJournalFailureDoesNotFailCommit(t *testing.T) {
	backend := new(mockBackend)
	draft := validDraft()
	backend.On("CreateBooking", mock.Anything, draft).Return(nil)

	c := NewCommitter(backend, &memJournal{err: errors.New("mongo down")}, time.Second, nil)
	assert.NoError(t, c.Commit(context.Background(), draft))
}

func TestCommitAppliesTimeout(t *testing.T) {
	backend := new(mockBackend)
	draft := validDraft()
	backend.On("CreateBooking", mock.Anything, draft).Run(func(args mock.Arguments) {
		ctx := args.Get(0).(context.Context)
		deadline, ok := ctx.Deadline()
		assert.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(50*time.Millisecond), deadline, 50*time.Millisecond)
	}).Return(nil)

	c := NewCommitter(backend, nil, 50*time.Millisecond, nil)
	require.NoError(t, c.Commit(context.Background(), draft))
}

func TestFindAndCancel(t *testing.T) {
	backend := new(mockBackend)
	journal := &memJournal{}
	booking := models.Booking{
		Ref:          models.BookingRef{ID: "r1", Sheet: "Carlos"},
		CustomerName: "Juan Perez",
		StaffMember:  "Carlos",
		Date:         "2026-10-16",
		Time:         "09:00",
	}
	backend.On("FindBookings", mock.Anything, "Juan Perez").Return([]models.Booking{booking}, nil)
	backend.On("CancelBooking", mock.Anything, booking.Ref).Return(nil)

	c := NewCommitter(backend, journal, time.Second, nil)

	found, err := c.FindByName(context.Background(), "Juan Perez")
	require.NoError(t, err)
	require.Equal(t, []models.Booking{booking}, found)

	require.NoError(t, c.Cancel(context.Background(), found[0]))
	require.Len(t, journal.entries, 1)
	assert.Equal(t, models.JournalCancelled, journal.entries[0].Action)
	assert.Equal(t, "r1", journal.entries[0].BookingID)
}

func TestCancelFailure(t *testing.T) {
	backend := new(mockBackend)
	journal := &memJournal{}
	ref := models.BookingRef{ID: "r1", Sheet: "Carlos"}
	backend.On("CancelBooking", mock.Anything, ref).Return(errors.New("not ok"))

	c := NewCommitter(backend, journal, time.Second, nil)
	err := c.Cancel(context.Background(), models.Booking{Ref: ref})
	require.Error(t, err)
	require.Len(t, journal.entries, 1)
	assert.False(t, journal.entries[0].Success)
}

func TestFindFailure(t *testing.T) {
	backend := new(mockBackend)
	backend.On("FindBookings", mock.Anything, "Ana").Return(nil, errors.New("boom"))

	c := NewCommitter(backend, nil, time.Second, nil)
	_, err := c.FindByName(context.Background(), "Ana")
	require.Error(t, err)
}
