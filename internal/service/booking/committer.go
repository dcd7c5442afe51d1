// Package booking performs the terminal writes of a conversation against the
// scheduling backend.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mamadbah2/barberia/internal/domain/models"
	"github.com/mamadbah2/barberia/internal/metrics"
	"github.com/mamadbah2/barberia/internal/repository/mongodb"
	"github.com/mamadbah2/barberia/internal/repository/scheduling"
)

// ErrInvalidDraft indicates the draft is incomplete or malformed and was not sent.
var ErrInvalidDraft = errors.New("invalid booking draft")

const journalTimeout = 5 * time.Second

// Committer validates drafts and issues the single backend write per attempt. It
// never retries; the caller decides whether the user may try again.
type Committer struct {
	backend  scheduling.Backend
	journal  mongodb.Journal
	validate *validator.Validate
	timeout  time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// NewCommitter wires a committer. A nil journal records nothing.
func NewCommitter(backend scheduling.Backend, journal mongodb.Journal, timeout time.Duration, logger *zap.Logger) *Committer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if journal == nil {
		journal = mongodb.NopJournal{}
	}
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Committer{
		backend:  backend,
		journal:  journal,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		timeout:  timeout,
		now:      time.Now,
		logger:   logger,
	}
}

// Validate checks that every field required for a booking is present and well formed.
func (c *Committer) Validate(draft models.Draft) error {
	if err := c.validate.Struct(draft); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return fmt.Errorf("%w: %s failed %s", ErrInvalidDraft, fieldErrs[0].Namespace(), fieldErrs[0].Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidDraft, err)
	}
	return nil
}

// Commit writes the confirmed draft to the backend. A draft rejected by Validate never
// reaches the backend, so it is neither counted as a commit nor journaled.
func (c *Committer) Commit(ctx context.Context, draft models.Draft) error {
	if err := c.Validate(draft); err != nil {
		c.logger.Warn("booking draft rejected", zap.Error(err))
		return err
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.backend.CreateBooking(callCtx, draft)
	metrics.ObserveCommit(err == nil)

	entry := models.JournalEntry{
		Action:       models.JournalBooked,
		Success:      err == nil,
		CustomerName: draft.CustomerName,
		Phone:        draft.Phone,
		StaffMember:  draft.StaffMember,
		Date:         draft.Date,
		Time:         draft.Time,
		ServiceName:  draft.Service.Name,
		Price:        draft.Service.Price,
	}
	if err != nil {
		entry.Error = err.Error()
	}
	c.record(ctx, entry)

	if err != nil {
		c.logger.Warn("booking commit failed",
			zap.String("staff", draft.StaffMember),
			zap.String("date", draft.Date),
			zap.String("time", draft.Time),
			zap.Error(err))
		return fmt.Errorf("commit booking: %w", err)
	}

	c.logger.Info("booking committed",
		zap.String("staff", draft.StaffMember),
		zap.String("date", draft.Date),
		zap.String("time", draft.Time))
	return nil
}

// FindByName looks up bookings under a customer name.
func (c *Committer) FindByName(ctx context.Context, name string) ([]models.Booking, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	bookings, err := c.backend.FindBookings(callCtx, name)
	if err != nil {
		return nil, fmt.Errorf("search bookings: %w", err)
	}
	return bookings, nil
}

// Cancel cancels the given booking through its backend reference.
func (c *Committer) Cancel(ctx context.Context, booking models.Booking) error {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.backend.CancelBooking(callCtx, booking.Ref)
	metrics.ObserveCancellation(err == nil)

	entry := models.JournalEntry{
		Action:       models.JournalCancelled,
		Success:      err == nil,
		CustomerName: booking.CustomerName,
		StaffMember:  booking.StaffMember,
		Date:         booking.Date,
		Time:         booking.Time,
		ServiceName:  booking.ServiceName,
		BookingID:    booking.Ref.ID,
	}
	if err != nil {
		entry.Error = err.Error()
	}
	c.record(ctx, entry)

	if err != nil {
		c.logger.Warn("booking cancellation failed", zap.String("booking_id", booking.Ref.ID), zap.Error(err))
		return fmt.Errorf("cancel booking: %w", err)
	}
	return nil
}

// record writes to the journal without letting a journal outage affect the turn.
func (c *Committer) record(ctx context.Context, entry models.JournalEntry) {
	entry.CreatedAt = c.now().UTC()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), journalTimeout)
	defer cancel()

	if err := c.journal.Record(ctx, entry); err != nil {
		c.logger.Error("failed to record journal entry", zap.String("action", string(entry.Action)), zap.Error(err))
	}
}
