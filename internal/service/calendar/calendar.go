// Package calendar computes the dates and time slots offered to customers.
package calendar

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/barberia/internal/domain/models"
	"github.com/mamadbah2/barberia/internal/metrics"
)

// DefaultDateWindow is how many consecutive days are offered at date selection.
const DefaultDateWindow = 15

// BusyLookup reports the occupied slots of a staff member on a date.
type BusyLookup interface {
	BusySlots(ctx context.Context, staff, date string) ([]string, error)
}

// Calendar derives bookable slots from the master schedule and backend occupancy.
type Calendar struct {
	busy     BusyLookup
	schedule []string
	timeout  time.Duration
	loc      *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

// New wires a calendar. timeout bounds each availability query.
func New(busy BusyLookup, schedule []string, loc *time.Location, timeout time.Duration, logger *zap.Logger) *Calendar {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Calendar{
		busy:     busy,
		schedule: append([]string(nil), schedule...),
		timeout:  timeout,
		loc:      loc,
		now:      time.Now,
		logger:   logger,
	}
}

// AvailableDates walks forward one calendar day at a time from reference (inclusive)
// and returns count ISO dates.
func AvailableDates(reference time.Time, count int) []string {
	if count <= 0 {
		return nil
	}
	y, m, d := reference.Date()
	// Noon keeps AddDate clear of DST transitions at midnight.
	start := time.Date(y, m, d, 12, 0, 0, 0, reference.Location())

	dates := make([]string, 0, count)
	for i := 0; i < count; i++ {
		dates = append(dates, start.AddDate(0, 0, i).Format(models.DateLayout))
	}
	return dates
}

// UpcomingDates returns the default window starting today in the shop timezone.
func (c *Calendar) UpcomingDates() []string {
	return AvailableDates(c.now().In(c.loc), DefaultDateWindow)
}

// AvailableTimes returns the master schedule minus the slots the backend reports as
// occupied for (staff, date). A failed query is treated as nothing occupied.
func (c *Calendar) AvailableTimes(ctx context.Context, staff, date string) []string {
	busy := c.occupied(ctx, staff, date)

	free := make([]string, 0, len(c.schedule))
	for _, slot := range c.schedule {
		if _, taken := busy[slot]; taken {
			continue
		}
		free = append(free, slot)
	}
	return free
}

func (c *Calendar) occupied(ctx context.Context, staff, date string) map[string]struct{} {
	if c.busy == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	slots, err := c.busy.BusySlots(ctx, staff, date)
	if err != nil {
		metrics.IncAvailabilityFailOpen()
		c.logger.Warn("availability query failed, assuming no occupied slots",
			zap.String("staff", staff),
			zap.String("date", date),
			zap.Error(err))
		return nil
	}

	busy := make(map[string]struct{}, len(slots))
	for _, slot := range slots {
		busy[slot] = struct{}{}
	}
	return busy
}
