// Package scheduling adapts the external scheduling store that owns bookings.
package scheduling

import (
	"context"
	"errors"
	"strings"

	"github.com/mamadbah2/barberia/internal/domain/models"
)

var (
	// ErrBackendRejected means the backend answered but reported the operation as not ok.
	ErrBackendRejected = errors.New("scheduling backend rejected the request")
	// ErrBookingNotFound means a cancellation referenced an unknown booking.
	ErrBookingNotFound = errors.New("booking not found")
)

// Backend is the remote store queried for busy slots and written to on confirmation.
type Backend interface {
	BusySlots(ctx context.Context, staff, date string) ([]string, error)
	CreateBooking(ctx context.Context, draft models.Draft) error
	FindBookings(ctx context.Context, name string) ([]models.Booking, error)
	CancelBooking(ctx context.Context, ref models.BookingRef) error
}

// CleanSlot strips stray quote characters and surrounding whitespace from a slot
// value reported by the backend.
func CleanSlot(raw string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(raw), `"'`))
}
