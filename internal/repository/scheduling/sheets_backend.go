package scheduling

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/barberia/internal/domain/models"
	repo "github.com/mamadbah2/barberia/internal/repository/sheets"
)

// Column order of a staff tab: id, fecha, hora, nombre, telefono, servicio, precio, estado.
const (
	colID = iota
	colDate
	colTime
	colName
	colPhone
	colService
	colPrice
	colStatus
	columnCount
)

const (
	statusActive    = "activa"
	statusCancelled = "cancelada"
	statusColumn    = "H"
)

// SheetsBackend keeps bookings in a spreadsheet with one tab per staff member; the tab
// name is the booking's partition token.
type SheetsBackend struct {
	repo   repo.Repository
	staff  []string
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger
}

// NewSheetsBackend wires a spreadsheet-backed scheduling store.
func NewSheetsBackend(repository repo.Repository, staff []string, loc *time.Location, logger *zap.Logger) *SheetsBackend {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &SheetsBackend{
		repo:   repository,
		staff:  staff,
		loc:    loc,
		now:    time.Now,
		logger: logger,
	}
}

func tabRange(sheet string) string {
	return fmt.Sprintf("'%s'!A:%s", strings.ReplaceAll(sheet, "'", "''"), statusColumn)
}

// BusySlots returns the times of active bookings for staff on date.
func (b *SheetsBackend) BusySlots(ctx context.Context, staff, date string) ([]string, error) {
	rows, err := b.repo.ReadRange(ctx, tabRange(staff))
	if err != nil {
		return nil, fmt.Errorf("load %s bookings: %w", staff, err)
	}

	var busy []string
	for _, row := range rows {
		if !isActiveRow(row) || cell(row, colDate) != date {
			continue
		}
		busy = append(busy, CleanSlot(cell(row, colTime)))
	}
	return busy, nil
}

// CreateBooking appends an active row to the staff member's tab.
func (b *SheetsBackend) CreateBooking(ctx context.Context, draft models.Draft) error {
	var serviceName string
	var price int
	if draft.Service != nil {
		serviceName = draft.Service.Name
		price = draft.Service.Price
	}

	row := make([]interface{}, columnCount)
	row[colID] = uuid.NewString()
	row[colDate] = draft.Date
	row[colTime] = draft.Time
	row[colName] = draft.CustomerName
	row[colPhone] = draft.Phone
	row[colService] = serviceName
	row[colPrice] = price
	row[colStatus] = statusActive

	if err := b.repo.AppendRow(ctx, tabRange(draft.StaffMember), row); err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

// FindBookings returns upcoming active bookings whose customer name contains name.
func (b *SheetsBackend) FindBookings(ctx context.Context, name string) ([]models.Booking, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return nil, nil
	}
	today := b.now().In(b.loc).Format(models.DateLayout)

	var found []models.Booking
	for _, staff := range b.staff {
		rows, err := b.repo.ReadRange(ctx, tabRange(staff))
		if err != nil {
			return nil, fmt.Errorf("search %s bookings: %w", staff, err)
		}
		for _, row := range rows {
			if !isActiveRow(row) {
				continue
			}
			if cell(row, colDate) < today {
				continue
			}
			if !strings.Contains(strings.ToLower(cell(row, colName)), needle) {
				continue
			}
			found = append(found, models.Booking{
				Ref:          models.BookingRef{ID: cell(row, colID), Sheet: staff},
				CustomerName: cell(row, colName),
				StaffMember:  staff,
				Date:         cell(row, colDate),
				Time:         CleanSlot(cell(row, colTime)),
				ServiceName:  cell(row, colService),
			})
		}
	}
	return found, nil
}

// CancelBooking flags the referenced row as cancelled.
func (b *SheetsBackend) CancelBooking(ctx context.Context, ref models.BookingRef) error {
	rows, err := b.repo.ReadRange(ctx, tabRange(ref.Sheet))
	if err != nil {
		return fmt.Errorf("load %s bookings: %w", ref.Sheet, err)
	}

	for i, row := range rows {
		if cell(row, colID) != ref.ID {
			continue
		}
		target := fmt.Sprintf("'%s'!%s%s", strings.ReplaceAll(ref.Sheet, "'", "''"), statusColumn, strconv.Itoa(i+1))
		if err := b.repo.UpdateRange(ctx, target, []interface{}{statusCancelled}); err != nil {
			return fmt.Errorf("cancel booking %s: %w", ref.ID, err)
		}
		b.logger.Info("booking cancelled", zap.String("sheet", ref.Sheet), zap.String("booking_id", ref.ID))
		return nil
	}

	return fmt.Errorf("cancel booking %s: %w", ref.ID, ErrBookingNotFound)
}

// isActiveRow skips the header, blank rows and cancelled bookings.
func isActiveRow(row []interface{}) bool {
	id := cell(row, colID)
	if id == "" || strings.EqualFold(id, "id") {
		return false
	}
	return !strings.EqualFold(cell(row, colStatus), statusCancelled)
}

func cell(row []interface{}, idx int) string {
	if idx >= len(row) || row[idx] == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(row[idx]))
}
