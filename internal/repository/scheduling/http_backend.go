package scheduling

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/mamadbah2/barberia/internal/config"
	"github.com/mamadbah2/barberia/internal/domain/models"
)

const (
	actionBook   = "reservar"
	actionSearch = "buscar"
	actionCancel = "cancelar"
)

// HTTPBackend talks to a single scheduling endpoint: GET for busy slots, POST with an
// action discriminator for every write or search.
type HTTPBackend struct {
	httpClient *resty.Client
	endpoint   string
	logger     *zap.Logger
}

// NewHTTPBackend builds the backend client for cfg.BaseURL.
func NewHTTPBackend(cfg config.SchedulingConfig, logger *zap.Logger) *HTTPBackend {
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}

	client := resty.New().
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)

	return &HTTPBackend{httpClient: client, endpoint: cfg.BaseURL, logger: logger}
}

type bookRequest struct {
	Action  string `json:"accion"`
	Name    string `json:"nombre"`
	Phone   string `json:"telefono"`
	Staff   string `json:"barbero"`
	Date    string `json:"fecha"`
	Time    string `json:"hora"`
	Service string `json:"servicio"`
	Price   int    `json:"precio"`
}

type backendBooking struct {
	ID      string `json:"id"`
	Sheet   string `json:"hoja"`
	Name    string `json:"nombre"`
	Staff   string `json:"barbero"`
	Date    string `json:"fecha"`
	Time    string `json:"hora"`
	Service string `json:"servicio"`
}

type backendResponse struct {
	OK       bool             `json:"ok"`
	Error    string           `json:"error"`
	Bookings []backendBooking `json:"reservas"`
}

// BusySlots returns the occupied times for staff on date.
func (b *HTTPBackend) BusySlots(ctx context.Context, staff, date string) ([]string, error) {
	resp, err := b.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"barbero": staff, "fecha": date}).
		Get(b.endpoint)
	if err != nil {
		return nil, fmt.Errorf("query busy slots: %w", err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return nil, fmt.Errorf("query busy slots: status %d", resp.StatusCode())
	}

	return parseBusySlots(resp.Body())
}

// CreateBooking writes the confirmed draft.
func (b *HTTPBackend) CreateBooking(ctx context.Context, draft models.Draft) error {
	req := bookRequest{
		Action: actionBook,
		Name:   draft.CustomerName,
		Phone:  draft.Phone,
		Staff:  draft.StaffMember,
		Date:   draft.Date,
		Time:   draft.Time,
	}
	if draft.Service != nil {
		req.Service = draft.Service.Name
		req.Price = draft.Service.Price
	}

	_, err := b.post(ctx, req)
	if err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

// FindBookings searches bookings by customer name.
func (b *HTTPBackend) FindBookings(ctx context.Context, name string) ([]models.Booking, error) {
	out, err := b.post(ctx, map[string]string{"accion": actionSearch, "nombre": name})
	if err != nil {
		return nil, fmt.Errorf("find bookings: %w", err)
	}

	bookings := make([]models.Booking, 0, len(out.Bookings))
	for _, item := range out.Bookings {
		bookings = append(bookings, models.Booking{
			Ref:          models.BookingRef{ID: item.ID, Sheet: item.Sheet},
			CustomerName: item.Name,
			StaffMember:  item.Staff,
			Date:         item.Date,
			Time:         CleanSlot(item.Time),
			ServiceName:  item.Service,
		})
	}
	return bookings, nil
}

// CancelBooking cancels the referenced booking.
func (b *HTTPBackend) CancelBooking(ctx context.Context, ref models.BookingRef) error {
	_, err := b.post(ctx, map[string]string{"accion": actionCancel, "id": ref.ID, "hoja": ref.Sheet})
	if err != nil {
		return fmt.Errorf("cancel booking %s: %w", ref.ID, err)
	}
	return nil
}

func (b *HTTPBackend) post(ctx context.Context, body any) (*backendResponse, error) {
	out := new(backendResponse)

	// Script endpoints often answer JSON as text/plain.
	resp, err := b.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(out).
		ForceContentType("application/json").
		Post(b.endpoint)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return nil, fmt.Errorf("status %d", resp.StatusCode())
	}
	if !out.OK {
		if out.Error != "" {
			return nil, fmt.Errorf("%w: %s", ErrBackendRejected, out.Error)
		}
		return nil, ErrBackendRejected
	}

	b.logger.Debug("scheduling backend call succeeded", zap.Int("status", resp.StatusCode()))
	return out, nil
}

// parseBusySlots accepts a JSON array of strings or a comma/newline separated list.
func parseBusySlots(body []byte) ([]string, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return nil, nil
	}

	var raw []string
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
			return nil, fmt.Errorf("decode busy slots: %w", err)
		}
	} else {
		raw = strings.FieldsFunc(trimmed, func(r rune) bool { return r == ',' || r == '\n' })
	}

	slots := make([]string, 0, len(raw))
	for _, value := range raw {
		if slot := CleanSlot(value); slot != "" {
			slots = append(slots, slot)
		}
	}
	return slots, nil
}
