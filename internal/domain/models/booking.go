package models

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// DateLayout is the wire format for booking dates.
	DateLayout = "2006-01-02"
	// TimeLayout is the wire format for booking time slots.
	TimeLayout = "15:04"
)

// Service is a catalog entry offered by the shop.
type Service struct {
	ID    string `json:"id" validate:"required"`
	Name  string `json:"name" validate:"required"`
	Price int    `json:"price" validate:"gt=0"`
}

// Draft accumulates the booking fields collected across conversation steps.
type Draft struct {
	CustomerName string   `json:"customer_name" validate:"required"`
	Phone        string   `json:"phone" validate:"required,min=7,max=20"`
	StaffMember  string   `json:"staff_member" validate:"required"`
	Date         string   `json:"date" validate:"required,datetime=2006-01-02"`
	Time         string   `json:"time" validate:"required,datetime=15:04"`
	Service      *Service `json:"service" validate:"required"`
}

// HasService reports whether a service was already chosen.
func (d Draft) HasService() bool {
	return d.Service != nil
}

// BookingRef identifies a booking inside the scheduling backend: an opaque id plus
// the partition (sheet) that holds it.
type BookingRef struct {
	ID    string `json:"id"`
	Sheet string `json:"sheet"`
}

// Booking is a reservation as reported by the scheduling backend.
type Booking struct {
	Ref          BookingRef
	CustomerName string
	StaffMember  string
	Date         string
	Time         string
	ServiceName  string
}

// Label renders a booking as a single menu line.
func (b Booking) Label() string {
	parts := []string{b.Date, b.Time, b.StaffMember}
	if b.ServiceName != "" {
		parts = append(parts, b.ServiceName)
	}
	return fmt.Sprintf("%s (%s)", b.CustomerName, strings.Join(parts, " · "))
}

// FormatPrice renders a peso amount with dot thousands separators, e.g. $32.000.
func FormatPrice(amount int) string {
	digits := strconv.Itoa(amount)
	if amount < 0 {
		return "-" + FormatPrice(-amount)
	}

	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return "$" + b.String()
}
