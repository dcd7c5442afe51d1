package models

import "time"

// JournalAction enumerates the booking events recorded in the journal.
type JournalAction string

const (
	JournalBooked    JournalAction = "booked"
	JournalCancelled JournalAction = "cancelled"
)

// JournalEntry is an audit record of one commit or cancellation attempt.
type JournalEntry struct {
	Action       JournalAction `bson:"action" json:"action"`
	Success      bool          `bson:"success" json:"success"`
	Error        string        `bson:"error,omitempty" json:"error,omitempty"`
	CustomerName string        `bson:"customer_name" json:"customer_name"`
	Phone        string        `bson:"phone,omitempty" json:"phone,omitempty"`
	StaffMember  string        `bson:"staff_member" json:"staff_member"`
	Date         string        `bson:"date" json:"date"`
	Time         string        `bson:"time" json:"time"`
	ServiceName  string        `bson:"service_name,omitempty" json:"service_name,omitempty"`
	Price        int           `bson:"price,omitempty" json:"price,omitempty"`
	BookingID    string        `bson:"booking_id,omitempty" json:"booking_id,omitempty"`
	CreatedAt    time.Time     `bson:"created_at" json:"created_at"`
}
