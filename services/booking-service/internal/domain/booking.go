package domain

import "time"

const (
	StatusPending   = "PENDING"
	StatusConfirmed = "CONFIRMED"
	StatusCanceled  = "CANCELED"
)

// Booking references exactly one appointment. The unique index on Timeslot
// is what makes a double reservation impossible: the second booking for the
// same slot fails at persistence time regardless of interleaving.
type Booking struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Status    string    `gorm:"index" json:"status"`
	Timeslot  string    `gorm:"uniqueIndex" json:"timeslot"`
	Patient   string    `gorm:"index" json:"patient"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CanceledBooking is the append-only audit record left behind when a
// booking is canceled. It keeps the raw timeslot id, decoupled from the
// live Booking/Appointment relationship.
type CanceledBooking struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Status    string    `json:"status"`
	Timeslot  string    `json:"timeslot"`
	Patient   string    `json:"patient"`
	CreatedAt time.Time `json:"createdAt"`
}
