package domain

import "time"

const (
	StatusFree     = "FREE"
	StatusReserved = "RESERVED"
	// StatusBooked is a confirmed terminal state. No current flow drives an
	// appointment here; it is reachable only through a future confirmation
	// step, not via booking creation.
	StatusBooked = "BOOKED"
)

// Appointment is a dentist's timeslot. The compound unique index on
// (dentistId, date, startTime) is the hard guarantee against double-booked
// slots; the overlap query at creation time is an early exit on top of it.
type Appointment struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Date      string    `gorm:"uniqueIndex:idx_dentist_slot;index" json:"date"`
	StartTime string    `gorm:"uniqueIndex:idx_dentist_slot" json:"start_time"`
	EndTime   string    `json:"end_time"`
	Status    string    `gorm:"index" json:"status"`
	ClinicID  string    `gorm:"index" json:"clinicId"`
	DentistID string    `gorm:"uniqueIndex:idx_dentist_slot" json:"dentistId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func ValidStatus(s string) bool {
	return s == StatusFree || s == StatusReserved || s == StatusBooked
}
