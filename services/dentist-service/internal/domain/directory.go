package domain

import "time"

// Clinic is a practice location; dentists belong to exactly one clinic.
type Clinic struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"index" json:"name"`
	Address   string    `json:"address"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Dentist struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	ClinicID   string    `gorm:"index" json:"clinicId"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Speciality string    `json:"speciality"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
