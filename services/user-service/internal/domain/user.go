package domain

import "time"

const (
	RolePatient = "PATIENT"
	RoleAdmin   = "ADMIN"
)

// User is a patient account. The password hash is json:"-" so no handler
// can leak it regardless of which struct ends up on the wire.
type User struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"column:password_hash" json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
