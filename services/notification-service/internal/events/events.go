// Package events describes the booking lifecycle events the worker consumes.
package events

import (
	"encoding/json"
	"fmt"
)

const (
	RKBookingCreated  = "booking.created"
	RKBookingCanceled = "booking.canceled"
)

// BookingEvent carries enough of the booking to compose a notification.
type BookingEvent struct {
	BookingID string `json:"bookingId"`
	PatientID string `json:"patientId"`
	Timeslot  string `json:"timeslot"`
	Status    string `json:"status"`
}

func Unmarshal[T any](b []byte) (T, error) {
	var t T
	if err := json.Unmarshal(b, &t); err != nil {
		var zero T
		return zero, fmt.Errorf("decode payload failed: %w", err)
	}
	return t, nil
}
