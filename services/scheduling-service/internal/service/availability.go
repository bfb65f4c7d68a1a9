package service

import (
	"context"

	"github.com/you/clinic-booking/services/scheduling-service/internal/domain"
)

const (
	AvailabilityHigh   = "HIGH"
	AvailabilityMedium = "MEDIUM"
	AvailabilityLow    = "LOW"
)

type ClinicAvailability struct {
	ClinicID           string  `json:"clinicId"`
	TotalAppointments  int     `json:"totalAppointments"`
	FreeAppointments   int     `json:"freeAppointments"`
	FreePercentage     float64 `json:"freePercentage"`
	AvailabilityStatus string  `json:"availabilityStatus"`
}

type ClinicStatus struct {
	ClinicID           string `json:"clinic_id"`
	AvailabilityStatus string `json:"availability_status"`
}

// bucket maps a FREE percentage onto the three availability bands. The same
// thresholds apply per clinic and in the all-clinics aggregate.
func bucket(freePct float64) string {
	switch {
	case freePct > 80:
		return AvailabilityHigh
	case freePct > 40:
		return AvailabilityMedium
	default:
		return AvailabilityLow
	}
}

// Availability reports the FREE ratio for one clinic.
func (s *AppointmentSvc) Availability(ctx context.Context, clinicID string) (*ClinicAvailability, error) {
	aps, err := s.repo.ByClinic(ctx, clinicID)
	if err != nil {
		return nil, err
	}
	out := &ClinicAvailability{ClinicID: clinicID}
	if len(aps) == 0 {
		return out, nil
	}
	for _, ap := range aps {
		if ap.Status == domain.StatusFree {
			out.FreeAppointments++
		}
	}
	out.TotalAppointments = len(aps)
	out.FreePercentage = float64(out.FreeAppointments) / float64(out.TotalAppointments) * 100
	out.AvailabilityStatus = bucket(out.FreePercentage)
	return out, nil
}

// AllAvailability buckets every clinic that has at least one appointment.
func (s *AppointmentSvc) AllAvailability(ctx context.Context) ([]ClinicStatus, error) {
	aps, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}

	type tally struct{ total, free int }
	counts := map[string]*tally{}
	order := []string{}
	for _, ap := range aps {
		t, ok := counts[ap.ClinicID]
		if !ok {
			t = &tally{}
			counts[ap.ClinicID] = t
			order = append(order, ap.ClinicID)
		}
		t.total++
		if ap.Status == domain.StatusFree {
			t.free++
		}
	}

	out := make([]ClinicStatus, 0, len(order))
	for _, clinicID := range order {
		t := counts[clinicID]
		out = append(out, ClinicStatus{
			ClinicID:           clinicID,
			AvailabilityStatus: bucket(float64(t.free) / float64(t.total) * 100),
		})
	}
	return out, nil
}
