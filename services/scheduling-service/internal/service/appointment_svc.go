package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/you/clinic-booking/pkg/apperr"
	"github.com/you/clinic-booking/services/scheduling-service/internal/domain"
	"github.com/you/clinic-booking/services/scheduling-service/internal/repository"
)

type AppointmentSvc struct {
	repo *repository.AppointmentRepo
}

func NewAppointmentSvc(r *repository.AppointmentRepo) *AppointmentSvc {
	return &AppointmentSvc{repo: r}
}

type CreateInput struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	ClinicID  string `json:"clinicId"`
	DentistID string `json:"dentistId"`
	Status    string `json:"status"`
}

// Create validates the slot, runs the overlap check, and persists. A
// concurrent duplicate that slips past the check still hits the unique
// index and is reported as the same conflict, never a 500.
func (s *AppointmentSvc) Create(ctx context.Context, in CreateInput) (*domain.Appointment, error) {
	if in.DentistID == "" || in.ClinicID == "" || in.Date == "" || in.StartTime == "" || in.EndTime == "" {
		return nil, apperr.Validation("dentistId, clinicId, date, start_time and end_time are required")
	}
	if _, err := time.Parse("2006-01-02", in.Date); err != nil {
		return nil, apperr.Validation(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", in.Date))
	}
	for _, t := range []string{in.StartTime, in.EndTime} {
		if _, err := time.Parse("15:04", t); err != nil {
			return nil, apperr.Validation(fmt.Sprintf("invalid time %q, expected HH:MM", t))
		}
	}
	// zero-padded HH:MM strings order lexicographically
	if in.StartTime >= in.EndTime {
		return nil, apperr.Validation("start_time must be before end_time")
	}
	if in.Status == "" {
		in.Status = domain.StatusFree
	}
	if !domain.ValidStatus(in.Status) {
		return nil, apperr.Validation(fmt.Sprintf("invalid status %q", in.Status))
	}

	if clash, err := s.repo.FindOverlap(ctx, in.DentistID, in.Date, in.StartTime, in.EndTime); err != nil {
		return nil, err
	} else if clash != nil {
		return nil, apperr.Conflict(
			"Dentist is already booked during this timeslot",
			fmt.Sprintf("%s - %s", clash.StartTime, clash.EndTime),
		)
	}

	ap := &domain.Appointment{
		Date:      in.Date,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		Status:    in.Status,
		ClinicID:  in.ClinicID,
		DentistID: in.DentistID,
	}
	if err := s.repo.Create(ctx, ap); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict(
				"Dentist is already booked during this timeslot",
				fmt.Sprintf("%s - %s", in.StartTime, in.EndTime),
			)
		}
		return nil, err
	}
	return ap, nil
}

func (s *AppointmentSvc) All(ctx context.Context) ([]domain.Appointment, error) {
	return s.repo.All(ctx)
}

func (s *AppointmentSvc) ByID(ctx context.Context, id string) (*domain.Appointment, error) {
	ap, err := s.repo.ByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("/appointments/" + id)
	}
	return ap, err
}

type TimeSlot struct {
	AppointmentID string `json:"appointmentId"`
	Date          string `json:"date,omitempty"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	Status        string `json:"status"`
}

// ByDentist groups the dentist's slots by date.
func (s *AppointmentSvc) ByDentist(ctx context.Context, dentistID string) (map[string][]TimeSlot, error) {
	aps, err := s.repo.ByDentist(ctx, dentistID)
	if err != nil {
		return nil, err
	}
	out := map[string][]TimeSlot{}
	for _, ap := range aps {
		out[ap.Date] = append(out[ap.Date], TimeSlot{
			AppointmentID: ap.ID,
			StartTime:     ap.StartTime,
			EndTime:       ap.EndTime,
			Status:        ap.Status,
		})
	}
	return out, nil
}

type DentistSlots struct {
	DentistID string     `json:"dentistId"`
	TimeSlots []TimeSlot `json:"time_slots"`
}

type ClinicSchedule struct {
	ClinicID string         `json:"clinicId"`
	Dentists []DentistSlots `json:"dentists"`
}

// ByClinic groups the clinic's slots by dentist.
func (s *AppointmentSvc) ByClinic(ctx context.Context, clinicID string) (*ClinicSchedule, error) {
	aps, err := s.repo.ByClinic(ctx, clinicID)
	if err != nil {
		return nil, err
	}
	schedule := &ClinicSchedule{ClinicID: clinicID, Dentists: []DentistSlots{}}
	idx := map[string]int{}
	for _, ap := range aps {
		slot := TimeSlot{
			AppointmentID: ap.ID,
			Date:          ap.Date,
			StartTime:     ap.StartTime,
			EndTime:       ap.EndTime,
			Status:        ap.Status,
		}
		i, ok := idx[ap.DentistID]
		if !ok {
			i = len(schedule.Dentists)
			idx[ap.DentistID] = i
			schedule.Dentists = append(schedule.Dentists, DentistSlots{DentistID: ap.DentistID})
		}
		schedule.Dentists[i].TimeSlots = append(schedule.Dentists[i].TimeSlots, slot)
	}
	return schedule, nil
}

type UpdateInput struct {
	Date      string `json:"date,omitempty"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
	Status    string `json:"status,omitempty"`
}

// Update applies a partial patch. The booking service uses this operation
// for the RESERVED/FREE status flips.
func (s *AppointmentSvc) Update(ctx context.Context, id string, in UpdateInput) (*domain.Appointment, error) {
	patch := map[string]any{}
	if in.Status != "" {
		if !domain.ValidStatus(in.Status) {
			return nil, apperr.Validation(fmt.Sprintf("invalid status %q", in.Status))
		}
		patch["status"] = in.Status
	}
	if in.Date != "" {
		patch["date"] = in.Date
	}
	if in.StartTime != "" {
		patch["start_time"] = in.StartTime
	}
	if in.EndTime != "" {
		patch["end_time"] = in.EndTime
	}
	if len(patch) == 0 {
		return nil, apperr.Validation("empty patch")
	}
	ap, err := s.repo.Update(ctx, id, patch)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("/appointments/" + id)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, apperr.Conflict("Dentist is already booked during this timeslot", "patched slot collides with an existing appointment")
	}
	return ap, err
}

func (s *AppointmentSvc) Delete(ctx context.Context, id string) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("/appointments/" + id)
	}
	return err
}
