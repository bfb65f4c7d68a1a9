package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/you/clinic-booking/pkg/apperr"
	"github.com/you/clinic-booking/services/dentist-service/internal/domain"
	"github.com/you/clinic-booking/services/dentist-service/internal/repository"
)

type DirectorySvc struct {
	repo *repository.DirectoryRepo
}

func NewDirectorySvc(repo *repository.DirectoryRepo) *DirectorySvc {
	return &DirectorySvc{repo: repo}
}

type ClinicInput struct {
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (s *DirectorySvc) CreateClinic(ctx context.Context, in ClinicInput) (*domain.Clinic, error) {
	if in.Name == "" {
		return nil, apperr.Validation("clinic name is required")
	}
	c := &domain.Clinic{Name: in.Name, Address: in.Address, Latitude: in.Latitude, Longitude: in.Longitude}
	if err := s.repo.CreateClinic(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *DirectorySvc) Clinics(ctx context.Context) ([]domain.Clinic, error) {
	return s.repo.Clinics(ctx)
}

func (s *DirectorySvc) Clinic(ctx context.Context, id string) (*domain.Clinic, error) {
	c, err := s.repo.ClinicByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("/clinics/" + id)
	}
	return c, err
}

// UpdateClinic replaces the mutable fields wholesale (PUT semantics).
func (s *DirectorySvc) UpdateClinic(ctx context.Context, id string, in ClinicInput) (*domain.Clinic, error) {
	if in.Name == "" {
		return nil, apperr.Validation("clinic name is required")
	}
	c, err := s.Clinic(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Name, c.Address, c.Latitude, c.Longitude = in.Name, in.Address, in.Latitude, in.Longitude
	if err := s.repo.SaveClinic(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *DirectorySvc) DeleteClinic(ctx context.Context, id string) error {
	err := s.repo.DeleteClinic(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("/clinics/" + id)
	}
	return err
}

type DentistInput struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Speciality string `json:"speciality"`
}

// AddDentist creates a dentist under an existing clinic; an unknown clinic
// is a 404, not a dangling foreign key.
func (s *DirectorySvc) AddDentist(ctx context.Context, clinicID string, in DentistInput) (*domain.Dentist, error) {
	if in.FirstName == "" || in.LastName == "" {
		return nil, apperr.Validation("dentist first_name and last_name are required")
	}
	if _, err := s.Clinic(ctx, clinicID); err != nil {
		return nil, err
	}
	d := &domain.Dentist{ClinicID: clinicID, FirstName: in.FirstName, LastName: in.LastName, Speciality: in.Speciality}
	if err := s.repo.CreateDentist(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *DirectorySvc) Dentists(ctx context.Context) ([]domain.Dentist, error) {
	return s.repo.Dentists(ctx)
}

func (s *DirectorySvc) Dentist(ctx context.Context, id string) (*domain.Dentist, error) {
	d, err := s.repo.DentistByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("/dentists/" + id)
	}
	return d, err
}

func (s *DirectorySvc) ClinicDentists(ctx context.Context, clinicID string) ([]domain.Dentist, error) {
	if _, err := s.Clinic(ctx, clinicID); err != nil {
		return nil, err
	}
	return s.repo.DentistsByClinic(ctx, clinicID)
}

func (s *DirectorySvc) ClinicDentist(ctx context.Context, clinicID, id string) (*domain.Dentist, error) {
	d, err := s.repo.DentistInClinic(ctx, clinicID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("/clinics/" + clinicID + "/dentists/" + id)
	}
	return d, err
}

func (s *DirectorySvc) UpdateDentist(ctx context.Context, clinicID, id string, in DentistInput) (*domain.Dentist, error) {
	if in.FirstName == "" || in.LastName == "" {
		return nil, apperr.Validation("dentist first_name and last_name are required")
	}
	d, err := s.ClinicDentist(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}
	d.FirstName, d.LastName, d.Speciality = in.FirstName, in.LastName, in.Speciality
	if err := s.repo.SaveDentist(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *DirectorySvc) RemoveDentist(ctx context.Context, clinicID, id string) error {
	err := s.repo.DeleteDentist(ctx, clinicID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("/clinics/" + clinicID + "/dentists/" + id)
	}
	return err
}
