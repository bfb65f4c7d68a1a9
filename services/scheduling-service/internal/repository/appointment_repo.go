package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/you/clinic-booking/services/scheduling-service/internal/domain"
)

type AppointmentRepo struct{ db *gorm.DB }

func NewAppointmentRepo(db *gorm.DB) *AppointmentRepo {
	return &AppointmentRepo{db: db}
}

func (r *AppointmentRepo) Migrate() error {
	return r.db.AutoMigrate(&domain.Appointment{})
}

// FindOverlap returns an appointment for the dentist on the given date whose
// [start,end) interval intersects the requested one, or nil.
func (r *AppointmentRepo) FindOverlap(ctx context.Context, dentistID, date, start, end string) (*domain.Appointment, error) {
	var ap domain.Appointment
	err := r.db.WithContext(ctx).
		Where("dentist_id = ? AND date = ?", dentistID, date).
		Where("start_time < ? AND end_time > ?", end, start).
		Take(&ap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ap, nil
}

func (r *AppointmentRepo) Create(ctx context.Context, ap *domain.Appointment) error {
	if ap.ID == "" {
		ap.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(ap).Error
}

func (r *AppointmentRepo) All(ctx context.Context) ([]domain.Appointment, error) {
	var out []domain.Appointment
	err := r.db.WithContext(ctx).Order("date ASC, start_time ASC").Find(&out).Error
	return out, err
}

func (r *AppointmentRepo) ByID(ctx context.Context, id string) (*domain.Appointment, error) {
	var ap domain.Appointment
	if err := r.db.WithContext(ctx).First(&ap, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &ap, nil
}

func (r *AppointmentRepo) ByDentist(ctx context.Context, dentistID string) ([]domain.Appointment, error) {
	var out []domain.Appointment
	err := r.db.WithContext(ctx).
		Where("dentist_id = ?", dentistID).
		Order("date ASC, start_time ASC").
		Find(&out).Error
	return out, err
}

func (r *AppointmentRepo) ByClinic(ctx context.Context, clinicID string) ([]domain.Appointment, error) {
	var out []domain.Appointment
	err := r.db.WithContext(ctx).
		Where("clinic_id = ?", clinicID).
		Order("dentist_id ASC, date ASC, start_time ASC").
		Find(&out).Error
	return out, err
}

// Update applies a partial patch and returns the fresh row.
func (r *AppointmentRepo) Update(ctx context.Context, id string, patch map[string]any) (*domain.Appointment, error) {
	res := r.db.WithContext(ctx).Model(&domain.Appointment{}).Where("id = ?", id).Updates(patch)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.ByID(ctx, id)
}

func (r *AppointmentRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&domain.Appointment{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
