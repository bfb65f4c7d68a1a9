package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/you/clinic-booking/services/dentist-service/internal/domain"
)

type DirectoryRepo struct{ db *gorm.DB }

func NewDirectoryRepo(db *gorm.DB) *DirectoryRepo {
	return &DirectoryRepo{db: db}
}

func (r *DirectoryRepo) Migrate() error {
	return r.db.AutoMigrate(&domain.Clinic{}, &domain.Dentist{})
}

func (r *DirectoryRepo) CreateClinic(ctx context.Context, c *domain.Clinic) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *DirectoryRepo) Clinics(ctx context.Context) ([]domain.Clinic, error) {
	var out []domain.Clinic
	err := r.db.WithContext(ctx).Order("name asc").Find(&out).Error
	return out, err
}

func (r *DirectoryRepo) ClinicByID(ctx context.Context, id string) (*domain.Clinic, error) {
	var c domain.Clinic
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *DirectoryRepo) SaveClinic(ctx context.Context, c *domain.Clinic) error {
	return r.db.WithContext(ctx).Save(c).Error
}

// DeleteClinic removes the clinic and its dentists in one transaction.
func (r *DirectoryRepo) DeleteClinic(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&domain.Clinic{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Delete(&domain.Dentist{}, "clinic_id = ?", id).Error
	})
}

func (r *DirectoryRepo) CreateDentist(ctx context.Context, d *domain.Dentist) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *DirectoryRepo) Dentists(ctx context.Context) ([]domain.Dentist, error) {
	var out []domain.Dentist
	err := r.db.WithContext(ctx).Order("last_name asc").Find(&out).Error
	return out, err
}

func (r *DirectoryRepo) DentistsByClinic(ctx context.Context, clinicID string) ([]domain.Dentist, error) {
	var out []domain.Dentist
	err := r.db.WithContext(ctx).Where("clinic_id = ?", clinicID).Order("last_name asc").Find(&out).Error
	return out, err
}

func (r *DirectoryRepo) DentistByID(ctx context.Context, id string) (*domain.Dentist, error) {
	var d domain.Dentist
	if err := r.db.WithContext(ctx).First(&d, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

// DentistInClinic scopes the lookup to one clinic, for the nested routes.
func (r *DirectoryRepo) DentistInClinic(ctx context.Context, clinicID, id string) (*domain.Dentist, error) {
	var d domain.Dentist
	if err := r.db.WithContext(ctx).First(&d, "id = ? AND clinic_id = ?", id, clinicID).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DirectoryRepo) SaveDentist(ctx context.Context, d *domain.Dentist) error {
	return r.db.WithContext(ctx).Save(d).Error
}

func (r *DirectoryRepo) DeleteDentist(ctx context.Context, clinicID, id string) error {
	res := r.db.WithContext(ctx).Delete(&domain.Dentist{}, "id = ? AND clinic_id = ?", id, clinicID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
