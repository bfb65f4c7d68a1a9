package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/you/clinic-booking/services/booking-service/internal/domain"
)

type BookingRepo struct{ db *gorm.DB }

func NewBookingRepo(db *gorm.DB) *BookingRepo {
	return &BookingRepo{db: db}
}

func (r *BookingRepo) Migrate() error {
	return r.db.AutoMigrate(&domain.Booking{}, &domain.CanceledBooking{})
}

func (r *BookingRepo) Create(ctx context.Context, b *domain.Booking) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.Status == "" {
		b.Status = domain.StatusPending
	}
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *BookingRepo) ByID(ctx context.Context, id string) (*domain.Booking, error) {
	var b domain.Booking
	if err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BookingRepo) UpdateStatus(ctx context.Context, id, to string) (*domain.Booking, error) {
	var b domain.Booking
	tx := r.db.WithContext(ctx).Begin()
	if err := tx.First(&b, "id = ?", id).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if b.Status != to {
		b.Status = to
		if err := tx.Save(&b).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	return &b, tx.Commit().Error
}

// CancelAndArchive deletes the booking and writes its CanceledBooking
// tombstone in one transaction, so cancellation can never archive twice or
// delete without a trace.
func (r *BookingRepo) CancelAndArchive(ctx context.Context, id string) (*domain.CanceledBooking, error) {
	var archived *domain.CanceledBooking
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var b domain.Booking
		if err := tx.First(&b, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&domain.Booking{}, "id = ?", id).Error; err != nil {
			return err
		}
		archived = &domain.CanceledBooking{
			ID:       uuid.NewString(),
			Status:   domain.StatusCanceled,
			Timeslot: b.Timeslot,
			Patient:  b.Patient,
		}
		return tx.Create(archived).Error
	})
	if err != nil {
		return nil, err
	}
	return archived, nil
}

func (r *BookingRepo) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&domain.Booking{}).Count(&total).Error
	return total, err
}

// allowed search/sort columns; anything else in a client token is ignored
var allowedFields = map[string]string{
	"status":    "status",
	"patient":   "patient",
	"timeslot":  "timeslot",
	"createdAt": "created_at",
}

// List returns one page with per-field substring filters applied.
func (r *BookingRepo) List(ctx context.Context, offset, limit int, sortField, sortDir string, filters map[string]string) ([]domain.Booking, error) {
	qb := r.db.WithContext(ctx).Model(&domain.Booking{})
	for field, pattern := range filters {
		col, ok := allowedFields[field]
		if !ok {
			continue
		}
		qb = qb.Where(fmt.Sprintf("%s LIKE ?", col), "%"+pattern+"%")
	}
	col, ok := allowedFields[sortField]
	if !ok {
		col = "created_at"
	}
	if sortDir != "asc" {
		sortDir = "desc"
	}

	var out []domain.Booking
	err := qb.Order(fmt.Sprintf("%s %s", col, sortDir)).Offset(offset).Limit(limit).Find(&out).Error
	return out, err
}

func (r *BookingRepo) CountFiltered(ctx context.Context, filters map[string]string) (int64, error) {
	qb := r.db.WithContext(ctx).Model(&domain.Booking{})
	for field, pattern := range filters {
		col, ok := allowedFields[field]
		if !ok {
			continue
		}
		qb = qb.Where(fmt.Sprintf("%s LIKE ?", col), "%"+pattern+"%")
	}
	var total int64
	err := qb.Count(&total).Error
	return total, err
}

// ByTimeslots returns one page of bookings whose timeslot is in ids,
// newest first.
func (r *BookingRepo) ByTimeslots(ctx context.Context, ids []string, offset, limit int) ([]domain.Booking, int64, error) {
	if len(ids) == 0 {
		return nil, 0, nil
	}
	qb := r.db.WithContext(ctx).Model(&domain.Booking{}).Where("timeslot IN ?", ids)
	var total int64
	if err := qb.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []domain.Booking
	err := qb.Order("created_at desc").Offset(offset).Limit(limit).Find(&out).Error
	return out, total, err
}

func (r *BookingRepo) CanceledCount(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&domain.CanceledBooking{}).Count(&total).Error
	return total, err
}
