package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/you/clinic-booking/pkg/apperr"
	"github.com/you/clinic-booking/pkg/bus"
	"github.com/you/clinic-booking/services/booking-service/internal/domain"
	"github.com/you/clinic-booking/services/booking-service/internal/enrich"
	"github.com/you/clinic-booking/services/booking-service/internal/repository"
)

// Scheduler is the slice of the peer clients the service needs for the
// appointment status coupling and the by-dentist listing.
type Scheduler interface {
	SetAppointmentStatus(ctx context.Context, id, status string) error
	DentistAppointments(ctx context.Context, dentistID string) (map[string][]map[string]any, error)
	FetchPatients(ctx context.Context) ([]map[string]any, error)
}

type BookingSvc struct {
	repo     *repository.BookingRepo
	peers    Scheduler
	enricher *enrich.Enricher
	events   bus.TopicPublisher
	peerWait time.Duration
}

func NewBookingSvc(repo *repository.BookingRepo, peers Scheduler, enricher *enrich.Enricher, events bus.TopicPublisher, peerWait time.Duration) *BookingSvc {
	return &BookingSvc{repo: repo, peers: peers, enricher: enricher, events: events, peerWait: peerWait}
}

type CreateInput struct {
	Timeslot string `json:"timeslot"`
	Patient  string `json:"patient"`
}

// Create persists a PENDING booking, answers, and only then asks the
// scheduling service to flip the appointment to RESERVED. The flip is fire
// and forget: the caller is told the booking succeeded before the
// appointment update is confirmed, and a failed flip leaves the aggregates
// briefly inconsistent rather than failing the booking.
func (s *BookingSvc) Create(ctx context.Context, in CreateInput) (*domain.Booking, error) {
	if in.Timeslot == "" || in.Patient == "" {
		return nil, apperr.Validation("timeslot and patient are required")
	}
	b := &domain.Booking{Timeslot: in.Timeslot, Patient: in.Patient, Status: domain.StatusPending}
	if err := s.repo.Create(ctx, b); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("Booking unsuccessful", "Booking timeslot is no longer available")
		}
		return nil, err
	}

	s.flipAppointment(b.Timeslot, "RESERVED")
	s.publishEvent("booking.created", b.ID, b.Patient, b.Timeslot, b.Status)
	return b, nil
}

// Confirm is an idempotent status write: confirming an already CONFIRMED
// booking succeeds without touching the row.
func (s *BookingSvc) Confirm(ctx context.Context, id string) (*domain.Booking, error) {
	b, err := s.repo.UpdateStatus(ctx, id, domain.StatusConfirmed)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("/bookings/" + id)
	}
	return b, err
}

// Cancel tombstones the booking and then asks for the appointment to be
// freed, again fire and forget relative to the response.
func (s *BookingSvc) Cancel(ctx context.Context, id string) (*domain.CanceledBooking, error) {
	archived, err := s.repo.CancelAndArchive(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("/bookings/" + id)
	}
	if err != nil {
		return nil, err
	}

	s.flipAppointment(archived.Timeslot, "FREE")
	s.publishEvent("booking.canceled", archived.ID, archived.Patient, archived.Timeslot, archived.Status)
	return archived, nil
}

func (s *BookingSvc) flipAppointment(timeslot, status string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.peerWait)
		defer cancel()
		if err := s.peers.SetAppointmentStatus(ctx, timeslot, status); err != nil {
			log.Printf("[booking] appointment %s -> %s failed: %v", timeslot, status, err)
		}
	}()
}

func (s *BookingSvc) publishEvent(key, bookingID, patient, timeslot, status string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.peerWait)
		defer cancel()
		err := s.events.PublishJSON(ctx, key, map[string]string{
			"bookingId": bookingID,
			"patientId": patient,
			"timeslot":  timeslot,
			"status":    status,
		})
		if err != nil {
			log.Printf("[booking] publish %s failed: %v", key, err)
		}
	}()
}

type ListParams struct {
	Page   int
	Limit  int
	SortBy string // "field:dir"
	Search string // "field:pattern[:field:pattern...]"
}

type Page struct {
	CurrentPage     int            `json:"currentPage"`
	TotalPages      int            `json:"totalPages"`
	BookingsPerPage int            `json:"bookingsPerPage"`
	TotalBookings   int64          `json:"totalBookings"`
	Bookings        []*enrich.View `json:"bookings"`
}

// parseSearch turns "field:pattern:field:pattern" tokens into per-field
// substring filters.
func parseSearch(q string) map[string]string {
	filters := map[string]string{}
	tokens := strings.Split(q, ":")
	for i := 0; i+1 < len(tokens); i += 2 {
		if tokens[i] != "" {
			filters[tokens[i]] = tokens[i+1]
		}
	}
	return filters
}

// paginate clamps page into [1, numPages] and returns the offset.
func paginate(total int64, page, perPage int) (offset, totalPages, currentPage int) {
	totalPages = int((total + int64(perPage) - 1) / int64(perPage))
	currentPage = page
	if currentPage < 1 {
		currentPage = 1
	}
	if totalPages > 0 && currentPage > totalPages {
		currentPage = totalPages
	}
	offset = (currentPage - 1) * perPage
	if offset < 0 {
		offset = 0
	}
	return offset, totalPages, currentPage
}

// List fetches one page and enriches it afterwards, so peer failures can
// never change pagination counts.
func (s *BookingSvc) List(ctx context.Context, p ListParams) (*Page, error) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 10
	}
	sortField, sortDir := "createdAt", "desc"
	if p.SortBy != "" {
		if f, d, ok := strings.Cut(p.SortBy, ":"); ok {
			sortField, sortDir = f, d
		} else {
			sortField = p.SortBy
		}
	}
	filters := map[string]string{}
	if p.Search != "" {
		filters = parseSearch(p.Search)
	}

	total, err := s.repo.CountFiltered(ctx, filters)
	if err != nil {
		return nil, err
	}
	page := &Page{BookingsPerPage: p.Limit, TotalBookings: total, Bookings: []*enrich.View{}}
	offset, totalPages, currentPage := paginate(total, p.Page, p.Limit)
	page.TotalPages = totalPages
	page.CurrentPage = currentPage
	if total == 0 {
		page.CurrentPage = p.Page
		return page, nil
	}

	bookings, err := s.repo.List(ctx, offset, p.Limit, sortField, sortDir, filters)
	if err != nil {
		return nil, err
	}
	page.Bookings = views(bookings)
	s.enricher.EnrichPage(ctx, page.Bookings)
	return page, nil
}

// Get returns one booking with scatter-gathered foreign data.
func (s *BookingSvc) Get(ctx context.Context, id string) (*enrich.View, error) {
	b, err := s.repo.ByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("/bookings/" + id)
	}
	if err != nil {
		return nil, err
	}
	v := view(b)
	s.enricher.EnrichOne(ctx, v)
	return v, nil
}

// ByDentist pages through the bookings backed by one dentist's timeslots.
// The timeslot ids come from the scheduling service; patient names are
// enriched, and a failed patient lookup degrades to raw ids.
func (s *BookingSvc) ByDentist(ctx context.Context, dentistID string, page, limit int) (*Page, error) {
	if dentistID == "" {
		return nil, apperr.Validation("dentist id is required")
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	byDate, err := s.peers.DentistAppointments(ctx, dentistID)
	if err != nil {
		return nil, err
	}
	var slotIDs []string
	for _, slots := range byDate {
		for _, slot := range slots {
			if id, ok := slot["appointmentId"].(string); ok && id != "" {
				slotIDs = append(slotIDs, id)
			}
		}
	}

	bookings, total, err := s.repo.ByTimeslots(ctx, slotIDs, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}

	out := &Page{
		CurrentPage:     page,
		TotalPages:      int((total + int64(limit) - 1) / int64(limit)),
		BookingsPerPage: limit,
		TotalBookings:   total,
		Bookings:        views(bookings),
	}

	patients, err := s.peers.FetchPatients(ctx)
	if err != nil {
		log.Printf("[booking] patient enrichment unavailable: %v", err)
		return out, nil
	}
	for _, v := range out.Bookings {
		id, ok := v.Patient.(string)
		if !ok {
			continue
		}
		for _, p := range patients {
			if pid, _ := p["id"].(string); pid == id {
				v.Patient = p
				break
			}
		}
	}
	return out, nil
}

func view(b *domain.Booking) *enrich.View {
	return &enrich.View{
		ID:        b.ID,
		Status:    b.Status,
		Timeslot:  b.Timeslot,
		Patient:   b.Patient,
		CreatedAt: b.CreatedAt,
	}
}

func views(bookings []domain.Booking) []*enrich.View {
	out := make([]*enrich.View, len(bookings))
	for i := range bookings {
		out[i] = view(&bookings[i])
	}
	return out
}
