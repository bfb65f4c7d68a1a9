package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/you/clinic-booking/pkg/apperr"
	"github.com/you/clinic-booking/services/booking-service/internal/domain"
	"github.com/you/clinic-booking/services/booking-service/internal/enrich"
	"github.com/you/clinic-booking/services/booking-service/internal/repository"
)

// fakeScheduler records the appointment status flips the service requests
// and doubles as the enrichment peer directory.
type fakeScheduler struct {
	mu    sync.Mutex
	flips []flip

	flipped chan flip
	flipErr error

	byDentist    map[string][]map[string]any
	byDentistErr error

	patients    []map[string]any
	patientsErr error
}

type flip struct{ id, status string }

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{flipped: make(chan flip, 8)}
}

func (f *fakeScheduler) SetAppointmentStatus(_ context.Context, id, status string) error {
	f.mu.Lock()
	f.flips = append(f.flips, flip{id, status})
	f.mu.Unlock()
	f.flipped <- flip{id, status}
	return f.flipErr
}

func (f *fakeScheduler) DentistAppointments(context.Context, string) (map[string][]map[string]any, error) {
	return f.byDentist, f.byDentistErr
}

func (f *fakeScheduler) FetchPatients(context.Context) ([]map[string]any, error) {
	return f.patients, f.patientsErr
}

func (f *fakeScheduler) awaitFlip(t *testing.T) flip {
	t.Helper()
	select {
	case fl := <-f.flipped:
		return fl
	case <-time.After(2 * time.Second):
		t.Fatal("no appointment status flip was requested")
		return flip{}
	}
}

// quietPeers satisfies the enricher without any data, so every lookup
// degrades to raw ids.
type quietPeers struct{}

func (quietPeers) FetchAppointments(context.Context) ([]map[string]any, error) { return nil, nil }
func (quietPeers) FetchPatients(context.Context) ([]map[string]any, error)     { return nil, nil }
func (quietPeers) FetchDentists(context.Context) ([]map[string]any, error)     { return nil, nil }
func (quietPeers) FetchClinics(context.Context) ([]map[string]any, error)      { return nil, nil }
func (quietPeers) FetchPatient(context.Context, string) (map[string]any, error) {
	return nil, nil
}
func (quietPeers) FetchDentist(context.Context, string) (map[string]any, error) {
	return nil, nil
}
func (quietPeers) FetchClinic(context.Context, string) (map[string]any, error) {
	return nil, nil
}
func (quietPeers) FetchAppointment(context.Context, string) (map[string]any, error) {
	return nil, nil
}

type fakeEvents struct {
	mu   sync.Mutex
	keys []string
	sent chan string
}

func newFakeEvents() *fakeEvents {
	return &fakeEvents{sent: make(chan string, 8)}
}

func (f *fakeEvents) PublishJSON(_ context.Context, key string, _ any) error {
	f.mu.Lock()
	f.keys = append(f.keys, key)
	f.mu.Unlock()
	f.sent <- key
	return nil
}

func (f *fakeEvents) awaitKey(t *testing.T) string {
	t.Helper()
	select {
	case k := <-f.sent:
		return k
	case <-time.After(2 * time.Second):
		t.Fatal("no event was published")
		return ""
	}
}

func newSvc(t *testing.T) (*BookingSvc, *repository.BookingRepo, *fakeScheduler, *fakeEvents) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	repo := repository.NewBookingRepo(db)
	require.NoError(t, repo.Migrate())

	sched := newFakeScheduler()
	events := newFakeEvents()
	svc := NewBookingSvc(repo, sched, enrich.New(quietPeers{}, quietPeers{}), events, 2*time.Second)
	return svc, repo, sched, events
}

func TestCreateReservesAppointmentAfterResponding(t *testing.T) {
	svc, _, sched, events := newSvc(t)

	b, err := svc.Create(context.Background(), CreateInput{Timeslot: "ap1", Patient: "p1"})
	require.NoError(t, err)
	assert.NotEmpty(t, b.ID)
	assert.Equal(t, domain.StatusPending, b.Status)

	fl := sched.awaitFlip(t)
	assert.Equal(t, "ap1", fl.id)
	assert.Equal(t, "RESERVED", fl.status)
	assert.Equal(t, "booking.created", events.awaitKey(t))
}

func TestCreateRejectsSecondBookingForSameTimeslot(t *testing.T) {
	svc, repo, sched, _ := newSvc(t)

	_, err := svc.Create(context.Background(), CreateInput{Timeslot: "ap1", Patient: "p1"})
	require.NoError(t, err)
	sched.awaitFlip(t)

	_, err = svc.Create(context.Background(), CreateInput{Timeslot: "ap1", Patient: "p2"})
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, 400, ae.Status)
	assert.Equal(t, "Booking unsuccessful", ae.Message)
	assert.Equal(t, "Booking timeslot is no longer available", ae.Details)

	// the losing attempt must not request a flip or leave a row behind
	total, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	select {
	case fl := <-sched.flipped:
		t.Fatalf("unexpected flip %v after rejected booking", fl)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestCreateValidatesInput(t *testing.T) {
	svc, _, _, _ := newSvc(t)
	_, err := svc.Create(context.Background(), CreateInput{Patient: "p1"})
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, 400, ae.Status)
}

func TestCreateSucceedsEvenWhenFlipFails(t *testing.T) {
	svc, repo, sched, _ := newSvc(t)
	sched.flipErr = errors.New("scheduling unreachable")

	b, err := svc.Create(context.Background(), CreateInput{Timeslot: "ap1", Patient: "p1"})
	require.NoError(t, err)
	sched.awaitFlip(t)

	got, err := repo.ByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)
}

func TestConfirmIsIdempotent(t *testing.T) {
	svc, _, sched, _ := newSvc(t)
	b, err := svc.Create(context.Background(), CreateInput{Timeslot: "ap1", Patient: "p1"})
	require.NoError(t, err)
	sched.awaitFlip(t)

	first, err := svc.Confirm(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, first.Status)

	second, err := svc.Confirm(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, second.Status)
	assert.Equal(t, first.UpdatedAt, second.UpdatedAt, "repeat confirm must not rewrite the row")
}

func TestConfirmUnknownBookingIs404(t *testing.T) {
	svc, _, _, _ := newSvc(t)
	_, err := svc.Confirm(context.Background(), "missing")
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, 404, ae.Status)
}

func TestCancelArchivesExactlyOnceAndFreesSlot(t *testing.T) {
	svc, repo, sched, events := newSvc(t)
	b, err := svc.Create(context.Background(), CreateInput{Timeslot: "ap1", Patient: "p1"})
	require.NoError(t, err)
	sched.awaitFlip(t)
	events.awaitKey(t)

	archived, err := svc.Cancel(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCanceled, archived.Status)
	assert.Equal(t, "ap1", archived.Timeslot)
	assert.NotEqual(t, b.ID, archived.ID, "tombstone carries its own id")

	fl := sched.awaitFlip(t)
	assert.Equal(t, "FREE", fl.status)
	assert.Equal(t, "booking.canceled", events.awaitKey(t))

	_, err = repo.ByID(context.Background(), b.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	tombstones, err := repo.CanceledCount(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, tombstones)

	// canceling again hits the missing row, not a second tombstone
	_, err = svc.Cancel(context.Background(), b.ID)
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, 404, ae.Status)
	tombstones, err = repo.CanceledCount(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, tombstones)
}

func TestCancelFreesTimeslotForRebooking(t *testing.T) {
	svc, _, sched, _ := newSvc(t)
	b, err := svc.Create(context.Background(), CreateInput{Timeslot: "ap1", Patient: "p1"})
	require.NoError(t, err)
	sched.awaitFlip(t)

	_, err = svc.Cancel(context.Background(), b.ID)
	require.NoError(t, err)
	sched.awaitFlip(t)

	_, err = svc.Create(context.Background(), CreateInput{Timeslot: "ap1", Patient: "p2"})
	assert.NoError(t, err, "a canceled timeslot is bookable again")
}

func seedBookings(t *testing.T, svc *BookingSvc, sched *fakeScheduler, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := svc.Create(context.Background(), CreateInput{
			Timeslot: "slot-" + string(rune('a'+i)),
			Patient:  "patient-" + string(rune('a'+i)),
		})
		require.NoError(t, err)
		sched.awaitFlip(t)
	}
}

func TestListPaginates(t *testing.T) {
	svc, _, sched, _ := newSvc(t)
	seedBookings(t, svc, sched, 5)

	page, err := svc.List(context.Background(), ListParams{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, 3, page.TotalPages)
	assert.EqualValues(t, 5, page.TotalBookings)
	assert.Len(t, page.Bookings, 2)

	last, err := svc.List(context.Background(), ListParams{Page: 3, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, last.Bookings, 1)
}

func TestListClampsPageIntoRange(t *testing.T) {
	svc, _, sched, _ := newSvc(t)
	seedBookings(t, svc, sched, 3)

	page, err := svc.List(context.Background(), ListParams{Page: 99, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, page.CurrentPage)
	assert.Len(t, page.Bookings, 1)
}

func TestListFiltersBySearchTokens(t *testing.T) {
	svc, _, sched, _ := newSvc(t)
	seedBookings(t, svc, sched, 3)
	b, err := svc.Create(context.Background(), CreateInput{Timeslot: "vip-slot", Patient: "vip-patient"})
	require.NoError(t, err)
	sched.awaitFlip(t)
	_, err = svc.Confirm(context.Background(), b.ID)
	require.NoError(t, err)

	page, err := svc.List(context.Background(), ListParams{Search: "patient:vip"})
	require.NoError(t, err)
	require.Len(t, page.Bookings, 1)
	assert.Equal(t, "vip-patient", page.Bookings[0].Patient)

	page, err = svc.List(context.Background(), ListParams{Search: "status:CONFIRMED"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.TotalBookings)
}

func TestListEmptyGivesEmptyPage(t *testing.T) {
	svc, _, _, _ := newSvc(t)
	page, err := svc.List(context.Background(), ListParams{Page: 2, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 0, page.TotalBookings)
	assert.NotNil(t, page.Bookings)
	assert.Empty(t, page.Bookings)
}

func TestGetUnknownBookingIs404(t *testing.T) {
	svc, _, _, _ := newSvc(t)
	_, err := svc.Get(context.Background(), "missing")
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, 404, ae.Status)
}

func TestByDentistJoinsSlotsAndEnrichesPatients(t *testing.T) {
	svc, _, sched, _ := newSvc(t)
	sched.byDentist = map[string][]map[string]any{
		"2024-03-01": {
			{"appointmentId": "slot-a", "start_time": "09:00"},
			{"appointmentId": "slot-b", "start_time": "10:00"},
		},
	}
	sched.patients = []map[string]any{{"id": "patient-a", "first_name": "Ada"}}
	seedBookings(t, svc, sched, 3) // slot-a..slot-c

	page, err := svc.ByDentist(context.Background(), "d1", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.TotalBookings)
	require.Len(t, page.Bookings, 2)

	var enrichedOne bool
	for _, v := range page.Bookings {
		if rec, ok := v.Patient.(map[string]any); ok {
			assert.Equal(t, "Ada", rec["first_name"])
			enrichedOne = true
		}
	}
	assert.True(t, enrichedOne, "patient-a should have been substituted")
}

func TestByDentistDegradesWhenPatientsUnavailable(t *testing.T) {
	svc, _, sched, _ := newSvc(t)
	sched.byDentist = map[string][]map[string]any{
		"2024-03-01": {{"appointmentId": "slot-a"}},
	}
	sched.patientsErr = errors.New("user service unreachable")
	seedBookings(t, svc, sched, 1)

	page, err := svc.ByDentist(context.Background(), "d1", 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Bookings, 1)
	assert.Equal(t, "patient-a", page.Bookings[0].Patient, "raw id survives a failed lookup")
}

func TestByDentistWithNoSlotsIsEmpty(t *testing.T) {
	svc, _, sched, _ := newSvc(t)
	sched.byDentist = map[string][]map[string]any{}

	page, err := svc.ByDentist(context.Background(), "d1", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 0, page.TotalBookings)
}
