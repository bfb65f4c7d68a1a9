package enrich

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePeers struct {
	appointments []map[string]any
	patients     []map[string]any
	dentists     []map[string]any
	clinics      []map[string]any

	appointmentsErr error
	patientsErr     error
	dentistsErr     error
	clinicsErr      error
}

func (f *fakePeers) FetchAppointments(context.Context) ([]map[string]any, error) {
	return f.appointments, f.appointmentsErr
}
func (f *fakePeers) FetchPatients(context.Context) ([]map[string]any, error) {
	return f.patients, f.patientsErr
}
func (f *fakePeers) FetchDentists(context.Context) ([]map[string]any, error) {
	return f.dentists, f.dentistsErr
}
func (f *fakePeers) FetchClinics(context.Context) ([]map[string]any, error) {
	return f.clinics, f.clinicsErr
}

func (f *fakePeers) FetchPatient(_ context.Context, id string) (map[string]any, error) {
	if f.patientsErr != nil {
		return nil, f.patientsErr
	}
	return findByID(f.patients, id), nil
}
func (f *fakePeers) FetchDentist(_ context.Context, id string) (map[string]any, error) {
	if f.dentistsErr != nil {
		return nil, f.dentistsErr
	}
	return findByID(f.dentists, id), nil
}
func (f *fakePeers) FetchClinic(_ context.Context, id string) (map[string]any, error) {
	if f.clinicsErr != nil {
		return nil, f.clinicsErr
	}
	return findByID(f.clinics, id), nil
}
func (f *fakePeers) FetchAppointment(_ context.Context, id string) (map[string]any, error) {
	if f.appointmentsErr != nil {
		return nil, f.appointmentsErr
	}
	return findByID(f.appointments, id), nil
}

func allPeersUp() *fakePeers {
	return &fakePeers{
		appointments: []map[string]any{{
			"id": "ap1", "date": "2024-03-01", "start_time": "09:00", "end_time": "10:00",
			"status": "RESERVED", "dentistId": "d1", "clinicId": "c1",
		}},
		patients: []map[string]any{{"id": "p1", "first_name": "Ada", "last_name": "Lovelace"}},
		dentists: []map[string]any{{"id": "d1", "first_name": "John"}},
		clinics:  []map[string]any{{"id": "c1", "name": "Downtown"}},
	}
}

func TestEnrichPageSubstitutesAllForeignData(t *testing.T) {
	e := New(allPeersUp(), allPeersUp())
	v := &View{ID: "b1", Status: "PENDING", Timeslot: "ap1", Patient: "p1"}

	e.EnrichPage(context.Background(), []*View{v})

	patient, ok := v.Patient.(map[string]any)
	require.True(t, ok, "patient should be substituted")
	assert.Equal(t, "Ada", patient["first_name"])

	ts, ok := v.Timeslot.(*TimeslotView)
	require.True(t, ok, "timeslot should be substituted")
	assert.Equal(t, "09:00", ts.StartTime)
	dentist, ok := ts.DentistID.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "John", dentist["first_name"])
	clinic, ok := ts.ClinicID.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Downtown", clinic["name"])
}

func TestEnrichPageDegradesPerFailedPeer(t *testing.T) {
	peers := allPeersUp()
	peers.dentistsErr = errors.New("dentist service unreachable")
	e := New(peers, peers)
	v := &View{ID: "b1", Status: "PENDING", Timeslot: "ap1", Patient: "p1"}

	e.EnrichPage(context.Background(), []*View{v})

	// patient leg succeeded
	patient, ok := v.Patient.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "p1", patient["id"])

	// dentist leg failed: the raw id must survive, and the response as a
	// whole still carries clinic and timeslot data
	ts, ok := v.Timeslot.(*TimeslotView)
	require.True(t, ok)
	assert.Equal(t, "d1", ts.DentistID)
	_, ok = ts.ClinicID.(map[string]any)
	assert.True(t, ok)
}

func TestEnrichPageAllPeersDownLeavesRawIDs(t *testing.T) {
	down := errors.New("broker partition")
	peers := &fakePeers{appointmentsErr: down, patientsErr: down, dentistsErr: down, clinicsErr: down}
	e := New(peers, peers)
	v := &View{ID: "b1", Timeslot: "ap1", Patient: "p1"}

	e.EnrichPage(context.Background(), []*View{v})

	assert.Equal(t, "ap1", v.Timeslot)
	assert.Equal(t, "p1", v.Patient)
}

func TestEnrichPageUnknownIDsAreKept(t *testing.T) {
	e := New(allPeersUp(), allPeersUp())
	v := &View{ID: "b1", Timeslot: "ghost-slot", Patient: "ghost-patient"}

	e.EnrichPage(context.Background(), []*View{v})

	assert.Equal(t, "ghost-slot", v.Timeslot)
	assert.Equal(t, "ghost-patient", v.Patient)
}

func TestEnrichOneScattersAroundTheAppointment(t *testing.T) {
	e := New(allPeersUp(), allPeersUp())
	v := &View{ID: "b1", Timeslot: "ap1", Patient: "p1"}

	e.EnrichOne(context.Background(), v)

	ts, ok := v.Timeslot.(*TimeslotView)
	require.True(t, ok)
	assert.Equal(t, "ap1", ts.ID)
	_, ok = ts.DentistID.(map[string]any)
	assert.True(t, ok)
	_, ok = v.Patient.(map[string]any)
	assert.True(t, ok)
}

func TestEnrichOneWithoutAppointmentStillEnrichesPatient(t *testing.T) {
	peers := allPeersUp()
	peers.appointmentsErr = errors.New("scheduling down")
	e := New(peers, peers)
	v := &View{ID: "b1", Timeslot: "ap1", Patient: "p1"}

	e.EnrichOne(context.Background(), v)

	// timeslot could not be resolved, so dentist/clinic stay unknown,
	// but the patient leg is independent and still succeeds
	assert.Equal(t, "ap1", v.Timeslot)
	_, ok := v.Patient.(map[string]any)
	assert.True(t, ok)
}
