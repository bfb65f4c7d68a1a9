// Package enrich composes booking responses from concurrent peer lookups.
// The policy is strict partial degradation: every lookup runs to its own
// outcome, nothing short-circuits, and a failed lookup leaves the raw
// identifier in place instead of failing the response.
package enrich

import (
	"context"
	"log"
	"sync"
)

// Directory covers the bulk lookups used when enriching a page.
type Directory interface {
	FetchAppointments(ctx context.Context) ([]map[string]any, error)
	FetchPatients(ctx context.Context) ([]map[string]any, error)
	FetchDentists(ctx context.Context) ([]map[string]any, error)
	FetchClinics(ctx context.Context) ([]map[string]any, error)
}

// Lookup covers the single-record lookups used when enriching one booking.
type Lookup interface {
	FetchPatient(ctx context.Context, id string) (map[string]any, error)
	FetchDentist(ctx context.Context, id string) (map[string]any, error)
	FetchClinic(ctx context.Context, id string) (map[string]any, error)
	FetchAppointment(ctx context.Context, id string) (map[string]any, error)
}

// View is a booking as returned to callers. Timeslot and Patient hold raw
// identifiers until enrichment substitutes the foreign records.
type View struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Timeslot  any    `json:"timeslot"`
	Patient   any    `json:"patient"`
	CreatedAt any    `json:"createdAt"`
}

// TimeslotView is an enriched appointment reference; DentistID and ClinicID
// are either raw ids or substituted records.
type TimeslotView struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Status    string `json:"status"`
	DentistID any    `json:"dentistId"`
	ClinicID  any    `json:"clinicId"`
}

type Enricher struct {
	dir    Directory
	lookup Lookup
}

func New(dir Directory, lookup Lookup) *Enricher {
	return &Enricher{dir: dir, lookup: lookup}
}

// gather runs every task to completion and returns each outcome in order.
// This is the deliberate opposite of fail-fast: one down peer must not take
// a whole list endpoint with it.
func gather(ctx context.Context, tasks ...func(context.Context) (any, error)) []outcome {
	outcomes := make([]outcome, len(tasks))
	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func(i int, task func(context.Context) (any, error)) {
			defer wg.Done()
			v, err := task(ctx)
			outcomes[i] = outcome{value: v, err: err}
		}(i, task)
	}
	wg.Wait()
	return outcomes
}

type outcome struct {
	value any
	err   error
}

func (o outcome) records() []map[string]any {
	if o.err != nil || o.value == nil {
		return nil
	}
	recs, _ := o.value.([]map[string]any)
	return recs
}

func (o outcome) record() map[string]any {
	if o.err != nil || o.value == nil {
		return nil
	}
	rec, _ := o.value.(map[string]any)
	return rec
}

func findByID(records []map[string]any, id string) map[string]any {
	for _, rec := range records {
		if rid, _ := rec["id"].(string); rid == id {
			return rec
		}
	}
	return nil
}

// EnrichPage substitutes patient, dentist and clinic records into a page of
// views. Views whose Timeslot is still a raw id only get patient data;
// dentist/clinic substitution needs the embedded timeslot.
func (e *Enricher) EnrichPage(ctx context.Context, views []*View) {
	if len(views) == 0 {
		return
	}

	outcomes := gather(ctx,
		func(ctx context.Context) (any, error) { return e.dir.FetchAppointments(ctx) },
		func(ctx context.Context) (any, error) { return e.dir.FetchPatients(ctx) },
		func(ctx context.Context) (any, error) { return e.dir.FetchDentists(ctx) },
		func(ctx context.Context) (any, error) { return e.dir.FetchClinics(ctx) },
	)
	for i, name := range []string{"appointments", "patients", "dentists", "clinics"} {
		if outcomes[i].err != nil {
			log.Printf("[booking] %s enrichment unavailable: %v", name, outcomes[i].err)
		}
	}
	appointments := outcomes[0].records()
	patients, dentists, clinics := outcomes[1].records(), outcomes[2].records(), outcomes[3].records()

	for _, v := range views {
		if id, ok := v.Patient.(string); ok {
			if rec := findByID(patients, id); rec != nil {
				v.Patient = rec
			}
		}
		if id, ok := v.Timeslot.(string); ok {
			if rec := findByID(appointments, id); rec != nil {
				v.Timeslot = timeslotFromRecord(id, rec)
			}
		}
		ts, ok := v.Timeslot.(*TimeslotView)
		if !ok {
			continue
		}
		if id, ok := ts.DentistID.(string); ok {
			if rec := findByID(dentists, id); rec != nil {
				ts.DentistID = rec
			}
		}
		if id, ok := ts.ClinicID.(string); ok {
			if rec := findByID(clinics, id); rec != nil {
				ts.ClinicID = rec
			}
		}
	}
}

// EnrichOne resolves one booking's appointment, then scatters the patient,
// dentist and clinic lookups. Any failed leg leaves its raw id.
func (e *Enricher) EnrichOne(ctx context.Context, v *View) {
	timeslotID, hasRawSlot := v.Timeslot.(string)
	if hasRawSlot {
		ap, err := e.lookup.FetchAppointment(ctx, timeslotID)
		if err != nil {
			log.Printf("[booking] appointment enrichment unavailable: %v", err)
		} else if ap != nil {
			v.Timeslot = timeslotFromRecord(timeslotID, ap)
		}
	}

	patientID, _ := v.Patient.(string)
	ts, _ := v.Timeslot.(*TimeslotView)
	dentistID := ""
	clinicID := ""
	if ts != nil {
		dentistID, _ = ts.DentistID.(string)
		clinicID, _ = ts.ClinicID.(string)
	}

	outcomes := gather(ctx,
		func(ctx context.Context) (any, error) {
			if patientID == "" {
				return nil, nil
			}
			return e.lookup.FetchPatient(ctx, patientID)
		},
		func(ctx context.Context) (any, error) {
			if dentistID == "" {
				return nil, nil
			}
			return e.lookup.FetchDentist(ctx, dentistID)
		},
		func(ctx context.Context) (any, error) {
			if clinicID == "" {
				return nil, nil
			}
			return e.lookup.FetchClinic(ctx, clinicID)
		},
	)

	if rec := outcomes[0].record(); rec != nil {
		v.Patient = rec
	}
	if ts != nil {
		if rec := outcomes[1].record(); rec != nil {
			ts.DentistID = rec
		}
		if rec := outcomes[2].record(); rec != nil {
			ts.ClinicID = rec
		}
	}
}

func timeslotFromRecord(id string, rec map[string]any) *TimeslotView {
	str := func(k string) string {
		s, _ := rec[k].(string)
		return s
	}
	return &TimeslotView{
		ID:        id,
		Date:      str("date"),
		StartTime: str("start_time"),
		EndTime:   str("end_time"),
		Status:    str("status"),
		DentistID: str("dentistId"),
		ClinicID:  str("clinicId"),
	}
}
