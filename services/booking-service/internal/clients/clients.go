// Package clients wraps the correlated calls this service issues to its
// peers. Every method is one request/response exchange over the bus; none
// of them touch the peer's storage directly.
package clients

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/you/clinic-booking/pkg/bus"
)

type Clients struct {
	caller  *bus.Caller
	timeout time.Duration
}

func New(caller *bus.Caller, timeout time.Duration) *Clients {
	return &Clients{caller: caller, timeout: timeout}
}

func (c *Clients) get(ctx context.Context, key, path string) (bus.Envelope, error) {
	res, err := c.caller.Call(ctx, key, bus.Envelope{Method: http.MethodGet, Path: path}, c.timeout)
	if err != nil {
		return bus.Envelope{}, err
	}
	if res.StatusOrOK() >= 300 {
		return bus.Envelope{}, fmt.Errorf("GET %s: status %d", path, res.StatusOrOK())
	}
	return res, nil
}

func decodeList(res bus.Envelope, err error) ([]map[string]any, error) {
	if err != nil {
		return nil, err
	}
	return bus.Decode[[]map[string]any](res)
}

func decodeOne(res bus.Envelope, err error) (map[string]any, error) {
	if err != nil {
		return nil, err
	}
	return bus.Decode[map[string]any](res)
}

func (c *Clients) FetchPatients(ctx context.Context) ([]map[string]any, error) {
	return decodeList(c.get(ctx, bus.UsersReq, "/users"))
}

func (c *Clients) FetchPatient(ctx context.Context, id string) (map[string]any, error) {
	return decodeOne(c.get(ctx, bus.UsersReq, "/users/"+id))
}

func (c *Clients) FetchDentists(ctx context.Context) ([]map[string]any, error) {
	return decodeList(c.get(ctx, bus.DentistsReq, "/dentists"))
}

func (c *Clients) FetchDentist(ctx context.Context, id string) (map[string]any, error) {
	return decodeOne(c.get(ctx, bus.DentistsReq, "/dentists/"+id))
}

func (c *Clients) FetchClinics(ctx context.Context) ([]map[string]any, error) {
	return decodeList(c.get(ctx, bus.ClinicsReq, "/clinics"))
}

func (c *Clients) FetchClinic(ctx context.Context, id string) (map[string]any, error) {
	return decodeOne(c.get(ctx, bus.ClinicsReq, "/clinics/"+id))
}

func (c *Clients) FetchAppointments(ctx context.Context) ([]map[string]any, error) {
	return decodeList(c.get(ctx, bus.AppointmentsReq, "/appointments"))
}

func (c *Clients) FetchAppointment(ctx context.Context, id string) (map[string]any, error) {
	return decodeOne(c.get(ctx, bus.AppointmentsReq, "/appointments/"+id))
}

// DentistAppointments returns the scheduling service's date -> slots
// grouping for one dentist.
func (c *Clients) DentistAppointments(ctx context.Context, dentistID string) (map[string][]map[string]any, error) {
	res, err := c.get(ctx, bus.AppointmentsReq, "/appointments/dentist/"+dentistID)
	if err != nil {
		return nil, err
	}
	return bus.Decode[map[string][]map[string]any](res)
}

// SetAppointmentStatus asks the scheduling service to flip an appointment's
// status. Callers decide whether to await it or fire and forget.
func (c *Clients) SetAppointmentStatus(ctx context.Context, id, status string) error {
	res, err := c.caller.Call(ctx, bus.AppointmentsReq, bus.Envelope{
		Method: http.MethodPatch,
		Path:   "/appointments/" + id,
		Data:   bus.MustData(map[string]string{"status": status}),
	}, c.timeout)
	if err != nil {
		return err
	}
	if res.StatusOrOK() >= 300 {
		return fmt.Errorf("PATCH /appointments/%s: status %d", id, res.StatusOrOK())
	}
	return nil
}
