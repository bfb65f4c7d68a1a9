// Package transport binds the clinic and dentist directory operations onto
// the bus router.
package transport

import (
	"context"
	"net/http"

	"github.com/you/clinic-booking/pkg/apperr"
	"github.com/you/clinic-booking/pkg/bus"
	"github.com/you/clinic-booking/services/dentist-service/internal/service"
)

func Register(rt *bus.Router, svc *service.DirectorySvc) {
	rt.Handle(http.MethodGet, "/clinics", func(ctx context.Context, req *bus.Request) (any, int, error) {
		out, err := svc.Clinics(ctx)
		return out, http.StatusOK, err
	})

	rt.Handle(http.MethodPost, "/clinics", func(ctx context.Context, req *bus.Request) (any, int, error) {
		in, err := bus.Decode[service.ClinicInput](req.Envelope)
		if err != nil {
			return nil, 0, apperr.Validation(err.Error())
		}
		out, err := svc.CreateClinic(ctx, in)
		return out, http.StatusCreated, err
	})

	rt.Handle(http.MethodGet, "/clinics/:clinicId", func(ctx context.Context, req *bus.Request) (any, int, error) {
		out, err := svc.Clinic(ctx, req.Params["clinicId"])
		return out, http.StatusOK, err
	})

	rt.Handle(http.MethodPut, "/clinics/:clinicId", func(ctx context.Context, req *bus.Request) (any, int, error) {
		in, err := bus.Decode[service.ClinicInput](req.Envelope)
		if err != nil {
			return nil, 0, apperr.Validation(err.Error())
		}
		out, err := svc.UpdateClinic(ctx, req.Params["clinicId"], in)
		return out, http.StatusOK, err
	})

	rt.Handle(http.MethodDelete, "/clinics/:clinicId", func(ctx context.Context, req *bus.Request) (any, int, error) {
		if err := svc.DeleteClinic(ctx, req.Params["clinicId"]); err != nil {
			return nil, 0, err
		}
		return map[string]string{"deleted": req.Params["clinicId"]}, http.StatusOK, nil
	})

	rt.Handle(http.MethodGet, "/clinics/:clinicId/dentists", func(ctx context.Context, req *bus.Request) (any, int, error) {
		out, err := svc.ClinicDentists(ctx, req.Params["clinicId"])
		return out, http.StatusOK, err
	})

	rt.Handle(http.MethodPost, "/clinics/:clinicId/dentists", func(ctx context.Context, req *bus.Request) (any, int, error) {
		in, err := bus.Decode[service.DentistInput](req.Envelope)
		if err != nil {
			return nil, 0, apperr.Validation(err.Error())
		}
		out, err := svc.AddDentist(ctx, req.Params["clinicId"], in)
		return out, http.StatusCreated, err
	})

	rt.Handle(http.MethodGet, "/clinics/:clinicId/dentists/:dentistId", func(ctx context.Context, req *bus.Request) (any, int, error) {
		out, err := svc.ClinicDentist(ctx, req.Params["clinicId"], req.Params["dentistId"])
		return out, http.StatusOK, err
	})

	rt.Handle(http.MethodPut, "/clinics/:clinicId/dentists/:dentistId", func(ctx context.Context, req *bus.Request) (any, int, error) {
		in, err := bus.Decode[service.DentistInput](req.Envelope)
		if err != nil {
			return nil, 0, apperr.Validation(err.Error())
		}
		out, err := svc.UpdateDentist(ctx, req.Params["clinicId"], req.Params["dentistId"], in)
		return out, http.StatusOK, err
	})

	rt.Handle(http.MethodDelete, "/clinics/:clinicId/dentists/:dentistId", func(ctx context.Context, req *bus.Request) (any, int, error) {
		if err := svc.RemoveDentist(ctx, req.Params["clinicId"], req.Params["dentistId"]); err != nil {
			return nil, 0, err
		}
		return map[string]string{"deleted": req.Params["dentistId"]}, http.StatusOK, nil
	})

	rt.Handle(http.MethodGet, "/dentists", func(ctx context.Context, req *bus.Request) (any, int, error) {
		out, err := svc.Dentists(ctx)
		return out, http.StatusOK, err
	})

	rt.Handle(http.MethodGet, "/dentists/:id", func(ctx context.Context, req *bus.Request) (any, int, error) {
		out, err := svc.Dentist(ctx, req.Params["id"])
		return out, http.StatusOK, err
	})
}
