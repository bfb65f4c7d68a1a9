// Package transport binds the appointment operations onto the bus router.
package transport

import (
	"context"
	"net/http"

	"github.com/you/clinic-booking/pkg/apperr"
	"github.com/you/clinic-booking/pkg/bus"
	"github.com/you/clinic-booking/services/scheduling-service/internal/service"
)

// Register wires every appointment route. Order matters: the static
// /appointments/status patterns and the multi-keyword patterns go first so
// the bare :id pattern cannot shadow them.
func Register(rt *bus.Router, svc *service.AppointmentSvc) {
	rt.Handle(http.MethodGet, "/appointments/status", func(ctx context.Context, req *bus.Request) (any, int, error) {
		out, err := svc.AllAvailability(ctx)
		return out, http.StatusOK, err
	})

	rt.Handle(http.MethodGet, "/appointments/status/:clinicId", func(ctx context.Context, req *bus.Request) (any, int, error) {
		out, err := svc.Availability(ctx, req.Params["clinicId"])
		return out, http.StatusOK, err
	})

	rt.Handle(http.MethodGet, "/appointments/clinic/:clinicId", func(ctx context.Context, req *bus.Request) (any, int, error) {
		out, err := svc.ByClinic(ctx, req.Params["clinicId"])
		return out, http.StatusOK, err
	})

	rt.Handle(http.MethodGet, "/appointments/dentist/:dentistId", func(ctx context.Context, req *bus.Request) (any, int, error) {
		out, err := svc.ByDentist(ctx, req.Params["dentistId"])
		return out, http.StatusOK, err
	})

	rt.Handle(http.MethodGet, "/appointments/:id", func(ctx context.Context, req *bus.Request) (any, int, error) {
		out, err := svc.ByID(ctx, req.Params["id"])
		return out, http.StatusOK, err
	})

	rt.Handle(http.MethodGet, "/appointments", func(ctx context.Context, req *bus.Request) (any, int, error) {
		out, err := svc.All(ctx)
		return out, http.StatusOK, err
	})

	rt.Handle(http.MethodPost, "/appointments", func(ctx context.Context, req *bus.Request) (any, int, error) {
		in, err := bus.Decode[service.CreateInput](req.Envelope)
		if err != nil {
			return nil, 0, apperr.Validation(err.Error())
		}
		out, err := svc.Create(ctx, in)
		return out, http.StatusCreated, err
	})

	rt.Handle(http.MethodPatch, "/appointments/:id", func(ctx context.Context, req *bus.Request) (any, int, error) {
		in, err := bus.Decode[service.UpdateInput](req.Envelope)
		if err != nil {
			return nil, 0, apperr.Validation(err.Error())
		}
		out, err := svc.Update(ctx, req.Params["id"], in)
		return out, http.StatusOK, err
	})

	rt.Handle(http.MethodDelete, "/appointments/:id", func(ctx context.Context, req *bus.Request) (any, int, error) {
		if err := svc.Delete(ctx, req.Params["id"]); err != nil {
			return nil, 0, err
		}
		return map[string]string{"deleted": req.Params["id"]}, http.StatusOK, nil
	})
}
