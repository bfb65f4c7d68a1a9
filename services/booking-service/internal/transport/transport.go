// Package transport binds the booking operations onto the bus router.
package transport

import (
	"context"
	"net/http"
	"strconv"

	"github.com/you/clinic-booking/pkg/apperr"
	"github.com/you/clinic-booking/pkg/bus"
	"github.com/you/clinic-booking/services/booking-service/internal/service"
)

func intQuery(req *bus.Request, key string, def int) int {
	if v, err := strconv.Atoi(req.Query[key]); err == nil {
		return v
	}
	return def
}

// Register wires the booking routes; /bookings/dentist/:dentistId goes
// before /bookings/:id so the keyword path is not swallowed by the id
// pattern.
func Register(rt *bus.Router, svc *service.BookingSvc) {
	rt.Handle(http.MethodGet, "/bookings/dentist/:dentistId", func(ctx context.Context, req *bus.Request) (any, int, error) {
		out, err := svc.ByDentist(ctx, req.Params["dentistId"], intQuery(req, "page", 1), intQuery(req, "limit", 10))
		return out, http.StatusOK, err
	})

	rt.Handle(http.MethodGet, "/bookings/:id", func(ctx context.Context, req *bus.Request) (any, int, error) {
		out, err := svc.Get(ctx, req.Params["id"])
		return out, http.StatusOK, err
	})

	rt.Handle(http.MethodGet, "/bookings", func(ctx context.Context, req *bus.Request) (any, int, error) {
		out, err := svc.List(ctx, service.ListParams{
			Page:   intQuery(req, "page", 1),
			Limit:  intQuery(req, "limit", 10),
			SortBy: req.Query["sortBy"],
			Search: req.Query["search"],
		})
		return out, http.StatusOK, err
	})

	rt.Handle(http.MethodPost, "/bookings", func(ctx context.Context, req *bus.Request) (any, int, error) {
		in, err := bus.Decode[service.CreateInput](req.Envelope)
		if err != nil {
			return nil, 0, apperr.Validation(err.Error())
		}
		out, err := svc.Create(ctx, in)
		return out, http.StatusCreated, err
	})

	rt.Handle(http.MethodPatch, "/bookings/:id", func(ctx context.Context, req *bus.Request) (any, int, error) {
		out, err := svc.Confirm(ctx, req.Params["id"])
		return out, http.StatusOK, err
	})

	rt.Handle(http.MethodDelete, "/bookings/:id", func(ctx context.Context, req *bus.Request) (any, int, error) {
		out, err := svc.Cancel(ctx, req.Params["id"])
		return out, http.StatusOK, err
	})
}
