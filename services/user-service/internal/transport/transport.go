// Package transport binds the user operations onto the bus router.
package transport

import (
	"context"
	"net/http"

	"github.com/you/clinic-booking/pkg/apperr"
	"github.com/you/clinic-booking/pkg/bus"
	"github.com/you/clinic-booking/services/user-service/internal/service"
)

func Register(rt *bus.Router, svc *service.UserSvc) {
	rt.Handle(http.MethodPost, "/users", func(ctx context.Context, req *bus.Request) (any, int, error) {
		in, err := bus.Decode[service.RegisterInput](req.Envelope)
		if err != nil {
			return nil, 0, apperr.Validation(err.Error())
		}
		out, err := svc.Register(ctx, in)
		return out, http.StatusCreated, err
	})

	rt.Handle(http.MethodPost, "/login", func(ctx context.Context, req *bus.Request) (any, int, error) {
		in, err := bus.Decode[service.LoginInput](req.Envelope)
		if err != nil {
			return nil, 0, apperr.Validation(err.Error())
		}
		out, err := svc.Login(ctx, in)
		return out, http.StatusOK, err
	})

	rt.Handle(http.MethodGet, "/users", func(ctx context.Context, req *bus.Request) (any, int, error) {
		out, err := svc.All(ctx)
		return out, http.StatusOK, err
	})

	rt.Handle(http.MethodGet, "/users/:id", func(ctx context.Context, req *bus.Request) (any, int, error) {
		out, err := svc.ByID(ctx, req.Params["id"])
		return out, http.StatusOK, err
	})

	rt.Handle(http.MethodPatch, "/users/:id", func(ctx context.Context, req *bus.Request) (any, int, error) {
		in, err := bus.Decode[service.UpdateInput](req.Envelope)
		if err != nil {
			return nil, 0, apperr.Validation(err.Error())
		}
		out, err := svc.Update(ctx, req.Params["id"], in)
		return out, http.StatusOK, err
	})

	rt.Handle(http.MethodDelete, "/users/:id", func(ctx context.Context, req *bus.Request) (any, int, error) {
		if err := svc.Delete(ctx, req.Params["id"]); err != nil {
			return nil, 0, err
		}
		return map[string]string{"deleted": req.Params["id"]}, http.StatusOK, nil
	})
}
