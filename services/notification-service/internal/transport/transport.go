// Package transport binds the notification read operations onto the bus
// router.
package transport

import (
	"context"
	"errors"
	"net/http"

	"gorm.io/gorm"

	"github.com/you/clinic-booking/pkg/apperr"
	"github.com/you/clinic-booking/pkg/bus"
	"github.com/you/clinic-booking/services/notification-service/internal/repository"
)

func Register(rt *bus.Router, repo *repository.NotificationRepo) {
	rt.Handle(http.MethodGet, "/notifications/:userId", func(ctx context.Context, req *bus.Request) (any, int, error) {
		out, err := repo.ByUser(ctx, req.Params["userId"])
		return out, http.StatusOK, err
	})

	rt.Handle(http.MethodDelete, "/notifications/:id", func(ctx context.Context, req *bus.Request) (any, int, error) {
		err := repo.Delete(ctx, req.Params["id"])
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, apperr.NotFound("/notifications/" + req.Params["id"])
		}
		if err != nil {
			return nil, 0, err
		}
		return map[string]string{"deleted": req.Params["id"]}, http.StatusOK, nil
	})
}
