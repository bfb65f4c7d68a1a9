package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/you/clinic-booking/pkg/bus"
)

type NotificationHandler struct {
	r *Relay
}

func NewNotificationHandler(r *Relay) *NotificationHandler {
	return &NotificationHandler{r: r}
}

// GET /notifications/:userId
func (h *NotificationHandler) ByUser(c *gin.Context) {
	h.r.read(c, bus.NotificationsReq)
}

// DELETE /notifications/:id
func (h *NotificationHandler) Delete(c *gin.Context) {
	h.r.write(c, bus.NotificationsReq)
}
