package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/you/clinic-booking/pkg/bus"
)

type BookingHandler struct {
	r *Relay
}

func NewBookingHandler(r *Relay) *BookingHandler {
	return &BookingHandler{r: r}
}

// POST /bookings
func (h *BookingHandler) Create(c *gin.Context) {
	h.r.write(c, bus.BookingsReq)
}

// GET /bookings?page=&limit=&sortBy=&search=
func (h *BookingHandler) List(c *gin.Context) {
	h.r.read(c, bus.BookingsReq)
}

// GET /bookings/:id
func (h *BookingHandler) Get(c *gin.Context) {
	h.r.read(c, bus.BookingsReq)
}

// GET /bookings/dentist/:dentistId
func (h *BookingHandler) ByDentist(c *gin.Context) {
	h.r.read(c, bus.BookingsReq)
}

// PATCH /bookings/:id confirms the booking.
func (h *BookingHandler) Confirm(c *gin.Context) {
	h.r.write(c, bus.BookingsReq)
}

// DELETE /bookings/:id cancels the booking.
func (h *BookingHandler) Cancel(c *gin.Context) {
	h.r.write(c, bus.BookingsReq)
}
