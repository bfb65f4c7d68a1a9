package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/you/clinic-booking/pkg/bus"
)

type AppointmentHandler struct {
	r *Relay
}

func NewAppointmentHandler(r *Relay) *AppointmentHandler {
	return &AppointmentHandler{r: r}
}

// POST /appointments
func (h *AppointmentHandler) Create(c *gin.Context) {
	h.r.write(c, bus.AppointmentsReq)
}

// GET /appointments
func (h *AppointmentHandler) List(c *gin.Context) {
	h.r.read(c, bus.AppointmentsReq)
}

// GET /appointments/:id
func (h *AppointmentHandler) Get(c *gin.Context) {
	h.r.read(c, bus.AppointmentsReq)
}

// GET /appointments/clinic/:clinicId
func (h *AppointmentHandler) ByClinic(c *gin.Context) {
	h.r.read(c, bus.AppointmentsReq)
}

// GET /appointments/dentist/:dentistId
func (h *AppointmentHandler) ByDentist(c *gin.Context) {
	h.r.read(c, bus.AppointmentsReq)
}

// GET /appointments/status
func (h *AppointmentHandler) Availability(c *gin.Context) {
	h.r.read(c, bus.AppointmentsReq)
}

// GET /appointments/status/:clinicId
func (h *AppointmentHandler) ClinicAvailability(c *gin.Context) {
	h.r.read(c, bus.AppointmentsReq)
}

// PATCH /appointments/:id
func (h *AppointmentHandler) Update(c *gin.Context) {
	h.r.write(c, bus.AppointmentsReq)
}

// DELETE /appointments/:id
func (h *AppointmentHandler) Delete(c *gin.Context) {
	h.r.write(c, bus.AppointmentsReq)
}
