package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/you/clinic-booking/pkg/bus"
)

type ClinicHandler struct {
	r *Relay
}

func NewClinicHandler(r *Relay) *ClinicHandler {
	return &ClinicHandler{r: r}
}

// POST /clinics
func (h *ClinicHandler) Create(c *gin.Context) {
	h.r.write(c, bus.ClinicsReq)
}

// GET /clinics
func (h *ClinicHandler) List(c *gin.Context) {
	h.r.read(c, bus.ClinicsReq)
}

// GET /clinics/:clinicId
func (h *ClinicHandler) Get(c *gin.Context) {
	h.r.read(c, bus.ClinicsReq)
}

// PUT /clinics/:clinicId
func (h *ClinicHandler) Update(c *gin.Context) {
	h.r.write(c, bus.ClinicsReq)
}

// DELETE /clinics/:clinicId
func (h *ClinicHandler) Delete(c *gin.Context) {
	h.r.write(c, bus.ClinicsReq)
}

// GET /clinics/:clinicId/dentists
func (h *ClinicHandler) ListDentists(c *gin.Context) {
	h.r.read(c, bus.ClinicsReq)
}

// POST /clinics/:clinicId/dentists
func (h *ClinicHandler) AddDentist(c *gin.Context) {
	h.r.write(c, bus.ClinicsReq)
}

// GET /clinics/:clinicId/dentists/:dentistId
func (h *ClinicHandler) GetDentist(c *gin.Context) {
	h.r.read(c, bus.ClinicsReq)
}

// PUT /clinics/:clinicId/dentists/:dentistId
func (h *ClinicHandler) UpdateDentist(c *gin.Context) {
	h.r.write(c, bus.ClinicsReq)
}

// DELETE /clinics/:clinicId/dentists/:dentistId
func (h *ClinicHandler) RemoveDentist(c *gin.Context) {
	h.r.write(c, bus.ClinicsReq)
}
