package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/you/clinic-booking/pkg/bus"
)

type DentistHandler struct {
	r *Relay
}

func NewDentistHandler(r *Relay) *DentistHandler {
	return &DentistHandler{r: r}
}

// GET /dentists
func (h *DentistHandler) List(c *gin.Context) {
	h.r.read(c, bus.DentistsReq)
}

// GET /dentists/:id
func (h *DentistHandler) Get(c *gin.Context) {
	h.r.read(c, bus.DentistsReq)
}
