package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/you/clinic-booking/pkg/bus"
)

type UserHandler struct {
	r *Relay
}

func NewUserHandler(r *Relay) *UserHandler {
	return &UserHandler{r: r}
}

// POST /users registers a patient.
func (h *UserHandler) Register(c *gin.Context) {
	h.r.write(c, bus.UsersReq)
}

// POST /login
func (h *UserHandler) Login(c *gin.Context) {
	h.r.write(c, bus.UsersReq)
}

// GET /users
func (h *UserHandler) List(c *gin.Context) {
	h.r.read(c, bus.UsersReq)
}

// GET /users/:id
func (h *UserHandler) Get(c *gin.Context) {
	h.r.read(c, bus.UsersReq)
}

// PATCH /users/:id
func (h *UserHandler) Update(c *gin.Context) {
	h.r.write(c, bus.UsersReq)
}

// DELETE /users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	h.r.write(c, bus.UsersReq)
}
