// Package handlers translates gateway HTTP traffic into correlated broker
// calls, one handler file per resource.
package handlers

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/you/clinic-booking/pkg/apperr"
	"github.com/you/clinic-booking/pkg/bus"
)

// caller is the slice of bus.Caller the relay needs; tests swap in a fake.
type caller interface {
	Call(ctx context.Context, key string, req bus.Envelope, timeout time.Duration) (bus.Envelope, error)
}

// Relay forwards one HTTP request as a request envelope on a routing key
// and writes the response envelope back, status and payload passed through
// 1:1. Reads get the longer deadline, writes the shorter one.
type Relay struct {
	c            caller
	readTimeout  time.Duration
	writeTimeout time.Duration
	production   bool
}

func NewRelay(c caller, readTimeout, writeTimeout time.Duration, production bool) *Relay {
	return &Relay{c: c, readTimeout: readTimeout, writeTimeout: writeTimeout, production: production}
}

func (r *Relay) read(c *gin.Context, key string) {
	r.forward(c, key, r.readTimeout)
}

func (r *Relay) write(c *gin.Context, key string) {
	r.forward(c, key, r.writeTimeout)
}

func (r *Relay) forward(c *gin.Context, key string, timeout time.Duration) {
	env := bus.Envelope{
		Method: c.Request.Method,
		Path:   c.Request.URL.Path,
	}
	if raw := c.Request.URL.Query(); len(raw) > 0 {
		env.Query = make(map[string]string, len(raw))
		for k, vs := range raw {
			if len(vs) > 0 {
				env.Query[k] = vs[0]
			}
		}
	}
	if c.Request.Body != nil {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid data provided", "details": err.Error()})
			return
		}
		if len(body) > 0 {
			env.Data = body
		}
	}

	res, err := r.c.Call(c.Request.Context(), key, env, timeout)
	if err != nil {
		r.fail(c, key, err)
		return
	}
	if len(res.Data) == 0 {
		c.Status(res.StatusOrOK())
		return
	}
	c.Data(res.StatusOrOK(), "application/json", res.Data)
}

// fail maps transport-level failures: an expired call is 503, anything else
// is an opaque 500 whose stack detail only leaves the process outside
// production.
func (r *Relay) fail(c *gin.Context, key string, err error) {
	if errors.Is(err, apperr.ErrTimeout) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"errorMsg": "Request timeout!"})
		return
	}
	log.Printf("[gateway] call on %s failed: %v", key, err)
	body := gin.H{
		"statusCode":   http.StatusInternalServerError,
		"errorMessage": "Something went wrong",
	}
	if !r.production {
		body["errorStack"] = err.Error()
	}
	c.JSON(http.StatusInternalServerError, body)
}

// NotFoundJSON answers paths no route claims, so the gateway never emits
// gin's default empty 404.
func NotFoundJSON(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"message": "Record not found",
		"details": c.Request.URL.Path + " not found!",
	})
}
