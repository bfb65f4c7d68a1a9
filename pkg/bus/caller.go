package bus

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/you/clinic-booking/pkg/apperr"
)

// Caller issues correlated requests and matches replies to them. One Caller
// per process wraps one publisher and is fed by a single reply consumer via
// Resolve; per-call listeners are deliberately not supported.
type Caller struct {
	pub TopicPublisher

	mu      sync.Mutex
	pending map[string]chan Envelope
}

func NewCaller(pub TopicPublisher) *Caller {
	return &Caller{pub: pub, pending: make(map[string]chan Envelope)}
}

// Call publishes req on key and waits for the matching reply. A fresh
// correlation id is generated when req.MsgID is empty. Whichever of the
// matching reply, the deadline, or ctx cancellation comes first resolves the
// call; the pending record is removed at that moment, so the losing path is
// a no-op.
func (c *Caller) Call(ctx context.Context, key string, req Envelope, timeout time.Duration) (Envelope, error) {
	if req.MsgID == "" {
		req.MsgID = uuid.NewString()
	}

	ch := make(chan Envelope, 1)
	c.mu.Lock()
	c.pending[req.MsgID] = ch
	c.mu.Unlock()

	if err := c.pub.PublishJSON(ctx, key, req); err != nil {
		c.drop(req.MsgID)
		return Envelope{}, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		return res, nil
	case <-timer.C:
		// A reply may have won the race between the timer firing and this
		// branch running; if the record is already gone the reply is sitting
		// in the buffered channel and still counts.
		if !c.drop(req.MsgID) {
			return <-ch, nil
		}
		return Envelope{}, apperr.ErrTimeout
	case <-ctx.Done():
		if !c.drop(req.MsgID) {
			return <-ch, nil
		}
		return Envelope{}, ctx.Err()
	}
}

// Resolve hands an inbound response envelope to the pending call it belongs
// to. It reports false for unknown or already-resolved correlation ids,
// which the delivery loop silently drops.
func (c *Caller) Resolve(res Envelope) bool {
	c.mu.Lock()
	ch, ok := c.pending[res.MsgID]
	if ok {
		delete(c.pending, res.MsgID)
	}
	c.mu.Unlock()
	if !ok {
		return false
	}
	ch <- res
	return true
}

// PendingCalls reports how many calls are currently awaiting a reply.
func (c *Caller) PendingCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// drop removes the pending record, reporting whether it was still present.
func (c *Caller) drop(msgID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.pending[msgID]; !ok {
		return false
	}
	delete(c.pending, msgID)
	return true
}

// ResolveLoop adapts a Caller to a consumer callback: it decodes each
// delivery as a response envelope and resolves it.
func (c *Caller) ResolveLoop(service string) func(key string, body []byte) {
	return func(key string, body []byte) {
		var env Envelope
		if err := envUnmarshal(body, &env); err != nil {
			log.Printf("[%s] bad response on %s: %v", service, key, err)
			return
		}
		if !c.Resolve(env) {
			log.Printf("[%s] dropped response for unknown msgId=%s on %s", service, env.MsgID, key)
		}
	}
}
