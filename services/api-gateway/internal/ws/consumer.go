package ws

import "github.com/you/clinic-booking/pkg/bus"

// HandleDelivery routes broker notification payloads into the hub: keys
// carrying a user segment address one connection, the bare key broadcasts.
func HandleDelivery(h *Hub) func(key string, body []byte) {
	return func(key string, body []byte) {
		if user, ok := bus.WSUserFromKey(key); ok {
			h.NotifyUser(user, body)
			return
		}
		h.Broadcast(body)
	}
}
