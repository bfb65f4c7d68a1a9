package ws

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/clinic-booking/pkg/auth"
)

func newTestServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := NewHub()
	r := gin.New()
	r.GET("/ws", Handler(h, "test-secret"))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return h, srv
}

func dial(t *testing.T, srv *httptest.Server, rawQuery string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	if rawQuery != "" {
		url += "?" + rawQuery
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readOne(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	return string(msg)
}

func waitConns(t *testing.T, h *Hub, want int) {
	t.Helper()
	require.Eventually(t, func() bool {
		conns, _ := h.Counts()
		return conns == want
	}, 2*time.Second, 10*time.Millisecond)
}

func TestBroadcastReachesEveryConnection(t *testing.T) {
	h, srv := newTestServer(t)
	a := dial(t, srv, "")
	b := dial(t, srv, "user=u2")
	waitConns(t, h, 2)

	h.Broadcast([]byte(`{"message":"clinic closed friday"}`))

	assert.Contains(t, readOne(t, a), "clinic closed")
	assert.Contains(t, readOne(t, b), "clinic closed")
}

func TestNotifyUserReachesOnlyTheBoundConnection(t *testing.T) {
	h, srv := newTestServer(t)
	bound := dial(t, srv, "user=u1")
	other := dial(t, srv, "")
	waitConns(t, h, 2)

	h.NotifyUser("u1", []byte(`{"message":"your booking is confirmed"}`))
	assert.Contains(t, readOne(t, bound), "confirmed")

	require.NoError(t, other.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := other.ReadMessage()
	assert.Error(t, err, "unbound connection must not receive user notifications")
}

func TestNotifyUnknownUserIsANoop(t *testing.T) {
	h, srv := newTestServer(t)
	dial(t, srv, "user=u1")
	waitConns(t, h, 1)

	h.NotifyUser("nobody", []byte(`{}`))
	conns, users := h.Counts()
	assert.Equal(t, 1, conns)
	assert.Equal(t, 1, users)
}

func TestBindViaMessage(t *testing.T) {
	h, srv := newTestServer(t)
	conn := dial(t, srv, "")
	waitConns(t, h, 1)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"userId":"u9"}`)))
	require.Eventually(t, func() bool {
		_, users := h.Counts()
		return users == 1
	}, 2*time.Second, 10*time.Millisecond)

	h.NotifyUser("u9", []byte(`{"message":"hi"}`))
	assert.Contains(t, readOne(t, conn), "hi")
}

func TestBindViaBearerToken(t *testing.T) {
	h, srv := newTestServer(t)
	token, err := auth.Sign("test-secret", "u7", "PATIENT", "u7@example.com", time.Minute)
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, map[string][]string{
		"Authorization": {"Bearer " + token},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	waitConns(t, h, 1)

	h.NotifyUser("u7", []byte(`{"message":"token bound"}`))
	assert.Contains(t, readOne(t, conn), "token bound")
}

func TestLastBindingWins(t *testing.T) {
	h, srv := newTestServer(t)
	first := dial(t, srv, "user=u1")
	second := dial(t, srv, "user=u1")
	waitConns(t, h, 2)

	h.NotifyUser("u1", []byte(`{"message":"for the latest binding"}`))
	assert.Contains(t, readOne(t, second), "latest binding")

	require.NoError(t, first.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := first.ReadMessage()
	assert.Error(t, err, "replaced binding must stop receiving user notifications")

	// the replaced connection is still in the broadcast set
	h.Broadcast([]byte(`{"message":"everyone"}`))
	assert.Contains(t, readOne(t, first), "everyone")
}

func TestClosedConnectionIsRemovedAndUnbound(t *testing.T) {
	h, srv := newTestServer(t)
	conn := dial(t, srv, "user=u1")
	waitConns(t, h, 1)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool {
		conns, users := h.Counts()
		return conns == 0 && users == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHandleDeliverySelectsUserOrBroadcast(t *testing.T) {
	h, srv := newTestServer(t)
	bound := dial(t, srv, "user=u1")
	other := dial(t, srv, "")
	waitConns(t, h, 2)
	deliver := HandleDelivery(h)

	deliver("notifications.ws.users.u1", []byte(`{"message":"just you"}`))
	assert.Contains(t, readOne(t, bound), "just you")

	deliver("notifications.ws", []byte(`{"message":"all of you"}`))
	assert.Contains(t, readOne(t, other), "all of you")
	assert.Contains(t, readOne(t, bound), "all of you")
}
