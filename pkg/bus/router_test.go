package bus

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/clinic-booking/pkg/apperr"
)

func newTestRouter(pub *fakePub) *Router {
	return NewRouter("test", pub, AppointmentsRes)
}

func dispatch(r *Router, env Envelope) {
	r.Dispatch(context.Background(), MustData(env))
}

func TestRouterSpecificPatternWinsOverParam(t *testing.T) {
	pub := &fakePub{}
	r := newTestRouter(pub)

	var matched string
	r.Handle(http.MethodGet, "/appointments/status", func(ctx context.Context, req *Request) (any, int, error) {
		matched = "status"
		return []string{}, 200, nil
	})
	r.Handle(http.MethodGet, "/appointments/:id", func(ctx context.Context, req *Request) (any, int, error) {
		matched = "byId:" + req.Params["id"]
		return nil, 200, nil
	})

	dispatch(r, Envelope{MsgID: "m1", Method: "GET", Path: "/appointments/status"})
	assert.Equal(t, "status", matched)

	dispatch(r, Envelope{MsgID: "m2", Method: "GET", Path: "/appointments/abc123"})
	assert.Equal(t, "byId:abc123", matched)
}

func TestRouterBindsMultiSegmentParams(t *testing.T) {
	pub := &fakePub{}
	r := NewRouter("test", pub, ClinicsRes)

	var got map[string]string
	r.Handle(http.MethodGet, "/clinics/:clinicId/dentists/:dentistId", func(ctx context.Context, req *Request) (any, int, error) {
		got = req.Params
		return nil, 200, nil
	})

	dispatch(r, Envelope{MsgID: "m1", Method: "GET", Path: "/clinics/c1/dentists/d9"})
	require.NotNil(t, got)
	assert.Equal(t, "c1", got["clinicId"])
	assert.Equal(t, "d9", got["dentistId"])
}

func TestRouterUnmatchedRouteIsDroppedSilently(t *testing.T) {
	pub := &fakePub{}
	r := newTestRouter(pub)
	r.Handle(http.MethodGet, "/appointments", func(ctx context.Context, req *Request) (any, int, error) {
		return nil, 200, nil
	})

	// wrong path, wrong method, malformed body, missing msgId: no response published
	dispatch(r, Envelope{MsgID: "m1", Method: "GET", Path: "/nowhere"})
	dispatch(r, Envelope{MsgID: "m2", Method: "DELETE", Path: "/appointments"})
	r.Dispatch(context.Background(), []byte(`{broken`))
	dispatch(r, Envelope{Method: "GET", Path: "/appointments"})

	assert.Empty(t, pub.published)
}

func TestRouterErrorBoundaryMapsTypedErrors(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"validation", apperr.Validation("missing dentistId"), 400, "Invalid data provided"},
		{"conflict", apperr.Conflict("Booking unsuccessful", "timeslot taken"), 400, "Booking unsuccessful"},
		{"not found", apperr.NotFound("/appointments/42"), 404, "Record not found"},
		{"unhandled", errors.New("pg down"), 500, "Something went wrong"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pub := &fakePub{}
			r := newTestRouter(pub)
			r.Handle(http.MethodPost, "/appointments", func(ctx context.Context, req *Request) (any, int, error) {
				return nil, 0, tc.err
			})

			dispatch(r, Envelope{MsgID: "e1", Method: "POST", Path: "/appointments"})

			require.Len(t, pub.published, 1)
			res := pub.last()
			assert.Equal(t, "e1", res.MsgID)
			assert.Equal(t, tc.wantStatus, res.Status)
			body, err := Decode[apperr.Error](res)
			require.NoError(t, err)
			assert.Equal(t, tc.wantMsg, body.Message)
		})
	}
}

func TestRouterPublishesHandlerPayloadOnReplyKey(t *testing.T) {
	pub := &fakePub{}
	r := newTestRouter(pub)
	r.Handle(http.MethodPost, "/appointments", func(ctx context.Context, req *Request) (any, int, error) {
		in, err := Decode[map[string]string](req.Envelope)
		require.NoError(t, err)
		return map[string]string{"id": "ap1", "dentistId": in["dentistId"]}, 201, nil
	})

	dispatch(r, Envelope{
		MsgID:  "ok1",
		Method: "POST",
		Path:   "/appointments",
		Data:   MustData(map[string]string{"dentistId": "d1"}),
	})

	require.Len(t, pub.published, 1)
	assert.Equal(t, []string{AppointmentsRes}, pub.keys)
	res := pub.last()
	assert.Equal(t, 201, res.Status)
	body, err := Decode[map[string]string](res)
	require.NoError(t, err)
	assert.Equal(t, "ap1", body["id"])
	assert.Equal(t, "d1", body["dentistId"])
}

func TestWSUserFromKey(t *testing.T) {
	user, ok := WSUserFromKey("notifications.ws.users.u42")
	require.True(t, ok)
	assert.Equal(t, "u42", user)

	_, ok = WSUserFromKey("notifications.ws")
	assert.False(t, ok)
	_, ok = WSUserFromKey("notifications.ws.users.")
	assert.False(t, ok)
	_, ok = WSUserFromKey("bookings.res")
	assert.False(t, ok)
}
