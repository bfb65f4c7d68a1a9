package transport

import (
	"context"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/you/clinic-booking/pkg/bus"
	"github.com/you/clinic-booking/services/scheduling-service/internal/repository"
	"github.com/you/clinic-booking/services/scheduling-service/internal/service"
)

type capturePub struct {
	mu   sync.Mutex
	envs []bus.Envelope
	keys []string
}

func (p *capturePub) PublishJSON(_ context.Context, key string, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.envs = append(p.envs, v.(bus.Envelope))
	p.keys = append(p.keys, key)
	return nil
}

func newRouter(t *testing.T) (*bus.Router, *capturePub, *service.AppointmentSvc) {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	repo := repository.NewAppointmentRepo(gdb)
	require.NoError(t, repo.Migrate())
	svc := service.NewAppointmentSvc(repo)

	pub := &capturePub{}
	rt := bus.NewRouter("scheduling", pub, bus.AppointmentsRes)
	Register(rt, svc)
	return rt, pub, svc
}

func TestStatusPathDispatchesToAvailabilityNotByID(t *testing.T) {
	rt, pub, svc := newRouter(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, service.CreateInput{
		Date: "2024-03-01", StartTime: "09:00", EndTime: "10:00",
		ClinicID: "c1", DentistID: "d1",
	})
	require.NoError(t, err)

	rt.Dispatch(ctx, bus.MustData(bus.Envelope{MsgID: "m1", Method: "GET", Path: "/appointments/status"}))

	require.Len(t, pub.envs, 1)
	res := pub.envs[0]
	// the byId handler would answer 404 for the literal id "status"
	require.Equal(t, 200, res.StatusOrOK())
	statuses, err := bus.Decode[[]service.ClinicStatus](res)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, "c1", statuses[0].ClinicID)
	assert.Equal(t, service.AvailabilityHigh, statuses[0].AvailabilityStatus)
	assert.Equal(t, []string{bus.AppointmentsRes}, pub.keys)
}

func TestCreateAndConflictOverBus(t *testing.T) {
	rt, pub, _ := newRouter(t)
	ctx := context.Background()

	body := map[string]string{
		"date": "2024-03-01", "start_time": "09:00", "end_time": "10:00",
		"clinicId": "c1", "dentistId": "d1",
	}
	rt.Dispatch(ctx, bus.MustData(bus.Envelope{MsgID: "m1", Method: "POST", Path: "/appointments", Data: bus.MustData(body)}))
	require.Len(t, pub.envs, 1)
	assert.Equal(t, 201, pub.envs[0].Status)

	rt.Dispatch(ctx, bus.MustData(bus.Envelope{MsgID: "m2", Method: "POST", Path: "/appointments", Data: bus.MustData(body)}))
	require.Len(t, pub.envs, 2)
	assert.Equal(t, 400, pub.envs[1].Status)
}

func TestUnknownAppointmentPathIsDropped(t *testing.T) {
	rt, pub, _ := newRouter(t)
	rt.Dispatch(context.Background(), bus.MustData(bus.Envelope{MsgID: "m1", Method: "PUT", Path: "/appointments/x/y/z"}))
	assert.Empty(t, pub.envs)
}
