package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/you/clinic-booking/pkg/bus"
	"github.com/you/clinic-booking/pkg/config"
	"github.com/you/clinic-booking/pkg/db"
	"github.com/you/clinic-booking/pkg/obs"
	"github.com/you/clinic-booking/services/scheduling-service/internal/repository"
	"github.com/you/clinic-booking/services/scheduling-service/internal/service"
	"github.com/you/clinic-booking/services/scheduling-service/internal/transport"
)

func must[T any](v T, err error) T {
	if err != nil {
		log.Fatal(err)
	}
	return v
}

func main() {
	cfg := must(config.Load())

	shutdownTracer := obs.InitTracer("scheduling-service")

	gdb := db.Open(cfg.PGSchedulingDSN)
	repo := repository.NewAppointmentRepo(gdb)
	must(0, repo.Migrate())

	pub := bus.NewPublisher(cfg.RabbitURL, cfg.Exchange)
	defer pub.Close()

	svc := service.NewAppointmentSvc(repo)
	rt := bus.NewRouter("scheduling", pub, bus.AppointmentsRes)
	transport.Register(rt, svc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// shared queue: replicas of this service split the request stream
	cons := bus.NewConsumer(cfg.RabbitURL, cfg.Exchange, bus.ConsumerOpts{
		Queue: "scheduling.req.q",
		Keys:  []string{bus.AppointmentsReq},
	})
	go func() {
		if err := cons.Run(ctx, func(key string, body []byte) { rt.Dispatch(ctx, body) }); err != nil {
			log.Fatal(err)
		}
	}()
	log.Println("[scheduling] consuming", bus.AppointmentsReq)

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch
	cancel()
	cons.Close()
	_ = shutdownTracer(context.Background())
	log.Println("[scheduling] stopped")
}
