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
	"github.com/you/clinic-booking/services/booking-service/internal/clients"
	"github.com/you/clinic-booking/services/booking-service/internal/enrich"
	"github.com/you/clinic-booking/services/booking-service/internal/repository"
	"github.com/you/clinic-booking/services/booking-service/internal/service"
	"github.com/you/clinic-booking/services/booking-service/internal/transport"
)

func must[T any](v T, err error) T {
	if err != nil {
		log.Fatal(err)
	}
	return v
}

func main() {
	cfg := must(config.Load())

	shutdownTracer := obs.InitTracer("booking-service")

	gdb := db.Open(cfg.PGBookingDSN)
	repo := repository.NewBookingRepo(gdb)
	must(0, repo.Migrate())

	pub := bus.NewPublisher(cfg.RabbitURL, cfg.Exchange)
	defer pub.Close()
	eventsPub := bus.NewPublisher(cfg.RabbitURL, cfg.EventsExchange)
	defer eventsPub.Close()

	caller := bus.NewCaller(pub)
	peers := clients.New(caller, cfg.PeerCallTimeout)
	enricher := enrich.New(peers, peers)
	svc := service.NewBookingSvc(repo, peers, enricher, eventsPub, cfg.PeerCallTimeout)

	rt := bus.NewRouter("booking", pub, bus.BookingsRes)
	transport.Register(rt, svc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// shared queue: booking replicas split the request stream
	reqCons := bus.NewConsumer(cfg.RabbitURL, cfg.Exchange, bus.ConsumerOpts{
		Queue: "booking.req.q",
		Keys:  []string{bus.BookingsReq},
	})
	go func() {
		if err := reqCons.Run(ctx, func(key string, body []byte) { rt.Dispatch(ctx, body) }); err != nil {
			log.Fatal(err)
		}
	}()

	// exclusive reply queue: only this instance's correlated calls resolve here
	resCons := bus.NewConsumer(cfg.RabbitURL, cfg.Exchange, bus.ConsumerOpts{
		Exclusive: true,
		Keys:      []string{bus.AppointmentsRes, bus.UsersRes, bus.DentistsRes, bus.ClinicsRes},
	})
	go func() {
		if err := resCons.Run(ctx, caller.ResolveLoop("booking")); err != nil {
			log.Fatal(err)
		}
	}()

	log.Println("[booking] consuming", bus.BookingsReq)

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch
	cancel()
	reqCons.Close()
	resCons.Close()
	_ = shutdownTracer(context.Background())
	log.Println("[booking] stopped")
}
