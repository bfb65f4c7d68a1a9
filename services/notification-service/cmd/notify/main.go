package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/you/clinic-booking/pkg/bus"
	"github.com/you/clinic-booking/pkg/config"
	"github.com/you/clinic-booking/pkg/db"
	"github.com/you/clinic-booking/pkg/obs"
	"github.com/you/clinic-booking/services/notification-service/internal/repository"
	"github.com/you/clinic-booking/services/notification-service/internal/transport"
	"github.com/you/clinic-booking/services/notification-service/internal/worker"
)

func must[T any](v T, err error) T {
	if err != nil {
		log.Fatal(err)
	}
	return v
}

func main() {
	cfg := must(config.Load())

	shutdownTracer := obs.InitTracer("notification-service")

	gdb := db.Open(cfg.PGNotificationDSN)
	repo := repository.NewNotificationRepo(gdb)
	must(0, repo.Migrate())

	// responses and websocket pushes both go out on the main exchange
	pub := bus.NewPublisher(cfg.RabbitURL, cfg.Exchange)
	defer pub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt := bus.NewRouter("notify", pub, bus.NotificationsRes)
	transport.Register(rt, repo)

	reqCons := bus.NewConsumer(cfg.RabbitURL, cfg.Exchange, bus.ConsumerOpts{
		Queue: "notification.req.q",
		Keys:  []string{bus.NotificationsReq},
	})
	go func() {
		if err := reqCons.Run(ctx, func(key string, body []byte) { rt.Dispatch(ctx, body) }); err != nil {
			log.Fatal(err)
		}
	}()

	events := worker.NewConsumer(worker.Config{
		RabbitURL: cfg.RabbitURL,
		Exchange:  cfg.EventsExchange,
		Queue:     "notification.q",
		Bindings:  []string{"booking.*"},
		Prefetch:  16,
		UseDLX:    true,
		DLXName:   "notification.dlx",
		DLXQueue:  "notification.q.dlq",
	}, repo, pub)

	for {
		if err := events.Connect(); err != nil {
			log.Printf("[notify] connect failed: %v; retry in 2s", err)
			time.Sleep(2 * time.Second)
			continue
		}
		break
	}
	defer events.Close()

	go func() {
		if err := events.Run(ctx); err != nil {
			log.Printf("[notify] worker error: %v", err)
		}
	}()

	log.Println("[notify] consuming", bus.NotificationsReq, "and booking events")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	cancel()
	reqCons.Close()
	events.Close()
	_ = shutdownTracer(context.Background())
	log.Println("[notify] stopped")
}
