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
	"github.com/you/clinic-booking/services/user-service/internal/repository"
	"github.com/you/clinic-booking/services/user-service/internal/service"
	"github.com/you/clinic-booking/services/user-service/internal/transport"
)

func must[T any](v T, err error) T {
	if err != nil {
		log.Fatal(err)
	}
	return v
}

func main() {
	cfg := must(config.Load())

	shutdownTracer := obs.InitTracer("user-service")

	gdb := db.Open(cfg.PGUserDSN)
	repo := repository.NewUserRepo(gdb)
	must(0, repo.Migrate())

	pub := bus.NewPublisher(cfg.RabbitURL, cfg.Exchange)
	defer pub.Close()

	svc := service.NewUserSvc(repo, cfg.JWTSecret, time.Duration(cfg.JWTExpireMin)*time.Minute)

	rt := bus.NewRouter("user", pub, bus.UsersRes)
	transport.Register(rt, svc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reqCons := bus.NewConsumer(cfg.RabbitURL, cfg.Exchange, bus.ConsumerOpts{
		Queue: "user.req.q",
		Keys:  []string{bus.UsersReq},
	})
	go func() {
		if err := reqCons.Run(ctx, func(key string, body []byte) { rt.Dispatch(ctx, body) }); err != nil {
			log.Fatal(err)
		}
	}()

	log.Println("[user] consuming", bus.UsersReq)

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch
	cancel()
	reqCons.Close()
	_ = shutdownTracer(context.Background())
	log.Println("[user] stopped")
}
