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
	"github.com/you/clinic-booking/services/dentist-service/internal/repository"
	"github.com/you/clinic-booking/services/dentist-service/internal/service"
	"github.com/you/clinic-booking/services/dentist-service/internal/transport"
)

func must[T any](v T, err error) T {
	if err != nil {
		log.Fatal(err)
	}
	return v
}

func main() {
	cfg := must(config.Load())

	shutdownTracer := obs.InitTracer("dentist-service")

	gdb := db.Open(cfg.PGDentistDSN)
	repo := repository.NewDirectoryRepo(gdb)
	must(0, repo.Migrate())

	pub := bus.NewPublisher(cfg.RabbitURL, cfg.Exchange)
	defer pub.Close()

	svc := service.NewDirectorySvc(repo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// one shared queue per response key keeps clinic and dentist replies
	// on their own topics while replicas still split the request stream
	clinicRt := bus.NewRouter("dentist", pub, bus.ClinicsRes)
	dentistRt := bus.NewRouter("dentist", pub, bus.DentistsRes)
	transport.Register(clinicRt, svc)
	transport.Register(dentistRt, svc)

	clinicCons := bus.NewConsumer(cfg.RabbitURL, cfg.Exchange, bus.ConsumerOpts{
		Queue: "dentist.clinics.req.q",
		Keys:  []string{bus.ClinicsReq},
	})
	go func() {
		if err := clinicCons.Run(ctx, func(key string, body []byte) { clinicRt.Dispatch(ctx, body) }); err != nil {
			log.Fatal(err)
		}
	}()

	dentistCons := bus.NewConsumer(cfg.RabbitURL, cfg.Exchange, bus.ConsumerOpts{
		Queue: "dentist.dentists.req.q",
		Keys:  []string{bus.DentistsReq},
	})
	go func() {
		if err := dentistCons.Run(ctx, func(key string, body []byte) { dentistRt.Dispatch(ctx, body) }); err != nil {
			log.Fatal(err)
		}
	}()

	log.Println("[dentist] consuming", bus.ClinicsReq, "and", bus.DentistsReq)

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch
	cancel()
	clinicCons.Close()
	dentistCons.Close()
	_ = shutdownTracer(context.Background())
	log.Println("[dentist] stopped")
}
