package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/you/clinic-booking/pkg/bus"
	"github.com/you/clinic-booking/pkg/config"
	"github.com/you/clinic-booking/pkg/obs"
	"github.com/you/clinic-booking/services/api-gateway/internal/handlers"
	"github.com/you/clinic-booking/services/api-gateway/internal/ws"
)

func must[T any](v T, err error) T {
	if err != nil {
		log.Fatal(err)
	}
	return v
}

func main() {
	cfg := must(config.Load())

	shutdownTracer := obs.InitTracer("api-gateway")

	pub := bus.NewPublisher(cfg.RabbitURL, cfg.Exchange)
	defer pub.Close()
	caller := bus.NewCaller(pub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// exclusive reply queue: every response key, filtered by correlation id
	resCons := bus.NewConsumer(cfg.RabbitURL, cfg.Exchange, bus.ConsumerOpts{
		Exclusive: true,
		Keys: []string{
			bus.BookingsRes, bus.AppointmentsRes, bus.ClinicsRes,
			bus.DentistsRes, bus.UsersRes, bus.NotificationsRes,
		},
	})
	go func() {
		if err := resCons.Run(ctx, caller.ResolveLoop("gateway")); err != nil {
			log.Fatal(err)
		}
	}()

	hub := ws.NewHub()
	wsCons := bus.NewConsumer(cfg.RabbitURL, cfg.Exchange, bus.ConsumerOpts{
		Exclusive: true,
		Keys:      []string{bus.NotificationsWS, bus.NotificationsWS + ".users.#"},
	})
	go func() {
		if err := wsCons.Run(ctx, ws.HandleDelivery(hub)); err != nil {
			log.Fatal(err)
		}
	}()

	relay := handlers.NewRelay(caller, cfg.ReadCallTimeout, cfg.WriteCallTimeout, cfg.Production())

	r := gin.Default()
	r.Use(cors.Default())
	r.NoRoute(handlers.NotFoundJSON)

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"service": "clinic-booking api-gateway"})
	})
	r.GET("/health", func(c *gin.Context) {
		conns, users := hub.Counts()
		c.JSON(http.StatusOK, gin.H{
			"status":       "ok",
			"pendingCalls": caller.PendingCalls(),
			"wsConns":      conns,
			"wsUsers":      users,
		})
	})
	r.GET("/ws", ws.Handler(hub, cfg.JWTSecret))

	bh := handlers.NewBookingHandler(relay)
	r.POST("/bookings", bh.Create)
	r.GET("/bookings", bh.List)
	r.GET("/bookings/dentist/:dentistId", bh.ByDentist)
	r.GET("/bookings/:id", bh.Get)
	r.PATCH("/bookings/:id", bh.Confirm)
	r.DELETE("/bookings/:id", bh.Cancel)

	ah := handlers.NewAppointmentHandler(relay)
	r.POST("/appointments", ah.Create)
	r.GET("/appointments", ah.List)
	r.GET("/appointments/status", ah.Availability)
	r.GET("/appointments/status/:clinicId", ah.ClinicAvailability)
	r.GET("/appointments/clinic/:clinicId", ah.ByClinic)
	r.GET("/appointments/dentist/:dentistId", ah.ByDentist)
	r.GET("/appointments/:id", ah.Get)
	r.PATCH("/appointments/:id", ah.Update)
	r.DELETE("/appointments/:id", ah.Delete)

	ch := handlers.NewClinicHandler(relay)
	r.POST("/clinics", ch.Create)
	r.GET("/clinics", ch.List)
	r.GET("/clinics/:clinicId", ch.Get)
	r.PUT("/clinics/:clinicId", ch.Update)
	r.DELETE("/clinics/:clinicId", ch.Delete)
	r.GET("/clinics/:clinicId/dentists", ch.ListDentists)
	r.POST("/clinics/:clinicId/dentists", ch.AddDentist)
	r.GET("/clinics/:clinicId/dentists/:dentistId", ch.GetDentist)
	r.PUT("/clinics/:clinicId/dentists/:dentistId", ch.UpdateDentist)
	r.DELETE("/clinics/:clinicId/dentists/:dentistId", ch.RemoveDentist)

	dh := handlers.NewDentistHandler(relay)
	r.GET("/dentists", dh.List)
	r.GET("/dentists/:id", dh.Get)

	uh := handlers.NewUserHandler(relay)
	r.POST("/users", uh.Register)
	r.POST("/login", uh.Login)
	r.GET("/users", uh.List)
	r.GET("/users/:id", uh.Get)
	r.PATCH("/users/:id", uh.Update)
	r.DELETE("/users/:id", uh.Delete)

	nh := handlers.NewNotificationHandler(relay)
	r.GET("/notifications/:userId", nh.ByUser)
	r.DELETE("/notifications/:id", nh.Delete)

	srv := &http.Server{Addr: cfg.GatewayHTTPAddr, Handler: r}
	go func() {
		log.Println("[gateway] listening on", cfg.GatewayHTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	_ = srv.Shutdown(shutdownCtx)
	resCons.Close()
	wsCons.Close()
	_ = shutdownTracer(shutdownCtx)
	log.Println("[gateway] stopped")
}
