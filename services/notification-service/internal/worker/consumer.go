// Package worker consumes booking lifecycle events, stores a notification
// per event, and mirrors it to the owner's websocket topic.
package worker

import (
	"context"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/you/clinic-booking/pkg/bus"
	"github.com/you/clinic-booking/services/notification-service/internal/domain"
	"github.com/you/clinic-booking/services/notification-service/internal/events"
	"github.com/you/clinic-booking/services/notification-service/internal/repository"
)

type Config struct {
	RabbitURL string
	Exchange  string
	Queue     string
	Bindings  []string
	Prefetch  int
	UseDLX    bool
	DLXName   string
	DLXQueue  string
}

// Consumer drains the events queue with explicit ack/nack: a failed handler
// requeues the delivery instead of losing the notification.
type Consumer struct {
	cfg  Config
	repo *repository.NotificationRepo
	push bus.TopicPublisher

	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewConsumer(cfg Config, repo *repository.NotificationRepo, push bus.TopicPublisher) *Consumer {
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 16
	}
	if len(cfg.Bindings) == 0 {
		cfg.Bindings = []string{"booking.*"}
	}
	return &Consumer{cfg: cfg, repo: repo, push: push}
}

func (c *Consumer) Connect() error {
	conn, err := amqp.Dial(c.cfg.RabbitURL)
	if err != nil {
		return fmt.Errorf("rabbit dial failed: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open channel failed: %w", err)
	}

	if err := ch.ExchangeDeclare(c.cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		return c.fail(conn, ch, fmt.Errorf("declare exchange %s failed: %w", c.cfg.Exchange, err))
	}

	args := amqp.Table{}
	if c.cfg.UseDLX {
		args["x-dead-letter-exchange"] = c.cfg.DLXName
	}
	q, err := ch.QueueDeclare(c.cfg.Queue, true, false, false, false, args)
	if err != nil {
		return c.fail(conn, ch, fmt.Errorf("declare queue failed: %w", err))
	}
	for _, key := range c.cfg.Bindings {
		if err := ch.QueueBind(q.Name, key, c.cfg.Exchange, false, nil); err != nil {
			return c.fail(conn, ch, fmt.Errorf("bind key=%s failed: %w", key, err))
		}
	}

	if c.cfg.UseDLX {
		if err := ch.ExchangeDeclare(c.cfg.DLXName, "topic", true, false, false, false, nil); err != nil {
			return c.fail(conn, ch, fmt.Errorf("declare dlx failed: %w", err))
		}
		if _, err := ch.QueueDeclare(c.cfg.DLXQueue, true, false, false, false, nil); err != nil {
			return c.fail(conn, ch, fmt.Errorf("declare dlq failed: %w", err))
		}
		if err := ch.QueueBind(c.cfg.DLXQueue, "#", c.cfg.DLXName, false, nil); err != nil {
			return c.fail(conn, ch, fmt.Errorf("bind dlq failed: %w", err))
		}
	}

	if err := ch.Qos(c.cfg.Prefetch, 0, false); err != nil {
		return c.fail(conn, ch, fmt.Errorf("set qos failed: %w", err))
	}

	c.conn, c.ch = conn, ch
	return nil
}

func (c *Consumer) fail(conn *amqp.Connection, ch *amqp.Channel, err error) error {
	_ = ch.Close()
	_ = conn.Close()
	return err
}

func (c *Consumer) Close() {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

func (c *Consumer) Run(ctx context.Context) error {
	msgs, err := c.ch.ConsumeWithContext(ctx, c.cfg.Queue, "notification-service", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume failed: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			if err := c.HandleDelivery(ctx, d.RoutingKey, d.Body); err != nil {
				log.Printf("[notify] handle key=%s failed: %v, nack+requeue", d.RoutingKey, err)
				_ = d.Nack(false, true)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// HandleDelivery turns one event into a stored notification and a websocket
// push addressed to the patient. Unknown keys are logged and acked.
func (c *Consumer) HandleDelivery(ctx context.Context, key string, body []byte) error {
	var message string
	switch key {
	case events.RKBookingCreated:
		message = "Your booking has been created."
	case events.RKBookingCanceled:
		message = "Your booking has been canceled."
	default:
		log.Printf("[notify] skip unknown key=%s", key)
		return nil
	}

	ev, err := events.Unmarshal[events.BookingEvent](body)
	if err != nil {
		return err
	}
	if ev.PatientID == "" {
		return fmt.Errorf("event %s without patientId", key)
	}

	n := &domain.Notification{UserID: ev.PatientID, Message: message}
	if err := c.repo.Create(ctx, n); err != nil {
		return err
	}
	if err := c.push.PublishJSON(ctx, bus.WSUserKey(ev.PatientID), n); err != nil {
		// the row is persisted; the live push is best effort
		log.Printf("[notify] ws push user=%s failed: %v", ev.PatientID, err)
	}
	return nil
}
