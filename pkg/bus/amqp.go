package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher publishes JSON messages on a topic exchange. It reconnects with
// jittered backoff on connection loss; publishes issued while disconnected
// wait for a channel or the context, they are never silently dropped.
type Publisher struct {
	url      string
	exchange string

	mu     sync.RWMutex
	conn   *amqp.Connection
	ch     *amqp.Channel
	ready  chan struct{}
	closed chan struct{}
	once   sync.Once
}

func NewPublisher(url, exchange string) *Publisher {
	p := &Publisher{
		url:      url,
		exchange: exchange,
		ready:    make(chan struct{}),
		closed:   make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *Publisher) PublishJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	p.mu.RLock()
	ch := p.ch
	ready := p.ready
	p.mu.RUnlock()
	if ch == nil {
		select {
		case <-ready:
		case <-ctx.Done():
			return ctx.Err()
		case <-p.closed:
			return fmt.Errorf("publisher closed")
		}
		p.mu.RLock()
		ch = p.ch
		p.mu.RUnlock()
		if ch == nil {
			return fmt.Errorf("rabbitmq not connected")
		}
	}

	return ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        b,
	})
}

func (p *Publisher) Close() {
	p.once.Do(func() { close(p.closed) })
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

func (p *Publisher) run() {
	backoff := time.Second
	const maxBackoff = 30 * time.Second
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for {
		select {
		case <-p.closed:
			return
		default:
		}

		conn, ch, err := dialTopic(p.url, p.exchange)
		if err != nil {
			log.Printf("[bus] connect failed, retrying in %v: %v", backoff, err)
			sleep := backoff + time.Duration(rng.Int63n(int64(backoff/2)))
			select {
			case <-time.After(sleep):
			case <-p.closed:
				return
			}
			if backoff *= 2; backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = time.Second

		p.mu.Lock()
		p.conn, p.ch = conn, ch
		close(p.ready)
		p.mu.Unlock()

		lost := make(chan *amqp.Error, 1)
		conn.NotifyClose(lost)
		select {
		case err := <-lost:
			log.Printf("[bus] connection lost: %v", err)
		case <-p.closed:
			return
		}

		p.mu.Lock()
		p.conn, p.ch = nil, nil
		p.ready = make(chan struct{})
		p.mu.Unlock()
	}
}

func dialTopic(url, exchange string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("declare exchange: %w", err)
	}
	return conn, ch, nil
}

// ConsumerOpts selects between the two queue shapes used in this system:
// a named durable queue shared by service replicas (competing consumers),
// or an exclusive auto-delete queue private to one caller instance.
type ConsumerOpts struct {
	Queue     string
	Exclusive bool
	Keys      []string
	Prefetch  int
}

// Consumer drains one queue and hands each delivery to a callback. Run
// redials with backoff when the connection drops; in-flight correlated
// calls are not replayed, they simply await their deadline.
type Consumer struct {
	url      string
	exchange string
	opts     ConsumerOpts

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewConsumer(url, exchange string, opts ConsumerOpts) *Consumer {
	if opts.Prefetch <= 0 {
		opts.Prefetch = 8
	}
	return &Consumer{url: url, exchange: exchange, opts: opts}
}

func (c *Consumer) connect() (string, <-chan amqp.Delivery, error) {
	conn, ch, err := dialTopic(c.url, c.exchange)
	if err != nil {
		return "", nil, err
	}
	durable := !c.opts.Exclusive
	autoDelete := c.opts.Exclusive
	q, err := ch.QueueDeclare(c.opts.Queue, durable, autoDelete, c.opts.Exclusive, false, nil)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return "", nil, fmt.Errorf("declare queue: %w", err)
	}
	for _, key := range c.opts.Keys {
		if err := ch.QueueBind(q.Name, key, c.exchange, false, nil); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return "", nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}
	if err := ch.Qos(c.opts.Prefetch, 0, false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return "", nil, fmt.Errorf("set qos: %w", err)
	}
	msgs, err := ch.Consume(q.Name, "", false, c.opts.Exclusive, false, false, nil)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return "", nil, fmt.Errorf("consume: %w", err)
	}

	c.mu.Lock()
	c.conn, c.ch = conn, ch
	c.mu.Unlock()
	return q.Name, msgs, nil
}

func (c *Consumer) Run(ctx context.Context, fn func(key string, body []byte)) error {
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		queue, msgs, err := c.connect()
		if err != nil {
			log.Printf("[bus] consumer connect failed, retrying in %v: %v", backoff, err)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil
			}
			if backoff *= 2; backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = time.Second
		log.Printf("[bus] consuming queue=%s keys=%v", queue, c.opts.Keys)

	drain:
		for {
			select {
			case <-ctx.Done():
				c.Close()
				return nil
			case d, ok := <-msgs:
				if !ok {
					// channel closed underneath us, redial
					break drain
				}
				fn(d.RoutingKey, d.Body)
				_ = d.Ack(false)
			}
		}
		c.Close()
	}
}

func (c *Consumer) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ch != nil {
		_ = c.ch.Close()
		c.ch = nil
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}
