package analytics

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
)

// Event names mirror the client-side tracking plan.
const (
	EventInvestButtonClick   = "invest_button_click"
	EventPaymentInitiated    = "payment_initiated"
	EventPaymentCompleted    = "payment_completed"
	EventPaymentFailed       = "payment_failed"
	EventSubscriptionStarted = "subscription_started"
)

const telemetryExchange = "telemetry_events"

// Event is a best-effort analytics record emitted at saga transitions.
type Event struct {
	Name      string            `json:"name"`
	UserID    uuid.UUID         `json:"user_id,omitempty"`
	PlanID    string            `json:"plan_id,omitempty"`
	OrderID   string            `json:"order_id,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Sink receives telemetry events. Implementations must never let a
// delivery failure propagate into the caller: telemetry is strictly
// fire-and-forget and cannot affect the payment path.
type Sink interface {
	Track(ctx context.Context, event Event)
	Close()
}

// amqpChannel is the publish surface of *amqp091.Channel. Channel
// methods are safe for concurrent use, so the sink holds one channel
// for its lifetime and never swaps it.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

type rabbitSink struct {
	conn    *amqp091.Connection
	channel amqpChannel
}

// NewRabbitSink connects to RabbitMQ and declares the telemetry topic
// exchange. Use NewNopSink when no broker is configured.
func NewRabbitSink(amqpURL string) (Sink, error) {
	conn, err := amqp091.DialConfig(amqpURL, amqp091.Config{Dial: amqp091.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := ch.ExchangeDeclare(telemetryExchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &rabbitSink{conn: conn, channel: ch}, nil
}

func (s *rabbitSink) Track(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("WARN: telemetry marshal failed (dropped): event=%s err=%v", event.Name, err)
		return
	}

	err = s.channel.PublishWithContext(ctx,
		telemetryExchange,
		"payment."+event.Name,
		false,
		false,
		amqp091.Publishing{
			ContentType: "application/json",
			Timestamp:   event.Timestamp,
			Body:        body,
		},
	)
	if err != nil {
		// Telemetry loss is acceptable; blocking the saga is not.
		log.Printf("WARN: telemetry publish failed (dropped): event=%s err=%v", event.Name, err)
	}
}

func (s *rabbitSink) Close() {
	if s.channel != nil {
		s.channel.Close()
	}
	if s.conn != nil {
		s.conn.Close()
	}
}

// NopSink swallows events. Used when no broker is configured and in tests.
type NopSink struct{}

func NewNopSink() Sink { return &NopSink{} }

func (s *NopSink) Track(ctx context.Context, event Event) {}

func (s *NopSink) Close() {}
