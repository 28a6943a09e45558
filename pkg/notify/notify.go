package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	Exchange = "notifications"

	KeyVerifyEmail      = "email.verify"
	KeyBookingConfirmed = "booking.confirmed"
	KeyBookingCancelled = "booking.cancelled"

	publishTimeout = 3 * time.Second
)

type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Notifier delivers messages fire-and-forget. Implementations never report
// delivery errors to the caller.
type Notifier interface {
	Notify(ctx context.Context, key string, msg Message)
}

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type Publisher struct {
	conn     *amqp.Connection
	ch       channel
	exchange string
}

func NewPublisher(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &Publisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *Publisher) Notify(ctx context.Context, key string, msg Message) {
	body, err := json.Marshal(msg)
	if err != nil {
		zap.L().Error("can't encode notification", zap.String("key", key), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	err = p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		zap.L().Error("can't publish notification", zap.String("key", key), zap.String("to", msg.To), zap.Error(err))
		return
	}
	zap.L().Debug("notification published", zap.String("key", key), zap.String("to", msg.To))
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// LogNotifier is used when no broker is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, key string, msg Message) {
	zap.L().Info("notification", zap.String("key", key), zap.String("to", msg.To), zap.String("subject", msg.Subject))
}
