package messaging

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// rabbitPublisher fanout exchange로 메시지를 발행합니다.
type rabbitPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	mu       sync.Mutex
}

// NewRabbitPublisher RabbitMQ에 연결하고 durable fanout exchange를 선언합니다.
func NewRabbitPublisher(url, exchange string) (Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("RabbitMQ 연결 실패: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("RabbitMQ 채널 생성 실패: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("exchange 선언 실패 (%s): %w", exchange, err)
	}

	return &rabbitPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

// Publish 메시지 발행. topic은 라우팅 키로 사용됩니다 (fanout에서는 무시됨).
func (r *rabbitPublisher) Publish(ctx context.Context, topic string, message interface{}) error {
	body, err := marshal(message)
	if err != nil {
		return err
	}

	// amqp.Channel은 동시 발행에 안전하지 않음
	r.mu.Lock()
	defer r.mu.Unlock()

	err = r.ch.PublishWithContext(ctx, r.exchange, topic, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("RabbitMQ 발행 실패 (%s): %w", r.exchange, err)
	}
	return nil
}

func (r *rabbitPublisher) Close() error {
	chErr := r.ch.Close()
	connErr := r.conn.Close()
	if chErr != nil {
		return chErr
	}
	return connErr
}
