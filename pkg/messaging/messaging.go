// Package messaging는 Redis pub/sub과 RabbitMQ로 JSON 메시지를 발행하는 Publisher를 제공합니다.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
)

// Publisher 메시지 발행 인터페이스
type Publisher interface {
	Publish(ctx context.Context, topic string, message interface{}) error
	Close() error
}

func marshal(message interface{}) ([]byte, error) {
	if raw, ok := message.([]byte); ok {
		return raw, nil
	}
	payload, err := json.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("메시지 직렬화 실패: %w", err)
	}
	return payload, nil
}
