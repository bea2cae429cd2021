package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const (
	ChannelBookingEvents = "booking_events"
)

// 事件类型
const (
	EventSeatUpdate       = "seat_update"
	EventBookingConfirmed = "booking_confirmed"
	EventBookingCancelled = "booking_cancelled"
)

// BookingEventMessage 预约事件消息
// 名额变动实时推给正在浏览该课程的客户端
type BookingEventMessage struct {
	Type                string `json:"type"`
	UserID              int64  `json:"user_id,omitempty"`
	SessionID           int64  `json:"session_id"`
	BookingID           int64  `json:"booking_id,omitempty"`
	CurrentParticipants int    `json:"current_participants"`
	MaxParticipants     int    `json:"max_participants"`
	SpotsAvailable      int    `json:"spots_available"`
}

// Publisher Redis 发布者
type Publisher struct {
	client *redis.Client
}

// NewPublisher 创建发布者
func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// PublishBookingEvent 发布预约事件
func (p *Publisher) PublishBookingEvent(ctx context.Context, msg *BookingEventMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal booking event: %w", err)
	}

	return p.client.Publish(ctx, ChannelBookingEvents, data).Err()
}

// Subscriber Redis 订阅者
type Subscriber struct {
	client *redis.Client
}

// NewSubscriber 创建订阅者
func NewSubscriber(client *redis.Client) *Subscriber {
	return &Subscriber{client: client}
}

// Subscribe 订阅预约事件
func (s *Subscriber) Subscribe(ctx context.Context, handler func(*BookingEventMessage)) error {
	pubsub := s.client.Subscribe(ctx, ChannelBookingEvents)
	defer pubsub.Close()

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var eventMsg BookingEventMessage
			if err := json.Unmarshal([]byte(msg.Payload), &eventMsg); err != nil {
				continue // 忽略解析错误
			}

			handler(&eventMsg)
		}
	}
}
