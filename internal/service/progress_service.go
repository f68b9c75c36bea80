package service

import (
	"context"
	"encoding/json"
	"log"

	"concept-visualizer-be/internal/dto"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

const ProgressTopic = "visualization.progress"

type IProgressPublisher interface {
	PublishProgress(msg dto.ProgressMessage)
}

type progressPublisher struct {
	publisher message.Publisher
	topic     string
}

func NewProgressPublisher(publisher message.Publisher, topic string) IProgressPublisher {
	return &progressPublisher{publisher: publisher, topic: topic}
}

// PublishProgress never fails the caller; progress is best effort.
func (p *progressPublisher) PublishProgress(msg dto.ProgressMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[ERROR] Failed to marshal progress message: %v", err)
		return
	}
	if err := p.publisher.Publish(p.topic, message.NewMessage(watermill.NewUUID(), payload)); err != nil {
		log.Printf("[WARN] Failed to publish progress for session %s: %v", msg.SessionId, err)
	}
}

// ProgressSink receives progress for delivery to clients. The WebSocket hub
// is the production sink.
type ProgressSink interface {
	Progress(msg dto.ProgressMessage)
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// progressRelay moves progress messages from the bus to the sink.
type progressRelay struct {
	subscriber message.Subscriber
	topic      string
	sink       ProgressSink
}

func NewProgressRelay(subscriber message.Subscriber, topic string, sink ProgressSink) IConsumerService {
	return &progressRelay{subscriber: subscriber, topic: topic, sink: sink}
}

func (r *progressRelay) Consume(ctx context.Context) error {
	messages, err := r.subscriber.Subscribe(ctx, r.topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			r.processMessage(msg)
		}
	}()

	return nil
}

func (r *progressRelay) processMessage(msg *message.Message) {
	var payload dto.ProgressMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal progress message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}
	r.sink.Progress(payload)
	msg.Ack()
}
