package lifecycle

import (
	"context"

	"concept-visualizer-be/internal/pkg/logger"
	"concept-visualizer-be/pkg/events"
)

// EventSink is anything that can carry an event off the process, typically
// the NATS publisher.
type EventSink interface {
	Publish(ctx context.Context, event events.Event) error
}

// Publisher emits visualization lifecycle events.
type Publisher interface {
	PublishStarted(ctx context.Context, sessionID string, generation uint64, model string, textLength int)
	PublishCompleted(ctx context.Context, sessionID string, generation uint64, conceptCount, visualizedCount int)
	PublishFailed(ctx context.Context, sessionID string, generation uint64, reason string)
	PublishConceptRegenerated(ctx context.Context, sessionID string, conceptIndex int, model string)
	PublishSessionReset(ctx context.Context, sessionID string)
}

// SinkPublisher publishes through an EventSink. A nil sink turns every call
// into a no-op so the service runs without NATS.
type SinkPublisher struct {
	sink   EventSink
	logger logger.ILogger
}

var _ Publisher = &SinkPublisher{}

func NewSinkPublisher(sink EventSink, log logger.ILogger) *SinkPublisher {
	return &SinkPublisher{sink: sink, logger: log}
}

func (p *SinkPublisher) PublishStarted(ctx context.Context, sessionID string, generation uint64, model string, textLength int) {
	p.publish(ctx, events.New(events.TypeVisualizationStarted, map[string]interface{}{
		"session_id":  sessionID,
		"generation":  generation,
		"model":       model,
		"text_length": textLength,
	}))
}

func (p *SinkPublisher) PublishCompleted(ctx context.Context, sessionID string, generation uint64, conceptCount, visualizedCount int) {
	p.publish(ctx, events.New(events.TypeVisualizationCompleted, map[string]interface{}{
		"session_id":       sessionID,
		"generation":       generation,
		"concept_count":    conceptCount,
		"visualized_count": visualizedCount,
	}))
}

func (p *SinkPublisher) PublishFailed(ctx context.Context, sessionID string, generation uint64, reason string) {
	p.publish(ctx, events.New(events.TypeVisualizationFailed, map[string]interface{}{
		"session_id": sessionID,
		"generation": generation,
		"reason":     reason,
	}))
}

func (p *SinkPublisher) PublishConceptRegenerated(ctx context.Context, sessionID string, conceptIndex int, model string) {
	p.publish(ctx, events.New(events.TypeConceptRegenerated, map[string]interface{}{
		"session_id":    sessionID,
		"concept_index": conceptIndex,
		"model":         model,
	}))
}

func (p *SinkPublisher) PublishSessionReset(ctx context.Context, sessionID string) {
	p.publish(ctx, events.New(events.TypeSessionReset, map[string]interface{}{
		"session_id": sessionID,
	}))
}

func (p *SinkPublisher) publish(ctx context.Context, evt events.Event) {
	if p.sink == nil {
		return
	}
	if err := p.sink.Publish(ctx, evt); err != nil {
		p.logger.Error("LIFECYCLE", "Failed to publish "+evt.EventType()+" event", map[string]interface{}{"error": err.Error()})
	}
}
