package service

import (
	"context"
	"testing"
	"time"

	"concept-visualizer-be/internal/dto"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chanSink chan dto.ProgressMessage

func (s chanSink) Progress(msg dto.ProgressMessage) { s <- msg }

func TestProgressRelay(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := make(chanSink, 1)
	require.NoError(t, NewProgressRelay(pubSub, ProgressTopic, sink).Consume(ctx))

	NewProgressPublisher(pubSub, ProgressTopic).PublishProgress(dto.ProgressMessage{
		SessionId: "s1",
		Stage:     StageRendering,
		Completed: 2,
		Total:     5,
		Message:   "Completed 2 of 5 visualizations",
	})

	select {
	case got := <-sink:
		assert.Equal(t, "s1", got.SessionId)
		assert.Equal(t, 2, got.Completed)
		assert.Equal(t, "Completed 2 of 5 visualizations", got.Message)
	case <-time.After(2 * time.Second):
		t.Fatal("progress message was not relayed")
	}
}
