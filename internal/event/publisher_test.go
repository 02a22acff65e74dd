package event

import (
	"context"
	"encoding/json"
	"testing"

	"practice-service/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledPublisherIsNoop(t *testing.T) {
	p, err := NewEventPublisher("", "practice.events", logger.NewNop())
	require.NoError(t, err)

	assert.NoError(t, p.Publish(context.Background(), NewSessionCompletedEvent("s1", "u1", 3)))
	assert.NoError(t, p.Close())
}

func TestEventJSONShape(t *testing.T) {
	evt := NewMasteryUpdatedEvent("u1", "Fractions", 0.5, 2, true, 1)
	body, err := json.Marshal(evt)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, TypeMasteryUpdated, decoded["type"])
	assert.Equal(t, "Fractions", decoded["topic"])
	assert.NotEmpty(t, decoded["id"])
	assert.Equal(t, TypeMasteryUpdated, evt.EventType())
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	require.NoError(t, r.Publish(context.Background(), NewAttemptRecordedEvent("a1", "s1", "u1", "q1", true)))
	require.NoError(t, r.Publish(context.Background(), NewSessionCompletedEvent("s1", "u1", 1)))
	assert.Equal(t, []string{TypeAttemptRecorded, TypeSessionCompleted}, r.Types())
}
