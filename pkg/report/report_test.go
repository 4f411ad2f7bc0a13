package report

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrej220/taskrun/internal/engine"
	"github.com/andrej220/taskrun/internal/lg"
)

type mockWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *mockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *mockWriter) Close() error {
	w.closed = true
	return nil
}

func sampleResult() *engine.RunResult {
	return &engine.RunResult{
		RunID: uuid.New(),
		Root:  "full_check",
		Tasks: []engine.TaskResult{
			{Name: "check", Status: engine.StatusSucceeded},
			{Name: "full_check", Status: engine.StatusSucceeded},
		},
		OK: true,
	}
}

func TestPublish(t *testing.T) {
	w := &mockWriter{}
	p := &Publisher{writer: w, lg: lg.Discard}
	res := sampleResult()

	require.NoError(t, p.Publish(context.Background(), res))
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, res.RunID[:], msg.Key)

	var decoded engine.RunResult
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, res.RunID, decoded.RunID)
	assert.Equal(t, "full_check", decoded.Root)
	assert.True(t, decoded.OK)
	require.Len(t, decoded.Tasks, 2)
	assert.Equal(t, engine.StatusSucceeded, decoded.Tasks[0].Status)
}

func TestPublishWriterError(t *testing.T) {
	w := &mockWriter{err: fmt.Errorf("broker unreachable")}
	p := &Publisher{writer: w, lg: lg.Discard}

	err := p.Publish(context.Background(), sampleResult())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker unreachable")
}

func TestClose(t *testing.T) {
	w := &mockWriter{}
	p := &Publisher{writer: w, lg: lg.Discard}

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}
