package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublisher_RecordsMessages(t *testing.T) {
	t.Parallel()

	p := New()
	id, err := p.Publish(context.Background(), "events", map[string]any{"job_id": "j1"})
	require.NoError(t, err)
	require.Equal(t, "memory-1", id)

	id, err = p.Publish(context.Background(), "events", map[string]any{"job_id": "j2"})
	require.NoError(t, err)
	require.Equal(t, "memory-2", id)

	msgs := p.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, "events", msgs[0].Topic)
	payload, ok := msgs[1].Payload.(map[string]any)
	require.True(t, ok)
	require.Equal(t, "j2", payload["job_id"])
}

func TestPublisher_MessagesReturnsCopy(t *testing.T) {
	t.Parallel()

	p := New()
	_, err := p.Publish(context.Background(), "events", "payload")
	require.NoError(t, err)

	msgs := p.Messages()
	msgs[0].Topic = "mutated"
	require.Equal(t, "events", p.Messages()[0].Topic)
}
