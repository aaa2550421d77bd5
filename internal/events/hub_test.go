package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubFansOut(t *testing.T) {
	h := NewHub()
	ctx := context.Background()

	a, cancelA, err := h.Subscribe(ctx)
	require.NoError(t, err)
	b, cancelB, err := h.Subscribe(ctx)
	require.NoError(t, err)
	defer cancelB()

	ev := ActivityEvent{Type: "job_created", JobID: "j1", CreatedAt: time.Now()}
	require.NoError(t, h.Publish(ctx, ev))

	assert.Equal(t, "j1", (<-a).JobID)
	assert.Equal(t, "j1", (<-b).JobID)

	cancelA()
	_, open := <-a
	assert.False(t, open)
	require.NoError(t, h.Publish(ctx, ev))
	assert.Equal(t, "job_created", (<-b).Type)
}

func TestHubUnsubscribesOnContextEnd(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())

	ch, _, err := h.Subscribe(ctx)
	require.NoError(t, err)
	cancel()

	assert.Eventually(t, func() bool {
		select {
		case _, open := <-ch:
			return !open
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestNopPublisher(t *testing.T) {
	assert.NoError(t, Nop{}.Publish(context.Background(), ActivityEvent{}))
}
