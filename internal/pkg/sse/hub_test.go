package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishReachesEverySubscriberOfKey(t *testing.T) {
	hub := NewHub(4)

	a, cleanupA := hub.Subscribe("org-1:user-1")
	b, cleanupB := hub.Subscribe("org-1:user-1")
	other, cleanupOther := hub.Subscribe("org-1:user-2")
	defer cleanupA()
	defer cleanupB()
	defer cleanupOther()

	assert.Equal(t, 2, hub.SubscriberCount("org-1:user-1"))
	assert.Equal(t, 2, hub.Publish("org-1:user-1", Event{Type: "leave.approved", Data: "x"}))

	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.Empty(t, other)
	assert.Equal(t, "leave.approved", (<-a).Type)
}

func TestHub_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub(1)
	ch, cleanup := hub.Subscribe("k")
	defer cleanup()

	assert.Equal(t, 1, hub.Publish("k", Event{Type: "first"}))
	assert.Equal(t, 0, hub.Publish("k", Event{Type: "second"}))
	assert.Equal(t, "first", (<-ch).Type)
}

func TestHub_CleanupClosesAndIsIdempotent(t *testing.T) {
	hub := NewHub(1)
	ch, cleanup := hub.Subscribe("k")

	cleanup()
	cleanup()

	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, hub.SubscriberCount("k"))
	assert.Equal(t, 0, hub.Publish("k", Event{Type: "late"}))
}

func TestHub_CloseEndsStreams(t *testing.T) {
	hub := NewHub(1)
	ch, cleanup := hub.Subscribe("k")

	hub.Close()
	cleanup()

	_, open := <-ch
	assert.False(t, open)

	late, lateCleanup := hub.Subscribe("k")
	defer lateCleanup()
	_, open = <-late
	assert.False(t, open)
	assert.Equal(t, 0, hub.Publish("k", Event{Type: "after-close"}))
}
