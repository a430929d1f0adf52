package notify_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pinjam-app/pinjam/internal/notify"
)

func TestHub_LatestValueWins(t *testing.T) {
	h := notify.NewHub()
	ch, cancel := h.Subscribe("u1")
	defer cancel()

	h.Publish("u1", 1)
	h.Publish("u1", 2)
	h.Publish("u1", 3)

	require.Len(t, ch, 1)
	assert.Equal(t, 3, <-ch)
}

func TestHub_PerUser(t *testing.T) {
	h := notify.NewHub()
	a, cancelA := h.Subscribe("a")
	b, cancelB := h.Subscribe("b")
	defer cancelA()
	defer cancelB()

	h.Publish("a", 7)
	assert.Equal(t, 7, <-a)
	assert.Len(t, b, 0)

	// Publishing to a user nobody watches is a no-op.
	h.Publish("nobody", 1)
}

func TestHub_CancelIsIdempotent(t *testing.T) {
	h := notify.NewHub()
	ch, cancel := h.Subscribe("u1")
	assert.Equal(t, 1, h.Subscribers("u1"))

	cancel()
	cancel()
	assert.Equal(t, 0, h.Subscribers("u1"))

	_, ok := <-ch
	assert.False(t, ok, "channel closed after cancel")

	h.Publish("u1", 4)
}
