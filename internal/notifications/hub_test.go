package notifications

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_RegisterAndUnregister(t *testing.T) {
	hub := NewHub()

	c1, err := hub.Register("mod-1", nil)
	require.NoError(t, err)
	c2, err := hub.Register("mod-1", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, hub.ConnectionCount())

	hub.UnregisterClient(c1)
	assert.Equal(t, 1, hub.ConnectionCount())

	// Unregistering twice must not corrupt the count.
	hub.UnregisterClient(c1)
	assert.Equal(t, 1, hub.ConnectionCount())

	hub.UnregisterClient(c2)
	assert.Equal(t, 0, hub.ConnectionCount())
}

func TestHub_PerModeratorLimit(t *testing.T) {
	hub := NewHub()
	for i := 0; i < maxConnsPerModerator; i++ {
		_, err := hub.Register("mod-1", nil)
		require.NoError(t, err)
	}

	_, err := hub.Register("mod-1", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "moderator connection limit")

	// Other moderators are unaffected.
	_, err = hub.Register("mod-2", nil)
	assert.NoError(t, err)
}

func TestHub_TotalLimit(t *testing.T) {
	hub := NewHub()
	hub.totalConns = maxTotalConns

	_, err := hub.Register("mod-1", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server connection limit")
}

func TestHub_Broadcast(t *testing.T) {
	hub := NewHub()
	var clients []*Client
	for i := 0; i < 3; i++ {
		c, err := hub.Register(fmt.Sprintf("mod-%d", i), nil)
		require.NoError(t, err)
		clients = append(clients, c)
	}

	hub.Broadcast([]byte("hello"))
	for _, c := range clients {
		select {
		case msg := <-c.Send:
			assert.Equal(t, "hello", string(msg))
		default:
			t.Fatalf("moderator %s did not receive the broadcast", c.ModeratorID)
		}
	}
}

func TestHub_BroadcastSkipsFullBuffers(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register("mod-1", nil)
	require.NoError(t, err)

	for i := 0; i < cap(c.Send); i++ {
		c.Send <- []byte("fill")
	}

	// Must not block.
	hub.Broadcast([]byte("dropped"))
	assert.Len(t, c.Send, cap(c.Send))
}

func TestHub_SendTargetsOneModerator(t *testing.T) {
	hub := NewHub()
	target, err := hub.Register("mod-1", nil)
	require.NoError(t, err)
	other, err := hub.Register("mod-2", nil)
	require.NoError(t, err)

	hub.Send("mod-1", []byte("direct"))

	select {
	case msg := <-target.Send:
		assert.Equal(t, "direct", string(msg))
	default:
		t.Fatal("target moderator did not receive the message")
	}
	assert.Empty(t, other.Send)
}
