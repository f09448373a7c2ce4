package realtime

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	messages [][]byte
	writeErr error
	closed   bool
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	if c.writeErr != nil {
		return c.writeErr
	}
	c.messages = append(c.messages, data)
	return nil
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

func TestBroadcastReachesAllClients(t *testing.T) {
	hub := NewHub(nil)
	a := &fakeConn{}
	b := &fakeConn{}
	hub.Register(a)
	hub.Register(b)

	hub.Broadcast(map[string]string{"type": "issue_escalated"})

	require.Len(t, a.messages, 1)
	require.Len(t, b.messages, 1)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(a.messages[0], &decoded))
	assert.Equal(t, "issue_escalated", decoded["type"])
}

func TestBroadcastDropsFailingClient(t *testing.T) {
	hub := NewHub(nil)
	healthy := &fakeConn{}
	broken := &fakeConn{writeErr: errors.New("write: broken pipe")}
	hub.Register(healthy)
	hub.Register(broken)

	hub.Broadcast(map[string]string{"type": "vote_cast"})

	assert.Equal(t, 1, hub.ClientCount())
	assert.True(t, broken.closed)

	hub.Broadcast(map[string]string{"type": "vote_cast"})
	assert.Len(t, healthy.messages, 2)
}

func TestUnregisterStopsDelivery(t *testing.T) {
	hub := NewHub(nil)
	conn := &fakeConn{}
	hub.Register(conn)
	hub.Unregister(conn)

	hub.Broadcast(map[string]string{"type": "comment_added"})

	assert.Empty(t, conn.messages)
	assert.Equal(t, 0, hub.ClientCount())
}
