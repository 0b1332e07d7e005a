package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestClient(userID uint) *Client {
	return &Client{UserID: userID, Send: make(chan []byte, 8)}
}

func receive(t *testing.T, c *Client) map[string]interface{} {
	t.Helper()
	select {
	case raw := <-c.Send:
		var msg map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &msg))
		return msg
	default:
		t.Fatal("no message in send buffer")
		return nil
	}
}

func TestEmitReachesRoomMembersOnly(t *testing.T) {
	hub := NewHub()
	a := newTestClient(1)
	b := newTestClient(2)
	hub.JoinRoom(a, UserRoom(1))
	hub.JoinRoom(b, UserRoom(2))

	hub.Emit(UserRoom(1), "notification", map[string]string{"title": "привет"})

	msg := receive(t, a)
	require.Equal(t, "notification", msg["event"])
	require.Empty(t, b.Send)
}

func TestEmitAllDeduplicatesMultiRoomClients(t *testing.T) {
	hub := NewHub()
	admin := newTestClient(1)
	hub.JoinRoom(admin, UserRoom(1))
	hub.JoinRoom(admin, AdminRoom)

	hub.EmitAll("broadcast-notification", map[string]string{"title": "x"})

	require.Len(t, admin.Send, 1)
}

func TestCloseLeavesAllRooms(t *testing.T) {
	hub := NewHub()
	c := newTestClient(1)
	hub.JoinRoom(c, UserRoom(1))
	hub.JoinRoom(c, AdminRoom)
	require.Equal(t, 1, hub.RoomCount(AdminRoom))

	c.Close()
	require.Zero(t, hub.RoomCount(AdminRoom))
	require.Zero(t, hub.RoomCount(UserRoom(1)))

	// Emitting into an empty room is a no-op, not a panic.
	hub.Emit(AdminRoom, "new-application", nil)
}

func TestSlowClientDoesNotBlockEmit(t *testing.T) {
	hub := NewHub()
	slow := &Client{UserID: 1, Send: make(chan []byte)} // unbuffered, never read
	hub.JoinRoom(slow, AdminRoom)

	done := make(chan struct{})
	go func() {
		hub.Emit(AdminRoom, "new-application", nil)
		close(done)
	}()
	select {
	case <-done:
	default:
		t.Log("waiting for emit")
		<-done
	}
}
