package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"friendtalk/internal/models"
)

func newTestClient() *Client {
	return newClient(nil, ConnInfo{ConnID: newConnID()})
}

// drainEvents empties the client's outbound queue and decodes it.
func drainEvents(t *testing.T, c *Client) []models.Event {
	t.Helper()
	var events []models.Event
	for {
		select {
		case payload := <-c.send:
			var ev models.Event
			require.NoError(t, json.Unmarshal(payload, &ev))
			events = append(events, ev)
		default:
			return events
		}
	}
}

func TestHubRegisterAndUnregister(t *testing.T) {
	hub := NewHub(PolicyRoomOnly)
	c := newTestClient()

	hub.Register(c)
	require.Len(t, hub.clients, 1)

	hub.Unregister(c)
	require.Empty(t, hub.clients)
	require.Empty(t, hub.identities)
}

func TestHubJoinAndLeaveRoom(t *testing.T) {
	hub := NewHub(PolicyRoomOnly)
	c := newTestClient()
	hub.Register(c)

	hub.JoinRoom(c, "chat-1")
	require.Len(t, hub.rooms["chat-1"], 1)

	// joining another room leaves the first
	hub.JoinRoom(c, "chat-2")
	require.NotContains(t, hub.rooms, "chat-1")
	require.Len(t, hub.rooms["chat-2"], 1)

	hub.LeaveRoom(c)
	require.Empty(t, hub.rooms)
}

func TestBroadcastAllDeliversExactlyOneCopy(t *testing.T) {
	hub := NewHub(PolicyRoomOnly)
	clients := []*Client{newTestClient(), newTestClient(), newTestClient()}
	for _, c := range clients {
		hub.Register(c)
	}

	hub.BroadcastAll(models.Event{Type: models.EventMessage, Message: &models.Message{ID: "m1"}})

	for _, c := range clients {
		events := drainEvents(t, c)
		require.Len(t, events, 1)
		require.Equal(t, "m1", events[0].Message.ID)
	}
}

func TestBroadcastToRoomScopesDelivery(t *testing.T) {
	hub := NewHub(PolicyRoomOnly)
	inRoom := newTestClient()
	elsewhere := newTestClient()
	hub.Register(inRoom)
	hub.Register(elsewhere)
	hub.Bind(inRoom, "alice")
	hub.Bind(elsewhere, "bob")
	hub.JoinRoom(inRoom, "chat-1")

	hub.BroadcastToRoom("chat-1", []string{"alice", "bob"}, models.Event{Type: models.EventMessage, Message: &models.Message{ID: "m1"}})

	require.Len(t, drainEvents(t, inRoom), 1)
	require.Empty(t, drainEvents(t, elsewhere), "connections outside the room must receive zero copies")
}

func TestBroadcastToRoomMembersPolicy(t *testing.T) {
	hub := NewHub(PolicyMembers)
	inRoom := newTestClient()
	memberElsewhere := newTestClient()
	nonMember := newTestClient()
	for _, c := range []*Client{inRoom, memberElsewhere, nonMember} {
		hub.Register(c)
	}
	hub.Bind(inRoom, "alice")
	hub.Bind(memberElsewhere, "bob")
	hub.Bind(nonMember, "carol")
	hub.JoinRoom(inRoom, "chat-1")

	hub.BroadcastToRoom("chat-1", []string{"alice", "bob"}, models.Event{Type: models.EventMessage, Message: &models.Message{ID: "m1"}})

	require.Len(t, drainEvents(t, inRoom), 1, "in-room member gets one copy, not two")
	require.Len(t, drainEvents(t, memberElsewhere), 1)
	require.Empty(t, drainEvents(t, nonMember))
}

func TestSendToUnicasts(t *testing.T) {
	hub := NewHub(PolicyRoomOnly)
	target := newTestClient()
	other := newTestClient()
	hub.Register(target)
	hub.Register(other)

	hub.SendTo(target, models.Event{Type: models.EventMessages})

	require.Len(t, drainEvents(t, target), 1)
	require.Empty(t, drainEvents(t, other))
}

func TestBroadcastSkipsClosedClients(t *testing.T) {
	hub := NewHub(PolicyRoomOnly)
	open := newTestClient()
	closed := newTestClient()
	hub.Register(open)
	hub.Register(closed)
	closed.closeSend()

	// must not panic and must still deliver to the open client
	hub.BroadcastAll(models.Event{Type: models.EventMessage, Message: &models.Message{ID: "m1"}})

	require.Len(t, drainEvents(t, open), 1)
}

func TestOnlineUserIDs(t *testing.T) {
	hub := NewHub(PolicyRoomOnly)
	a := newTestClient()
	b := newTestClient()
	hub.Register(a)
	hub.Register(b)
	hub.Bind(a, "alice")

	online := hub.OnlineUserIDs()
	require.True(t, online["alice"])
	require.False(t, online["bob"])

	hub.Unregister(a)
	require.False(t, hub.OnlineUserIDs()["alice"])
}
