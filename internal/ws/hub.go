package ws

import (
	"encoding/json"
	"log"
	"sync"

	"friendtalk/internal/models"
	"friendtalk/internal/observability"
)

// BroadcastPolicy controls who receives room-scoped events.
type BroadcastPolicy string

const (
	// PolicyRoomOnly delivers only to connections currently viewing
	// the room; members elsewhere re-fetch history on next join.
	PolicyRoomOnly BroadcastPolicy = "room"
	// PolicyMembers additionally delivers to every connected member of
	// the chat, wherever they currently are.
	PolicyMembers BroadcastPolicy = "members"
)

// Hub tracks connected clients, their bound identities, and the room
// each connection is currently viewing.
type Hub struct {
	mu         sync.RWMutex
	policy     BroadcastPolicy
	clients    map[*Client]bool
	identities map[*Client]string
	rooms      map[string]map[*Client]bool
	roomOf     map[*Client]string
}

// NewHub creates an empty hub with the given room broadcast policy.
func NewHub(policy BroadcastPolicy) *Hub {
	if policy != PolicyMembers {
		policy = PolicyRoomOnly
	}
	return &Hub{
		policy:     policy,
		clients:    make(map[*Client]bool),
		identities: make(map[*Client]string),
		rooms:      make(map[string]map[*Client]bool),
		roomOf:     make(map[*Client]string),
	}
}

// Register adds a connection to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = true
}

// Unregister removes a connection, its identity binding, and its room
// membership, and shuts its outbound queue. The user record itself is
// never touched here.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	delete(h.clients, c)
	delete(h.identities, c)
	h.leaveRoomLocked(c)
	h.mu.Unlock()
	c.closeSend()
}

// Bind associates a connection with a user identity.
func (h *Hub) Bind(c *Client, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.identities[c] = userID
}

// JoinRoom binds the connection's current-room pointer, leaving any
// previous room first.
func (h *Hub) JoinRoom(c *Client, chatID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveRoomLocked(c)
	if _, ok := h.rooms[chatID]; !ok {
		h.rooms[chatID] = make(map[*Client]bool)
	}
	h.rooms[chatID][c] = true
	h.roomOf[c] = chatID
}

// LeaveRoom clears the connection's current-room pointer.
func (h *Hub) LeaveRoom(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveRoomLocked(c)
}

func (h *Hub) leaveRoomLocked(c *Client) {
	chatID, ok := h.roomOf[c]
	if !ok {
		return
	}
	delete(h.roomOf, c)
	if conns, ok := h.rooms[chatID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.rooms, chatID)
		}
	}
}

// OnlineUserIDs returns the identities currently bound to at least one
// connection.
func (h *Hub) OnlineUserIDs() map[string]bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	online := make(map[string]bool, len(h.identities))
	for _, userID := range h.identities {
		online[userID] = true
	}
	return online
}

// BroadcastAll serializes the event once and pushes it to every
// connection. A skipped recipient never aborts delivery to others.
func (h *Hub) BroadcastAll(event models.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("broadcast marshal error: %v", err)
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	h.deliver(targets, payload)
}

// BroadcastToRoom pushes the event to every connection viewing the
// room and, under PolicyMembers, to every connected member of the
// chat. Each recipient gets exactly one copy.
func (h *Hub) BroadcastToRoom(chatID string, members []string, event models.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("broadcast marshal error: %v", err)
		return
	}

	memberSet := make(map[string]bool, len(members))
	if h.policy == PolicyMembers {
		for _, m := range members {
			memberSet[m] = true
		}
	}

	h.mu.RLock()
	seen := make(map[*Client]bool)
	targets := make([]*Client, 0)
	for c := range h.rooms[chatID] {
		if !seen[c] {
			seen[c] = true
			targets = append(targets, c)
		}
	}
	if h.policy == PolicyMembers {
		for c, userID := range h.identities {
			if memberSet[userID] && !seen[c] {
				seen[c] = true
				targets = append(targets, c)
			}
		}
	}
	h.mu.RUnlock()

	h.deliver(targets, payload)
}

// SendTo unicasts an event, used for room-init history pushes and
// typed rejections.
func (h *Hub) SendTo(c *Client, event models.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("send marshal error: %v", err)
		return
	}
	h.deliver([]*Client{c}, payload)
}

func (h *Hub) deliver(targets []*Client, payload []byte) {
	for _, c := range targets {
		if !c.enqueue(payload) {
			observability.IncBroadcastDrop()
		}
	}
}
