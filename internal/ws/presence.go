package ws

import (
	"context"
	"log"

	"friendtalk/internal/models"
	"friendtalk/internal/repositories"
)

// BroadcastPresence pushes the full users list to every connection.
// The online flag reflects identities currently bound to a connection,
// not the persisted flag, so crashed sessions read as offline.
func BroadcastPresence(ctx context.Context, hub *Hub, users repositories.UserRepository) {
	list, err := users.ListUsers(ctx)
	if err != nil {
		log.Printf("presence: load users: %v", err)
		return
	}
	online := hub.OnlineUserIDs()
	for i := range list {
		list[i].Online = online[list[i].ID]
	}
	hub.BroadcastAll(models.PresenceEvent(list))
}

// BroadcastEvent routes an event to the chat's room, or to every
// connection when the chat id is empty (the global room).
func BroadcastEvent(ctx context.Context, hub *Hub, chats repositories.ChatRepository, chatID string, event models.Event) {
	if chatID == "" {
		hub.BroadcastAll(event)
		return
	}
	chat, err := chats.GetChat(ctx, chatID)
	if err != nil {
		log.Printf("broadcast: load chat %s: %v", chatID, err)
		return
	}
	hub.BroadcastToRoom(chatID, chat.Members, event)
}
