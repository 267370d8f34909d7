package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"friendtalk/internal/models"
	"friendtalk/internal/store"
)

var (
	ErrChatNotFound      = errors.New("chat not found")
	ErrInvalidMembership = errors.New("invalid chat membership")
	ErrInvalidChatType   = errors.New("invalid chat type")
)

// ChatRepository abstracts chat persistence.
type ChatRepository interface {
	CreateChat(ctx context.Context, chatType models.ChatType, name string, members []string) (models.Chat, error)
	ListChatsForUser(ctx context.Context, userID string) ([]models.Chat, error)
	GetChat(ctx context.Context, chatID string) (models.Chat, error)
	IsMember(ctx context.Context, chatID, userID string) (bool, error)
}

// ChatRepo is a document-store implementation of ChatRepository.
type ChatRepo struct {
	store *store.Store
}

// NewChatRepo constructs a ChatRepo.
func NewChatRepo(s *store.Store) *ChatRepo {
	return &ChatRepo{store: s}
}

// CreateChat creates a chat. Private chats must have exactly two
// distinct members; the member set is fixed after creation.
func (r *ChatRepo) CreateChat(ctx context.Context, chatType models.ChatType, name string, members []string) (models.Chat, error) {
	distinct := dedupe(members)

	switch chatType {
	case models.ChatTypePrivate:
		if len(distinct) != 2 {
			return models.Chat{}, ErrInvalidMembership
		}
	case models.ChatTypeGroup:
		if len(distinct) == 0 {
			return models.Chat{}, ErrInvalidMembership
		}
	default:
		return models.Chat{}, ErrInvalidChatType
	}

	chat := models.Chat{
		ID:        uuid.NewString(),
		Type:      chatType,
		Name:      name,
		Members:   distinct,
		CreatedAt: time.Now().UTC(),
	}
	err := r.store.Update(func(doc *store.Document) error {
		doc.Chats = append(doc.Chats, chat)
		return nil
	})
	return chat, err
}

// ListChatsForUser filters chats by membership.
func (r *ChatRepo) ListChatsForUser(ctx context.Context, userID string) ([]models.Chat, error) {
	var chats []models.Chat
	r.store.View(func(doc *store.Document) {
		for _, c := range doc.Chats {
			if c.HasMember(userID) {
				chats = append(chats, c)
			}
		}
	})
	return chats, nil
}

// GetChat fetches a chat by id.
func (r *ChatRepo) GetChat(ctx context.Context, chatID string) (models.Chat, error) {
	var chat models.Chat
	found := false
	r.store.View(func(doc *store.Document) {
		for _, c := range doc.Chats {
			if c.ID == chatID {
				chat = c
				found = true
				return
			}
		}
	})
	if !found {
		return models.Chat{}, ErrChatNotFound
	}
	return chat, nil
}

// IsMember checks whether a user belongs to the chat. A missing chat
// is ErrChatNotFound, not just a false, so callers can tell the two
// rejections apart.
func (r *ChatRepo) IsMember(ctx context.Context, chatID, userID string) (bool, error) {
	chat, err := r.GetChat(ctx, chatID)
	if err != nil {
		return false, err
	}
	return chat.HasMember(userID), nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
