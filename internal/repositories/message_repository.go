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
	ErrMessageNotFound = errors.New("message not found")
	ErrNotAuthor       = errors.New("not the message author")
)

// defaultHistoryLimit caps stored messages; the oldest are dropped on
// append once the cap is reached.
const defaultHistoryLimit = 2000

// MessageRepository defines interactions for messages.
type MessageRepository interface {
	Append(ctx context.Context, chatID, authorID, text, fileRef string) (models.Message, error)
	ListForChat(ctx context.Context, chatID string) ([]models.Message, error)
	ListGlobal(ctx context.Context) ([]models.Message, error)
	Get(ctx context.Context, messageID string) (models.Message, error)
	Edit(ctx context.Context, messageID, authorID, text string) (models.Message, error)
	Delete(ctx context.Context, messageID, authorID string) error
	ToggleReaction(ctx context.Context, messageID, userID, emoji string) (models.Message, error)
}

// MessageRepo is a document-store implementation of MessageRepository.
type MessageRepo struct {
	store *store.Store
	limit int
}

// NewMessageRepo constructs a MessageRepo.
func NewMessageRepo(s *store.Store) *MessageRepo {
	return &MessageRepo{store: s, limit: defaultHistoryLimit}
}

// Append stores a new message with a server-assigned id.
func (r *MessageRepo) Append(ctx context.Context, chatID, authorID, text, fileRef string) (models.Message, error) {
	msg := models.Message{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		AuthorID:  authorID,
		Text:      text,
		FileRef:   fileRef,
		Timestamp: time.Now().UTC(),
	}
	err := r.store.Update(func(doc *store.Document) error {
		doc.Messages = append(doc.Messages, msg)
		if len(doc.Messages) > r.limit {
			doc.Messages = doc.Messages[len(doc.Messages)-r.limit:]
		}
		return nil
	})
	return msg, err
}

// ListForChat returns the stored history of one chat in append order.
func (r *MessageRepo) ListForChat(ctx context.Context, chatID string) ([]models.Message, error) {
	var msgs []models.Message
	r.store.View(func(doc *store.Document) {
		for _, m := range doc.Messages {
			if m.ChatID == chatID {
				msgs = append(msgs, m)
			}
		}
	})
	return msgs, nil
}

// ListGlobal returns the global-room history in append order.
func (r *MessageRepo) ListGlobal(ctx context.Context) ([]models.Message, error) {
	return r.ListForChat(ctx, "")
}

// Get retrieves a single message.
func (r *MessageRepo) Get(ctx context.Context, messageID string) (models.Message, error) {
	var msg models.Message
	found := false
	r.store.View(func(doc *store.Document) {
		for _, m := range doc.Messages {
			if m.ID == messageID {
				msg = m
				found = true
				return
			}
		}
	})
	if !found {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, nil
}

// Edit replaces the text of a message. Only the author may edit.
func (r *MessageRepo) Edit(ctx context.Context, messageID, authorID, text string) (models.Message, error) {
	var msg models.Message
	err := r.store.Update(func(doc *store.Document) error {
		for i := range doc.Messages {
			if doc.Messages[i].ID != messageID {
				continue
			}
			if doc.Messages[i].AuthorID != authorID {
				return ErrNotAuthor
			}
			doc.Messages[i].Text = text
			doc.Messages[i].Edited = true
			msg = doc.Messages[i]
			return nil
		}
		return ErrMessageNotFound
	})
	return msg, err
}

// Delete removes a message. Only the author may delete.
func (r *MessageRepo) Delete(ctx context.Context, messageID, authorID string) error {
	return r.store.Update(func(doc *store.Document) error {
		for i := range doc.Messages {
			if doc.Messages[i].ID != messageID {
				continue
			}
			if doc.Messages[i].AuthorID != authorID {
				return ErrNotAuthor
			}
			doc.Messages = append(doc.Messages[:i], doc.Messages[i+1:]...)
			return nil
		}
		return ErrMessageNotFound
	})
}

// ToggleReaction adds the user under the emoji key, or removes them if
// already present. Empty reaction sets are dropped.
func (r *MessageRepo) ToggleReaction(ctx context.Context, messageID, userID, emoji string) (models.Message, error) {
	var msg models.Message
	err := r.store.Update(func(doc *store.Document) error {
		for i := range doc.Messages {
			if doc.Messages[i].ID != messageID {
				continue
			}
			m := &doc.Messages[i]
			if m.Reactions == nil {
				m.Reactions = make(map[string][]string)
			}
			users := m.Reactions[emoji]
			removed := false
			for j, u := range users {
				if u == userID {
					users = append(users[:j], users[j+1:]...)
					removed = true
					break
				}
			}
			if !removed {
				users = append(users, userID)
			}
			if len(users) == 0 {
				delete(m.Reactions, emoji)
			} else {
				m.Reactions[emoji] = users
			}
			if len(m.Reactions) == 0 {
				m.Reactions = nil
			}
			msg = *m
			return nil
		}
		return ErrMessageNotFound
	})
	return msg, err
}
