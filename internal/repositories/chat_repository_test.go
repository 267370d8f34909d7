package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"friendtalk/internal/models"
)

func TestCreatePrivateChatMembership(t *testing.T) {
	repo := NewChatRepo(newTestStore(t))
	ctx := context.Background()

	_, err := repo.CreateChat(ctx, models.ChatTypePrivate, "", []string{"alice"})
	require.ErrorIs(t, err, ErrInvalidMembership)

	_, err = repo.CreateChat(ctx, models.ChatTypePrivate, "", []string{"alice", "bob", "carol"})
	require.ErrorIs(t, err, ErrInvalidMembership)

	// duplicates collapse to a single member
	_, err = repo.CreateChat(ctx, models.ChatTypePrivate, "", []string{"alice", "alice"})
	require.ErrorIs(t, err, ErrInvalidMembership)

	chat, err := repo.CreateChat(ctx, models.ChatTypePrivate, "", []string{"alice", "bob"})
	require.NoError(t, err)
	require.NotEmpty(t, chat.ID)
	require.ElementsMatch(t, []string{"alice", "bob"}, chat.Members)
}

func TestCreateGroupChat(t *testing.T) {
	repo := NewChatRepo(newTestStore(t))
	ctx := context.Background()

	_, err := repo.CreateChat(ctx, models.ChatTypeGroup, "empty", nil)
	require.ErrorIs(t, err, ErrInvalidMembership)

	chat, err := repo.CreateChat(ctx, models.ChatTypeGroup, "friends", []string{"alice", "bob", "carol"})
	require.NoError(t, err)
	require.Equal(t, "friends", chat.Name)
	require.Len(t, chat.Members, 3)

	_, err = repo.CreateChat(ctx, models.ChatType("broadcast"), "", []string{"alice"})
	require.ErrorIs(t, err, ErrInvalidChatType)
}

func TestListChatsForUserFiltersByMembership(t *testing.T) {
	repo := NewChatRepo(newTestStore(t))
	ctx := context.Background()

	_, err := repo.CreateChat(ctx, models.ChatTypePrivate, "", []string{"alice", "bob"})
	require.NoError(t, err)
	_, err = repo.CreateChat(ctx, models.ChatTypeGroup, "g", []string{"bob", "carol"})
	require.NoError(t, err)

	chats, err := repo.ListChatsForUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, chats, 1)

	chats, err = repo.ListChatsForUser(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, chats, 2)

	chats, err = repo.ListChatsForUser(ctx, "dave")
	require.NoError(t, err)
	require.Empty(t, chats)
}

func TestGetChatAndIsMember(t *testing.T) {
	repo := NewChatRepo(newTestStore(t))
	ctx := context.Background()

	_, err := repo.GetChat(ctx, "missing")
	require.ErrorIs(t, err, ErrChatNotFound)

	chat, err := repo.CreateChat(ctx, models.ChatTypePrivate, "", []string{"alice", "bob"})
	require.NoError(t, err)

	got, err := repo.GetChat(ctx, chat.ID)
	require.NoError(t, err)
	require.Equal(t, chat.ID, got.ID)

	member, err := repo.IsMember(ctx, chat.ID, "alice")
	require.NoError(t, err)
	require.True(t, member)

	member, err = repo.IsMember(ctx, chat.ID, "carol")
	require.NoError(t, err)
	require.False(t, member)

	member, err = repo.IsMember(ctx, "missing", "alice")
	require.ErrorIs(t, err, ErrChatNotFound)
	require.False(t, member)
}
