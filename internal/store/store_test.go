package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"friendtalk/internal/models"
)

func TestOpenMissingFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")

	s, err := Open(path)
	require.NoError(t, err)

	s.View(func(doc *Document) {
		require.Empty(t, doc.Users)
		require.Empty(t, doc.Chats)
		require.Empty(t, doc.Messages)
	})
}

func TestOpenCorruptFileFailsLoud(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Open(path)
	require.ErrorIs(t, err, ErrCorruptDocument)
}

func TestUpdatePersistsAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")

	s, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, s.Update(func(doc *Document) error {
		doc.Users["alice"] = models.User{ID: "alice", Username: "alice", DisplayName: "alice"}
		doc.Messages = append(doc.Messages, models.Message{ID: "m1", AuthorID: "alice", Text: "hi"})
		return nil
	}))

	reloaded, err := Open(path)
	require.NoError(t, err)
	reloaded.View(func(doc *Document) {
		require.Len(t, doc.Users, 1)
		require.Equal(t, "alice", doc.Users["alice"].Username)
		require.Len(t, doc.Messages, 1)
		require.Equal(t, "hi", doc.Messages[0].Text)
	})
}

func TestReloadedSaveIsByteIdentical(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Update(func(doc *Document) error {
		doc.Users["bob"] = models.User{ID: "bob", Username: "bob", DisplayName: "bob"}
		doc.Users["alice"] = models.User{ID: "alice", Username: "alice", DisplayName: "alice"}
		return nil
	}))

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	reloaded, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, reloaded.Update(func(doc *Document) error { return nil }))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestUpdateFnErrorSkipsSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")

	s, err := Open(path)
	require.NoError(t, err)

	wantErr := os.ErrPermission
	err = s.Update(func(doc *Document) error {
		doc.Users["x"] = models.User{ID: "x"}
		return wantErr
	})
	require.ErrorIs(t, err, wantErr)

	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr), "failed update must not write the document")
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")

	s, err := Open(path)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Update(func(doc *Document) error { return nil }))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "data.json", entries[0].Name())
}
