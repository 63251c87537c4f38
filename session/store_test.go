package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/campaignmesh/core"
)

func ptr(s string) *string { return &s }

func sampleRecord(id string) Record {
	ec := core.NewExecutionContext("ManagerAgent")
	ec.State.SetBriefing("ai", "AI news summary")
	ec.State.SetDraft("latest", core.Draft{Title: "Hello", Content: "<p>Hi</p>"})
	ec.History = append(ec.History, core.NewTextContent(core.RoleUser, "hi"))
	ec.Turns = 1

	return Record{ID: id, Context: ec, Transcript: []string{"hi", "hello"}}
}

func storeContract(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("missing record", func(t *testing.T) {
		_, err := store.LoadRecord(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("record round trip", func(t *testing.T) {
		rec := sampleRecord("s1")
		require.NoError(t, store.SaveRecord(ctx, rec))

		got, err := store.LoadRecord(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, rec.Transcript, got.Transcript)
		assert.Equal(t, "ManagerAgent", got.Context.ActiveAgent)
		assert.Equal(t, 1, got.Context.Turns)

		text, ok := got.Context.State.Briefing("ai")
		require.True(t, ok)
		assert.Equal(t, "AI news summary", text)

		d, ok := got.Context.State.Draft("latest")
		require.True(t, ok)
		assert.Equal(t, "Hello", d.Title)

		require.Len(t, got.Context.History, 1)
		assert.Equal(t, "hi", got.Context.History[0].Text())
	})

	t.Run("overwrite", func(t *testing.T) {
		rec := sampleRecord("s2")
		require.NoError(t, store.SaveRecord(ctx, rec))

		rec.Transcript = append(rec.Transcript, "more")
		require.NoError(t, store.SaveRecord(ctx, rec))

		got, err := store.LoadRecord(ctx, "s2")
		require.NoError(t, err)
		assert.Len(t, got.Transcript, 3)
	})

	t.Run("invalid id", func(t *testing.T) {
		assert.ErrorIs(t, store.SaveRecord(ctx, Record{ID: "../escape"}), ErrInvalidID)
	})

	t.Run("index", func(t *testing.T) {
		titles, err := store.LoadIndex(ctx)
		require.NoError(t, err)
		assert.Empty(t, titles)

		require.NoError(t, store.SaveIndex(ctx, Titles{"s1": ptr("AI news"), "s2": nil}))

		titles, err = store.LoadIndex(ctx)
		require.NoError(t, err)
		require.Len(t, titles, 2)
		require.NotNil(t, titles["s1"])
		assert.Equal(t, "AI news", *titles["s1"])
		assert.Nil(t, titles["s2"])
		assert.Equal(t, []string{"s1", "s2"}, titles.IDs())

		require.NoError(t, store.SaveIndex(ctx, Titles{"s3": nil}))
		titles, err = store.LoadIndex(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"s3"}, titles.IDs())
	})
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, NewMemoryStore())
}

func TestMemoryStoreIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	rec := sampleRecord("s1")
	require.NoError(t, store.SaveRecord(ctx, rec))

	rec.Transcript[0] = "mutated"
	rec.Context.State.SetBriefing("ai", "mutated")

	got, err := store.LoadRecord(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "hi", got.Transcript[0])

	text, _ := got.Context.State.Briefing("ai")
	assert.Equal(t, "AI news summary", text)
}

func TestFileStore(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	storeContract(t, store)
}

func TestFileStoreLayout(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	store, err := NewFileStore(root)
	require.NoError(t, err)

	require.NoError(t, store.SaveRecord(ctx, sampleRecord("abc")))
	require.NoError(t, store.SaveIndex(ctx, Titles{"abc": nil}))

	for _, p := range []string{
		filepath.Join(root, "index.json"),
		filepath.Join(root, "abc", "context.json"),
		filepath.Join(root, "abc", "transcript.json"),
	} {
		assert.FileExists(t, p)
		assert.NoFileExists(t, p+".tmp")
	}

	// A missing transcript reads as empty.
	require.NoError(t, os.Remove(filepath.Join(root, "abc", "transcript.json")))
	rec, err := store.LoadRecord(ctx, "abc")
	require.NoError(t, err)
	assert.Empty(t, rec.Transcript)

	// Corrupt documents are reported, not treated as absent.
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.json"), []byte("{"), 0o644))
	_, err = store.LoadIndex(ctx)
	assert.Error(t, err)
}

func TestSQLiteStore(t *testing.T) {
	store, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	storeContract(t, store)
}

func TestSQLiteStoreFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "sessions.db")

	store, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, store.SaveRecord(ctx, sampleRecord("s1")))
	require.NoError(t, store.SaveIndex(ctx, Titles{"s1": ptr("Title")}))
	require.NoError(t, store.Close())

	reopened, err := OpenSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	rec, err := reopened.LoadRecord(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "ManagerAgent", rec.Context.ActiveAgent)

	titles, err := reopened.LoadIndex(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Title", *titles["s1"])
}

func TestValidateID(t *testing.T) {
	assert.NoError(t, ValidateID(NewID()))
	assert.NoError(t, ValidateID("session_1"))
	assert.Error(t, ValidateID(""))
	assert.Error(t, ValidateID("a/b"))
	assert.Error(t, ValidateID(".hidden"))
}

func TestIndex(t *testing.T) {
	idx := NewIndex(Titles{"a": ptr("A")})

	assert.True(t, idx.Has("a"))
	assert.False(t, idx.Has("b"))

	assert.True(t, idx.Add("b"))
	assert.False(t, idx.Add("b"))

	title, ok := idx.Title("b")
	assert.True(t, ok)
	assert.Nil(t, title)

	idx.SetTitle("b", "B")
	title, ok = idx.Title("b")
	require.True(t, ok)
	assert.Equal(t, "B", *title)

	snap := idx.Snapshot()
	*snap["a"] = "changed"
	got, _ := idx.Title("a")
	assert.Equal(t, "A", *got)
	assert.Equal(t, 2, idx.Len())
}
