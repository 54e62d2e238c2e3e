package worklist

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/sift/internal/cache"
	"github.com/fyrsmithlabs/sift/internal/changeset"
	"github.com/fyrsmithlabs/sift/internal/normalize"
	"github.com/fyrsmithlabs/sift/internal/patch"
	"github.com/fyrsmithlabs/sift/internal/store"
)

// memStore is an in-memory DocumentStore counting loads.
type memStore struct {
	mu       sync.Mutex
	docs     map[string]*store.Document
	archives map[string][]byte
	loads    int
}

func newMemStore() *memStore {
	return &memStore{
		docs:     make(map[string]*store.Document),
		archives: make(map[string][]byte),
	}
}

func (m *memStore) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.docs))
	for id := range m.docs {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *memStore) Load(ctx context.Context, id string) (*store.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	doc, ok := m.docs[id]
	if !ok {
		return nil, store.ErrDocumentNotFound
	}
	return doc, nil
}

func (m *memStore) Archive(ctx context.Context, id string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.archives[id]
	return raw, ok, nil
}

func (m *memStore) loadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loads
}

func snapshotArchive(t *testing.T, snapshots map[int64]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for ts, content := range snapshots {
		w, err := zw.Create(fmt.Sprintf("%d.full", ts))
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func newTestRunner(t *testing.T, docs store.DocumentStore, results *cache.ResultCache) *Runner {
	t.Helper()

	resolver, err := changeset.NewResolver(patch.NewMatchPatch(), normalize.NewMarkdown(), nil)
	require.NoError(t, err)
	runner, err := NewRunner(resolver, docs, results, 2, nil)
	require.NoError(t, err)
	return runner
}

func TestNewRunner_Validation(t *testing.T) {
	_, err := NewRunner(nil, newMemStore(), nil, 1, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolver is required")

	resolver, err := changeset.NewResolver(patch.NewMatchPatch(), normalize.NewMarkdown(), nil)
	require.NoError(t, err)
	_, err = NewRunner(resolver, nil, nil, 1, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "document store is required")
}

func TestRunner_Run_ResolvesAllDocuments(t *testing.T) {
	docs := newMemStore()
	docs.docs["new.md"] = &store.Document{
		ID: "new.md", LiveText: "fresh note", ModifiedMs: 900, CreatedMs: 800,
	}
	docs.docs["old.md"] = &store.Document{
		ID: "old.md", LiveText: "stale note", ModifiedMs: 100, CreatedMs: 100,
	}
	runner := newTestRunner(t, docs, nil)

	results := runner.Run(context.Background(), []string{"new.md", "old.md"}, 500)

	require.Len(t, results, 2)
	assert.Equal(t, StatusDone, results[0].Status)
	assert.Equal(t, "fresh note", results[0].NewContent)
	assert.Equal(t, StatusDone, results[1].Status)
	assert.Empty(t, results[1].NewContent)
}

func TestRunner_Run_WithArchive(t *testing.T) {
	docs := newMemStore()
	docs.docs["note.md"] = &store.Document{
		ID: "note.md", LiveText: "Hello World Extra", ModifiedMs: 300, CreatedMs: 100,
	}
	docs.archives["note.md"] = snapshotArchive(t, map[int64]string{
		100: "Hello",
		300: "Hello World Extra",
	})
	runner := newTestRunner(t, docs, nil)

	results := runner.Run(context.Background(), []string{"note.md"}, 150)

	require.Len(t, results, 1)
	assert.Equal(t, StatusDone, results[0].Status)
	assert.Equal(t, "World Extra", results[0].NewContent)
}

func TestRunner_Run_UnknownDocumentNeedsRecompute(t *testing.T) {
	runner := newTestRunner(t, newMemStore(), nil)

	results := runner.Run(context.Background(), []string{"ghost.md"}, 100)

	require.Len(t, results, 1)
	assert.Equal(t, StatusNeedsRecompute, results[0].Status)
	assert.ErrorIs(t, results[0].Err, store.ErrDocumentNotFound)
}

func TestRunner_Run_CorruptArchiveFallsBack(t *testing.T) {
	docs := newMemStore()
	docs.docs["note.md"] = &store.Document{
		ID: "note.md", LiveText: "whole note", ModifiedMs: 900, CreatedMs: 800,
	}
	docs.archives["note.md"] = []byte("not a container")
	runner := newTestRunner(t, docs, nil)

	results := runner.Run(context.Background(), []string{"note.md"}, 500)

	require.Len(t, results, 1)
	assert.Equal(t, StatusDone, results[0].Status)
	assert.Equal(t, "whole note", results[0].NewContent)
}

func TestRunner_Run_CancellationMarksNeedsRecompute(t *testing.T) {
	docs := newMemStore()
	ids := make([]string, 0, 8)
	for i := 0; i < 8; i++ {
		id := fmt.Sprintf("doc-%d.md", i)
		ids = append(ids, id)
		docs.docs[id] = &store.Document{
			ID: id, LiveText: "Hello World Extra", ModifiedMs: 300, CreatedMs: 100,
		}
		docs.archives[id] = snapshotArchive(t, map[int64]string{
			100: "Hello",
			300: "Hello World Extra",
		})
	}
	runner := newTestRunner(t, docs, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := runner.Run(ctx, ids, 150)

	require.Len(t, results, 8)
	for _, r := range results {
		assert.Equal(t, StatusNeedsRecompute, r.Status)
		assert.Empty(t, r.NewContent, "a cancelled resolve must not surface partial content")
	}
}

func TestRunner_Run_UsesCache(t *testing.T) {
	docs := newMemStore()
	docs.docs["note.md"] = &store.Document{
		ID: "note.md", LiveText: "fresh note", ModifiedMs: 900, CreatedMs: 800,
	}
	results := cache.New(16)
	runner := newTestRunner(t, docs, results)

	first := runner.Run(context.Background(), []string{"note.md"}, 500)
	loadsAfterFirst := docs.loadCount()
	second := runner.Run(context.Background(), []string{"note.md"}, 500)

	require.Equal(t, first[0].NewContent, second[0].NewContent)
	assert.Equal(t, loadsAfterFirst, docs.loadCount(), "second run should hit the cache")
}

func TestRunner_Run_CacheInvalidationForcesReload(t *testing.T) {
	docs := newMemStore()
	docs.docs["note.md"] = &store.Document{
		ID: "note.md", LiveText: "fresh note", ModifiedMs: 900, CreatedMs: 800,
	}
	results := cache.New(16)
	runner := newTestRunner(t, docs, results)

	runner.Run(context.Background(), []string{"note.md"}, 500)
	results.Invalidate("note.md")
	loadsBefore := docs.loadCount()
	runner.Run(context.Background(), []string{"note.md"}, 500)

	assert.Greater(t, docs.loadCount(), loadsBefore)
}
