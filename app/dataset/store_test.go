package dataset

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_LoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("A_col\n1\n2\n"), 0o644))

	store := NewStore(path, nil)

	_, loaded := store.Table()
	assert.False(t, loaded)

	table, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, table.Rows, 2)

	current, loaded := store.Table()
	assert.True(t, loaded)
	assert.Same(t, table, current)
}

func TestStore_LoadFailureResets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("A_col\n1\n"), 0o644))

	store := NewStore(path, nil)
	_, err := store.Load(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))
	store.fetcher.Invalidate(path)

	_, err = store.Load(context.Background())
	assert.Error(t, err)

	_, loaded := store.Table()
	assert.False(t, loaded)
}

func TestStore_LoadText(t *testing.T) {
	store := NewStore("inline", nil)

	table, err := store.LoadText("A_col\nx\n")
	require.NoError(t, err)
	assert.Len(t, table.Rows, 1)

	_, loaded := store.Table()
	assert.True(t, loaded)
}

func TestStore_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("A_col\n1\n"), 0o644))

	store := NewStore(path, nil)
	_, err := store.Load(context.Background())
	require.NoError(t, err)

	// a plain Load keeps serving the cached fetch; Reload refetches
	require.NoError(t, os.WriteFile(path, []byte("A_col\n1\n2\n3\n"), 0o644))
	table, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, table.Rows, 1)

	table, err = store.Reload(context.Background())
	require.NoError(t, err)
	assert.Len(t, table.Rows, 3)
}

func TestFetcher_HTTP(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		fmt.Fprint(w, "A_col\n1\n")
	}))
	defer srv.Close()

	fetcher := NewFetcher()

	text, err := fetcher.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "A_col\n1\n", text)

	// second fetch is served from cache
	_, err = fetcher.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, 1, hits)

	fetcher.Invalidate(srv.URL)
	_, err = fetcher.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, 2, hits)
}

func TestFetcher_HTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewFetcher().Fetch(context.Background(), srv.URL)
	assert.Error(t, err)
}
