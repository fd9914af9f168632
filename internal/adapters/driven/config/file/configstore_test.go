package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore(t *testing.T) {
	t.Run("creates directory and starts empty", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "couchfeed")

		store, err := NewConfigStore(dir)
		require.NoError(t, err)

		assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())
		_, ok := store.Get("server.url")
		assert.False(t, ok)

		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("fails on corrupt file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[server\nurl = "), 0600))

		_, err := NewConfigStore(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing")
	})
}

func TestConfigStore_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Set("server.url", "http://127.0.0.1:5984"))
	require.NoError(t, store.Set("watch.page_limit", 50))
	require.NoError(t, store.Set("watch.databases", []string{"contacts", "notes"}))
	require.NoError(t, store.Set("cache.enabled", true))

	reopened, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:5984", reopened.GetString("server.url"))
	assert.Equal(t, 50, reopened.GetInt("watch.page_limit"))
	assert.Equal(t, []string{"contacts", "notes"}, reopened.GetStringSlice("watch.databases"))
	assert.True(t, reopened.GetBool("cache.enabled"))
}

func TestConfigStore_WritesNestedTables(t *testing.T) {
	dir := t.TempDir()

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("watch.local_interval", "1s"))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[watch]")
	assert.Contains(t, string(data), "local_interval")

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_ReadsHandWrittenFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[server]
url = "https://couch.example.com"

[transport]
rate = 5.5
burst = 3
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, "https://couch.example.com", store.GetString("server.url"))
	assert.Equal(t, 3, store.GetInt("transport.burst"))
	val, ok := store.Get("transport.rate")
	require.True(t, ok)
	assert.InDelta(t, 5.5, val, 0.0001)
}

func TestConfigStore_TypeMismatchReturnsZero(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("server.url", "http://x"))

	assert.Equal(t, 0, store.GetInt("server.url"))
	assert.False(t, store.GetBool("server.url"))
	assert.Nil(t, store.GetStringSlice("server.url"))
	assert.Equal(t, "", store.GetString("missing"))
}

func TestConfigStore_LoadPicksUpExternalEdits(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("server.url", "http://old"))

	require.NoError(t, os.WriteFile(store.Path(), []byte("[server]\nurl = \"http://new\"\n"), 0600))
	require.NoError(t, store.Load())

	assert.Equal(t, "http://new", store.GetString("server.url"))
}

func TestNestMap(t *testing.T) {
	flat := map[string]any{
		"a":     1,
		"b.c":   2,
		"b.d.e": 3,
	}

	nested := nestMap(flat)

	assert.Equal(t, 1, nested["a"])
	b, ok := nested["b"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 2, b["c"])
	d, ok := b["d"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 3, d["e"])

	assert.Equal(t, flat, flattenMap(nested, ""))
}
