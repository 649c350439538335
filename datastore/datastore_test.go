package datastore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *DataStore {
	t.Helper()
	ds, err := New(filepath.Join(t.TempDir(), "data.json"))
	require.NoError(t, err)
	t.Cleanup(func() { ds.Close() })
	return ds
}

func TestAddGetDelete(t *testing.T) {
	ds := newTestStore(t)

	_, exists := ds.Get("k1")
	assert.False(t, exists)

	ds.Add("k1", map[string]string{"name": "value"})
	v, exists := ds.Get("k1")
	require.True(t, exists)
	assert.Equal(t, map[string]string{"name": "value"}, v)

	ds.Delete("k1")
	_, exists = ds.Get("k1")
	assert.False(t, exists)
}

func TestKeys(t *testing.T) {
	ds := newTestStore(t)

	ds.Add("a", 1)
	ds.Add("b", 2)

	keys := ds.Keys()
	assert.ElementsMatch(t, []string{"a", "b"}, keys)
}

func TestNewCreatesEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")

	ds, err := New(path)
	require.NoError(t, err)
	defer ds.Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, "{}", string(data))
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := NewWithConfig(nil)
	require.Error(t, err)

	_, err = NewWithConfig(&Config{FilePath: ""})
	require.Error(t, err)
}

func TestNewRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0644))

	_, err := New(path)
	require.Error(t, err)
}

func TestPersistenceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")

	ds, err := New(path)
	require.NoError(t, err)
	ds.Add("guild-1", map[string]any{"counter": 3.0})
	require.NoError(t, ds.Close())

	reloaded, err := New(path)
	require.NoError(t, err)
	defer reloaded.Close()

	v, exists := reloaded.Get("guild-1")
	require.True(t, exists)
	m, ok := v.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 3.0, m["counter"])
}

func TestSaveToFileWritesValidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")

	ds, err := New(path)
	require.NoError(t, err)
	defer ds.Close()

	ds.Add("k", "v")
	require.NoError(t, ds.SaveToFile())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "v", out["k"])
}

func TestUnchangedDataSkipsRewrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")

	ds, err := New(path)
	require.NoError(t, err)
	defer ds.Close()

	ds.Add("k", "v")
	require.NoError(t, ds.SaveToFile())

	info1, err := os.Stat(path)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, ds.SaveToFile())

	info2, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, info1.ModTime(), info2.ModTime(), "identical data must not be rewritten")
}

func TestOperationsAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")

	ds, err := New(path)
	require.NoError(t, err)
	require.NoError(t, ds.Close())
	require.NoError(t, ds.Close(), "double close is a no-op")

	ds.Add("k", "v") // dropped silently
	_, exists := ds.Get("k")
	assert.False(t, exists)

	require.Error(t, ds.SaveToFile())
}
