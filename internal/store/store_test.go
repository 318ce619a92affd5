package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func open(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(path, nil)
	require.NoError(t, err)
	return s
}

func TestSetGetDelete(t *testing.T) {
	s := open(t, filepath.Join(t.TempDir(), "store.json"))

	require.NoError(t, s.Set("media.volume", json.RawMessage(`75`)))
	require.NoError(t, s.Set("bar.theme", json.RawMessage(`{"dark":true}`)))

	v, ok := s.Get("media.volume")
	require.True(t, ok)
	assert.JSONEq(t, `75`, string(v))

	_, ok = s.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"bar.theme", "media.volume"}, s.Keys())

	require.NoError(t, s.Delete("media.volume"))
	_, ok = s.Get("media.volume")
	assert.False(t, ok)

	require.NoError(t, s.Delete("media.volume"), "deleting a missing key is a no-op")
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")

	s := open(t, path)
	require.NoError(t, s.Set("counter", json.RawMessage(`42`)))

	again := open(t, path)
	v, ok := again.Get("counter")
	require.True(t, ok)
	assert.JSONEq(t, `42`, string(v))
}

func TestEmptyKeyRejected(t *testing.T) {
	s := open(t, filepath.Join(t.TempDir(), "store.json"))
	assert.Error(t, s.Set("", json.RawMessage(`1`)))
}

func TestCorruptFileSurfaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Open(path, nil)
	assert.Error(t, err)
}

func TestGetReturnsCopy(t *testing.T) {
	s := open(t, filepath.Join(t.TempDir(), "store.json"))
	require.NoError(t, s.Set("k", json.RawMessage(`"abc"`)))

	v, _ := s.Get("k")
	v[1] = 'X'

	again, _ := s.Get("k")
	assert.JSONEq(t, `"abc"`, string(again))
}
