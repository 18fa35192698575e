package feedcache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_PutThenGetRoundTrips(t *testing.T) {
	store := NewMemoryStore()
	meta := Metadata{Hash: "abc", URL: "http://example.invalid/feed.zip", RetrievedAt: time.Unix(100, 0)}

	require.NoError(t, store.Put("abc", []byte("zip-bytes"), meta))

	data, got, found, err := store.Get("abc")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("zip-bytes"), data)
	assert.Equal(t, meta, got)
}

func TestMemoryStore_GetMissReturnsNotFound(t *testing.T) {
	store := NewMemoryStore()

	_, _, found, err := store.Get("missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryStore_PutOverwritesExistingHash(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Put("abc", []byte("first"), Metadata{Hash: "abc"}))
	require.NoError(t, store.Put("abc", []byte("second"), Metadata{Hash: "abc", URL: "updated"}))

	data, meta, found, err := store.Get("abc")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("second"), data)
	assert.Equal(t, "updated", meta.URL)
}

func TestOpen_MemoryDriverDefaultsWhenEmpty(t *testing.T) {
	store, err := Open("", "")
	require.NoError(t, err)
	defer store.Close()

	_, ok := store.(*MemoryStore)
	assert.True(t, ok)
}

func TestOpen_UnknownDriverErrors(t *testing.T) {
	_, err := Open("carrier-pigeon", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}
