package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidiaz1251/apostolV2/internal/domain"
)

func TestKVStorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := NewKVStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Set(domain.KeyTopics, []domain.Topic{{ID: "a", Title: "Uno", Order: 1}}))
	require.NoError(t, s.Close())

	reopened, err := NewKVStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	var topics []domain.Topic
	ok, err := reopened.Get(domain.KeyTopics, &topics)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, topics, 1)
	assert.Equal(t, "Uno", topics[0].Title)
}

func TestKVStoreMissingKey(t *testing.T) {
	s, err := NewKVStore(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	var v string
	ok, err := s.Get("nope", &v)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestKVStoreMemoryOnly(t *testing.T) {
	s, err := NewKVStore("")
	require.NoError(t, err)

	require.NoError(t, s.Set(domain.KeyVersionMarker, "v3"))

	var v string
	ok, err := s.Get(domain.KeyVersionMarker, &v)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v3", v)

	require.NoError(t, s.Delete(domain.KeyVersionMarker))
	ok, _ = s.Get(domain.KeyVersionMarker, &v)
	assert.False(t, ok)
	assert.NoError(t, s.Close())
}

func TestKVStoreSetBatch(t *testing.T) {
	s, err := NewKVStore(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	err = s.SetBatch([]domain.Entry{
		{Key: domain.KeySections, Value: []domain.Section{{Name: "S"}}},
		{Key: domain.KeyVersionMarker, Value: "v1"},
	})
	require.NoError(t, err)

	keys, err := s.Keys()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{domain.KeySections, domain.KeyVersionMarker}, keys)
}

func TestKVStoreBatchRejectsUnencodable(t *testing.T) {
	s, err := NewKVStore(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	err = s.SetBatch([]domain.Entry{
		{Key: "ok", Value: "fine"},
		{Key: "bad", Value: make(chan int)},
	})
	require.Error(t, err)

	var v string
	ok, _ := s.Get("ok", &v)
	assert.False(t, ok, "no entry of a failed batch may be written")
}

func TestKVStoreInvalidateAll(t *testing.T) {
	s, err := NewKVStore(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set("a", 1))
	require.NoError(t, s.InvalidateAll())

	var n int
	ok, err := s.Get("a", &n)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestBlobDirRoundTrip(t *testing.T) {
	b := NewBlobDir(t.TempDir())

	require.NoError(t, b.EnsureDir("images"))
	require.NoError(t, b.EnsureDir("images"))
	require.NoError(t, b.WriteBlob("images/x.jpg", []byte{1, 2, 3}))

	data, err := b.ReadBlob("images/x.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)
}

func TestBlobDirMissing(t *testing.T) {
	b := NewBlobDir(t.TempDir())

	_, err := b.ReadBlob("images/none.png")
	assert.ErrorIs(t, err, domain.ErrBlobNotFound)
}

func TestBlobDirRejectsEscape(t *testing.T) {
	b := NewBlobDir(t.TempDir())

	assert.Error(t, b.WriteBlob("../outside", []byte("x")))
	_, err := b.ReadBlob("/etc/passwd")
	assert.Error(t, err)
}
