package favorites

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidiaz1251/apostolV2/internal/domain"
	"github.com/davidiaz1251/apostolV2/internal/logging"
	"github.com/davidiaz1251/apostolV2/internal/store"
)

type failingKV struct{ domain.KeyValueStore }

func (failingKV) Set(string, any) error { return errors.New("read-only") }

func newKV(t *testing.T) *store.KVStore {
	t.Helper()
	kv, err := store.NewKVStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })
	return kv
}

var (
	oracion  = domain.Topic{ID: "1", Title: "Oración", Intro: "Cómo rezar", Section: "Vida", Order: 2}
	bautismo = domain.Topic{ID: "2", Title: "Bautismo", Intro: "Primer sacramento", Section: "Sacramentos", Order: 1}
	ayuno    = domain.Topic{ID: "3", Title: "Ayuno", Intro: "Penitencia", Section: "Vida", Order: 1}
)

func TestAddRemoveToggle(t *testing.T) {
	s := New(newKV(t), logging.NullLogger())
	assert.Zero(t, s.Count())

	require.NoError(t, s.Add(oracion))
	require.NoError(t, s.Add(oracion))
	require.NoError(t, s.Add(bautismo))
	assert.Equal(t, 2, s.Count())
	assert.True(t, s.IsFavorite("1"))

	on, err := s.Toggle(oracion)
	require.NoError(t, err)
	assert.False(t, on)
	assert.False(t, s.IsFavorite("1"))

	on, err = s.Toggle(oracion)
	require.NoError(t, err)
	assert.True(t, on)
	assert.Equal(t, []string{"2", "1"}, []string{s.List()[0].ID, s.List()[1].ID})

	require.NoError(t, s.Remove("missing"))
	require.NoError(t, s.Remove("2"))
	assert.Equal(t, 1, s.Count())

	require.NoError(t, s.Clear())
	assert.Zero(t, s.Count())
	assert.NotNil(t, s.List())
}

func TestFavoritesPersist(t *testing.T) {
	kv := newKV(t)
	s := New(kv, logging.NullLogger())
	require.NoError(t, s.Add(ayuno))

	reloaded := New(kv, logging.NullLogger())
	require.Equal(t, 1, reloaded.Count())
	assert.Equal(t, ayuno, reloaded.List()[0])
}

func TestFailedSaveLeavesListUnchanged(t *testing.T) {
	kv := newKV(t)
	s := New(failingKV{kv}, logging.NullLogger())

	err := s.Add(oracion)
	var persistErr *domain.LocalPersistenceError
	require.ErrorAs(t, err, &persistErr)
	assert.Equal(t, Key, persistErr.Key)
	assert.Zero(t, s.Count())
}

func TestFilter(t *testing.T) {
	s := New(newKV(t), logging.NullLogger())
	for _, topic := range []domain.Topic{oracion, bautismo, ayuno} {
		require.NoError(t, s.Add(topic))
	}

	all, err := s.Filter("", SortRecent)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, topicIDs(all))

	byTitle, err := s.Filter("", SortTitle)
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "2", "1"}, topicIDs(byTitle))

	bySection, err := s.Filter("", SortSection)
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "3", "1"}, topicIDs(bySection))

	matched, err := s.Filter("ORACION", SortRecent)
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, topicIDs(matched))

	matched, err = s.Filter("vida", SortTitle)
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "1"}, topicIDs(matched))

	matched, err = s.Filter("sacramento", SortRecent)
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, topicIDs(matched))

	_, err = s.Filter("", "newest")
	assert.Error(t, err)
}

func topicIDs(topics []domain.Topic) []string {
	out := make([]string, 0, len(topics))
	for _, t := range topics {
		out = append(out, t.ID)
	}
	return out
}
