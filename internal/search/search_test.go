package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidiaz1251/apostolV2/internal/catalog"
	"github.com/davidiaz1251/apostolV2/internal/domain"
	"github.com/davidiaz1251/apostolV2/internal/logging"
)

var topics = []domain.Topic{
	{ID: "1", Title: "La Oración"},
	{ID: "2", Title: "El Bautismo"},
	{ID: "3", Title: "Oraciones de la mañana"},
	{ID: "4", Title: "La Eucaristía"},
}

func TestFold(t *testing.T) {
	assert.Equal(t, "la oracion", Fold("La Oración"))
	assert.Equal(t, "manana", Fold("MAÑANA"))
	assert.Equal(t, "eucaristia", Fold("Eucaristía"))
}

func TestTopicIndexSearch(t *testing.T) {
	idx := NewTopicIndex(topics)

	results := idx.Search("oracion")
	require.Len(t, results, 2)
	got := []string{results[0].Topic.ID, results[1].Topic.ID}
	assert.ElementsMatch(t, []string{"1", "3"}, got)
	assert.NotEmpty(t, results[0].MatchedIndexes)

	results = idx.Search("EUCARIST")
	require.Len(t, results, 1)
	assert.Equal(t, "4", results[0].Topic.ID)

	assert.Empty(t, idx.Search("   "))
	assert.Empty(t, idx.Search("xyz"))
}

func TestServiceFollowsCatalog(t *testing.T) {
	c := catalog.New()
	s := NewService(c, logging.NullLogger())

	assert.Empty(t, s.Search("bautismo"))

	c.Publish(domain.Snapshot{Topics: topics})
	results := s.Search("bautismo")
	require.Len(t, results, 1)
	assert.Equal(t, "2", results[0].Topic.ID)

	c.Publish(domain.Snapshot{Topics: []domain.Topic{{ID: "9", Title: "Confirmación"}}})
	assert.Empty(t, s.Search("bautismo"))
	assert.Len(t, s.Search("confirmacion"), 1)
}
