package bundle

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidiaz1251/apostolV2/internal/domain"
	"github.com/davidiaz1251/apostolV2/internal/logging"
	"github.com/davidiaz1251/apostolV2/internal/remote/rest"
)

const sample = `{
  "version": 1712000000000,
  "config": {"welcome": "hola"},
  "Temas": [
    {"id": "t1", "titulo": "Uno", "seccion": "S", "orden": 1},
    {"id": "t2", "titulo": "Dos", "seccion": "S", "orden": 2}
  ],
  "Secciones": [{"id": "s", "nombre": "S", "orden": 1}],
  "Practicas": [
    {"id": "p1", "tema": "t1", "pregunta": "a"},
    {"id": "p2", "tema": "t2", "pregunta": "b"},
    {"id": "p3", "tema": "t1", "pregunta": "c"}
  ]
}`

func newTestClient(online func() bool) *Client {
	c := NewClient(Options{
		URL: "https://mirror.example.com/apostol/bundle.json",
		TTL: time.Minute,
		Rest: rest.Options{
			Logger:     logging.NullLogger(),
			Online:     online,
			RetryDelay: time.Millisecond,
		},
	})
	gock.InterceptClient(c.HTTPClient())
	return c
}

func TestBundleServesCollectionsFromOneDownload(t *testing.T) {
	defer gock.Off()
	c := newTestClient(nil)

	gock.New("https://mirror.example.com").
		Get("/apostol/bundle.json").
		Times(1).
		Reply(200).
		BodyString(sample)

	ctx := context.Background()
	var wg sync.WaitGroup
	results := make([][]domain.Record, 3)
	errs := make([]error, 3)
	for i, name := range []string{domain.CollectionTopics, domain.CollectionSections, domain.CollectionPractices} {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			results[i], errs[i] = c.ListCollection(ctx, name, domain.FieldOrder)
		}(i, name)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Len(t, results[0], 2)
	assert.Len(t, results[1], 1)
	assert.Len(t, results[2], 3)

	topics, err := domain.DecodeTopics(results[0])
	require.NoError(t, err)
	assert.Equal(t, "t1", topics[0].ID)
	assert.Equal(t, "Uno", topics[0].Title)

	missing, err := c.ListCollection(ctx, domain.CollectionDocuments, "")
	require.NoError(t, err)
	assert.Empty(t, missing)
	assert.True(t, gock.IsDone())
}

func TestBundleQueryAndVersion(t *testing.T) {
	defer gock.Off()
	c := newTestClient(nil)

	gock.New("https://mirror.example.com").Get("/apostol/bundle.json").Reply(200).BodyString(sample)

	ctx := context.Background()
	practices, err := c.QueryCollection(ctx, domain.CollectionPractices, domain.FieldTopic, "t1")
	require.NoError(t, err)
	require.Len(t, practices, 2)
	assert.Equal(t, "p1", practices[0].ID)
	assert.Equal(t, "p3", practices[1].ID)

	assert.Empty(t, c.GetString("temas_version"))
	require.NoError(t, c.FetchAndActivate(ctx))
	assert.Equal(t, "1712000000000", c.GetString("temas_version"))
	assert.Equal(t, "hola", c.GetString("welcome"))
}

func TestBundleErrors(t *testing.T) {
	defer gock.Off()

	offline := newTestClient(func() bool { return false })
	_, err := offline.ListCollection(context.Background(), domain.CollectionTopics, "")
	assert.ErrorIs(t, err, domain.ErrOffline)

	c := newTestClient(nil)
	gock.New("https://mirror.example.com").Get("/apostol/bundle.json").Reply(404)
	err = c.FetchAndActivate(context.Background())
	var fetchErr *domain.RemoteFetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "version", fetchErr.Op)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestParse(t *testing.T) {
	b, err := Parse([]byte(sample))
	require.NoError(t, err)
	assert.Equal(t, "1712000000000", b.Version)
	assert.Len(t, b.Collections, 3)

	_, err = Parse([]byte(`{"Temas": {"id": "x"}}`))
	assert.Error(t, err)

	b, err = Parse([]byte(`{"Temas": [{"titulo": "sin id"}]}`))
	require.NoError(t, err)
	_, err = b.records(domain.CollectionTopics, nil)
	assert.Error(t, err)
}
