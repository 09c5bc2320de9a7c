package documents

import (
	"context"
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidiaz1251/apostolV2/internal/domain"
	"github.com/davidiaz1251/apostolV2/internal/logging"
)

type stubRemote struct {
	records []domain.Record
	err     error
}

func (s *stubRemote) ListCollection(ctx context.Context, name, orderBy string) ([]domain.Record, error) {
	if name != domain.CollectionDocuments {
		return nil, errors.New("unexpected collection " + name)
	}
	return s.records, s.err
}

func (s *stubRemote) QueryCollection(ctx context.Context, name, field, value string) ([]domain.Record, error) {
	return nil, errors.New("not used")
}

func record(t *testing.T, id string, fields map[string]any) domain.Record {
	t.Helper()
	raw, err := json.Marshal(fields)
	require.NoError(t, err)
	return domain.Record{ID: id, Data: raw}
}

func TestReloadAndQueries(t *testing.T) {
	remote := &stubRemote{records: []domain.Record{
		record(t, "d2", map[string]any{"documento": KindDonation, "titulo": "Cuenta", "orden": 2}),
		record(t, "d1", map[string]any{"documento": KindDonation, "titulo": "Intro", "orden": 1}),
		record(t, "n1", map[string]any{"documento": "aviso", "titulo": "Aviso"}),
	}}
	s := NewService(remote, logging.NullLogger())
	assert.Empty(t, s.All())

	require.NoError(t, s.Reload(context.Background()))
	assert.Len(t, s.All(), 3)

	donations := s.ByKind(KindDonation)
	require.Len(t, donations, 2)
	assert.Equal(t, "d1", donations[0].ID)
	assert.Equal(t, "d2", donations[1].ID)
	assert.Empty(t, s.ByKind("otro"))

	doc, ok := s.ByID("n1")
	require.True(t, ok)
	assert.Equal(t, "Aviso", doc.Title)
	_, ok = s.ByID("zz")
	assert.False(t, ok)
}

func TestReloadFailurePublishesEmpty(t *testing.T) {
	remote := &stubRemote{records: []domain.Record{
		record(t, "d1", map[string]any{"documento": KindDonation}),
	}}
	s := NewService(remote, logging.NullLogger())
	require.NoError(t, s.Reload(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updates := s.Subscribe(ctx)
	assert.Len(t, <-updates, 1)

	remote.err = domain.ErrOffline
	err := s.Reload(context.Background())
	assert.ErrorIs(t, err, domain.ErrOffline)
	assert.Empty(t, <-updates)
	assert.NotNil(t, s.All())
}
