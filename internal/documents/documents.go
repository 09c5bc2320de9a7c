// Package documents serves the standalone content pages (donations, notices).
// They are read straight from the remote source and are not cached locally.
package documents

import (
	"context"
	"log/slog"
	"slices"
	"sort"

	"github.com/davidiaz1251/apostolV2/internal/domain"
	"github.com/davidiaz1251/apostolV2/internal/reactive"
)

// KindDonation is the kind of the donations page
const KindDonation = "donacion"

type Service struct {
	remote domain.RemoteSource
	logger *slog.Logger
	docs   *reactive.Cell[[]domain.Document]
}

func NewService(remote domain.RemoteSource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		remote: remote,
		logger: logger,
		docs:   reactive.NewCell([]domain.Document{}),
	}
}

// Reload fetches all documents. On failure an empty list is published and
// the error returned.
func (s *Service) Reload(ctx context.Context) error {
	records, err := s.remote.ListCollection(ctx, domain.CollectionDocuments, "")
	if err == nil {
		var docs []domain.Document
		docs, err = domain.DecodeDocuments(records)
		if err == nil {
			sort.SliceStable(docs, func(i, j int) bool { return docs[i].Order < docs[j].Order })
			s.docs.Publish(docs)
			s.logger.Debug("documents loaded", "count", len(docs))
			return nil
		}
	}

	s.logger.Error("failed to load documents", "error", err)
	s.docs.Publish([]domain.Document{})
	return err
}

// All returns the loaded documents
func (s *Service) All() []domain.Document { return s.docs.Get() }

func (s *Service) Subscribe(ctx context.Context) <-chan []domain.Document {
	return s.docs.Subscribe(ctx)
}

// ByKind returns the documents of one kind, e.g. KindDonation
func (s *Service) ByKind(kind string) []domain.Document {
	all := s.docs.Get()
	out := make([]domain.Document, 0, len(all))
	for _, d := range all {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

func (s *Service) ByID(id string) (domain.Document, bool) {
	all := s.docs.Get()
	i := slices.IndexFunc(all, func(d domain.Document) bool { return d.ID == id })
	if i < 0 {
		return domain.Document{}, false
	}
	return all[i], true
}
