// Package favorites keeps the user's bookmarked topics in the local store.
package favorites

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/davidiaz1251/apostolV2/internal/domain"
	"github.com/davidiaz1251/apostolV2/internal/reactive"
)

// Key is where the list is persisted
const Key = "apostol_favorites"

// SortBy orders a filtered list
type SortBy string

const (
	SortRecent  SortBy = "recent" // insertion order
	SortTitle   SortBy = "title"
	SortSection SortBy = "section" // section name, then display order
)

// Store holds favorite topics as full copies, so they stay readable even when
// the topic disappears from the synced catalog.
type Store struct {
	kv     domain.KeyValueStore
	logger *slog.Logger

	mu   sync.Mutex // serializes read-modify-write
	list *reactive.Cell[[]domain.Topic]
}

// New loads the persisted list. An unreadable list starts empty.
func New(kv domain.KeyValueStore, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	var stored []domain.Topic
	if _, err := kv.Get(Key, &stored); err != nil {
		logger.Error("failed to load favorites", "error", err)
		stored = nil
	}
	if stored == nil {
		stored = []domain.Topic{}
	}

	return &Store{
		kv:     kv,
		logger: logger,
		list:   reactive.NewCell(stored),
	}
}

// List returns the favorites in insertion order
func (s *Store) List() []domain.Topic { return s.list.Get() }

// Subscribe yields the current list and every change
func (s *Store) Subscribe(ctx context.Context) <-chan []domain.Topic {
	return s.list.Subscribe(ctx)
}

func (s *Store) Count() int { return len(s.list.Get()) }

func (s *Store) IsFavorite(topicID string) bool {
	return slices.ContainsFunc(s.list.Get(), func(t domain.Topic) bool { return t.ID == topicID })
}

// Add appends topic unless it is already a favorite
func (s *Store) Add(topic domain.Topic) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.IsFavorite(topic.ID) {
		return nil
	}
	return s.save(append(slices.Clone(s.list.Get()), topic))
}

func (s *Store) Remove(topicID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.list.Get()
	next := slices.DeleteFunc(slices.Clone(current), func(t domain.Topic) bool { return t.ID == topicID })
	if len(next) == len(current) {
		return nil
	}
	return s.save(next)
}

// Toggle adds or removes topic and reports whether it is now a favorite
func (s *Store) Toggle(topic domain.Topic) (bool, error) {
	if s.IsFavorite(topic.ID) {
		return false, s.Remove(topic.ID)
	}
	return true, s.Add(topic)
}

func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save([]domain.Topic{})
}

// save persists first; the published list only changes when the write succeeded
func (s *Store) save(list []domain.Topic) error {
	if err := s.kv.Set(Key, list); err != nil {
		s.logger.Error("failed to save favorites", "error", err)
		return &domain.LocalPersistenceError{Key: Key, Err: err}
	}
	s.list.Publish(list)
	return nil
}

// Filter returns the favorites matching term in title, intro or section,
// ignoring case and accents, ordered by sortBy.
func (s *Store) Filter(term string, sortBy SortBy) ([]domain.Topic, error) {
	out := slices.Clone(s.list.Get())
	if term != "" {
		out = slices.DeleteFunc(out, func(t domain.Topic) bool {
			return !fuzzy.MatchNormalizedFold(term, t.Title) &&
				!fuzzy.MatchNormalizedFold(term, t.Intro) &&
				!fuzzy.MatchNormalizedFold(term, t.Section)
		})
	}

	// Collators are not safe for concurrent use
	col := collate.New(language.Spanish, collate.IgnoreCase, collate.IgnoreDiacritics)

	switch sortBy {
	case SortRecent, "":
	case SortTitle:
		sort.SliceStable(out, func(i, j int) bool {
			return col.CompareString(out[i].Title, out[j].Title) < 0
		})
	case SortSection:
		sort.SliceStable(out, func(i, j int) bool {
			if c := col.CompareString(out[i].Section, out[j].Section); c != 0 {
				return c < 0
			}
			return out[i].Order < out[j].Order
		})
	default:
		return nil, fmt.Errorf("unknown sort order: %q", sortBy)
	}
	return out, nil
}
