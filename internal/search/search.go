// Package search ranks topics against a free-text query.
package search

import (
	"log/slog"
	"strings"
	"sync"
	"unicode"

	"github.com/sahilm/fuzzy"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/davidiaz1251/apostolV2/internal/catalog"
	"github.com/davidiaz1251/apostolV2/internal/domain"
)

// Result is a ranked match. MatchedIndexes point into the folded title.
type Result struct {
	Topic          domain.Topic
	MatchedIndexes []int
	Score          int // higher is better
}

// TopicIndex implements fuzzy.Source over pre-folded topic titles
type TopicIndex struct {
	topics []domain.Topic
	keys   []string
}

func NewTopicIndex(topics []domain.Topic) *TopicIndex {
	keys := make([]string, len(topics))
	for i, t := range topics {
		keys[i] = Fold(t.Title)
	}
	return &TopicIndex{topics: topics, keys: keys}
}

// String returns the folded title at index i (implements fuzzy.Source)
func (idx *TopicIndex) String(i int) string { return idx.keys[i] }

// Len returns the number of topics (implements fuzzy.Source)
func (idx *TopicIndex) Len() int { return len(idx.topics) }

// Search returns the topics matching query, best first
func (idx *TopicIndex) Search(query string) []Result {
	query = Fold(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	matches := fuzzy.FindFrom(query, idx)
	results := make([]Result, len(matches))
	for i, m := range matches {
		results[i] = Result{
			Topic:          idx.topics[m.Index],
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		}
	}
	return results
}

// Fold lowercases s and strips diacritics so "Oración" matches "oracion"
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// Service searches the topics currently published in a catalog
type Service struct {
	catalog *catalog.Catalog
	logger  *slog.Logger

	mu  sync.Mutex
	idx *TopicIndex
}

func NewService(c *catalog.Catalog, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{catalog: c, logger: logger}
}

// Search ranks the published topics against query
func (s *Service) Search(query string) []Result {
	results := s.index().Search(query)
	s.logger.Debug("topic search", "query", query, "results", len(results))
	return results
}

// index rebuilds the folded titles only when a new generation was published
func (s *Service) index() *TopicIndex {
	topics := s.catalog.Topics()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.idx == nil || !sameSlice(s.idx.topics, topics) {
		s.idx = NewTopicIndex(topics)
	}
	return s.idx
}

func sameSlice(a, b []domain.Topic) bool {
	if len(a) != len(b) {
		return false
	}
	return len(a) == 0 || &a[0] == &b[0]
}
