// Package catalog holds the published topic, section and practice collections.
//
// Values handed out by the catalog are shared between subscribers and must be
// treated as read-only.
package catalog

import (
	"context"

	"github.com/davidiaz1251/apostolV2/internal/domain"
	"github.com/davidiaz1251/apostolV2/internal/reactive"
)

// Catalog is the in-memory view of the last synced or cached generation.
type Catalog struct {
	topics    *reactive.Cell[[]domain.Topic]
	sections  *reactive.Cell[[]domain.Section]
	practices *reactive.Cell[[]domain.Practice]
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{
		topics:    reactive.NewCell([]domain.Topic{}),
		sections:  reactive.NewCell([]domain.Section{}),
		practices: reactive.NewCell([]domain.Practice{}),
	}
}

// Publish replaces all three collections.
func (c *Catalog) Publish(snap domain.Snapshot) {
	c.sections.Publish(nonNil(snap.Sections))
	c.practices.Publish(nonNil(snap.Practices))
	c.topics.Publish(nonNil(snap.Topics))
}

// Snapshot returns the currently published collections.
func (c *Catalog) Snapshot() domain.Snapshot {
	return domain.Snapshot{
		Topics:    c.topics.Get(),
		Sections:  c.sections.Get(),
		Practices: c.practices.Get(),
	}
}

func (c *Catalog) Topics() []domain.Topic       { return c.topics.Get() }
func (c *Catalog) Sections() []domain.Section   { return c.sections.Get() }
func (c *Catalog) Practices() []domain.Practice { return c.practices.Get() }

func (c *Catalog) SubscribeTopics(ctx context.Context) <-chan []domain.Topic {
	return c.topics.Subscribe(ctx)
}

func (c *Catalog) SubscribeSections(ctx context.Context) <-chan []domain.Section {
	return c.sections.Subscribe(ctx)
}

func (c *Catalog) SubscribePractices(ctx context.Context) <-chan []domain.Practice {
	return c.practices.Subscribe(ctx)
}

// Grouped returns the published topics grouped under their sections.
func (c *Catalog) Grouped() []domain.SectionGroup {
	return domain.GroupBySection(c.sections.Get(), c.topics.Get())
}

// Topic looks up a published topic by ID.
func (c *Catalog) Topic(id string) (domain.Topic, bool) {
	for _, t := range c.topics.Get() {
		if t.ID == id {
			return t, true
		}
	}
	return domain.Topic{}, false
}

// PracticesForTopic returns the published practices of a topic in display order.
func (c *Catalog) PracticesForTopic(topicID string) []domain.Practice {
	var out []domain.Practice
	for _, p := range c.practices.Get() {
		if p.Topic == topicID {
			out = append(out, p)
		}
	}
	domain.SortPractices(out)
	return out
}

// Empty reports whether nothing has been published yet.
func (c *Catalog) Empty() bool {
	return len(c.topics.Get()) == 0 && len(c.sections.Get()) == 0 && len(c.practices.Get()) == 0
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
