package domain

import "sort"

// SectionGroup is a section with its topics in display order.
type SectionGroup struct {
	Section Section
	Topics  []Topic
}

// SortTopics sorts topics ascending by Order in place.
// The sort is stable so equal orders keep their fetch order.
func SortTopics(topics []Topic) {
	sort.SliceStable(topics, func(i, j int) bool {
		return topics[i].Order < topics[j].Order
	})
}

// SortSections sorts sections ascending by Order in place (stable).
func SortSections(sections []Section) {
	sort.SliceStable(sections, func(i, j int) bool {
		return sections[i].Order < sections[j].Order
	})
}

// SortPractices sorts practices ascending by Order in place (stable).
func SortPractices(practices []Practice) {
	sort.SliceStable(practices, func(i, j int) bool {
		return practices[i].Order < practices[j].Order
	})
}

// TopicsBySection buckets topics by their section name, each bucket sorted by Order.
func TopicsBySection(topics []Topic) map[string][]Topic {
	out := make(map[string][]Topic)
	for _, t := range topics {
		out[t.Section] = append(out[t.Section], t)
	}
	for _, bucket := range out {
		SortTopics(bucket)
	}
	return out
}

// GroupBySection returns one group per section that has at least one topic.
// Groups follow section Order; topics whose section is unknown are left out.
func GroupBySection(sections []Section, topics []Topic) []SectionGroup {
	buckets := TopicsBySection(topics)

	ordered := make([]Section, len(sections))
	copy(ordered, sections)
	SortSections(ordered)

	groups := make([]SectionGroup, 0, len(ordered))
	seen := make(map[string]bool, len(ordered))
	for _, s := range ordered {
		if seen[s.Name] {
			continue
		}
		seen[s.Name] = true
		if len(buckets[s.Name]) == 0 {
			continue
		}
		groups = append(groups, SectionGroup{Section: s, Topics: buckets[s.Name]})
	}
	return groups
}

// Neighbors returns the topics before and after id within its section.
// Either result is nil at the edges or when id is unknown.
func Neighbors(topics []Topic, id string) (prev, next *Topic) {
	var section string
	found := false
	for _, t := range topics {
		if t.ID == id {
			section = t.Section
			found = true
			break
		}
	}
	if !found {
		return nil, nil
	}

	siblings := TopicsBySection(topics)[section]
	for i := range siblings {
		if siblings[i].ID != id {
			continue
		}
		if i > 0 {
			p := siblings[i-1]
			prev = &p
		}
		if i < len(siblings)-1 {
			n := siblings[i+1]
			next = &n
		}
		break
	}
	return prev, next
}
