package domain

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
)

// Record is a remote document: an opaque ID plus its fields as a JSON object.
type Record struct {
	ID   string
	Data json.RawMessage
}

// RemoteSource provides read access to the remote document collections.
// Implementations must fail fast with ErrOffline when they know the network is down.
type RemoteSource interface {
	// ListCollection returns every document in a collection.
	// orderBy is a best-effort hint; sources that cannot sort ignore it.
	ListCollection(ctx context.Context, name, orderBy string) ([]Record, error)

	// QueryCollection returns the documents whose field equals value.
	QueryCollection(ctx context.Context, name, field, value string) ([]Record, error)
}

// VersionSignal exposes remotely configured string flags.
type VersionSignal interface {
	// FetchAndActivate refreshes the active configuration from the remote.
	FetchAndActivate(ctx context.Context) error

	// GetString returns the active value for key, or "" if unset.
	GetString(key string) string
}

// DecodeRecords unmarshals records into T and stamps each with its document ID.
func DecodeRecords[T any](records []Record, setID func(*T, string)) ([]T, error) {
	out := make([]T, 0, len(records))
	for _, r := range records {
		var v T
		if len(r.Data) > 0 {
			if err := json.Unmarshal(r.Data, &v); err != nil {
				return nil, fmt.Errorf("decode record %s: %w", r.ID, err)
			}
		}
		setID(&v, r.ID)
		out = append(out, v)
	}
	return out, nil
}

func setTopicID(t *Topic, id string)       { t.ID = id }
func setSectionID(s *Section, id string)   { s.ID = id }
func setPracticeID(p *Practice, id string) { p.ID = id }
func setDocumentID(d *Document, id string) { d.ID = id }

// DecodeTopics decodes topic records.
func DecodeTopics(records []Record) ([]Topic, error) {
	return DecodeRecords(records, setTopicID)
}

// DecodeSections decodes section records.
func DecodeSections(records []Record) ([]Section, error) {
	return DecodeRecords(records, setSectionID)
}

// DecodePractices decodes practice records.
func DecodePractices(records []Record) ([]Practice, error) {
	return DecodeRecords(records, setPracticeID)
}

// DecodeDocuments decodes document records.
func DecodeDocuments(records []Record) ([]Document, error) {
	return DecodeRecords(records, setDocumentID)
}
