// Package firestore reads collections through the Firestore REST API.
package firestore

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/goccy/go-json"

	"github.com/davidiaz1251/apostolV2/internal/domain"
	"github.com/davidiaz1251/apostolV2/internal/remote/rest"
)

// DefaultBaseURL is the public Firestore REST endpoint
const DefaultBaseURL = "https://firestore.googleapis.com/v1"

// Client implements domain.RemoteSource for a Firestore database
type Client struct {
	rest      *rest.Client
	projectID string
	apiKey    string
	logger    *slog.Logger
}

// NewClient creates a Firestore client. baseURL may be empty for the public endpoint.
func NewClient(baseURL, projectID, apiKey string, opts rest.Options) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Client{
		rest:      rest.NewClient(baseURL, opts),
		projectID: projectID,
		apiKey:    apiKey,
		logger:    opts.Logger,
	}
}

// HTTPClient exposes the underlying HTTP client
func (c *Client) HTTPClient() *http.Client { return c.rest.HTTPClient() }

// ListCollection returns every document of a collection.
// Firestore drops documents that lack the orderBy field from ordered queries.
func (c *Client) ListCollection(ctx context.Context, name, orderBy string) ([]domain.Record, error) {
	q := StructuredQuery{From: []CollectionSelector{{CollectionID: name}}}
	if orderBy != "" {
		q.OrderBy = []Order{{Field: FieldReference{FieldPath: orderBy}, Direction: "ASCENDING"}}
	}
	return c.runQuery(ctx, name, q)
}

// QueryCollection returns the documents whose field equals value
func (c *Client) QueryCollection(ctx context.Context, name, field, value string) ([]domain.Record, error) {
	q := StructuredQuery{
		From: []CollectionSelector{{CollectionID: name}},
		Where: &Filter{FieldFilter: &FieldFilter{
			Field: FieldReference{FieldPath: field},
			Op:    "EQUAL",
			Value: StringValueOf(value),
		}},
	}
	return c.runQuery(ctx, name, q)
}

func (c *Client) runQuery(ctx context.Context, op string, q StructuredQuery) ([]domain.Record, error) {
	body, err := json.Marshal(RunQueryRequest{StructuredQuery: q})
	if err != nil {
		return nil, &domain.RemoteFetchError{Op: op, Err: err}
	}

	var query url.Values
	if c.apiKey != "" {
		query = url.Values{"key": {c.apiKey}}
	}
	path := fmt.Sprintf("/projects/%s/databases/(default)/documents:runQuery", url.PathEscape(c.projectID))

	data, err := c.rest.Do(ctx, http.MethodPost, path, query, body)
	if err != nil {
		return nil, &domain.RemoteFetchError{Op: op, Err: err}
	}

	var items []RunQueryResponseItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, &domain.RemoteFetchError{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	records := make([]domain.Record, 0, len(items))
	for _, item := range items {
		if item.Document == nil {
			continue
		}
		raw, err := item.Document.PlainJSON()
		if err != nil {
			return nil, &domain.RemoteFetchError{Op: op, Err: fmt.Errorf("document %s: %w", item.Document.Name, err)}
		}
		records = append(records, domain.Record{ID: item.Document.ID(), Data: raw})
	}

	c.logger.Debug("firestore query", "op", op, "documents", len(records))
	return records, nil
}
