// Package bundle serves the content collections from a single JSON export
// fetched over HTTP. It is used for self-hosted mirrors of the Firestore data.
//
// The document looks like:
//
//	{"version": "1712000000000", "config": {...}, "Temas": [{"id": "t1", ...}], "Secciones": [...]}
package bundle

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/davidiaz1251/apostolV2/internal/domain"
	"github.com/davidiaz1251/apostolV2/internal/remote/rest"
)

const (
	defaultTTL        = 5 * time.Second
	defaultVersionKey = "temas_version"
	bundleKey         = "bundle"
)

// Options configures a Client
type Options struct {
	URL        string
	VersionKey string        // GetString key that reports the bundle version
	TTL        time.Duration // how long a downloaded bundle is reused
	Rest       rest.Options
}

// Bundle is the decoded export
type Bundle struct {
	Version     string
	Config      map[string]string
	Collections map[string][]json.RawMessage
}

// Client implements both domain.RemoteSource and domain.VersionSignal
type Client struct {
	rest       *rest.Client
	versionKey string
	logger     *slog.Logger

	cache *cache.Cache
	group singleflight.Group

	mu     sync.RWMutex
	active map[string]string
}

func NewClient(opts Options) *Client {
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.VersionKey == "" {
		opts.VersionKey = defaultVersionKey
	}
	if opts.Rest.Logger == nil {
		opts.Rest.Logger = slog.Default()
	}
	return &Client{
		rest:       rest.NewClient(opts.URL, opts.Rest),
		versionKey: opts.VersionKey,
		logger:     opts.Rest.Logger,
		cache:      cache.New(opts.TTL, 2*opts.TTL),
		active:     map[string]string{},
	}
}

// HTTPClient exposes the underlying HTTP client
func (c *Client) HTTPClient() *http.Client { return c.rest.HTTPClient() }

// load returns the bundle, downloading it at most once per TTL.
// Concurrent callers share one download.
func (c *Client) load(ctx context.Context) (*Bundle, error) {
	if b, ok := c.cache.Get(bundleKey); ok {
		return b.(*Bundle), nil
	}

	v, err, _ := c.group.Do(bundleKey, func() (any, error) {
		data, err := c.rest.Do(ctx, http.MethodGet, "", nil, nil)
		if err != nil {
			return nil, err
		}
		b, err := Parse(data)
		if err != nil {
			return nil, err
		}
		c.cache.SetDefault(bundleKey, b)
		c.logger.Debug("bundle downloaded", "version", b.Version, "collections", len(b.Collections))
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Bundle), nil
}

// Parse decodes a bundle document
func Parse(data []byte) (*Bundle, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode bundle: %w", err)
	}

	b := &Bundle{Config: map[string]string{}, Collections: map[string][]json.RawMessage{}}
	for key, value := range raw {
		switch key {
		case "version":
			v, err := scalarString(value)
			if err != nil {
				return nil, fmt.Errorf("bundle version: %w", err)
			}
			b.Version = v
		case "config":
			if err := json.Unmarshal(value, &b.Config); err != nil {
				return nil, fmt.Errorf("bundle config: %w", err)
			}
		default:
			var docs []json.RawMessage
			if err := json.Unmarshal(value, &docs); err != nil {
				return nil, fmt.Errorf("bundle collection %s: %w", key, err)
			}
			b.Collections[key] = docs
		}
	}
	return b, nil
}

// records converts the documents of one collection, keeping those accepted by keep
func (b *Bundle) records(name string, keep func(map[string]json.RawMessage) bool) ([]domain.Record, error) {
	docs := b.Collections[name]
	out := make([]domain.Record, 0, len(docs))
	for i, doc := range docs {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(doc, &fields); err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", name, i, err)
		}
		if keep != nil && !keep(fields) {
			continue
		}
		id, err := scalarString(fields["id"])
		if err != nil || id == "" {
			return nil, fmt.Errorf("%s[%d]: missing id", name, i)
		}
		out = append(out, domain.Record{ID: id, Data: doc})
	}
	return out, nil
}

// ListCollection returns the collection in bundle order; orderBy is ignored.
// A collection absent from the bundle is empty.
func (c *Client) ListCollection(ctx context.Context, name, orderBy string) ([]domain.Record, error) {
	b, err := c.load(ctx)
	if err != nil {
		return nil, &domain.RemoteFetchError{Op: name, Err: err}
	}
	records, err := b.records(name, nil)
	if err != nil {
		return nil, &domain.RemoteFetchError{Op: name, Err: err}
	}
	return records, nil
}

// QueryCollection returns the documents whose field renders as value
func (c *Client) QueryCollection(ctx context.Context, name, field, value string) ([]domain.Record, error) {
	b, err := c.load(ctx)
	if err != nil {
		return nil, &domain.RemoteFetchError{Op: name, Err: err}
	}
	records, err := b.records(name, func(fields map[string]json.RawMessage) bool {
		s, err := scalarString(fields[field])
		return err == nil && s == value
	})
	if err != nil {
		return nil, &domain.RemoteFetchError{Op: name, Err: err}
	}
	return records, nil
}

// FetchAndActivate downloads the bundle and activates its config and version
func (c *Client) FetchAndActivate(ctx context.Context) error {
	b, err := c.load(ctx)
	if err != nil {
		return &domain.RemoteFetchError{Op: "version", Err: err}
	}

	entries := make(map[string]string, len(b.Config)+1)
	for k, v := range b.Config {
		entries[k] = v
	}
	if b.Version != "" {
		entries[c.versionKey] = b.Version
	}

	c.mu.Lock()
	c.active = entries
	c.mu.Unlock()
	return nil
}

func (c *Client) GetString(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active[key]
}

// scalarString renders a JSON string, number or bool as a string
func scalarString(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", fmt.Errorf("missing value")
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", err
	}
	switch t := v.(type) {
	case string:
		return t, nil
	case float64, bool:
		return string(raw), nil
	default:
		return "", fmt.Errorf("not a scalar: %s", raw)
	}
}
