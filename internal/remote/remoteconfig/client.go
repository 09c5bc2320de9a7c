// Package remoteconfig reads Firebase Remote Config parameters over REST.
package remoteconfig

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/davidiaz1251/apostolV2/internal/domain"
	"github.com/davidiaz1251/apostolV2/internal/remote/rest"
)

const (
	DefaultBaseURL = "https://firebaseremoteconfig.googleapis.com/v1"

	defaultMinFetchInterval = 10 * time.Second
	defaultFetchTimeout     = 10 * time.Second

	templateKey = "template"
)

// Options configures a Client
type Options struct {
	BaseURL          string
	ProjectID        string
	APIKey           string
	AppID            string
	MinFetchInterval time.Duration // a fetched template is reused for this long
	FetchTimeout     time.Duration
	Rest             rest.Options
}

type fetchRequest struct {
	AppID         string `json:"appId"`
	AppInstanceID string `json:"appInstanceId"`
}

type fetchResponse struct {
	Entries         map[string]string `json:"entries"`
	State           string            `json:"state"`
	TemplateVersion string            `json:"templateVersion"`
}

// Client implements domain.VersionSignal
type Client struct {
	rest       *rest.Client
	opts       Options
	instanceID string
	logger     *slog.Logger

	fetched *cache.Cache // throttles fetches to one per MinFetchInterval

	mu     sync.RWMutex
	active map[string]string
}

func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.MinFetchInterval <= 0 {
		opts.MinFetchInterval = defaultMinFetchInterval
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = defaultFetchTimeout
	}
	if opts.Rest.Logger == nil {
		opts.Rest.Logger = slog.Default()
	}
	return &Client{
		rest:       rest.NewClient(opts.BaseURL, opts.Rest),
		opts:       opts,
		instanceID: uuid.NewString(),
		logger:     opts.Rest.Logger,
		fetched:    cache.New(opts.MinFetchInterval, 2*opts.MinFetchInterval),
		active:     map[string]string{},
	}
}

// HTTPClient exposes the underlying HTTP client
func (c *Client) HTTPClient() *http.Client { return c.rest.HTTPClient() }

// FetchAndActivate refreshes the parameters and makes them active.
// Within MinFetchInterval of the last successful fetch no request is made.
// On failure the previously active values stay in place.
func (c *Client) FetchAndActivate(ctx context.Context) error {
	if cached, ok := c.fetched.Get(templateKey); ok {
		c.activate(cached.(map[string]string))
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.FetchTimeout)
	defer cancel()

	entries, err := c.fetch(ctx)
	if err != nil {
		return &domain.RemoteFetchError{Op: "version", Err: err}
	}

	c.fetched.SetDefault(templateKey, entries)
	c.activate(entries)
	return nil
}

func (c *Client) fetch(ctx context.Context) (map[string]string, error) {
	body, err := json.Marshal(fetchRequest{AppID: c.opts.AppID, AppInstanceID: c.instanceID})
	if err != nil {
		return nil, err
	}

	var query url.Values
	if c.opts.APIKey != "" {
		query = url.Values{"key": {c.opts.APIKey}}
	}
	path := fmt.Sprintf("/projects/%s/namespaces/firebase:fetch", url.PathEscape(c.opts.ProjectID))

	data, err := c.rest.Do(ctx, http.MethodPost, path, query, body)
	if err != nil {
		return nil, err
	}

	var resp fetchResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode remote config: %w", err)
	}
	if resp.Entries == nil {
		resp.Entries = map[string]string{}
	}

	c.logger.Debug("remote config fetched",
		"state", resp.State,
		"templateVersion", resp.TemplateVersion,
		"entries", len(resp.Entries),
	)
	return resp.Entries, nil
}

func (c *Client) activate(entries map[string]string) {
	c.mu.Lock()
	c.active = entries
	c.mu.Unlock()
}

// GetString returns the active value for key, or "" when unset
func (c *Client) GetString(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active[key]
}
