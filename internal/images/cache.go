// Package images downloads remote images once and serves them from local blobs.
package images

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/cristalhq/base64"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/davidiaz1251/apostolV2/internal/domain"
	"github.com/davidiaz1251/apostolV2/internal/metrics"
)

const (
	// Dir is the blob directory images are written to.
	Dir = "images"

	// IndexKey is the key-value entry holding the remote URL -> handle index.
	IndexKey = "image_index"

	defaultTimeout = 30 * time.Second
	maxImageBytes  = 20 << 20
	defaultExt     = ".jpg"
	maxNamePrefix  = 40
)

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// blobChecker is implemented by blob stores that can test for existence cheaply.
type blobChecker interface {
	Exists(path string) bool
}

// Options tunes downloading.
type Options struct {
	Client  *http.Client // nil uses a client with Timeout
	Timeout time.Duration
	Rate    float64 // downloads per second, 0 = unlimited
	Burst   int
}

// Cache maps remote image URLs to local blob handles.
// It is the only writer of the index and of the images directory.
type Cache struct {
	blobs   domain.BlobStore
	kv      domain.KeyValueStore
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
	metrics *metrics.Metrics

	flight singleflight.Group

	mu       sync.Mutex
	index    map[string]string
	loaded   bool
	dirReady bool
}

// New creates an image cache over blobs, persisting its index in kv.
func New(blobs domain.BlobStore, kv domain.KeyValueStore, opts Options, m *metrics.Metrics, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.Rate > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.Rate), burst)
	}

	return &Cache{
		blobs:   blobs,
		kv:      kv,
		client:  client,
		limiter: limiter,
		logger:  logger,
		metrics: m,
	}
}

// Client exposes the HTTP client used for downloads.
func (c *Cache) Client() *http.Client { return c.client }

// Lookup returns the handle recorded for remoteURL, if any.
func (c *Cache) Lookup(remoteURL string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadIndexLocked()
	h, ok := c.index[remoteURL]
	return h, ok
}

// EnsureLocal returns a local handle for remoteURL, downloading it on first use.
// suggestedName only prefixes the generated file name.
func (c *Cache) EnsureLocal(ctx context.Context, remoteURL, suggestedName string) (string, error) {
	if remoteURL == "" {
		return "", &domain.AssetDownloadError{URL: remoteURL, Err: fmt.Errorf("empty url")}
	}

	if handle, ok := c.Lookup(remoteURL); ok && c.present(handle) {
		c.metrics.ImageDownload(metrics.ResultCached)
		return handle, nil
	}

	v, err, _ := c.flight.Do(remoteURL, func() (interface{}, error) {
		// Another caller may have finished the download while we waited.
		if handle, ok := c.Lookup(remoteURL); ok && c.present(handle) {
			return handle, nil
		}
		return c.download(ctx, remoteURL, suggestedName)
	})
	if err != nil {
		c.metrics.ImageDownload(metrics.ResultFailure)
		return "", err
	}
	return v.(string), nil
}

// Has reports whether handle refers to a stored blob.
func (c *Cache) Has(handle string) bool {
	return handle != "" && c.present(handle)
}

func (c *Cache) present(handle string) bool {
	if checker, ok := c.blobs.(blobChecker); ok {
		return checker.Exists(handle)
	}
	_, err := c.blobs.ReadBlob(handle)
	return err == nil
}

func (c *Cache) download(ctx context.Context, remoteURL, suggestedName string) (string, error) {
	fail := func(err error) (string, error) {
		return "", &domain.AssetDownloadError{URL: remoteURL, Err: err}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fail(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, remoteURL, nil)
	if err != nil {
		return fail(fmt.Errorf("failed to create request: %w", err))
	}

	c.logger.Debug("downloading image", "url", remoteURL)
	resp, err := c.client.Do(req)
	if err != nil {
		return fail(fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fail(fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return fail(fmt.Errorf("failed to read response: %w", err))
	}
	if len(data) > maxImageBytes {
		return fail(fmt.Errorf("image exceeds %d bytes", maxImageBytes))
	}

	if err := c.ensureDir(); err != nil {
		return fail(fmt.Errorf("create images dir: %w", err))
	}

	handle := path.Join(Dir, fileName(suggestedName, remoteURL, resp.Header.Get("Content-Type")))
	if err := c.blobs.WriteBlob(handle, data); err != nil {
		return fail(fmt.Errorf("write blob: %w", err))
	}

	c.remember(remoteURL, handle)
	c.metrics.ImageDownload(metrics.ResultSuccess)
	c.logger.Debug("image cached", "url", remoteURL, "handle", handle, "bytes", len(data))
	return handle, nil
}

func (c *Cache) ensureDir() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dirReady {
		return nil
	}
	if err := c.blobs.EnsureDir(Dir); err != nil {
		return err
	}
	c.dirReady = true
	return nil
}

func (c *Cache) loadIndexLocked() {
	if c.loaded {
		return
	}
	c.loaded = true
	c.index = make(map[string]string)
	if c.kv == nil {
		return
	}
	if _, err := c.kv.Get(IndexKey, &c.index); err != nil {
		c.logger.Warn("failed to load image index", "error", err)
		c.index = make(map[string]string)
	}
	if c.index == nil {
		c.index = make(map[string]string)
	}
}

func (c *Cache) remember(remoteURL, handle string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadIndexLocked()
	c.index[remoteURL] = handle

	if c.kv == nil {
		return
	}
	snapshot := make(map[string]string, len(c.index))
	for k, v := range c.index {
		snapshot[k] = v
	}
	// A lost index entry only costs a re-download on the next pass.
	if err := c.kv.Set(IndexKey, snapshot); err != nil {
		c.logger.Warn("failed to persist image index", "error", err)
	}
}

// Resolve reads a cached image and returns it as a data URI.
// It returns "" when the blob is missing or unreadable.
func (c *Cache) Resolve(handle string) string {
	if handle == "" {
		return ""
	}
	data, err := c.blobs.ReadBlob(handle)
	if err != nil || len(data) == 0 {
		if err != nil {
			c.logger.Debug("local image unavailable", "handle", handle, "error", err)
		}
		return ""
	}

	contentType := mime.TypeByExtension(path.Ext(handle))
	if contentType == "" || !strings.HasPrefix(contentType, "image/") {
		contentType = http.DetectContentType(data)
	}
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// fileName builds "<prefix>_<uuid><ext>" from the suggested name and the response.
func fileName(suggested, remoteURL, contentType string) string {
	ext := path.Ext(suggested)
	base := strings.TrimSuffix(suggested, ext)

	if ext == "" {
		if u, err := url.Parse(remoteURL); err == nil {
			ext = path.Ext(u.Path)
		}
	}
	if ext == "" && contentType != "" {
		if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
			ext = exts[0]
		}
	}
	ext = strings.ToLower(ext)
	if ext == "" || len(ext) > 6 {
		ext = defaultExt
	}

	base = unsafeNameChars.ReplaceAllString(base, "_")
	if len(base) > maxNamePrefix {
		base = base[:maxNamePrefix]
	}
	if base == "" {
		return uuid.NewString() + ext
	}
	return base + "_" + uuid.NewString() + ext
}
