// Package offline keeps the local content cache in step with the remote
// source and publishes it to the catalog.
package offline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/looplab/fsm"
	"golang.org/x/sync/errgroup"

	"github.com/davidiaz1251/apostolV2/internal/catalog"
	"github.com/davidiaz1251/apostolV2/internal/domain"
	"github.com/davidiaz1251/apostolV2/internal/metrics"
)

const (
	defaultTimeout          = 20 * time.Second
	defaultVersionKey       = "temas_version"
	defaultImageConcurrency = 4
)

// Connectivity is the view of the network the coordinator needs.
type Connectivity interface {
	IsConnected() bool
	Subscribe(ctx context.Context) <-chan bool
}

// ImageFetcher downloads a remote image once and returns its local handle.
// Has reports whether a handle still points at a stored blob.
type ImageFetcher interface {
	EnsureLocal(ctx context.Context, remoteURL, suggestedName string) (string, error)
	Has(handle string) bool
}

// Options tunes a Coordinator. Zero values use the defaults.
type Options struct {
	Timeout          time.Duration // bound on the version check and on the fetches of one pass
	VersionKey       string
	ImageConcurrency int
}

// Deps are the collaborators of a Coordinator. Images and Metrics may be nil.
type Deps struct {
	Remote  domain.RemoteSource
	Version domain.VersionSignal
	Store   domain.KeyValueStore
	Images  ImageFetcher
	Network Connectivity
	Catalog *catalog.Catalog
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Status is a point-in-time report of the coordinator.
type Status struct {
	State         State
	LastError     error
	Sync          domain.SyncStatus
	VersionMarker string
	Online        bool
}

// Coordinator is the only writer of the cached collections and of the
// catalog. At most one check or sync pass runs at a time.
type Coordinator struct {
	deps    Deps
	opts    Options
	logger  *slog.Logger
	machine *fsm.FSM

	// publishing serializes store-to-catalog publication: a pass's write and
	// publish, and a cache republish's read and publish.
	publishing sync.Mutex

	mu       sync.Mutex
	inflight chan struct{} // closed when the running pass settles
	lastErr  error
	synced   domain.SyncStatus
	marker   string
}

func New(deps Deps, opts Options) *Coordinator {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Catalog == nil {
		deps.Catalog = catalog.New()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.VersionKey == "" {
		opts.VersionKey = defaultVersionKey
	}
	if opts.ImageConcurrency <= 0 {
		opts.ImageConcurrency = defaultImageConcurrency
	}
	return &Coordinator{
		deps:    deps,
		opts:    opts,
		logger:  deps.Logger,
		machine: newMachine(deps.Logger),
	}
}

// Catalog returns the catalog the coordinator publishes into.
func (c *Coordinator) Catalog() *catalog.Catalog { return c.deps.Catalog }

// State returns the current state.
func (c *Coordinator) State() State {
	return State(c.machine.Current())
}

// Status reports the state, the last pass error and what is cached.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		State:         c.State(),
		LastError:     c.lastErr,
		Sync:          c.synced,
		VersionMarker: c.marker,
		Online:        c.deps.Network.IsConnected(),
	}
}

// Run loads the cache, then checks the remote version whenever the network
// comes up (including at start if already online). It blocks until ctx ends
// and any pass it started has settled.
func (c *Coordinator) Run(ctx context.Context) {
	if err := c.LoadFromCache(ctx); err != nil {
		c.logger.Error("failed to load cached content", "error", err)
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	// The monitor only publishes transitions, so every true received after the
	// initial value is a reconnect even if the offline value was coalesced away.
	for online := range c.deps.Network.Subscribe(ctx) {
		if online {
			wg.Go(func() { c.CheckAndSync(ctx) })
		}
	}
}

// CheckAndSync runs a sync pass when the remote version differs from the
// cached marker or cannot be read. Offline, or when the versions match, it
// only republishes the cache. Errors are logged and kept in Status.
func (c *Coordinator) CheckAndSync(ctx context.Context) {
	if !c.deps.Network.IsConnected() {
		c.logger.Info("offline, serving cached content")
		c.deps.Metrics.SyncPass(metrics.ResultOffline, 0)
		c.republish(ctx)
		return
	}

	done, ok := c.begin(eventCheck)
	if !ok {
		c.wait(ctx, done)
		return
	}

	remote, err := c.fetchVersion(ctx)
	switch {
	case errors.Is(err, domain.ErrOffline):
		c.deps.Metrics.VersionCheck(metrics.ResultError)
		c.republish(ctx)
		c.finish(eventCurrent, nil)
		return
	case err != nil:
		// Fail open: an unreadable version means the cache may be stale
		c.logger.Warn("version check failed, syncing anyway", "error", err)
		c.deps.Metrics.VersionCheck(metrics.ResultError)
	case remote != "" && remote == c.localMarker():
		c.logger.Info("content is current", "version", remote)
		c.deps.Metrics.VersionCheck(metrics.ResultCurrent)
		c.republish(ctx)
		c.finish(eventCurrent, nil)
		return
	default:
		c.logger.Info("content is stale", "remote", remote)
		c.deps.Metrics.VersionCheck(metrics.ResultStale)
	}

	c.step(eventStale)
	c.pass(ctx, remote)
}

// ForceSync runs a pass without checking the version. It never fails: errors
// are logged and the published collections keep their last good values.
// Offline it returns immediately without touching the remote.
func (c *Coordinator) ForceSync(ctx context.Context) {
	if !c.deps.Network.IsConnected() {
		c.logger.Info("offline, sync skipped")
		c.deps.Metrics.SyncPass(metrics.ResultOffline, 0)
		return
	}

	done, ok := c.begin(eventForce)
	if !ok {
		c.wait(ctx, done)
		return
	}

	// The version only labels the pass, so a failed read is not fatal
	remote, err := c.fetchVersion(ctx)
	if err != nil {
		c.logger.Debug("version unavailable for forced sync", "error", err)
	}
	c.pass(ctx, remote)
}

// LoadFromCache publishes the persisted collections without contacting the remote.
func (c *Coordinator) LoadFromCache(ctx context.Context) error {
	c.publishing.Lock()
	defer c.publishing.Unlock()

	var (
		snap   domain.Snapshot
		status domain.SyncStatus
		marker string
	)
	reads := []domain.Entry{
		{Key: domain.KeyTopics, Value: &snap.Topics},
		{Key: domain.KeySections, Value: &snap.Sections},
		{Key: domain.KeyPractices, Value: &snap.Practices},
		{Key: domain.KeySyncStatus, Value: &status},
		{Key: domain.KeyVersionMarker, Value: &marker},
	}
	for _, r := range reads {
		if _, err := c.deps.Store.Get(r.Key, r.Value); err != nil {
			return &domain.LocalPersistenceError{Key: r.Key, Err: err}
		}
	}

	c.publish(snap)

	c.mu.Lock()
	c.synced, c.marker = status, marker
	c.mu.Unlock()

	c.logger.Debug("cache loaded",
		"topics", len(snap.Topics),
		"sections", len(snap.Sections),
		"practices", len(snap.Practices),
	)
	return nil
}

// PracticesForTopic returns the cached practices of a topic. When none are
// cached and the network is up they are queried remotely, without persisting.
func (c *Coordinator) PracticesForTopic(ctx context.Context, topicID string) ([]domain.Practice, error) {
	if cached := c.deps.Catalog.PracticesForTopic(topicID); len(cached) > 0 {
		return cached, nil
	}
	if !c.deps.Network.IsConnected() {
		return []domain.Practice{}, nil
	}

	records, err := c.deps.Remote.QueryCollection(ctx, domain.CollectionPractices, domain.FieldTopic, topicID)
	if err != nil {
		return nil, err
	}
	practices, err := domain.DecodePractices(records)
	if err != nil {
		return nil, &domain.RemoteFetchError{Op: domain.CollectionPractices, Err: err}
	}
	domain.SortPractices(practices)
	return practices, nil
}

// begin fires a starting event. If another pass owns the machine it returns
// that pass's done channel and false.
func (c *Coordinator) begin(event string) (<-chan struct{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.machine.Event(context.Background(), event); err != nil {
		c.logger.Debug("sync already in progress, request dropped", "event", event, "state", c.machine.Current())
		c.deps.Metrics.SyncPass(metrics.ResultDropped, 0)
		return c.inflight, false
	}
	c.inflight = make(chan struct{})
	return c.inflight, true
}

// step moves the owning pass between running states.
func (c *Coordinator) step(event string) {
	if err := c.machine.Event(context.Background(), event); err != nil {
		c.logger.Error("invalid sync transition", "event", event, "error", err)
	}
}

// finish settles the owning pass and releases waiters.
func (c *Coordinator) finish(event string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.step(event)
	c.lastErr = err
	if c.inflight != nil {
		close(c.inflight)
		c.inflight = nil
	}
}

func (c *Coordinator) wait(ctx context.Context, done <-chan struct{}) {
	if done == nil {
		return
	}
	select {
	case <-done:
	case <-ctx.Done():
	}
}

func (c *Coordinator) fetchVersion(ctx context.Context) (string, error) {
	if c.deps.Version == nil {
		return "", nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()
	if err := c.deps.Version.FetchAndActivate(ctx); err != nil {
		return "", err
	}
	return c.deps.Version.GetString(c.opts.VersionKey), nil
}

func (c *Coordinator) localMarker() string {
	var marker string
	if _, err := c.deps.Store.Get(domain.KeyVersionMarker, &marker); err != nil {
		c.logger.Warn("failed to read version marker", "error", err)
		return ""
	}
	return marker
}

func (c *Coordinator) republish(ctx context.Context) {
	if err := c.LoadFromCache(ctx); err != nil {
		c.logger.Error("failed to load cached content", "error", err)
	}
}

// pass runs one sync pass in the syncing state and settles it.
func (c *Coordinator) pass(ctx context.Context, version string) {
	start := time.Now()

	err := c.syncOnce(ctx, version)
	if err != nil {
		c.logger.Error("sync failed", "error", err)
		c.deps.Metrics.SyncPass(metrics.ResultFailure, time.Since(start))
		c.finish(eventFail, err)
		return
	}

	c.logger.Info("sync complete", "version", version, "took", time.Since(start))
	c.deps.Metrics.SyncPass(metrics.ResultSuccess, time.Since(start))
	c.finish(eventDone, nil)
}

func (c *Coordinator) syncOnce(ctx context.Context, version string) error {
	fetchCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	snap, err := c.fetchAll(fetchCtx)
	cancel()
	if err != nil {
		return err
	}

	var previous []domain.Topic
	if _, err := c.deps.Store.Get(domain.KeyTopics, &previous); err != nil {
		c.logger.Warn("previous topics unreadable, images will be rechecked", "error", err)
	}
	c.attachImages(ctx, snap, previous)

	c.publishing.Lock()
	defer c.publishing.Unlock()

	now := time.Now()
	status := domain.SyncStatus{LastSync: now, Version: now.UnixMilli(), HasChanges: false}
	if err := c.persist(snap, status, version); err != nil {
		return err
	}

	// Published strictly after the write so a restart sees the same data
	c.publish(snap)

	c.mu.Lock()
	c.synced = status
	if version != "" {
		c.marker = version
	}
	c.mu.Unlock()
	return nil
}

// fetchAll reads the three collections concurrently.
func (c *Coordinator) fetchAll(ctx context.Context) (domain.Snapshot, error) {
	var (
		snap                       domain.Snapshot
		topics, sections, practice []domain.Record
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		topics, err = c.list(gctx, domain.CollectionTopics, domain.FieldOrder)
		return err
	})
	g.Go(func() (err error) {
		sections, err = c.list(gctx, domain.CollectionSections, "")
		return err
	})
	g.Go(func() (err error) {
		practice, err = c.list(gctx, domain.CollectionPractices, "")
		return err
	})
	if err := g.Wait(); err != nil {
		return snap, err
	}

	var err error
	if snap.Topics, err = domain.DecodeTopics(topics); err != nil {
		return snap, &domain.RemoteFetchError{Op: domain.CollectionTopics, Err: err}
	}
	if snap.Sections, err = domain.DecodeSections(sections); err != nil {
		return snap, &domain.RemoteFetchError{Op: domain.CollectionSections, Err: err}
	}
	if snap.Practices, err = domain.DecodePractices(practice); err != nil {
		return snap, &domain.RemoteFetchError{Op: domain.CollectionPractices, Err: err}
	}

	// Sources that ignore orderBy still yield display order
	domain.SortTopics(snap.Topics)
	domain.SortSections(snap.Sections)
	domain.SortPractices(snap.Practices)
	return snap, nil
}

func (c *Coordinator) list(ctx context.Context, name, orderBy string) ([]domain.Record, error) {
	records, err := c.deps.Remote.ListCollection(ctx, name, orderBy)
	if err != nil {
		var fetchErr *domain.RemoteFetchError
		if !errors.As(err, &fetchErr) {
			err = &domain.RemoteFetchError{Op: name, Err: err}
		}
		return nil, err
	}
	return records, nil
}

// attachImages fills LocalImage on topics and sections. A handle from the
// previous generation is reused while the image URL is unchanged and its blob
// is still stored; anything else goes through the image cache. A failed download leaves LocalImage
// empty so the next pass retries it.
func (c *Coordinator) attachImages(ctx context.Context, snap domain.Snapshot, previous []domain.Topic) {
	known := make(map[string]domain.Topic, len(previous))
	for _, t := range previous {
		known[t.ID] = t
	}

	type job struct {
		url, name string
		handle    *string
	}
	var jobs []job
	for i := range snap.Topics {
		t := &snap.Topics[i]
		if t.Image == "" || t.LocalImage != "" {
			continue
		}
		if old, ok := known[t.ID]; ok && old.Image == t.Image && c.stored(old.LocalImage) {
			t.LocalImage = old.LocalImage
			continue
		}
		jobs = append(jobs, job{url: t.Image, name: "tema_" + t.ID, handle: &t.LocalImage})
	}
	for i := range snap.Sections {
		s := &snap.Sections[i]
		if s.Image == "" || s.LocalImage != "" {
			continue
		}
		jobs = append(jobs, job{url: s.Image, name: "seccion_" + s.ID, handle: &s.LocalImage})
	}

	if len(jobs) == 0 || c.deps.Images == nil {
		return
	}

	var g errgroup.Group
	g.SetLimit(c.opts.ImageConcurrency)
	for _, j := range jobs {
		g.Go(func() error {
			handle, err := c.deps.Images.EnsureLocal(ctx, j.url, j.name)
			if err != nil {
				c.logger.Warn("image not cached, will retry on next sync", "url", j.url, "error", err)
				return nil
			}
			*j.handle = handle
			return nil
		})
	}
	_ = g.Wait()
}

func (c *Coordinator) stored(handle string) bool {
	if handle == "" {
		return false
	}
	return c.deps.Images == nil || c.deps.Images.Has(handle)
}

// persist writes the pass in one batch when the store supports it, otherwise
// key by key. The version marker goes last so it never runs ahead of the data.
func (c *Coordinator) persist(snap domain.Snapshot, status domain.SyncStatus, version string) error {
	entries := []domain.Entry{
		{Key: domain.KeyTopics, Value: snap.Topics},
		{Key: domain.KeySections, Value: snap.Sections},
		{Key: domain.KeyPractices, Value: snap.Practices},
		{Key: domain.KeySyncStatus, Value: status},
	}
	if version != "" {
		entries = append(entries, domain.Entry{Key: domain.KeyVersionMarker, Value: version})
	}

	if batch, ok := c.deps.Store.(domain.BatchStore); ok {
		if err := batch.SetBatch(entries); err != nil {
			return &domain.LocalPersistenceError{Key: "batch", Err: err}
		}
		return nil
	}

	for _, e := range entries {
		if err := c.deps.Store.Set(e.Key, e.Value); err != nil {
			return &domain.LocalPersistenceError{Key: e.Key, Err: err}
		}
	}
	return nil
}

func (c *Coordinator) publish(snap domain.Snapshot) {
	c.deps.Catalog.Publish(snap)
	c.deps.Metrics.Published(domain.CollectionTopics, len(snap.Topics))
	c.deps.Metrics.Published(domain.CollectionSections, len(snap.Sections))
	c.deps.Metrics.Published(domain.CollectionPractices, len(snap.Practices))
}
