package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/davidiaz1251/apostolV2/internal/catalog"
	"github.com/davidiaz1251/apostolV2/internal/config"
	"github.com/davidiaz1251/apostolV2/internal/connectivity"
	"github.com/davidiaz1251/apostolV2/internal/documents"
	"github.com/davidiaz1251/apostolV2/internal/favorites"
	"github.com/davidiaz1251/apostolV2/internal/images"
	"github.com/davidiaz1251/apostolV2/internal/logging"
	"github.com/davidiaz1251/apostolV2/internal/metrics"
	"github.com/davidiaz1251/apostolV2/internal/offline"
	"github.com/davidiaz1251/apostolV2/internal/remote"
	"github.com/davidiaz1251/apostolV2/internal/search"
	"github.com/davidiaz1251/apostolV2/internal/store"
)

// app is the composition root: every long-lived component is built once here
// and wired explicitly.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics

	kv      *store.KVStore
	blobs   *store.BlobDir
	monitor *connectivity.Monitor
	source  remote.Source
	images  *images.Cache
	catalog *catalog.Catalog
	syncer  *offline.Coordinator

	favorites *favorites.Store
	documents *documents.Service
	search    *search.Service

	closers []io.Closer
}

func newApp(opts *rootOptions) (*app, error) {
	cfg, err := config.LoadConfig(opts.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	a := &app{cfg: cfg, metrics: metrics.New()}

	logger, closer, err := logging.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = logging.NullLogger()
	} else {
		a.closers = append(a.closers, closer)
	}
	slog.SetDefault(logger)
	a.logger = logger

	a.kv, err = store.NewKVStore(cfg.Storage.DataDir)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}
	a.closers = append(a.closers, a.kv)
	a.blobs = store.NewBlobDir(cfg.ImagesDir())

	prober := connectivity.NewHTTPProber(cfg.Connectivity.ProbeURL, cfg.Connectivity.Timeout)
	a.monitor = connectivity.NewMonitor(prober, cfg.Connectivity.Interval, a.metrics, logger.With("component", "connectivity"))

	a.source, err = remote.NewSource(cfg, a.monitor.IsConnected, logger.With("component", "remote"))
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to create remote source: %w", err)
	}

	a.images = images.New(a.blobs, a.kv, images.Options{
		Timeout: cfg.Remote.Timeout,
		Rate:    cfg.Sync.ImageRate,
		Burst:   cfg.Sync.ImageConcurrency,
	}, a.metrics, logger.With("component", "images"))

	a.catalog = catalog.New()
	a.syncer = offline.New(offline.Deps{
		Remote:  a.source,
		Version: a.source,
		Store:   a.kv,
		Images:  a.images,
		Network: a.monitor,
		Catalog: a.catalog,
		Metrics: a.metrics,
		Logger:  logger.With("component", "sync"),
	}, offline.Options{
		Timeout:          cfg.Sync.Timeout,
		VersionKey:       cfg.Sync.VersionKey,
		ImageConcurrency: cfg.Sync.ImageConcurrency,
	})

	a.favorites = favorites.New(a.kv, logger.With("component", "favorites"))
	a.documents = documents.NewService(a.source, logger.With("component", "documents"))
	a.search = search.NewService(a.catalog, logger)

	return a, nil
}

// loadCache publishes the cached collections; every read command starts here.
func (a *app) loadCache(ctx context.Context) error {
	if err := a.syncer.LoadFromCache(ctx); err != nil {
		return fmt.Errorf("failed to read cache: %w", err)
	}
	return nil
}

func (a *app) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// withApp builds the app for one command and closes it afterwards.
func withApp(opts *rootOptions, fn func(a *app) error) error {
	a, err := newApp(opts)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(a)
}
