// Package remote builds the content backend selected by configuration.
package remote

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/davidiaz1251/apostolV2/internal/config"
	"github.com/davidiaz1251/apostolV2/internal/domain"
	"github.com/davidiaz1251/apostolV2/internal/remote/bundle"
	"github.com/davidiaz1251/apostolV2/internal/remote/firestore"
	"github.com/davidiaz1251/apostolV2/internal/remote/remoteconfig"
	"github.com/davidiaz1251/apostolV2/internal/remote/rest"
)

// Source combines the capabilities a content backend must provide:
// collection reads and the data version flag.
type Source interface {
	domain.RemoteSource
	domain.VersionSignal
}

// firebase pairs Firestore collections with Remote Config flags.
type firebase struct {
	docs  *firestore.Client
	flags *remoteconfig.Client
}

func (f *firebase) ListCollection(ctx context.Context, name, orderBy string) ([]domain.Record, error) {
	return f.docs.ListCollection(ctx, name, orderBy)
}

func (f *firebase) QueryCollection(ctx context.Context, name, field, value string) ([]domain.Record, error) {
	return f.docs.QueryCollection(ctx, name, field, value)
}

func (f *firebase) FetchAndActivate(ctx context.Context) error {
	return f.flags.FetchAndActivate(ctx)
}

func (f *firebase) GetString(key string) string {
	return f.flags.GetString(key)
}

// NewSource creates the Source for cfg.Remote.Type.
// online gates every request; nil means always online.
func NewSource(cfg *config.Config, online func() bool, logger *slog.Logger) (Source, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := rest.Options{
		Timeout: cfg.Remote.Timeout,
		Online:  online,
		Logger:  logger,
	}

	switch cfg.Remote.Type {
	case config.SourceTypeFirestore:
		if cfg.Remote.ProjectID == "" {
			return nil, fmt.Errorf("firestore requires a project ID")
		}
		return &firebase{
			docs: firestore.NewClient("", cfg.Remote.ProjectID, cfg.Remote.APIKey, opts),
			flags: remoteconfig.NewClient(remoteconfig.Options{
				ProjectID:        cfg.Remote.ProjectID,
				APIKey:           cfg.Remote.APIKey,
				AppID:            cfg.Remote.AppID,
				MinFetchInterval: cfg.Sync.MinFetchInterval,
				FetchTimeout:     cfg.Sync.FetchTimeout,
				Rest:             opts,
			}),
		}, nil

	case config.SourceTypeBundle:
		if cfg.Remote.BundleURL == "" {
			return nil, fmt.Errorf("bundle requires a URL")
		}
		return bundle.NewClient(bundle.Options{
			URL:        cfg.Remote.BundleURL,
			VersionKey: cfg.Sync.VersionKey,
			Rest:       opts,
		}), nil

	default:
		return nil, fmt.Errorf("unknown remote type: %s", cfg.Remote.Type)
	}
}
