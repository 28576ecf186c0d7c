package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/custodia-labs/boardsync/internal/adapters/driven/clock"
	"github.com/custodia-labs/boardsync/internal/adapters/driven/config/file"
	"github.com/custodia-labs/boardsync/internal/adapters/driven/gateway"
	"github.com/custodia-labs/boardsync/internal/adapters/driven/storage/kv"
	"github.com/custodia-labs/boardsync/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/boardsync/internal/adapters/driving/cli"
	"github.com/custodia-labs/boardsync/internal/core/domain"
	"github.com/custodia-labs/boardsync/internal/core/ports/driven"
	"github.com/custodia-labs/boardsync/internal/core/services"
	"github.com/custodia-labs/boardsync/internal/logger"
	"github.com/custodia-labs/boardsync/internal/observability"
)

const (
	meterScope      = "github.com/custodia-labs/boardsync"
	shutdownTimeout = 15 * time.Second
)

// engineStores are the driven stores one storage backend provides.
type engineStores struct {
	oplog   driven.OperationLogStore
	applied driven.AppliedSnapshotStore
	history driven.PassHistoryStore
	close   func() error
}

// bootstrap builds the services a command runs against.
func bootstrap(ctx context.Context, opts cli.Options) (*cli.Services, func(), error) {
	configStore, err := file.NewConfigStore(opts.ConfigDir)
	if err != nil {
		return nil, nil, fmt.Errorf("loading configuration: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)
	out := &cli.Services{Settings: settingsService}
	if opts.SettingsOnly {
		return out, func() {}, nil
	}

	settings, err := settingsService.Get()
	if err != nil {
		return nil, nil, err
	}
	if settings.Verbose {
		logger.SetVerbose(true)
	}
	if err := settings.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration (see 'boardsync config'): %w", err)
	}

	dataDir := settings.Storage.DataDir
	if dataDir == "" {
		dataDir = filepath.Dir(configStore.Path())
	}
	stores, err := openStores(settings.Storage.Backend, dataDir)
	if err != nil {
		return nil, nil, err
	}

	remote, err := newGateway(ctx, settings.Remote)
	if err != nil {
		_ = stores.close()
		return nil, nil, err
	}

	metrics, err := observability.NewMetrics(nil, meterScope)
	if err != nil {
		_ = stores.close()
		return nil, nil, fmt.Errorf("creating metrics: %w", err)
	}

	engine, err := services.NewSyncEngine(ctx, settings.Engine, services.EngineDeps{
		Gateway:        remote,
		OperationStore: stores.oplog,
		Clock:          clock.System{},
		AppliedStore:   stores.applied,
		History:        stores.history,
		Metrics:        metrics,
	})
	if err != nil {
		_ = stores.close()
		return nil, nil, fmt.Errorf("starting sync engine: %w", err)
	}

	out.Engine = engine
	out.History = services.NewPassHistoryService(stores.history, settings.Engine.Scope)

	cleanup := func() {
		if opts.ReadOnly {
			if err := engine.Close(); err != nil && !errors.Is(err, domain.ErrEngineClosed) {
				logger.Warn("closing sync engine: %v", err)
			}
		} else {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()
			if err := engine.Shutdown(shutdownCtx); err != nil && !errors.Is(err, domain.ErrEngineClosed) {
				logger.Warn("changes still queued at exit: %v", err)
			}
		}
		if err := stores.close(); err != nil {
			logger.Warn("closing storage: %v", err)
		}
	}
	return out, cleanup, nil
}

func openStores(backend domain.StorageBackend, dataDir string) (*engineStores, error) {
	switch backend {
	case domain.StorageLevelDB:
		store, err := kv.Open(filepath.Join(dataDir, "leveldb"))
		if err != nil {
			return nil, fmt.Errorf("opening leveldb store: %w", err)
		}
		return &engineStores{oplog: store, applied: store, close: store.Close}, nil
	default:
		store, err := sqlite.NewStore(dataDir)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return &engineStores{
			oplog:   store.OperationLogStore(),
			applied: store.AppliedSnapshotStore(),
			history: store.PassHistoryStore(),
			close:   store.Close,
		}, nil
	}
}

func newGateway(ctx context.Context, remote domain.RemoteSettings) (driven.RemoteGateway, error) {
	client, err := gateway.NewClient(ctx, gateway.Config{
		BaseURL: remote.BaseURL,
		Token:   remote.Token,
	})
	if err != nil {
		return nil, fmt.Errorf("configuring remote store: %w", err)
	}
	if remote.RatePerSecond <= 0 {
		return client, nil
	}
	limiter := gateway.NewRateLimiter(gateway.RateLimitConfig{
		RequestsPerSecond: remote.RatePerSecond,
		BurstSize:         remote.Burst,
	})
	return gateway.NewRateLimited(client, limiter), nil
}
