package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rushteam/lastcall/config"
	"github.com/rushteam/lastcall/core"
	"github.com/rushteam/lastcall/pkg/logging"
	"github.com/rushteam/lastcall/pkg/metrics"
	"github.com/rushteam/lastcall/refresh"
	"github.com/rushteam/lastcall/service"
	"github.com/rushteam/lastcall/store"
	"github.com/rushteam/lastcall/vector"
)

// runtime 持有一次进程运行所需的依赖：目录、快照存储、内存索引。
type runtime struct {
	settings  *config.Settings
	logger    zerolog.Logger
	catalog   core.Catalog
	snapshots *store.SnapshotRepository
	index     *vector.Index
	closers   []func() error
}

// loadSettings 读取 --config 指定的配置并初始化全局日志。
func loadSettings(cmd *cobra.Command) (*config.Settings, error) {
	path, _ := cmd.Flags().GetString("config")
	s, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logging.Init(s.Logging())
	return s, nil
}

func openRuntime(ctx context.Context, s *config.Settings) (*runtime, error) {
	rt := &runtime{settings: s, logger: logging.WithComponent("lastcall")}

	// 1. 目录
	switch s.Catalog.Driver {
	case "sqlite":
		c, err := store.OpenSQLiteCatalog(ctx, s.Catalog.DSN)
		if err != nil {
			return nil, fmt.Errorf("open catalog: %w", err)
		}
		rt.catalog = c
		rt.closers = append(rt.closers, c.Close)
	case "memory":
		rt.catalog = store.NewMemoryCatalog()
	default:
		return nil, fmt.Errorf("unknown catalog driver %q", s.Catalog.Driver)
	}

	// 2. 快照存储
	var kv core.Store
	switch s.Index.Backend {
	case "file":
		kv = store.NewFileStore(s.Index.Path)
	case "redis":
		r, err := store.NewRedisStore(ctx, s.Index.RedisAddr, s.Index.RedisDB)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("open index store: %w", err)
		}
		kv = r
	case "memory":
		kv = store.NewMemoryStore()
	default:
		rt.Close()
		return nil, fmt.Errorf("unknown index backend %q", s.Index.Backend)
	}
	rt.closers = append(rt.closers, kv.Close)
	rt.snapshots = store.NewSnapshotRepository(kv, s.Index.Key)

	// 3. 内存索引：快照不存在时从空索引开始
	data, err := rt.snapshots.Load(ctx)
	switch {
	case err == nil:
	case core.IsStoreNotFound(err):
		rt.logger.Warn().Str("backend", kv.Name()).Msg("no persisted index snapshot, starting empty")
		data = nil
	default:
		rt.Close()
		return nil, err
	}
	rt.index, err = vector.LoadData(data, s.Recommend.DefaultDimension)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("load index: %w", err)
	}
	snap := rt.index.Current()
	metrics.SetIndex(snap.Len(), snap.Version())
	rt.logger.Info().
		Int("items", snap.Len()).
		Int("dim", snap.Dim()).
		Uint64("version", snap.Version()).
		Msg("index loaded")
	return rt, nil
}

// refreshJob 组装索引刷新任务。
func (rt *runtime) refreshJob() (*refresh.Job, error) {
	e := rt.settings.Embedding
	if e.Endpoint == "" {
		return nil, errors.New("embedding.endpoint is required for refresh")
	}
	client := service.NewEmbeddingClient(e.Endpoint,
		service.WithEmbeddingModel(e.Model),
		service.WithEmbeddingAPIKey(e.APIKey),
		service.WithEmbeddingTimeout(e.Timeout),
		service.WithEmbeddingRateLimit(e.RatePerSecond, e.Burst),
		service.WithEmbeddingBreaker(e.BreakerFailures, e.BreakerTimeout),
	)
	return &refresh.Job{
		Catalog:          rt.catalog,
		Embedder:         client,
		Snapshots:        rt.snapshots,
		Index:            rt.index,
		Concurrency:      rt.settings.Refresh.Concurrency,
		DescriptionChars: e.DescriptionChars,
		Logger:           rt.logger,
	}, nil
}

func (rt *runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}
