// Package refresh 重建向量快照：调用外部 embedding 服务、持久化、原子替换内存索引。
package refresh

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/lastcall/core"
	"github.com/rushteam/lastcall/pkg/metrics"
	"github.com/rushteam/lastcall/vector"
)

// ErrNoEmbeddings 表示没有任何物品 embedding 成功：旧索引保持不变。
var ErrNoEmbeddings = core.NewDomainError(core.ModuleRefresh, core.ErrorCodeUnavailable, "refresh: no items embedded")

// Job 执行一次索引刷新：
//  1. 读取全部上架且有库存的物品
//  2. 并发调用 Embedder（单个物品失败记录日志并跳过）
//  3. 全部失败时返回 ErrNoEmbeddings，不提交空快照
//  4. 先持久化快照，再原子替换内存索引；持久化失败时不替换
type Job struct {
	Catalog   core.Catalog
	Embedder  core.Embedder
	Snapshots core.SnapshotStore // 可为空（仅内存）
	Index     *vector.Index

	// Concurrency 并发 embedding 请求数，<= 0 时为 4
	Concurrency int

	// DescriptionChars 描述截断长度，<= 0 时为 DefaultDescriptionChars
	DescriptionChars int

	Logger zerolog.Logger
}

// Report 是一次刷新的结果摘要。
type Report struct {
	Total    int // 候选物品数
	Embedded int // 写入快照的物品数
	Failed   int // embedding 调用失败数
	Dropped  int // 维度不一致被丢弃数
	Dim      int
	Version  uint64
	Duration time.Duration
}

// Run 执行刷新。返回错误时内存索引保持不变。
func (j *Job) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	report, err := j.run(ctx)
	report.Duration = time.Since(start)

	status := "success"
	switch {
	case err == nil:
	case errors.Is(err, ErrNoEmbeddings):
		status = "no_embeddings"
	default:
		status = "error"
	}
	metrics.RecordRefresh(status, report.Failed, report.Duration)
	return report, err
}

func (j *Job) run(ctx context.Context) (*Report, error) {
	report := &Report{}
	log := j.Logger.With().Str("component", "refresh").Logger()

	items, err := j.Catalog.ActiveItems(ctx)
	if err != nil {
		return report, fmt.Errorf("list active items: %w", err)
	}
	items = dedupAvailable(items)
	report.Total = len(items)

	vecs, failed, err := j.embedAll(ctx, items, log)
	report.Failed = failed
	if err != nil {
		return report, err
	}

	// 以目录顺序中第一个成功的向量确定维度
	ids := make([]int64, 0, len(items))
	kept := make([][]float32, 0, len(items))
	dim := 0
	for i, v := range vecs {
		if v == nil {
			continue
		}
		if dim == 0 {
			dim = len(v)
		}
		if len(v) != dim {
			report.Dropped++
			log.Warn().Int64("item_id", items[i].ID).Int("dim", len(v)).Int("want", dim).Msg("embedding dimension mismatch, item dropped")
			continue
		}
		ids = append(ids, items[i].ID)
		kept = append(kept, v)
	}
	report.Embedded = len(ids)
	report.Dim = dim

	if len(ids) == 0 {
		log.Error().Int("total", report.Total).Int("failed", report.Failed).Msg("no items embedded, keeping current index")
		return report, ErrNoEmbeddings
	}

	// 先持久化再发布，两者是同一个快照
	snap, err := j.Index.Prepare(ids, kept)
	if err != nil {
		return report, fmt.Errorf("prepare index: %w", err)
	}
	if j.Snapshots != nil {
		if err := j.Snapshots.Save(ctx, snap.Data()); err != nil {
			return report, fmt.Errorf("persist snapshot: %w", err)
		}
	}
	if err := j.Index.Publish(snap); err != nil {
		return report, fmt.Errorf("publish index: %w", err)
	}
	report.Version = snap.Version()
	metrics.SetIndex(snap.Len(), snap.Version())

	log.Info().
		Int("total", report.Total).
		Int("embedded", report.Embedded).
		Int("failed", report.Failed).
		Int("dropped", report.Dropped).
		Int("dim", report.Dim).
		Uint64("version", report.Version).
		Msg("index refreshed")
	return report, nil
}

// embedAll 并发调用 Embedder，结果与 items 下标对齐，失败项为 nil。
// 只有 ctx 取消才会返回错误。
func (j *Job) embedAll(ctx context.Context, items []*core.CatalogItem, log zerolog.Logger) ([][]float32, int, error) {
	concurrency := j.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	vecs := make([][]float32, len(items))
	failures := make([]bool, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, it := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			v, err := j.Embedder.Embed(gctx, DocumentText(it, j.DescriptionChars))
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				failures[i] = true
				log.Warn().Err(err).Int64("item_id", it.ID).Msg("embedding failed, item skipped")
				return nil
			}
			if len(v) == 0 {
				failures[i] = true
				log.Warn().Int64("item_id", it.ID).Msg("empty embedding, item skipped")
				return nil
			}
			vecs[i] = v
			return nil
		})
	}
	err := g.Wait()

	failed := 0
	for _, f := range failures {
		if f {
			failed++
		}
	}
	if err != nil {
		return nil, failed, fmt.Errorf("embed items: %w", err)
	}
	return vecs, failed, nil
}

func dedupAvailable(items []*core.CatalogItem) []*core.CatalogItem {
	out := make([]*core.CatalogItem, 0, len(items))
	seen := make(map[int64]struct{}, len(items))
	for _, it := range items {
		if !it.Available() {
			continue
		}
		if _, dup := seen[it.ID]; dup {
			continue
		}
		seen[it.ID] = struct{}{}
		out = append(out, it)
	}
	return out
}
