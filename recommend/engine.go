// Package recommend 编排一次个性化推荐请求：
// 偏好向量 -> 候选生成 -> 打分 -> 排序，以及空结果时的兜底策略。
package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/lastcall/config"
	_ "github.com/rushteam/lastcall/config/builders"
	"github.com/rushteam/lastcall/core"
	"github.com/rushteam/lastcall/feature"
	"github.com/rushteam/lastcall/pipeline"
	"github.com/rushteam/lastcall/pkg/logging"
	"github.com/rushteam/lastcall/pkg/metrics"
	"github.com/rushteam/lastcall/rank"
	"github.com/rushteam/lastcall/recall"
	"github.com/rushteam/lastcall/vector"
)

// ErrInvalidRequest 表示请求参数不合法（缺少用户、未知变体等）。
var ErrInvalidRequest = core.NewDomainError(core.ModuleRecommend, core.ErrorCodeInvalidInput, "recommend: invalid request")

// Source 标识结果来源，个性化结果与兜底列表永远不会混为一谈。
type Source string

const (
	SourcePersonalized   Source = "personalized"
	SourceFallbackRecent Source = "fallback_recent"
)

// Reason 说明结果为何为空（或 ok）。数据稀疏不是错误。
type Reason string

const (
	ReasonOK             Reason = "ok"
	ReasonNoPreference   Reason = "no_preference"
	ReasonNoCandidates   Reason = "no_candidates"
	ReasonBelowThreshold Reason = "below_threshold"
	ReasonBudgetExceeded Reason = "budget_exceeded"
)

// Request 一次推荐请求。
type Request struct {
	UserID  string
	Geo     *core.GeoQuery // 为空表示不做地理过滤
	Variant Variant        // 为空时使用 Options.Variant
	Limit   int            // <= 0 时使用 Options.Limit
	Explain bool           // 为 true 时 Result.Items 带打分明细
}

// Result 推荐结果。ItemIDs 按分数降序，调用方自行补全物品详情。
type Result struct {
	RequestID       string       `json:"request_id"`
	UserID          string       `json:"user_id"`
	ItemIDs         []int64      `json:"item_ids"`
	Items           []*core.Item `json:"items,omitempty"`
	Source          Source       `json:"source"`
	Reason          Reason       `json:"reason"`
	SnapshotVersion uint64       `json:"snapshot_version"`
	PreferenceItems []int64      `json:"preference_items,omitempty"`
}

// Engine 推荐引擎，可并发使用。
type Engine struct {
	catalog  core.Catalog
	index    *vector.Index
	opts     Options
	pipeline *pipeline.Pipeline
	logger   zerolog.Logger
	now      func() time.Time
}

// EngineOption 引擎可选项。
type EngineOption func(*Engine)

// WithLogger 设置日志，默认不输出。
func WithLogger(l zerolog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l.With().Str("component", "recommend").Logger() }
}

// WithPipeline 使用自定义 pipeline 替代内置/配置文件中的 pipeline。
func WithPipeline(p *pipeline.Pipeline) EngineOption {
	return func(e *Engine) { e.pipeline = p }
}

// WithClock 替换时钟（测试用）。
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// NewEngine 创建推荐引擎。pipeline 来源优先级：WithPipeline > Options.PipelineFile > 内置 pipeline。
func NewEngine(catalog core.Catalog, index *vector.Index, opts Options, options ...EngineOption) (*Engine, error) {
	if catalog == nil || index == nil {
		return nil, fmt.Errorf("%w: catalog and index are required", ErrInvalidRequest)
	}
	opts = opts.withDefaults()
	if _, err := opts.Variant.AffinityMode(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if opts.Fallback != FallbackNone && opts.Fallback != FallbackRecent {
		return nil, fmt.Errorf("%w: unknown fallback %q", ErrInvalidRequest, opts.Fallback)
	}

	e := &Engine{
		catalog: catalog,
		index:   index,
		opts:    opts,
		logger:  zerolog.Nop(),
		now:     time.Now,
	}
	for _, o := range options {
		o(e)
	}
	if e.pipeline != nil {
		return e, nil
	}

	var err error
	if opts.PipelineFile != "" {
		e.pipeline, err = config.LoadPipeline(opts.PipelineFile)
	} else {
		e.pipeline, err = DefaultPipelineConfig(opts).BuildPipeline(config.DefaultFactory())
	}
	if err != nil {
		return nil, fmt.Errorf("build pipeline: %w", err)
	}
	if e.pipeline.Budget <= 0 {
		e.pipeline.Budget = opts.Budget
	}
	return e, nil
}

// Options 返回生效的参数。
func (e *Engine) Options() Options { return e.opts }

// Recommend 执行一次推荐：
//  0. 校验请求与地理参数，半径截断到 MaxRadiusKm
//  1. 获取向量快照（整个请求使用同一个快照）
//  2. 读取用户收藏，构建偏好向量；无偏好时返回空结果
//  3. 预取上架物品，运行 pipeline（召回 -> 过滤 -> 打分 -> 排序），超出预算时返回空结果
//  4. 结果为空且配置了 recent 兜底时返回最近上架物品，Source 标记为 fallback_recent
func (e *Engine) Recommend(ctx context.Context, req Request) (*Result, error) {
	start := e.now()
	if strings.TrimSpace(req.UserID) == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidRequest)
	}
	if req.Limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", ErrInvalidRequest)
	}
	variant := req.Variant
	if variant == "" {
		variant = e.opts.Variant
	}
	mode, err := variant.AffinityMode()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	limit := req.Limit
	if limit == 0 {
		limit = e.opts.Limit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	geo, err := CheckGeo(req.Geo, e.opts.MaxRadiusKm)
	if err != nil {
		return nil, err
	}

	requestID := logging.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = logging.NewRequestID()
		ctx = logging.ContextWithRequestID(ctx, requestID)
	}
	log := logging.Ctx(ctx, e.logger).With().Str("user_id", req.UserID).Logger()

	if e.opts.Budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Budget)
		defer cancel()
	}

	// 1. 快照
	snap := e.index.Current()
	res := &Result{
		RequestID:       requestID,
		UserID:          req.UserID,
		ItemIDs:         []int64{},
		Source:          SourcePersonalized,
		SnapshotVersion: snap.Version(),
	}

	// 2. 偏好向量
	likes, err := e.catalog.UserLikes(ctx, req.UserID, e.opts.TopKeywords)
	if err != nil {
		if budgetExceeded(ctx, err) {
			return e.finish(ctx, res, ReasonBudgetExceeded, 0, limit, start, &log), nil
		}
		return nil, fmt.Errorf("load likes: %w", err)
	}
	pref := feature.PreferenceBuilder{Window: e.opts.RecencyWindow}.Build(snap, likes)
	if pref.IsZero() {
		return e.finish(ctx, res, ReasonNoPreference, 0, limit, start, &log), nil
	}
	res.PreferenceItems = pref.Used

	rctx := &core.RecommendContext{
		UserID:     req.UserID,
		RequestID:  requestID,
		Now:        start,
		Vectors:    snap,
		Likes:      likes,
		Affinity:   likes.Affinity(),
		Preference: pref.Vector,
		Geo:        geo,
		Params: map[string]any{
			core.ParamVariant:  string(variant),
			core.ParamAffinity: string(mode),
			core.ParamLimit:    limit,
		},
	}

	// 3. 候选 + pipeline
	rctx.Candidates, err = e.catalog.ActiveItems(ctx)
	if err != nil {
		if budgetExceeded(ctx, err) {
			return e.finish(ctx, res, ReasonBudgetExceeded, 0, limit, start, &log), nil
		}
		return nil, fmt.Errorf("load candidates: %w", err)
	}
	items, err := e.pipeline.Run(ctx, rctx, nil)
	if err != nil {
		if budgetExceeded(ctx, err) {
			return e.finish(ctx, res, ReasonBudgetExceeded, len(rctx.Candidates), limit, start, &log), nil
		}
		return nil, fmt.Errorf("run pipeline: %w", err)
	}

	for _, it := range items {
		res.ItemIDs = append(res.ItemIDs, it.ID)
		logBreakdown(&log, it)
	}
	if req.Explain {
		res.Items = items
	}
	return e.finish(ctx, res, reasonOf(rctx.Trace, len(items)), len(rctx.Candidates), limit, start, &log), nil
}

// finish 处理兜底、记录指标与日志。
func (e *Engine) finish(ctx context.Context, res *Result, reason Reason, candidates, limit int, start time.Time, log *zerolog.Logger) *Result {
	res.Reason = reason
	if len(res.ItemIDs) == 0 && reason != ReasonBudgetExceeded && e.opts.Fallback == FallbackRecent {
		e.fallback(ctx, res, limit, log)
	}
	elapsed := e.now().Sub(start)
	metrics.RecordRecommend(string(res.Source), string(res.Reason), candidates, elapsed)
	log.Debug().
		Str("source", string(res.Source)).
		Str("reason", string(res.Reason)).
		Int("candidates", candidates).
		Int("returned", len(res.ItemIDs)).
		Uint64("snapshot_version", res.SnapshotVersion).
		Dur("elapsed", elapsed).
		Msg("recommend done")
	return res
}

func (e *Engine) fallback(ctx context.Context, res *Result, limit int, log *zerolog.Logger) {
	items, err := (&recall.Recent{Catalog: e.catalog, Limit: limit}).Recall(ctx, nil)
	if err != nil {
		log.Warn().Err(err).Msg("recent fallback failed, returning empty result")
		return
	}
	if len(items) == 0 {
		return
	}
	res.Source = SourceFallbackRecent
	for _, it := range items {
		res.ItemIDs = append(res.ItemIDs, it.ID)
	}
}

// reasonOf 根据 pipeline 轨迹判断空结果原因：打分阶段没有输出为 no_candidates，
// 有打分结果但全部低于阈值为 below_threshold。
func reasonOf(trace []core.StageTrace, returned int) Reason {
	if returned > 0 {
		return ReasonOK
	}
	for i := len(trace) - 1; i >= 0; i-- {
		if trace[i].Kind == string(pipeline.KindRank) {
			if trace[i].Out > 0 {
				return ReasonBelowThreshold
			}
			return ReasonNoCandidates
		}
	}
	return ReasonNoCandidates
}

func budgetExceeded(ctx context.Context, err error) bool {
	return errors.Is(err, pipeline.ErrBudgetExceeded) ||
		(errors.Is(err, context.DeadlineExceeded) && errors.Is(ctx.Err(), context.DeadlineExceeded))
}

// logBreakdown 在 debug 级别输出单个物品的打分明细。
func logBreakdown(log *zerolog.Logger, it *core.Item) {
	ev := log.Debug()
	if !ev.Enabled() {
		return
	}
	ev.Int64("item_id", it.ID).
		Float64("similarity", it.Features[rank.FeatureSimilarity]).
		Float64("store", it.Features[rank.FeatureStoreMatch]).
		Float64("category", it.Features[rank.FeatureCategoryMatch]).
		Float64("distance", it.Features[rank.FeatureDistanceScore]).
		Float64("keyword", it.Features[rank.FeatureKeywordOverlap]).
		Float64("total", it.Score).
		Msg("score breakdown")
}
