package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/rushteam/lastcall/core"
	"github.com/rushteam/lastcall/pkg/logging"
	"github.com/rushteam/lastcall/pkg/validation"
)

// EnvPrefix 是环境变量前缀，"__" 分隔配置层级：
//
//	LASTCALL_RECOMMEND__LIMIT=20         -> recommend.limit
//	LASTCALL_EMBEDDING__API_KEY=sk-xxx   -> embedding.api_key
const EnvPrefix = "LASTCALL_"

// Settings 是进程级配置。加载顺序（后者覆盖前者）：默认值 -> YAML 文件 -> 环境变量。
type Settings struct {
	Log       LogSettings       `koanf:"log"`
	Recommend RecommendSettings `koanf:"recommend"`
	Index     IndexSettings     `koanf:"index"`
	Catalog   CatalogSettings   `koanf:"catalog"`
	Embedding EmbeddingSettings `koanf:"embedding"`
	Refresh   RefreshSettings   `koanf:"refresh"`
	Metrics   MetricsSettings   `koanf:"metrics"`
}

type LogSettings struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// RecommendSettings 推荐打分与排序参数。
type RecommendSettings struct {
	RecencyWindow       int     `koanf:"recency_window" validate:"min=1"`
	SimilarityThreshold float64 `koanf:"similarity_threshold"`
	Limit               int     `koanf:"limit" validate:"min=1,max=100"`

	StoreWeight    float64 `koanf:"store_weight" validate:"gte=0"`
	CategoryWeight float64 `koanf:"category_weight" validate:"gte=0"`
	DistanceWeight float64 `koanf:"distance_weight" validate:"gte=0"`
	KeywordWeight  float64 `koanf:"keyword_weight" validate:"gte=0"`
	TopKeywords    int     `koanf:"top_keywords" validate:"min=0"`

	MaxRadiusKm      float64 `koanf:"max_radius_km" validate:"gt=0"`
	DefaultDimension int     `koanf:"default_dimension" validate:"min=1"`

	// Variant 默认的候选限定方式，请求可覆盖
	Variant string `koanf:"variant" validate:"oneof=default same_category same_store same_category_or_store"`

	// Fallback 个性化结果为空时的策略：none 返回空，recent 返回最近上架物品
	Fallback string `koanf:"fallback" validate:"oneof=none recent"`

	// Budget 单次请求的耗时上限，0 表示不限制
	Budget time.Duration `koanf:"budget" validate:"gte=0"`

	ExcludeLiked bool `koanf:"exclude_liked"`

	// Rule 可选的 CEL 候选资格表达式，如 item.discount_rate >= 30.0
	Rule string `koanf:"rule"`

	// PipelineFile 可选的 YAML/JSON pipeline 定义，为空时使用内置 pipeline
	PipelineFile string `koanf:"pipeline_file"`
}

// IndexSettings 向量快照的持久化位置。
type IndexSettings struct {
	Backend   string `koanf:"backend" validate:"oneof=file redis memory"`
	Path      string `koanf:"path" validate:"required_if=Backend file"`
	RedisAddr string `koanf:"redis_addr" validate:"required_if=Backend redis"`
	RedisDB   int    `koanf:"redis_db" validate:"min=0"`
	Key       string `koanf:"key" validate:"required"`
}

type CatalogSettings struct {
	Driver string `koanf:"driver" validate:"oneof=sqlite memory"`
	DSN    string `koanf:"dsn" validate:"required_if=Driver sqlite"`
}

// EmbeddingSettings 外部 embedding 服务（OpenAI 兼容接口）。
type EmbeddingSettings struct {
	Endpoint         string        `koanf:"endpoint" validate:"omitempty,url"`
	APIKey           string        `koanf:"api_key"`
	Model            string        `koanf:"model" validate:"required"`
	Timeout          time.Duration `koanf:"timeout" validate:"gt=0"`
	RatePerSecond    float64       `koanf:"rate_per_second" validate:"gte=0"`
	Burst            int           `koanf:"burst" validate:"min=0"`
	BreakerFailures  uint32        `koanf:"breaker_failures"`
	BreakerTimeout   time.Duration `koanf:"breaker_timeout" validate:"gte=0"`
	DescriptionChars int           `koanf:"description_chars" validate:"min=1"`
}

type RefreshSettings struct {
	Interval    time.Duration `koanf:"interval" validate:"gt=0"`
	OnStart     bool          `koanf:"on_start"`
	Concurrency int           `koanf:"concurrency" validate:"min=1"`
	Timeout     time.Duration `koanf:"timeout" validate:"gt=0"`
}

type MetricsSettings struct {
	// Addr 为空时不启动 /metrics
	Addr string `koanf:"addr"`
}

// Default 返回默认配置。
func Default() *Settings {
	return &Settings{
		Log: LogSettings{Level: "info", Format: "json"},
		Recommend: RecommendSettings{
			RecencyWindow:       core.DefaultRecencyWindow,
			SimilarityThreshold: core.DefaultSimilarityThreshold,
			Limit:               core.DefaultLimit,
			StoreWeight:         core.DefaultStoreWeight,
			CategoryWeight:      core.DefaultCategoryWeight,
			DistanceWeight:      core.DefaultDistanceWeight,
			KeywordWeight:       core.DefaultKeywordWeight,
			TopKeywords:         core.DefaultTopKeywords,
			MaxRadiusKm:         core.DefaultMaxRadiusKm,
			DefaultDimension:    core.DefaultDimension,
			Variant:             "default",
			Fallback:            "none",
			Budget:              core.DefaultBudget,
		},
		Index: IndexSettings{
			Backend: "file",
			Path:    "data/index",
			Key:     "lastcall:index:items",
		},
		Catalog: CatalogSettings{
			Driver: "sqlite",
			DSN:    "file:lastcall.db?mode=ro",
		},
		Embedding: EmbeddingSettings{
			Endpoint:         "https://api.openai.com/v1",
			Model:            "text-embedding-3-small",
			Timeout:          30 * time.Second,
			RatePerSecond:    5,
			Burst:            5,
			BreakerFailures:  5,
			BreakerTimeout:   time.Minute,
			DescriptionChars: 120,
		},
		Refresh: RefreshSettings{
			Interval:    24 * time.Hour,
			Concurrency: 4,
			Timeout:     30 * time.Minute,
		},
		Metrics: MetricsSettings{Addr: ":9090"},
	}
}

// Load 加载配置：默认值 -> path 指定的 YAML 文件（可为空）-> LASTCALL_ 环境变量，然后校验。
func Load(path string) (*Settings, error) {
	k := koanf.New(".")

	// 1. 默认值
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	// 2. 配置文件
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// 3. 环境变量
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	s := &Settings{}
	if err := k.Unmarshal("", s); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// envKey: LASTCALL_RECOMMEND__SIMILARITY_THRESHOLD -> recommend.similarity_threshold
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Validate 校验字段取值。
func (s *Settings) Validate() error {
	if err := validation.Struct(s); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Logging 转换为 logging.Config。
func (s *Settings) Logging() logging.Config {
	return logging.Config{Level: s.Log.Level, Format: s.Log.Format, Caller: s.Log.Caller}
}
