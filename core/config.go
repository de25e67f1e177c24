package core

import "time"

// 推荐链路的默认参数，config.Settings 的默认值与各组件零值兜底均取自此处。
const (
	DefaultRecencyWindow       = 3
	DefaultSimilarityThreshold = 1.0
	DefaultLimit               = 10
	DefaultStoreWeight         = 0.1
	DefaultCategoryWeight      = 0.5
	DefaultDistanceWeight      = 0.3
	DefaultKeywordWeight       = 0.1
	DefaultTopKeywords         = 5
	DefaultMaxRadiusKm         = 5.0
	DefaultDimension           = 1536
	DefaultBudget              = 2 * time.Second
)
