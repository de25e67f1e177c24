package dsl

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/lastcall/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.MapType(cel.StringType, cel.DynType)),
			cel.Variable("user", cel.MapType(cel.StringType, cel.DynType)),
		)
	})
	return celEnv, celEnvErr
}

// Rule 是编译后的候选资格规则，使用 CEL (Common Expression Language)。
// 编译一次，可被多个请求并发执行。
//
// 可用变量：
//   - item.id / item.category_id / item.store_id（int）
//   - item.price / item.discount_price / item.discount_rate / item.hours_to_expiry / item.distance_km（double）
//   - item.keywords（list<string>）
//   - user.id（string）/ user.like_count（int）
//
// 示例：
//   - `item.discount_rate >= 30.0`
//   - `item.hours_to_expiry > 1.0 && item.price < 10000.0`
//   - `"vegan" in item.keywords`
type Rule struct {
	expr string
	prg  cel.Program
}

// Compile 编译规则表达式，表达式必须返回 bool。
func Compile(expr string) (*Rule, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}
	if ast.OutputType() != cel.BoolType && ast.OutputType() != cel.DynType {
		return nil, fmt.Errorf("expression must return bool, got %v", ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &Rule{expr: expr, prg: prg}, nil
}

// String 返回原始表达式。
func (r *Rule) String() string { return r.expr }

// Evaluate 对单个候选执行规则。
func (r *Rule) Evaluate(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	out, _, err := r.prg.Eval(buildInput(item, rctx))
	if err != nil {
		return false, fmt.Errorf("eval error: %w", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据
func buildInput(item *core.Item, rctx *core.RecommendContext) map[string]any {
	now := time.Now()
	if rctx != nil && !rctx.Now.IsZero() {
		now = rctx.Now
	}
	in := map[string]any{
		"id":              item.ID,
		"category_id":     int64(0),
		"store_id":        int64(0),
		"price":           0.0,
		"discount_price":  0.0,
		"discount_rate":   0.0,
		"hours_to_expiry": 0.0,
		"distance_km":     0.0,
		"keywords":        []string{},
		"score":           item.Score,
	}
	if ci := item.Attrs; ci != nil {
		in["category_id"] = ci.CategoryID
		in["store_id"] = ci.StoreID
		in["price"] = ci.Price
		in["discount_price"] = ci.DiscountPrice
		in["discount_rate"] = ci.DiscountRate
		in["hours_to_expiry"] = ci.HoursToExpiry(now)
		if ci.Keywords != nil {
			in["keywords"] = ci.Keywords
		}
	}
	if d, ok := item.Feature("distance_km"); ok {
		in["distance_km"] = d
	}

	user := map[string]any{"id": "", "like_count": int64(0)}
	if rctx != nil {
		user["id"] = rctx.UserID
		user["like_count"] = int64(rctx.Likes.Len())
	}
	return map[string]any{"item": in, "user": user}
}
