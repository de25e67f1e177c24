package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rushteam/lastcall/core"
)

// ErrBudgetExceeded 表示 Pipeline 超出时间预算。调用方应返回空结果，而不是部分打分的结果。
var ErrBudgetExceeded = errors.New("pipeline: budget exceeded")

// Pipeline 把推荐逻辑拆成可组合的 Node 链：召回 -> 过滤 -> 打分 -> 重排。
type Pipeline struct {
	Nodes []Node

	// Budget 是整条链路的墙钟预算，<= 0 表示不限制。
	// 超时后整体失败（返回 ErrBudgetExceeded），不返回部分结果。
	Budget time.Duration
}

func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if p.Budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Budget)
		defer cancel()
	}

	cur := items
	for _, node := range p.Nodes {
		if err := checkBudget(ctx); err != nil {
			return nil, err
		}
		start := time.Now()
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			if budgetErr := checkBudget(ctx); budgetErr != nil {
				return nil, budgetErr
			}
			return nil, fmt.Errorf("%s: %w", node.Name(), err)
		}
		if rctx != nil {
			rctx.Trace = append(rctx.Trace, core.StageTrace{
				Node:    node.Name(),
				Kind:    string(node.Kind()),
				In:      len(cur),
				Out:     len(next),
				Elapsed: time.Since(start),
			})
		}
		cur = next
	}
	// 最后一个节点完成时已超时同样视为失败
	if err := checkBudget(ctx); err != nil {
		return nil, err
	}
	return cur, nil
}

func checkBudget(ctx context.Context) error {
	err := ctx.Err()
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrBudgetExceeded
	}
	return err
}
