package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/rushteam/lastcall/core"
)

// DefaultEmbeddingModel 默认 embedding 模型。
const DefaultEmbeddingModel = "text-embedding-3-small"

// EmbeddingClient 是 OpenAI 兼容 embedding 接口的客户端，实现 core.Embedder。
//
// 请求：POST {Endpoint}/embeddings，body {"model": ..., "input": ...}，Authorization: Bearer {APIKey}
//
// 工程特征：
//   - 限流：golang.org/x/time/rate，刷新任务并发调用时平滑请求速率
//   - 熔断：gobreaker，上游连续失败后快速失败，避免整个刷新任务卡在超时上
//   - 4xx（429 除外）视为单个物品的问题，不计入熔断
type EmbeddingClient struct {
	// Endpoint 服务端点，例如 "https://api.openai.com/v1"
	Endpoint string

	// Model 模型名称
	Model string

	// APIKey Bearer Token（可选）
	APIKey string

	// Timeout 单次请求超时时间
	Timeout time.Duration

	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[[]float32]

	breakerFailures uint32
	breakerTimeout  time.Duration
}

// EmbeddingOption 是 EmbeddingClient 的配置选项。
type EmbeddingOption func(*EmbeddingClient)

// NewEmbeddingClient 创建一个新的 embedding 客户端。
func NewEmbeddingClient(endpoint string, opts ...EmbeddingOption) *EmbeddingClient {
	client := &EmbeddingClient{
		Endpoint:        strings.TrimRight(endpoint, "/"),
		Model:           DefaultEmbeddingModel,
		Timeout:         30 * time.Second,
		breakerFailures: 5,
		breakerTimeout:  30 * time.Second,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: client.Timeout}
	}
	client.breaker = gobreaker.NewCircuitBreaker[[]float32](gobreaker.Settings{
		Name:        "embedding",
		MaxRequests: 1,
		Timeout:     client.breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= client.breakerFailures
		},
		IsSuccessful: func(err error) bool {
			var ce *clientError
			return err == nil || errors.As(err, &ce) || errors.Is(err, context.Canceled)
		},
	})
	return client
}

// WithEmbeddingModel 设置模型名称
func WithEmbeddingModel(model string) EmbeddingOption {
	return func(c *EmbeddingClient) {
		if model != "" {
			c.Model = model
		}
	}
}

// WithEmbeddingAPIKey 设置 API Key
func WithEmbeddingAPIKey(key string) EmbeddingOption {
	return func(c *EmbeddingClient) {
		c.APIKey = key
	}
}

// WithEmbeddingTimeout 设置单次请求超时时间
func WithEmbeddingTimeout(timeout time.Duration) EmbeddingOption {
	return func(c *EmbeddingClient) {
		if timeout > 0 {
			c.Timeout = timeout
		}
	}
}

// WithEmbeddingRateLimit 设置每秒请求数与突发量，perSecond <= 0 表示不限流
func WithEmbeddingRateLimit(perSecond float64, burst int) EmbeddingOption {
	return func(c *EmbeddingClient) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithEmbeddingBreaker 设置熔断阈值（连续失败次数）与熔断打开时长
func WithEmbeddingBreaker(failures uint32, openFor time.Duration) EmbeddingOption {
	return func(c *EmbeddingClient) {
		if failures > 0 {
			c.breakerFailures = failures
		}
		if openFor > 0 {
			c.breakerTimeout = openFor
		}
	}
}

// WithEmbeddingHTTPClient 使用自定义 HTTP 客户端
func WithEmbeddingHTTPClient(hc *http.Client) EmbeddingOption {
	return func(c *EmbeddingClient) {
		c.httpClient = hc
	}
}

type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// clientError 表示请求本身有问题（4xx），重试无意义
type clientError struct {
	status int
	msg    string
}

func (e *clientError) Error() string {
	return fmt.Sprintf("embedding request rejected (%d): %s", e.status, e.msg)
}

// ErrEmbeddingUnavailable 表示上游不可用（熔断打开、5xx、网络错误）
var ErrEmbeddingUnavailable = core.NewDomainError(core.ModuleService, core.ErrorCodeUnavailable, "service: embedding upstream unavailable")

// Embed 实现 core.Embedder。
func (c *EmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidInput, "service: empty embedding input")
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	vec, err := c.breaker.Execute(func() ([]float32, error) {
		return c.do(ctx, text)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
	}
	return vec, err
}

func (c *EmbeddingClient) do(ctx context.Context, text string) ([]float32, error) {
	// 1. 构建请求体
	body, err := json.Marshal(embeddingRequest{Model: c.Model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	// 2. 构建 HTTP 请求
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	// 3. 发送请求
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	// 4. 解析响应
	var out embeddingResponse
	if err := json.Unmarshal(respBody, &out); err != nil && resp.StatusCode == http.StatusOK {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(respBody))
		if out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, &clientError{status: resp.StatusCode, msg: msg}
		}
		return nil, fmt.Errorf("%w: status %d: %s", ErrEmbeddingUnavailable, resp.StatusCode, msg)
	}
	if len(out.Data) == 0 || len(out.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding in response")
	}
	return out.Data[0].Embedding, nil
}
