package provider

import (
	"context"
	"errors"
	"fmt"

	"coderx/internal/chat"
)

// ErrEmptyCompletion 上游返回成功但没有任何 choice
// ErrEmptyCompletion means the upstream answered 2xx without any choice.
var ErrEmptyCompletion = errors.New("completion has no choices")

// Request 封装一次模型请求
// Request wraps a single model call. APIKey is the caller's credential and
// is never logged.
type Request struct {
	APIKey      string
	Model       string
	Messages    []chat.Message
	Temperature float32
	TopP        float32
}

// Usage token 用量统计
// Usage reports token consumption
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Completion is the first choice of a chat-completion response.
type Completion struct {
	Content      string
	Model        string
	FinishReason string
	Usage        Usage
}

// Provider 模型提供方接口
// Provider is the remote chat-completion backend.
type Provider interface {
	// Complete sends one non-streaming request. It never retries.
	Complete(ctx context.Context, req Request) (Completion, error)

	// Name returns the provider name
	Name() string
}

// UpstreamError 上游 API 失败（非 2xx 或传输层错误）
// UpstreamError is a non-success upstream response or a transport fault.
// StatusCode is 0 for transport faults. Body is the upstream payload as sent.
type UpstreamError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("upstream request failed: %v", e.Err)
	}
	if e.Body == "" {
		return fmt.Sprintf("upstream status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("upstream status %d: %s", e.StatusCode, e.Body)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
