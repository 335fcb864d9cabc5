package orchestrator

import (
	"coderx/internal/prompt"

	"go.uber.org/zap"
)

// Request 一次对话请求
// Request is one inbound exchange. APIKey is forwarded upstream and never
// logged or stored.
type Request struct {
	SessionID   string
	Message     string
	FileContent string
	Model       string
	APIKey      string
}

// Reply 清洗后的回复和待办快照
// Reply is the cleaned assistant text plus the post-reduction task list.
// Todos is never nil.
type Reply struct {
	Reply string
	Todos []string
}

type Options struct {
	Prompt       prompt.Options
	DefaultModel string
	// Temperature nil 时使用 DefaultTemperature；显式 0 会原样发送
	// Temperature falls back to DefaultTemperature only when nil. An explicit
	// 0 is sent as 0.
	Temperature *float32
	TopP        float32
	// IgnoreBlankDirectives drops empty or whitespace-only task directives
	// instead of applying them. Off by default.
	IgnoreBlankDirectives bool
	Tokenizer             *prompt.Tokenizer // optional, enables prompt size logging
	Logger                *zap.Logger
}
