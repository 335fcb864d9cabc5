// Package orchestrator runs one chat exchange: load the session, compose the
// prompt, call the provider, apply task directives and commit.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"coderx/internal/chat"
	"coderx/internal/directive"
	"coderx/internal/prompt"
	"coderx/internal/provider"
	"coderx/internal/storage"
	"coderx/internal/todo"

	"go.uber.org/zap"
)

const (
	DefaultTemperature float32 = 0.15
	DefaultTopP        float32 = 0.9
)

type Orchestrator struct {
	provider     provider.Provider
	store        storage.Store
	promptOpts   prompt.Options
	defaultModel string
	temperature  float32
	topP         float32
	ignoreBlank  bool
	tokenizer    *prompt.Tokenizer
	logger       *zap.Logger
}

func New(providerClient provider.Provider, store storage.Store, opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	temperature := DefaultTemperature
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}
	topP := opts.TopP
	if topP <= 0 {
		topP = DefaultTopP
	}
	return &Orchestrator{
		provider:     providerClient,
		store:        store,
		promptOpts:   opts.Prompt,
		defaultModel: strings.TrimSpace(opts.DefaultModel),
		temperature:  temperature,
		topP:         topP,
		ignoreBlank:  opts.IgnoreBlankDirectives,
		tokenizer:    opts.Tokenizer,
		logger:       logger,
	}
}

// Handle 处理一次对话；仅在上游成功后才修改会话
// Handle runs one exchange. The session lock is held from load to commit and
// the session changes only when the upstream call succeeds. Errors are one of
// ErrMissingCredential, *provider.UpstreamError, a context error, or
// *UnexpectedError.
func (o *Orchestrator) Handle(ctx context.Context, req Request) (reply Reply, err error) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("chat exchange panicked", zap.Any("panic", r), zap.Stack("stack"))
			reply, err = Reply{}, &UnexpectedError{Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	apiKey := strings.TrimSpace(req.APIKey)
	if apiKey == "" {
		return Reply{}, ErrMissingCredential
	}
	sessionID := storage.NormalizeID(req.SessionID)
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = o.defaultModel
	}
	log := o.logger.With(zap.String("session_id", sessionID), zap.String("model", model))
	start := time.Now()

	var out Reply
	_, err = o.store.Update(ctx, sessionID, func(s *storage.Session) error {
		messages := prompt.Compose(prompt.Input{
			UserMessage: req.Message,
			History:     s.History,
			Todos:       s.Todos,
			FileContext: req.FileContent,
			Options:     o.promptOpts,
		})
		if o.tokenizer != nil {
			if ce := log.Check(zap.DebugLevel, "prompt composed"); ce != nil {
				ce.Write(
					zap.Int("messages", len(messages)),
					zap.Int("estimated_tokens", o.tokenizer.Count(messages)),
					zap.Bool("precise", o.tokenizer.IsPrecise()))
			}
		}

		completion, err := o.provider.Complete(ctx, provider.Request{
			APIKey:      apiKey,
			Model:       model,
			Messages:    messages,
			Temperature: o.temperature,
			TopP:        o.topP,
		})
		if err != nil {
			return err
		}

		extracted := directive.Extract(completion.Content)
		additions, removals := extracted.Additions, extracted.Removals
		if o.ignoreBlank {
			additions = o.dropBlank(log, directive.KindAdd, additions)
			removals = o.dropBlank(log, directive.KindDel, removals)
		}
		next, change := todo.ReduceWithChange(s.Todos, additions, removals)
		for _, r := range change.Overreaching() {
			log.Warn("task removal matched several tasks",
				zap.String("pattern", r.Pattern),
				zap.Strings("deleted", r.Deleted))
		}

		s.Todos = next
		s.History = append(s.History, chat.User(req.Message), chat.Assistant(completion.Content))

		out = Reply{Reply: extracted.Clean, Todos: snapshot(next)}
		log.Info("chat exchange completed",
			zap.Int("added", len(change.Added)),
			zap.Int("removal_directives", len(change.Removed)),
			zap.Int("todos", len(next)),
			zap.Int("total_tokens", completion.Usage.TotalTokens),
			zap.Duration("elapsed", time.Since(start)))
		return nil
	})
	if err != nil {
		err = classify(err)
		log.Warn("chat exchange failed", zap.Error(err))
		return Reply{}, err
	}
	return out, nil
}

// dropBlank filters out empty and whitespace-only payloads.
func (o *Orchestrator) dropBlank(log *zap.Logger, kind directive.Kind, payloads []string) []string {
	kept := make([]string, 0, len(payloads))
	for _, p := range payloads {
		if directive.IsBlank(p) {
			log.Warn("blank task directive ignored", zap.String("kind", string(kind)), zap.String("payload", p))
			continue
		}
		kept = append(kept, p)
	}
	return kept
}

func classify(err error) error {
	var upErr *provider.UpstreamError
	switch {
	case errors.As(err, &upErr):
		return upErr
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		var unexpected *UnexpectedError
		if errors.As(err, &unexpected) {
			return unexpected
		}
		return &UnexpectedError{Err: err}
	}
}

func snapshot(todos []string) []string {
	out := make([]string, len(todos))
	copy(out, todos)
	return out
}
