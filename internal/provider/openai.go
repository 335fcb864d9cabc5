package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"coderx/internal/chat"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultBaseURL is Perplexity's OpenAI-compatible API root.
const DefaultBaseURL = "https://api.perplexity.ai"

const maxErrorBody = 64 * 1024

// OpenAIConfig SDK provider 配置
// OpenAIConfig is the SDK provider configuration
type OpenAIConfig struct {
	BaseURL   string
	TimeoutMS int
}

// OpenAIProvider 使用 go-openai SDK 的 Provider 实现
// OpenAIProvider implements Provider with the go-openai SDK. The API key
// arrives with every request, so an SDK client is built per call on top of
// one shared http.Client.
type OpenAIProvider struct {
	baseURL    string
	httpClient *http.Client
}

// NewOpenAIProvider 创建基于 SDK 的 provider
// NewOpenAIProvider creates an SDK-based provider
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := &http.Client{}
	if cfg.TimeoutMS > 0 {
		httpClient.Timeout = time.Duration(cfg.TimeoutMS) * time.Millisecond
	}
	return &OpenAIProvider{baseURL: baseURL, httpClient: httpClient}
}

func (p *OpenAIProvider) Name() string {
	return "openai-compatible"
}

// BaseURL returns the API root requests are sent to.
func (p *OpenAIProvider) BaseURL() string {
	return p.baseURL
}

func (p *OpenAIProvider) Complete(ctx context.Context, req Request) (Completion, error) {
	doer := &captureDoer{base: p.httpClient}
	config := openai.DefaultConfig(strings.TrimSpace(req.APIKey))
	config.BaseURL = p.baseURL
	config.HTTPClient = doer
	client := openai.NewClientWithConfig(config)

	resp, err := client.CreateChatCompletion(ctx, buildSDKRequest(req))
	if err != nil {
		return Completion{}, classifyError(err, doer)
	}
	if len(resp.Choices) == 0 {
		return Completion{}, ErrEmptyCompletion
	}

	first := resp.Choices[0]
	return Completion{
		Content:      first.Message.Content,
		Model:        resp.Model,
		FinishReason: string(first.FinishReason),
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

func buildSDKRequest(req Request) openai.ChatCompletionRequest {
	// the SDK drops a zero temperature (omitempty); the smallest float32
	// survives encoding and means 0 to the API
	temperature := req.Temperature
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}
	return openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    convertMessages(req.Messages),
		Temperature: temperature,
		TopP:        req.TopP,
	}
}

// --- Message Conversion ---

func convertMessages(messages []chat.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}
	return out
}

// --- Error Mapping ---

// classifyError turns SDK errors into *UpstreamError when the upstream
// answered with a failure status or could not be reached. Context errors and
// anything else (a 2xx body that does not decode) are returned unchanged.
func classifyError(err error, doer *captureDoer) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var tErr *transportError
	if errors.As(err, &tErr) {
		return &UpstreamError{Err: tErr.Err}
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &UpstreamError{StatusCode: apiErr.HTTPStatusCode, Body: doer.bodyOr(apiErr.Message), Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &UpstreamError{StatusCode: reqErr.HTTPStatusCode, Body: doer.bodyOr(""), Err: err}
	}
	if doer.status >= http.StatusBadRequest {
		return &UpstreamError{StatusCode: doer.status, Body: doer.bodyOr(""), Err: err}
	}
	return err
}

// transportError marks a request that never produced a response.
type transportError struct {
	Err error
}

func (e *transportError) Error() string {
	return "http do: " + e.Err.Error()
}

func (e *transportError) Unwrap() error {
	return e.Err
}

// captureDoer keeps a copy of a failed response body so it can be surfaced
// verbatim; the SDK only exposes its parsed form.
type captureDoer struct {
	base   *http.Client
	status int
	body   []byte
}

func (d *captureDoer) Do(req *http.Request) (*http.Response, error) {
	resp, err := d.base.Do(req)
	if err != nil {
		return nil, &transportError{Err: err}
	}
	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusBadRequest {
		return resp, nil
	}
	data, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, &transportError{Err: fmt.Errorf("read error body (status %d): %w", resp.StatusCode, readErr)}
	}
	d.status = resp.StatusCode
	d.body = data
	resp.Body = io.NopCloser(bytes.NewReader(data))
	return resp, nil
}

func (d *captureDoer) bodyOr(fallback string) string {
	if body := strings.TrimSpace(string(d.body)); body != "" {
		return body
	}
	return strings.TrimSpace(fallback)
}
