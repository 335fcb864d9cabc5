package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type chatRequest struct {
	Message     string `json:"message"`
	APIKey      string `json:"api_key"`
	Model       string `json:"model,omitempty"`
	FileContent string `json:"file_content,omitempty"`
	SessionID   string `json:"session_id,omitempty"`
}

type chatResponse struct {
	Reply string   `json:"reply"`
	Todos []string `json:"todos"`
	Error string   `json:"error"`
}

// relayClient talks to a running coderx server.
type relayClient struct {
	baseURL string
	http    *http.Client
}

func newRelayClient(baseURL string, timeout time.Duration) *relayClient {
	return &relayClient{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *relayClient) Chat(ctx context.Context, req chatRequest) (chatResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return chatResponse{}, fmt.Errorf("encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return chatResponse{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return chatResponse{}, fmt.Errorf("post /chat: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return chatResponse{}, fmt.Errorf("read response: %w", err)
	}
	var out chatResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return chatResponse{}, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := out.Error
		if msg == "" {
			msg = strings.TrimSpace(string(data))
		}
		return chatResponse{}, fmt.Errorf("relay status %d: %s", resp.StatusCode, msg)
	}
	return out, nil
}
