package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"coderx/internal/orchestrator"
	"coderx/internal/provider"

	"go.uber.org/zap"
)

// ChatRequest is the POST /chat body.
type ChatRequest struct {
	Message     string `json:"message"`
	APIKey      string `json:"api_key"`
	Model       string `json:"model,omitempty"`
	FileContent string `json:"file_content,omitempty"`
	SessionID   string `json:"session_id,omitempty"`
}

// ChatResponse is the POST /chat success body.
type ChatResponse struct {
	Reply string   `json:"reply"`
	Todos []string `json:"todos"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		s.errorResponse(r, w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	reply, err := s.chat.Handle(r.Context(), orchestrator.Request{
		SessionID:   req.SessionID,
		Message:     req.Message,
		FileContent: req.FileContent,
		Model:       req.Model,
		APIKey:      req.APIKey,
	})
	if err != nil {
		status, msg := statusFor(err)
		s.errorResponse(r, w, status, msg)
		return
	}

	todos := reply.Todos
	if todos == nil {
		todos = []string{}
	}
	s.jsonResponse(w, http.StatusOK, ChatResponse{Reply: reply.Reply, Todos: todos})
}

// statusFor maps the orchestrator error taxonomy onto HTTP.
func statusFor(err error) (int, string) {
	var upErr *provider.UpstreamError
	var unexpected *orchestrator.UnexpectedError
	switch {
	case errors.Is(err, orchestrator.ErrMissingCredential):
		return http.StatusBadRequest, "API Key is missing"
	case errors.As(err, &upErr):
		return http.StatusBadGateway, "upstream API error: " + upErr.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "request timed out"
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "request cancelled"
	case errors.As(err, &unexpected):
		return http.StatusInternalServerError, "internal error: " + unexpected.Err.Error()
	default:
		return http.StatusInternalServerError, "internal error: " + err.Error()
	}
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("encode response", zap.Error(err))
	}
}

func (s *Server) errorResponse(r *http.Request, w http.ResponseWriter, status int, message string) {
	s.logger.Warn("HTTP error",
		zap.String("request_id", RequestIDFrom(r.Context())),
		zap.Int("status", status),
		zap.String("error", message))
	s.jsonResponse(w, status, map[string]string{"error": message})
}
