// internal/handler/generate_handler.go
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	appErrors "github.com/unclebandit/ad-scheduler/internal/errors"
	"github.com/unclebandit/ad-scheduler/internal/llm"
	"github.com/unclebandit/ad-scheduler/internal/logging"
)

// AdCopyGenerator is satisfied by service.AdCopyService.
type AdCopyGenerator interface {
	Generate(ctx context.Context, prompt, modelName string) (string, llm.Model, error)
}

// GenerateHandler serves ad copy generation and the model list.
type GenerateHandler struct {
	Service AdCopyGenerator
	Limiter *rate.Limiter // nil disables limiting
	Logger  *zap.Logger
}

// NewGenerateHandler limits generation to ratePerMinute requests with the given burst.
func NewGenerateHandler(svc AdCopyGenerator, ratePerMinute, burst int, logger *zap.Logger) *GenerateHandler {
	return &GenerateHandler{
		Service: svc,
		Limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(ratePerMinute)), burst),
		Logger:  logging.OrNop(logger).Named("generate"),
	}
}

type generateRequest struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model"`
}

type GenerateResponse struct {
	Text  string    `json:"text"`
	Model llm.Model `json:"model"`
}

// Generate accepts {prompt, model} as JSON or form fields. Model may be empty.
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if h.Limiter != nil && !h.Limiter.Allow() {
		logging.OrNop(h.Logger).Warn("generation rate limited")
		WriteJSON(w, http.StatusTooManyRequests, ErrorResponse{
			Error: "Too many generation requests. Please wait and try again.",
			Code:  appErrors.CodeRateLimited,
		})
		return
	}

	var req generateRequest
	if IsJSON(r) {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, &appErrors.ErrInvalidInput{Message: "invalid body"})
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			WriteError(w, &appErrors.ErrInvalidInput{Message: "invalid form"})
			return
		}
		req.Prompt = r.PostFormValue("prompt")
		req.Model = r.PostFormValue("model")
	}

	text, m, err := h.Service.Generate(r.Context(), req.Prompt, req.Model)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, GenerateResponse{Text: text, Model: m})
}

// ListModels returns the approved models and the default.
func (h *GenerateHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"models":  llm.Models(),
		"default": llm.DefaultModel,
	})
}
