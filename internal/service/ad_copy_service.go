package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/ad-scheduler/internal/errors"
	"github.com/unclebandit/ad-scheduler/internal/llm"
	"github.com/unclebandit/ad-scheduler/internal/logging"
	"github.com/unclebandit/ad-scheduler/internal/metrics"
)

// AdCopyService generates advertising text with an approved local model.
type AdCopyService struct {
	Generator llm.Generator
	Logger    *zap.Logger
}

func NewAdCopyService(gen llm.Generator, logger *zap.Logger) *AdCopyService {
	return &AdCopyService{Generator: gen, Logger: logging.OrNop(logger).Named("adcopy")}
}

// Generate validates the model before any call is made; unknown models never reach the runtime.
func (s *AdCopyService) Generate(ctx context.Context, prompt, modelName string) (string, llm.Model, error) {
	logger := logging.OrNop(s.Logger)

	model, err := llm.ParseModel(modelName)
	if err != nil {
		logger.Info("rejected unknown model", zap.String("model", modelName))
		return "", "", err
	}
	if strings.TrimSpace(prompt) == "" {
		return "", model, &appErrors.ErrInvalidInput{Message: "Prompt is required."}
	}

	logger.Info("generating ad copy", zap.String("model", model.String()))
	start := time.Now()
	text, err := s.Generator.Generate(ctx, model, prompt)
	status := "success"
	if err != nil {
		status = string(appErrors.CodeOf(err))
	}
	metrics.RecordGenerationDuration(model.String(), status, time.Since(start).Seconds())
	if err != nil {
		logger.Warn("ad copy generation failed", zap.String("model", model.String()), zap.Error(err))
		return "", model, err
	}
	return text, model, nil
}
