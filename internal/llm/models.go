package llm

import (
	"context"
	"strings"

	appErrors "github.com/unclebandit/ad-scheduler/internal/errors"
)

// Model is an approved local model identifier.
type Model string

const (
	ModelPhi4       Model = "phi4"
	ModelMistral    Model = "mistral"
	ModelLlama32    Model = "llama3.2"
	ModelGemma3     Model = "gemma3"
	ModelDeepSeekR1 Model = "deepseek-r1:8b"

	DefaultModel = ModelLlama32
)

var approvedModels = []Model{ModelPhi4, ModelMistral, ModelLlama32, ModelGemma3, ModelDeepSeekR1}

// Models lists the approved models in display order.
func Models() []Model {
	out := make([]Model, len(approvedModels))
	copy(out, approvedModels)
	return out
}

// ParseModel resolves name against the allow-list. An empty name selects DefaultModel.
func ParseModel(name string) (Model, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultModel, nil
	}
	for _, m := range approvedModels {
		if string(m) == name {
			return m, nil
		}
	}
	return "", &appErrors.ErrModelUnavailable{Model: name}
}

func (m Model) String() string { return string(m) }

// Generator runs one prompt against a model. Implementations bound the call with their own
// timeout and report ErrGenerationTimeout or ErrGenerationError.
type Generator interface {
	Generate(ctx context.Context, model Model, prompt string) (string, error)
}

// cleanOutput strips the markdown fences models like to wrap answers in.
func cleanOutput(out string) string {
	return strings.TrimSpace(strings.ReplaceAll(strings.TrimSpace(out), "```", ""))
}
