package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/ad-scheduler/internal/errors"
	"github.com/unclebandit/ad-scheduler/internal/llm"
	"github.com/unclebandit/ad-scheduler/internal/logging"
	"github.com/unclebandit/ad-scheduler/internal/metrics"
	"github.com/unclebandit/ad-scheduler/internal/model"
)

const schedulePrompt = "Extract all ad campaign schedule items from the following document in JSON format. " +
	"Each item should be an object with keys 'name', 'start_date', and 'end_date', where the dates are in YYYY-MM-DD format. " +
	"Return only valid JSON.\n\n" +
	"{document}"

// ErrUnsupportedFormat is logged for documents with no registered reader, such as legacy .xls workbooks.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// Extractor pulls candidate campaigns out of uploaded documents with the help of a model.
type Extractor struct {
	Generator  llm.Generator
	Model      llm.Model
	Extractors map[Format]TextExtractor
	Logger     *zap.Logger
}

func NewExtractor(gen llm.Generator, logger *zap.Logger) *Extractor {
	return &Extractor{
		Generator:  gen,
		Model:      llm.DefaultModel,
		Extractors: DefaultExtractors(),
		Logger:     logging.OrNop(logger).Named("extract"),
	}
}

// Extract never fails: any problem is logged and yields no candidates.
func (e *Extractor) Extract(ctx context.Context, filename string, payload []byte) []model.CandidateRecord {
	format := FormatFromFilename(filename)
	logger := logging.OrNop(e.Logger).With(zap.String("file", filename), zap.String("format", format.String()))

	candidates, stage, err := e.extract(ctx, format, payload)
	if err != nil {
		metrics.RecordExtractionFailure(format.String(), stage)
		logger.Error("schedule extraction failed",
			zap.String("stage", stage),
			zap.Error(&appErrors.ErrExtractionFailure{Format: format.String(), Err: err}),
		)
		return []model.CandidateRecord{}
	}
	logger.Info("extracted schedule candidates", zap.Int("candidates", len(candidates)))
	return candidates
}

func (e *Extractor) extract(ctx context.Context, format Format, payload []byte) ([]model.CandidateRecord, string, error) {
	reader, ok := e.Extractors[format]
	if !ok {
		return nil, "unsupported", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	text, err := reader.ExtractText(payload)
	if err != nil {
		return nil, "read", err
	}
	if strings.TrimSpace(text) == "" {
		return nil, "read", errors.New("document contains no text")
	}

	m := e.Model
	if m == "" {
		m = llm.DefaultModel
	}
	prompt := llm.RenderPrompt(schedulePrompt, map[string]string{"document": text})
	out, err := e.Generator.Generate(ctx, m, prompt)
	if err != nil {
		return nil, "generate", err
	}

	candidates, err := DecodeCandidates(out)
	if err != nil {
		return nil, "decode", err
	}
	return candidates, "", nil
}

// DecodeCandidates reads model output as a JSON list of {name, start_date, end_date} objects. A
// single object, or an object wrapping one list, is accepted too. Values that are not strings are
// rendered as text and left for validation to reject.
func DecodeCandidates(raw string) ([]model.CandidateRecord, error) {
	var payload json.RawMessage
	if err := llm.DecodeJSON(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode model output: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, fmt.Errorf("decode model output: %w", err)
	}

	items, err := candidateItems(value)
	if err != nil {
		return nil, err
	}
	candidates := make([]model.CandidateRecord, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("item %d is %T, want an object", i, item)
		}
		candidates = append(candidates, model.CandidateRecord{
			Name:          field(obj, "name"),
			StartDateText: field(obj, "start_date"),
			EndDateText:   field(obj, "end_date"),
		})
	}
	return candidates, nil
}

func candidateItems(value any) ([]any, error) {
	switch v := value.(type) {
	case []any:
		return v, nil
	case map[string]any:
		if _, ok := v["name"]; ok {
			return []any{v}, nil
		}
		var lists [][]any
		for _, inner := range v {
			if list, ok := inner.([]any); ok {
				lists = append(lists, list)
			}
		}
		if len(lists) == 1 {
			return lists[0], nil
		}
		return nil, errors.New("model output object has no single schedule list")
	default:
		return nil, fmt.Errorf("model output is %T, want a list", value)
	}
}

func field(obj map[string]any, key string) string {
	switch v := obj[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
