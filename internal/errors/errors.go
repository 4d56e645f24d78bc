// internal/errors/errors.go
package appErrors

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/unclebandit/ad-scheduler/internal/model"
)

// Code is the stable tag attached to every rejection the service reports.
type Code string

const (
	CodeMissingName        Code = "missing_name"
	CodeInvalidDateFormat  Code = "invalid_date_format"
	CodeInvalidRange       Code = "invalid_range"
	CodeSchedulingConflict Code = "scheduling_conflict"
	CodeCampaignNotFound   Code = "campaign_not_found"
	CodeModelUnavailable   Code = "model_unavailable"
	CodeGenerationTimeout  Code = "generation_timeout"
	CodeGenerationError    Code = "generation_error"
	CodeExtractionFailure  Code = "extraction_failure"
	CodeInvalidInput       Code = "invalid_input"
	CodeCancelled          Code = "cancelled"
	CodeStoreFailure       Code = "store_failure"
	CodeRateLimited        Code = "rate_limited"
)

// ErrOverlapViolation is returned by a store whose own constraint rejected an overlapping insert.
var ErrOverlapViolation = errors.New("campaign overlaps an existing campaign")

// ErrCampaignNotFound is a sentinel error
type ErrCampaignNotFound struct {
	CampaignID int64
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign with ID %d not found", e.CampaignID)
}

// Helper constructor
func NewCampaignNotFound(id int64) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

type ErrMissingName struct{}

func (e *ErrMissingName) Error() string {
	return "Campaign name is required."
}

// ErrInvalidDateFormat names the first field that failed to parse.
type ErrInvalidDateFormat struct {
	Field string
	Value string
}

func (e *ErrInvalidDateFormat) Error() string {
	return "Invalid date format. Please use YYYY-MM-DD."
}

type ErrInvalidRange struct {
	Start model.Date
	End   model.Date
}

func (e *ErrInvalidRange) Error() string {
	return "End date cannot be before start date."
}

// ErrSchedulingConflict carries the stored campaign that blocked the candidate.
type ErrSchedulingConflict struct {
	Conflict model.Campaign
}

func (e *ErrSchedulingConflict) Error() string {
	return fmt.Sprintf("Conflict with existing campaign: %s scheduled from %s to %s.",
		e.Conflict.Name, e.Conflict.StartDate, e.Conflict.EndDate)
}

type ErrModelUnavailable struct {
	Model string
}

func (e *ErrModelUnavailable) Error() string {
	return fmt.Sprintf("Model '%s' is not available. Please select a valid model.", e.Model)
}

type ErrGenerationTimeout struct {
	Model   string
	Timeout time.Duration
}

func (e *ErrGenerationTimeout) Error() string {
	return fmt.Sprintf("Error: Request timed out. Model %s took longer than %s.", e.Model, e.Timeout)
}

type ErrGenerationError struct {
	Model string
	Err   error
}

func (e *ErrGenerationError) Error() string {
	return fmt.Sprintf("Error calling %s: %v", e.Model, e.Err)
}

func (e *ErrGenerationError) Unwrap() error { return e.Err }

// ErrExtractionFailure is logged by the extractor and never returned to callers, who see an
// empty candidate list instead.
type ErrExtractionFailure struct {
	Format string
	Err    error
}

func (e *ErrExtractionFailure) Error() string {
	return fmt.Sprintf("extract schedule from %s document: %v", e.Format, e.Err)
}

func (e *ErrExtractionFailure) Unwrap() error { return e.Err }

type ErrInvalidInput struct {
	Message string
}

func (e *ErrInvalidInput) Error() string { return e.Message }

// CodeOf maps any error, wrapped or not, to its rejection code.
func CodeOf(err error) Code {
	var (
		missing   *ErrMissingName
		format    *ErrInvalidDateFormat
		rng       *ErrInvalidRange
		conflict  *ErrSchedulingConflict
		notFound  *ErrCampaignNotFound
		unavail   *ErrModelUnavailable
		timeout   *ErrGenerationTimeout
		genErr    *ErrGenerationError
		extract   *ErrExtractionFailure
		invalidIn *ErrInvalidInput
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &missing):
		return CodeMissingName
	case errors.As(err, &format):
		return CodeInvalidDateFormat
	case errors.As(err, &rng):
		return CodeInvalidRange
	case errors.As(err, &conflict), errors.Is(err, ErrOverlapViolation):
		return CodeSchedulingConflict
	case errors.As(err, &notFound):
		return CodeCampaignNotFound
	case errors.As(err, &unavail):
		return CodeModelUnavailable
	case errors.As(err, &timeout):
		return CodeGenerationTimeout
	case errors.As(err, &genErr):
		return CodeGenerationError
	case errors.As(err, &extract):
		return CodeExtractionFailure
	case errors.As(err, &invalidIn):
		return CodeInvalidInput
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CodeCancelled
	default:
		return CodeStoreFailure
	}
}

// MessageOf returns the user-facing message for err. Unexpected errors get a generic message so
// driver details never leak to the page.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	switch CodeOf(err) {
	case CodeStoreFailure:
		return "The campaign store is unavailable. Please try again."
	case CodeCancelled:
		return "The request was cancelled before it finished."
	}
	// typed errors carry their own user-facing text; unwrap past fmt.Errorf context
	for e := err; e != nil; e = errors.Unwrap(e) {
		if isTyped(e) {
			return e.Error()
		}
	}
	if errors.Is(err, ErrOverlapViolation) {
		return ErrOverlapViolation.Error()
	}
	return err.Error()
}

func isTyped(err error) bool {
	switch err.(type) {
	case *ErrMissingName, *ErrInvalidDateFormat, *ErrInvalidRange, *ErrSchedulingConflict,
		*ErrCampaignNotFound, *ErrModelUnavailable, *ErrGenerationTimeout, *ErrGenerationError,
		*ErrExtractionFailure, *ErrInvalidInput:
		return true
	}
	return false
}
