package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/ad-scheduler/internal/errors"
	"github.com/unclebandit/ad-scheduler/internal/metrics"
	"github.com/unclebandit/ad-scheduler/internal/model"
)

// Rejection explains why one candidate was not stored.
type Rejection struct {
	Name   string         `json:"name"`
	Code   appErrors.Code `json:"code"`
	Reason string         `json:"reason"`
}

// BatchResult partitions a batch. Both slices keep the input order.
type BatchResult struct {
	Accepted []model.Campaign `json:"accepted"`
	Rejected []Rejection      `json:"rejected"`
}

// AcceptedNames lists accepted campaign names in order.
func (r BatchResult) AcceptedNames() []string {
	names := make([]string, 0, len(r.Accepted))
	for _, c := range r.Accepted {
		names = append(names, c.Name)
	}
	return names
}

// IngestBatch schedules uploaded candidates one at a time.
func (s *CampaignService) IngestBatch(ctx context.Context, candidates []model.CandidateRecord) BatchResult {
	return s.IngestBatchFrom(ctx, model.SourceUpload, candidates)
}

// IngestBatchFrom schedules candidates strictly in order against the live store, so a candidate
// accepted earlier in the batch can block a later one. Nothing is rolled back: each candidate
// succeeds or fails on its own.
func (s *CampaignService) IngestBatchFrom(ctx context.Context, source string, candidates []model.CandidateRecord) BatchResult {
	result := BatchResult{
		Accepted: []model.Campaign{},
		Rejected: []Rejection{},
	}
	metrics.RecordBatchSize(len(candidates))

	for i, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			for _, rest := range candidates[i:] {
				result.Rejected = append(result.Rejected, rejectionFor(rest, err))
			}
			s.logger().Warn("batch ingestion interrupted", zap.Int("remaining", len(candidates)-i), zap.Error(err))
			break
		}

		c, err := s.schedule(ctx, source, candidate.Name, candidate.StartDateText, candidate.EndDateText)
		if err != nil {
			result.Rejected = append(result.Rejected, rejectionFor(candidate, err))
			continue
		}
		result.Accepted = append(result.Accepted, *c)
	}

	s.logger().Info("batch ingested",
		zap.String("source", source),
		zap.Int("candidates", len(candidates)),
		zap.Int("accepted", len(result.Accepted)),
		zap.Int("rejected", len(result.Rejected)),
	)
	return result
}

func rejectionFor(candidate model.CandidateRecord, err error) Rejection {
	return Rejection{
		Name:   strings.TrimSpace(candidate.Name),
		Code:   appErrors.CodeOf(err),
		Reason: appErrors.MessageOf(err),
	}
}
