package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/unclebandit/ad-scheduler/internal/extract"
	"github.com/unclebandit/ad-scheduler/internal/model"
	"github.com/unclebandit/ad-scheduler/internal/repository"
	"github.com/unclebandit/ad-scheduler/internal/service"
)

type candidateExtractor interface {
	Extract(ctx context.Context, filename string, payload []byte) []model.CandidateRecord
}

type seeder struct {
	Service   *service.CampaignService
	Extractor candidateExtractor
	Logger    *zap.Logger
}

// seedFile ingests one file. Unreadable JSON is an error; documents the model cannot read just
// yield no candidates, as with uploads.
func (s *seeder) seedFile(ctx context.Context, path string) (service.BatchResult, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return service.BatchResult{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var candidates []model.CandidateRecord
	if strings.EqualFold(filepath.Ext(path), ".json") {
		candidates, err = extract.DecodeCandidates(string(payload))
		if err != nil {
			return service.BatchResult{}, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else {
		candidates = s.Extractor.Extract(ctx, filepath.Base(path), payload)
	}

	s.Logger.Info("seeding campaigns", zap.String("file", path), zap.Int("candidates", len(candidates)))
	return s.Service.IngestBatchFrom(ctx, model.SourceSeed, candidates), nil
}

// snapshot copies the current schedule into memory so a dry run sees real conflicts.
func snapshot(ctx context.Context, src repository.CampaignRepositoryInterface) (*repository.MemoryCampaignRepository, error) {
	existing, err := src.ListCampaigns(ctx)
	if err != nil {
		return nil, err
	}
	mem := repository.NewMemoryCampaignRepository()
	for _, c := range existing {
		c := *c
		if err := mem.Create(ctx, &c); err != nil {
			return nil, fmt.Errorf("copy campaign %d: %w", c.ID, err)
		}
	}
	return mem, nil
}
