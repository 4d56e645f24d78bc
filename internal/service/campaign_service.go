// internal/service/campaign_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/ad-scheduler/internal/errors"
	"github.com/unclebandit/ad-scheduler/internal/logging"
	"github.com/unclebandit/ad-scheduler/internal/metrics"
	"github.com/unclebandit/ad-scheduler/internal/model"
	"github.com/unclebandit/ad-scheduler/internal/queue"
	"github.com/unclebandit/ad-scheduler/internal/repository"
)

// CampaignService schedules campaigns. All writes go through it so that the conflict check and
// the insert that follows it happen under one lock.
type CampaignService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	Queue        queue.Queue // optional
	Logger       *zap.Logger

	mu sync.Mutex
}

func NewCampaignService(repo repository.CampaignRepositoryInterface, q queue.Queue, logger *zap.Logger) *CampaignService {
	return &CampaignService{
		CampaignRepo: repo,
		Queue:        q,
		Logger:       logging.OrNop(logger).Named("campaigns"),
	}
}

// ScheduleCampaign validates and stores one manually submitted campaign.
func (s *CampaignService) ScheduleCampaign(ctx context.Context, name, startDate, endDate string) (*model.Campaign, error) {
	return s.schedule(ctx, model.SourceManual, name, startDate, endDate)
}

// ListCampaigns returns every campaign by ascending start date.
func (s *CampaignService) ListCampaigns(ctx context.Context) ([]*model.Campaign, error) {
	return s.CampaignRepo.ListCampaigns(ctx)
}

// GetCampaign fetches a campaign by ID
func (s *CampaignService) GetCampaign(ctx context.Context, id int64) (*model.Campaign, error) {
	return s.CampaignRepo.GetByID(ctx, id)
}

// ValidateCandidate checks name, date format and ordering, in that order, without touching the
// store.
func ValidateCandidate(name, startDate, endDate string) (string, model.Date, model.Date, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", model.Date{}, model.Date{}, &appErrors.ErrMissingName{}
	}
	start, err := model.ParseDate(startDate)
	if err != nil {
		return "", model.Date{}, model.Date{}, &appErrors.ErrInvalidDateFormat{Field: "start_date", Value: startDate}
	}
	end, err := model.ParseDate(endDate)
	if err != nil {
		return "", model.Date{}, model.Date{}, &appErrors.ErrInvalidDateFormat{Field: "end_date", Value: endDate}
	}
	if end.Before(start) {
		return "", model.Date{}, model.Date{}, &appErrors.ErrInvalidRange{Start: start, End: end}
	}
	return name, start, end, nil
}

func (s *CampaignService) schedule(ctx context.Context, source, name, startDate, endDate string) (*model.Campaign, error) {
	logger := s.logger()

	cleanName, start, end, err := ValidateCandidate(name, startDate, endDate)
	if err != nil {
		s.recordRejection(source, name, err)
		return nil, err
	}

	c := &model.Campaign{Name: cleanName, StartDate: start, EndDate: end}
	if err := s.insertIfFree(ctx, c); err != nil {
		s.recordRejection(source, cleanName, err)
		return nil, err
	}

	metrics.RecordScheduleOutcome(source, "accepted")
	logger.Info("scheduled new campaign",
		zap.Int64("id", c.ID),
		zap.String("name", c.Name),
		zap.String("start_date", c.StartDate.String()),
		zap.String("end_date", c.EndDate.String()),
		zap.String("source", source),
	)
	s.publishScheduled(c, source)
	return c, nil
}

// insertIfFree is the only write path. The lock covers one candidate, so a batch lets other
// requests in between its rows.
func (s *CampaignService) insertIfFree(ctx context.Context, c *model.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	checker := ConflictChecker{Repo: s.CampaignRepo}
	conflict, err := checker.HasConflict(ctx, c.StartDate, c.EndDate)
	if err != nil {
		return err
	}
	if conflict != nil {
		return &appErrors.ErrSchedulingConflict{Conflict: *conflict}
	}

	err = s.CampaignRepo.Create(ctx, c)
	if errors.Is(err, appErrors.ErrOverlapViolation) {
		// another process won the race; name the campaign it stored
		conflict, lookupErr := checker.HasConflict(ctx, c.StartDate, c.EndDate)
		if lookupErr == nil && conflict != nil {
			return &appErrors.ErrSchedulingConflict{Conflict: *conflict}
		}
		return err
	}
	if err != nil {
		return err
	}
	return nil
}

func (s *CampaignService) publishScheduled(c *model.Campaign, source string) {
	if s.Queue == nil {
		return
	}
	if err := s.Queue.Publish(queue.TopicCampaignScheduled, model.NewScheduledEvent(c, source)); err != nil {
		// the campaign is stored either way
		s.logger().Warn("failed to publish scheduled event", zap.Int64("id", c.ID), zap.Error(err))
	}
}

func (s *CampaignService) recordRejection(source, name string, err error) {
	code := appErrors.CodeOf(err)
	metrics.RecordScheduleOutcome(source, string(code))
	if code == appErrors.CodeStoreFailure {
		s.logger().Error("campaign store failure", zap.String("name", name), zap.Error(err))
		return
	}
	s.logger().Info("campaign rejected",
		zap.String("name", name),
		zap.String("code", string(code)),
		zap.String("reason", err.Error()),
		zap.String("source", source),
	)
}

func (s *CampaignService) logger() *zap.Logger {
	return logging.OrNop(s.Logger)
}

// Describe renders a campaign for log lines and CLI output.
func Describe(c *model.Campaign) string {
	return fmt.Sprintf("%s (%s to %s)", c.Name, c.StartDate, c.EndDate)
}
