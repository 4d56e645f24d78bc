package service

import (
	"context"

	"github.com/unclebandit/ad-scheduler/internal/model"
	"github.com/unclebandit/ad-scheduler/internal/repository"
)

// ConflictChecker answers whether a closed date range collides with a stored campaign.
// The range is assumed ordered; callers validate it first.
type ConflictChecker struct {
	Repo repository.CampaignRepositoryInterface
}

// HasConflict returns the earliest-starting stored campaign overlapping [start, end], or nil.
// The overlap predicate runs inside the store, not over a full listing.
func (c ConflictChecker) HasConflict(ctx context.Context, start, end model.Date) (*model.Campaign, error) {
	return c.Repo.FindOverlapping(ctx, start, end)
}
