package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	appErrors "github.com/unclebandit/ad-scheduler/internal/errors"
	"github.com/unclebandit/ad-scheduler/internal/model"
)

// MemoryCampaignRepository keeps campaigns in process memory. It refuses overlapping inserts the
// same way the Postgres exclusion constraint does.
type MemoryCampaignRepository struct {
	mu        sync.RWMutex
	nextID    int64
	campaigns []model.Campaign // sorted by start date, then id
}

func NewMemoryCampaignRepository() *MemoryCampaignRepository {
	return &MemoryCampaignRepository{nextID: 1}
}

func (r *MemoryCampaignRepository) Create(ctx context.Context, c *model.Campaign) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if FirstOverlap(r.campaigns, c.StartDate, c.EndDate) != nil {
		return appErrors.ErrOverlapViolation
	}
	c.ID = r.nextID
	c.CreatedAt = time.Now().UTC()
	r.nextID++

	i := sort.Search(len(r.campaigns), func(i int) bool {
		return c.StartDate.Before(r.campaigns[i].StartDate)
	})
	r.campaigns = append(r.campaigns, model.Campaign{})
	copy(r.campaigns[i+1:], r.campaigns[i:])
	r.campaigns[i] = *c
	return nil
}

func (r *MemoryCampaignRepository) GetByID(ctx context.Context, id int64) (*model.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.campaigns {
		if r.campaigns[i].ID == id {
			c := r.campaigns[i]
			return &c, nil
		}
	}
	return nil, appErrors.NewCampaignNotFound(id)
}

func (r *MemoryCampaignRepository) ListCampaigns(ctx context.Context) ([]*model.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.Campaign, 0, len(r.campaigns))
	for i := range r.campaigns {
		c := r.campaigns[i]
		out = append(out, &c)
	}
	return out, nil
}

func (r *MemoryCampaignRepository) FindOverlapping(ctx context.Context, start, end model.Date) (*model.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c := FirstOverlap(r.campaigns, start, end); c != nil {
		found := *c
		return &found, nil
	}
	return nil, nil
}

func (r *MemoryCampaignRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.campaigns), nil
}

func (r *MemoryCampaignRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

// FirstOverlap scans campaigns in order and returns the first one sharing a day with
// [start, end]. Campaigns must already be in ListCampaigns order.
func FirstOverlap(campaigns []model.Campaign, start, end model.Date) *model.Campaign {
	for i := range campaigns {
		if campaigns[i].Overlaps(start, end) {
			return &campaigns[i]
		}
	}
	return nil
}

var _ CampaignRepositoryInterface = (*MemoryCampaignRepository)(nil)
