package service_test

import (
	"context"
	"errors"
	"sync"
	"time"

	appErrors "github.com/unclebandit/ad-scheduler/internal/errors"
	"github.com/unclebandit/ad-scheduler/internal/llm"
	"github.com/unclebandit/ad-scheduler/internal/model"
	"github.com/unclebandit/ad-scheduler/internal/repository"
)

// naiveRepo has no overlap constraint of its own, so only the service lock protects it.
type naiveRepo struct {
	mu        sync.Mutex
	campaigns []model.Campaign
	delay     time.Duration
}

func (r *naiveRepo) Create(ctx context.Context, c *model.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = int64(len(r.campaigns) + 1)
	c.CreatedAt = time.Now()
	r.campaigns = append(r.campaigns, *c)
	return nil
}

func (r *naiveRepo) GetByID(ctx context.Context, id int64) (*model.Campaign, error) {
	return nil, appErrors.NewCampaignNotFound(id)
}

func (r *naiveRepo) ListCampaigns(ctx context.Context) ([]*model.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Campaign{}
	for i := range r.campaigns {
		c := r.campaigns[i]
		out = append(out, &c)
	}
	return out, nil
}

func (r *naiveRepo) FindOverlapping(ctx context.Context, start, end model.Date) (*model.Campaign, error) {
	time.Sleep(r.delay)
	r.mu.Lock()
	defer r.mu.Unlock()
	if c := repository.FirstOverlap(r.campaigns, start, end); c != nil {
		found := *c
		return &found, nil
	}
	return nil, nil
}

func (r *naiveRepo) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.campaigns), nil
}

func (r *naiveRepo) Ping(ctx context.Context) error { return nil }

// racingRepo simulates another process inserting between our conflict check and insert.
type racingRepo struct {
	naiveRepo
	winner model.Campaign
	raced  bool
}

func (r *racingRepo) FindOverlapping(ctx context.Context, start, end model.Date) (*model.Campaign, error) {
	if !r.raced {
		return nil, nil
	}
	w := r.winner
	return &w, nil
}

func (r *racingRepo) Create(ctx context.Context, c *model.Campaign) error {
	r.raced = true
	return appErrors.ErrOverlapViolation
}

type brokenRepo struct {
	naiveRepo
}

func (r *brokenRepo) FindOverlapping(ctx context.Context, start, end model.Date) (*model.Campaign, error) {
	return nil, errors.New("connection refused")
}

type recordingQueue struct {
	mu       sync.Mutex
	events   []model.CampaignScheduledEvent
	failWith error
}

func (q *recordingQueue) Publish(topic string, payload any) error {
	if q.failWith != nil {
		return q.failWith
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = append(q.events, payload.(model.CampaignScheduledEvent))
	return nil
}

func (q *recordingQueue) Subscribe(topic string, handler func(payload any) error) error { return nil }

type stubGenerator struct {
	calls  int
	models []llm.Model
	text   string
	err    error
}

func (g *stubGenerator) Generate(ctx context.Context, m llm.Model, prompt string) (string, error) {
	g.calls++
	g.models = append(g.models, m)
	return g.text, g.err
}
