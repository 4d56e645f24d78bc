package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unclebandit/ad-scheduler/internal/config"
	"github.com/unclebandit/ad-scheduler/internal/llm"
	"github.com/unclebandit/ad-scheduler/internal/model"
	"github.com/unclebandit/ad-scheduler/internal/queue"
	"github.com/unclebandit/ad-scheduler/internal/repository"
)

func load(t *testing.T, env map[string]string) *config.Config {
	t.Helper()
	cfg, err := config.LoadWith(context.Background(), envconfig.MapLookuper(env))
	require.NoError(t, err)
	return cfg
}

func TestOpenStoreMemory(t *testing.T) {
	store, err := OpenStore(context.Background(), load(t, map[string]string{"DB_DRIVER": "memory"}), zap.NewNop())
	require.NoError(t, err)
	defer store.Close()

	assert.IsType(t, &repository.MemoryCampaignRepository{}, store.Campaigns)
	assert.NoError(t, store.Close())
}

func TestOpenStoreSQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ads.db")
	store, err := OpenStore(context.Background(), load(t, map[string]string{"DB_PATH": path}), zap.NewNop())
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	c := &model.Campaign{Name: "Spring Sale", StartDate: model.NewDate(2024, 3, 1), EndDate: model.NewDate(2024, 3, 31)}
	require.NoError(t, store.Campaigns.Create(ctx, c))
	require.NoError(t, store.Campaigns.Ping(ctx))
	assert.Equal(t, config.DriverSQLite, store.Driver)
}

func TestNewGenerator(t *testing.T) {
	gen, err := NewGenerator(load(t, nil))
	require.NoError(t, err)
	assert.IsType(t, &llm.OllamaClient{}, gen)

	gen, err = NewGenerator(load(t, map[string]string{"LLM_TRANSPORT": "cli"}))
	require.NoError(t, err)
	assert.IsType(t, &llm.CommandGenerator{}, gen)
}

func TestNewEventsInMemory(t *testing.T) {
	events, err := NewEvents(load(t, nil), zap.NewNop())
	require.NoError(t, err)
	defer events.Close()

	c := &model.Campaign{ID: 1, Name: "Spring Sale", StartDate: model.NewDate(2024, 3, 1), EndDate: model.NewDate(2024, 3, 31)}
	assert.NoError(t, events.Queue.Publish(queue.TopicCampaignScheduled, model.NewScheduledEvent(c, model.SourceManual)))
}
