// Package app assembles the components the binaries share from a loaded Config.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/unclebandit/ad-scheduler/internal/config"
	"github.com/unclebandit/ad-scheduler/internal/db"
	"github.com/unclebandit/ad-scheduler/internal/llm"
	"github.com/unclebandit/ad-scheduler/internal/queue"
	"github.com/unclebandit/ad-scheduler/internal/repository"
)

// Store is the campaign repository plus whatever must be released with it.
type Store struct {
	Campaigns repository.CampaignRepositoryInterface
	Driver    string
	close     func() error
}

func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenStore opens the store named by cfg.Database.Driver.
func OpenStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Store, error) {
	if cfg.Database.Driver == config.DriverMemory {
		logger.Warn("using in-memory campaign store; campaigns are lost on exit")
		return &Store{Campaigns: repository.NewMemoryCampaignRepository(), Driver: config.DriverMemory}, nil
	}
	conn, err := db.Open(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	return &Store{
		Campaigns: repository.NewCampaignRepository(conn),
		Driver:    cfg.Database.Driver,
		close:     conn.Close,
	}, nil
}

// NewGenerator picks the model runtime transport.
func NewGenerator(cfg *config.Config) (llm.Generator, error) {
	switch cfg.LLM.Transport {
	case config.TransportHTTP:
		return llm.NewOllamaClient(cfg.LLM.BaseURL, cfg.LLM.Timeout()), nil
	case config.TransportCLI:
		return llm.NewCommandGenerator(cfg.LLM.Command, cfg.LLM.Timeout()), nil
	default:
		return nil, fmt.Errorf("unsupported LLM transport %q", cfg.LLM.Transport)
	}
}

// Events is the queue scheduled-campaign events go to.
type Events struct {
	Queue queue.Queue
	close func()
}

func (e *Events) Close() {
	if e.close != nil {
		e.close()
	}
}

// NewEvents publishes to RabbitMQ when AMQP_URL is set, otherwise to an in-process queue whose
// subscriber logs each event.
func NewEvents(cfg *config.Config, logger *zap.Logger) (*Events, error) {
	if cfg.AMQP.URL != "" {
		q, err := queue.DialAMQP(cfg.AMQP.URL, cfg.AMQP.Queue)
		if err != nil {
			return nil, err
		}
		logger.Info("publishing campaign events to RabbitMQ", zap.String("queue", cfg.AMQP.Queue))
		return &Events{Queue: q, close: func() {
			if err := q.Close(); err != nil {
				logger.Warn("failed to close RabbitMQ connection", zap.Error(err))
			}
		}}, nil
	}

	q := queue.NewInMemoryQueue(logger)
	if err := queue.StartCampaignScheduledSubscriber(q, logger); err != nil {
		return nil, err
	}
	return &Events{Queue: q, close: q.Drain}, nil
}
