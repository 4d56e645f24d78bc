package queue

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/unclebandit/ad-scheduler/internal/logging"
	"github.com/unclebandit/ad-scheduler/internal/model"
)

// TopicCampaignScheduled carries a model.CampaignScheduledEvent for every stored campaign.
const TopicCampaignScheduled = "campaign.scheduled"

// Queue interface
type Queue interface {
	Publish(topic string, payload any) error
	Subscribe(topic string, handler func(payload any) error) error
}

// InMemoryQueue delivers to in-process subscribers with retry
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]func(payload any) error
	logger   *zap.Logger
	wg       sync.WaitGroup

	maxRetries int
	backoff    time.Duration
}

// NewInMemoryQueue creates a new queue
func NewInMemoryQueue(logger *zap.Logger) *InMemoryQueue {
	return &InMemoryQueue{
		handlers:   make(map[string][]func(payload any) error),
		logger:     logging.OrNop(logger).Named("queue"),
		maxRetries: 3,
		backoff:    500 * time.Millisecond,
	}
}

// JobPayload wraps a message payload with retry info
type JobPayload struct {
	Topic      string
	Payload    any
	RetryCount int
	MaxRetries int
}

// Publish sends a message to all subscribers
func (q *InMemoryQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	for _, handler := range handlers {
		job := JobPayload{
			Topic:      topic,
			Payload:    payload,
			MaxRetries: q.maxRetries,
		}
		q.wg.Add(1)
		go q.processJob(handler, job)
	}

	return nil
}

// processJob handles retries and errors
func (q *InMemoryQueue) processJob(handler func(payload any) error, job JobPayload) {
	defer q.wg.Done()
	for job.RetryCount <= job.MaxRetries {
		err := handler(job.Payload)
		if err == nil {
			return // ACK
		}

		job.RetryCount++
		q.logger.Warn("job failed",
			zap.String("topic", job.Topic),
			zap.Int("attempt", job.RetryCount),
			zap.Int("max_retries", job.MaxRetries),
			zap.Error(err),
		)

		if job.RetryCount > job.MaxRetries {
			q.logger.Error("job permanently failed", zap.String("topic", job.Topic), zap.Int("attempts", job.RetryCount))
			return // No requeue
		}

		// linear backoff before retry
		time.Sleep(time.Duration(job.RetryCount) * q.backoff)
	}
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler func(payload any) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// Drain blocks until every published job has finished, including retries.
func (q *InMemoryQueue) Drain() {
	q.wg.Wait()
}

// StartCampaignScheduledSubscriber logs every scheduled campaign. It is the in-process stand-in
// for cmd/worker when no broker is configured.
func StartCampaignScheduledSubscriber(q Queue, logger *zap.Logger) error {
	logger = logging.OrNop(logger).Named("scheduled-subscriber")
	err := q.Subscribe(TopicCampaignScheduled, func(payload any) error {
		event, ok := payload.(model.CampaignScheduledEvent)
		if !ok {
			logger.Warn("invalid payload type", zap.String("type", fmt.Sprintf("%T", payload)))
			return nil // no retry
		}
		logger.Info("campaign scheduled",
			zap.Int64("campaign_id", event.CampaignID),
			zap.String("name", event.Name),
			zap.String("start_date", event.StartDate.String()),
			zap.String("end_date", event.EndDate.String()),
			zap.String("source", event.Source),
		)
		return nil
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", TopicCampaignScheduled, err)
	}
	return nil
}
