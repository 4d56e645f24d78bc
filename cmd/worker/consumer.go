package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/streadway/amqp"
	"go.uber.org/zap"

	appErrors "github.com/unclebandit/ad-scheduler/internal/errors"
	"github.com/unclebandit/ad-scheduler/internal/model"
	"github.com/unclebandit/ad-scheduler/internal/queue"
	"github.com/unclebandit/ad-scheduler/internal/repository"
)

const (
	retryHeader = "x-retry-count"
	maxRetries  = 3
)

var errPermanent = errors.New("event cannot be processed")

// republishFunc puts a failed delivery back on the queue with new headers.
type republishFunc func(ctx context.Context, headers amqp.Table, d amqp.Delivery) error

type consumer struct {
	// Campaigns is optional; without it events are announced without a store lookup.
	Campaigns repository.CampaignRepositoryInterface
	Republish republishFunc
	Logger    *zap.Logger
}

// processEvent announces a scheduled campaign once it is confirmed in the store.
func (c *consumer) processEvent(ctx context.Context, body []byte) error {
	var event model.CampaignScheduledEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%w: invalid payload: %v", errPermanent, err)
	}
	if event.CampaignID <= 0 {
		return fmt.Errorf("%w: missing campaign_id", errPermanent)
	}

	if c.Campaigns != nil {
		stored, err := c.Campaigns.GetByID(ctx, event.CampaignID)
		var notFound *appErrors.ErrCampaignNotFound
		if errors.As(err, &notFound) {
			return fmt.Errorf("%w: %v", errPermanent, err)
		}
		if err != nil {
			return err
		}
		event.Name = stored.Name
		event.StartDate = stored.StartDate
		event.EndDate = stored.EndDate
	}

	c.Logger.Info("campaign launch scheduled",
		zap.Int64("campaign_id", event.CampaignID),
		zap.String("name", event.Name),
		zap.String("start_date", event.StartDate.String()),
		zap.String("end_date", event.EndDate.String()),
		zap.String("source", event.Source),
	)
	return nil
}

// handle acks every delivery. Transient failures are republished with an incremented retry count
// until maxRetries is reached.
func (c *consumer) handle(ctx context.Context, d amqp.Delivery) {
	if d.Type != "" && d.Type != queue.TopicCampaignScheduled {
		c.Logger.Warn("skipping unknown message type", zap.String("type", d.Type))
		_ = d.Ack(false)
		return
	}

	err := c.processEvent(ctx, d.Body)
	switch {
	case err == nil:
	case errors.Is(err, errPermanent):
		c.Logger.Warn("dropping event", zap.Error(err))
	default:
		retries := retryCount(d.Headers)
		if retries >= maxRetries {
			c.Logger.Error("event failed after max retries", zap.Int("retries", retries), zap.Error(err))
			break
		}
		headers := amqp.Table{}
		for k, v := range d.Headers {
			headers[k] = v
		}
		headers[retryHeader] = int32(retries + 1)
		if pubErr := c.Republish(ctx, headers, d); pubErr != nil {
			c.Logger.Error("failed to requeue event", zap.Error(pubErr))
			_ = d.Nack(false, true)
			return
		}
		c.Logger.Warn("event requeued", zap.Int("retry", retries+1), zap.Error(err))
	}
	_ = d.Ack(false)
}

func retryCount(headers amqp.Table) int {
	switch v := headers[retryHeader].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	default:
		return 0
	}
}
