package scheduler

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"prospect_backend/platform/config"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

type Client struct {
	client *asynq.Client
	queue  string
}

// RereadScheduler schedules the delayed authoritative re-read that
// follows a draft submission. The delay runs out regardless of what the
// user does in the meantime; scheduling is fire-and-forget.
type RereadScheduler interface {
	ScheduleEnrichmentReread(ctx context.Context, payload EnrichmentRereadPayload, delay time.Duration) error
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queue,
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// ScheduleEnrichmentReread enqueues a single delayed re-read. MaxRetry
// is zero: one authoritative read happens, a failed one only logs.
func (c *Client) ScheduleEnrichmentReread(ctx context.Context, payload EnrichmentRereadPayload, delay time.Duration) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewEnrichmentRereadTask(payload)
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.ProcessIn(delay), asynq.Queue(c.queue), asynq.MaxRetry(0))
	return err
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
