package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Job types carried in SweepMessage.JobType.
const (
	JobCoverageSweep = "coverage_sweep"
	JobHealthCheck   = "health_check"
)

// PubSubHandler handles Pub/Sub messages for the worker.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	dispatcher       *Dispatcher
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	SweepJob         *SweepJob
	Logger           zerolog.Logger
}

// SweepMessage is a worker job message.
type SweepMessage struct {
	JobType string `json:"job_type"`
	// Regions limits a sweep to the named regions. Empty sweeps all.
	Regions []string `json:"regions,omitempty"`
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// A sweep runs for minutes; one message at a time per instance.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 1
	subscriber.ReceiveSettings.MaxExtension = 15 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		dispatcher:       NewDispatcher(cfg.SweepJob, cfg.Logger),
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing Pub/Sub messages. It blocks until ctx is done.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		logger := h.logger.With().
			Str("message_id", msg.ID).
			Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
			Logger()
		if h.dispatcher.Handle(logger.WithContext(ctx), msg.Data) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

// Dispatcher decodes job messages and runs them. It is independent of the
// transport so the ticker loop and tests share it.
type Dispatcher struct {
	job    *SweepJob
	logger zerolog.Logger
}

// NewDispatcher creates a dispatcher for job.
func NewDispatcher(job *SweepJob, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{job: job, logger: logger}
}

// Handle runs the job in data and reports whether the message should be
// acknowledged. Malformed and unknown messages are acknowledged so they are
// not redelivered; failed jobs are not.
func (d *Dispatcher) Handle(ctx context.Context, data []byte) bool {
	logger := d.logger
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		logger = *l
	}
	logger = logger.With().Str("job_id", uuid.NewString()).Logger()
	start := time.Now()

	var msg SweepMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		logger.Error().Err(err).Msg("failed to parse message")
		return true
	}

	var err error
	switch msg.JobType {
	case JobCoverageSweep:
		err = d.Sweep(ctx, msg.Regions)
	case JobHealthCheck:
		err = d.job.HealthCheck(ctx)
	default:
		logger.Warn().Str("job_type", msg.JobType).Msg("unknown job type")
		return true
	}

	if err != nil {
		logger.Error().Err(err).Str("job_type", msg.JobType).Msg("job failed")
		return false
	}

	logger.Info().
		Str("job_type", msg.JobType).
		Dur("duration", time.Since(start)).
		Msg("job completed successfully")
	return true
}

// Sweep runs a coverage sweep over the named regions, or all of them. It
// fails when more regions failed than succeeded.
func (d *Dispatcher) Sweep(ctx context.Context, names []string) error {
	regions := d.job.Config().Named(names)
	if len(regions) == 0 {
		return fmt.Errorf("no configured region matches %v", names)
	}

	result := d.job.RunRegions(ctx, regions)
	if result.Failed > result.Successful {
		return fmt.Errorf("too many sweep failures: %d/%d", result.Failed, len(regions))
	}
	return nil
}
