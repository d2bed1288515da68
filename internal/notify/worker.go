package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"ecoaceite/internal/logger"

	"github.com/nats-io/nats.go"
)

// Handler processes a single broker message.
type Handler interface {
	Process(ctx context.Context, msg *nats.Msg) error
}

// WorkerConfig holds the configuration for the pull subscriber worker pool.
type WorkerConfig struct {
	StreamName    string
	Subject       string
	DurableName   string
	BatchSize     int
	MaxConcurrent int
	MaxWait       time.Duration
	Handler       Handler
	JetStream     nats.JetStreamContext
}

// PullSubscriber processes messages from a JetStream pull subscription with
// a bounded number of concurrent handlers.
type PullSubscriber struct {
	config    WorkerConfig
	sub       *nats.Subscription
	semaphore chan struct{}
	wg        sync.WaitGroup
}

// NewPullSubscriber creates the durable consumer and its pull subscription.
func NewPullSubscriber(cfg WorkerConfig) (*PullSubscriber, error) {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 4
	}
	if cfg.MaxWait == 0 {
		cfg.MaxWait = 30 * time.Second
	}

	_, err := cfg.JetStream.AddConsumer(cfg.StreamName, &nats.ConsumerConfig{
		Durable:       cfg.DurableName,
		AckPolicy:     nats.AckExplicitPolicy,
		FilterSubject: cfg.Subject,
		MaxDeliver:    5,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer for subject %s: %w", cfg.Subject, err)
	}

	sub, err := cfg.JetStream.PullSubscribe(cfg.Subject, cfg.DurableName, nats.BindStream(cfg.StreamName))
	if err != nil {
		return nil, fmt.Errorf("failed to pull subscribe to subject %s: %w", cfg.Subject, err)
	}

	return &PullSubscriber{
		config:    cfg,
		sub:       sub,
		semaphore: make(chan struct{}, cfg.MaxConcurrent),
	}, nil
}

// Run fetches and dispatches messages until ctx is cancelled, then waits for
// in-flight handlers and unsubscribes.
func (ps *PullSubscriber) Run(ctx context.Context) {
	log := logger.Named("worker")
	log.Infow("subscriber started", "subject", ps.config.Subject, "durable", ps.config.DurableName)

	defer func() {
		ps.wg.Wait()
		if err := ps.sub.Unsubscribe(); err != nil {
			log.Warnw("unsubscribe failed", "subject", ps.config.Subject, "error", err)
		}
		log.Infow("subscriber stopped", "subject", ps.config.Subject)
	}()

	for ctx.Err() == nil {
		fetchCtx, cancel := context.WithTimeout(ctx, ps.config.MaxWait)
		msgs, err := ps.sub.Fetch(ps.config.BatchSize, nats.Context(fetchCtx))
		cancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, nats.ErrTimeout) || errors.Is(err, context.Canceled) {
				continue
			}
			log.Errorw("failed to fetch messages", "subject", ps.config.Subject, "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(5 * time.Second):
			}
			continue
		}

		for _, msg := range msgs {
			ps.semaphore <- struct{}{}
			ps.wg.Add(1)
			go ps.processMessage(ctx, msg)
		}
	}
}

func (ps *PullSubscriber) processMessage(parent context.Context, msg *nats.Msg) {
	defer func() {
		<-ps.semaphore
		ps.wg.Done()
	}()
	ProcessAndAck(parent, ps.config.Handler, msg)
}

// Acker is the acknowledgement side of a broker message.
type Acker interface {
	Ack(opts ...nats.AckOpt) error
	NakWithDelay(delay time.Duration, opts ...nats.AckOpt) error
	Term(opts ...nats.AckOpt) error
}

// ProcessAndAck runs h on msg and acknowledges it: Ack on success, Term on a
// malformed payload, delayed Nak on any other failure so it is redelivered.
func ProcessAndAck(parent context.Context, h Handler, msg *nats.Msg) {
	settle(parent, h, msg, msg)
}

func settle(parent context.Context, h Handler, msg *nats.Msg, ack Acker) {
	log := logger.Named("worker")

	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), time.Minute)
	defer cancel()

	err := h.Process(ctx, msg)
	switch {
	case err == nil:
		if err := ack.Ack(); err != nil {
			log.Errorw("failed to ack message", "subject", msg.Subject, "error", err)
		}
	case errors.Is(err, ErrMalformedEvent):
		log.Errorw("dropping malformed message", "subject", msg.Subject, "error", err)
		_ = ack.Term()
	default:
		log.Errorw("handler failed, message will be redelivered", "subject", msg.Subject, "error", err)
		_ = ack.NakWithDelay(15 * time.Second)
	}
}

// ErrMalformedEvent marks payloads that can never be processed.
var ErrMalformedEvent = errors.New("malformed event")

// EmailHandler turns notification events into emails.
type EmailHandler struct {
	Mailer Mailer
	From   string
	To     string
}

// Process implements Handler.
func (h *EmailHandler) Process(_ context.Context, msg *nats.Msg) error {
	var e Event
	if err := json.Unmarshal(msg.Data, &e); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if e.Type == "" {
		return fmt.Errorf("%w: missing type", ErrMalformedEvent)
	}
	if err := h.Mailer.DialAndSend(BuildMessage(h.From, h.To, e)); err != nil {
		return fmt.Errorf("failed to send email for %s: %w", e.Type, err)
	}
	logger.Named("worker").Infow("notification delivered", "type", e.Type, "resource_id", e.ResourceID)
	return nil
}
