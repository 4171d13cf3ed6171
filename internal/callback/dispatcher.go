package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/nexusgw/gateway/internal/errs"
	"github.com/nexusgw/gateway/internal/model"
)

const (
	attemptTimeout = 10 * time.Second
	defaultRetries = 3

	// Subject is the NATS subject delivery jobs are published to; a
	// queue group of subscribers, one per process, drains it so each
	// job is delivered by exactly one subscriber (spec §9).
	Subject = "nexus.callbacks.deliver"
	queueGroup = "callback-dispatchers"
)

// Job is one scheduled callback delivery.
type Job struct {
	CallbackURL string
	UETR        string
	StatusXML   string
	TxStatus    string // ACCC or RJCT, goes in X-Transaction-Status
	ActorSecret string
	MaxRetries  int
}

// Recorder persists the callback's outcome as an event, the only trace
// the rest of the system keeps of a dispatch (spec §4.6).
type Recorder interface {
	CommitEvent(ctx context.Context, event model.PaymentEvent) error
}

// Dispatcher delivers Jobs through a bounded pool of goroutines draining
// a NATS subject, replacing the source's ambient asyncio.create_task
// fire-and-forget with an explicit worker pool (spec §9): Schedule
// publishes, and each process holds one queue-group subscription on
// Subject, so a job is delivered by exactly one subscribed process.
// When nc is nil (sandbox/test, no broker configured) Schedule falls
// back to an in-process channel of queueDepth jobs drained by
// d.workers goroutines, so the dispatcher works without NATS wired up.
type Dispatcher struct {
	client   *http.Client
	nc       *nats.Conn
	fallback chan Job
	workers  int
	recorder Recorder
	logger   *zap.Logger
	seq      func() int64
}

// New builds a Dispatcher. nc may be nil, in which case Schedule uses
// an in-process channel instead of NATS (sandbox/test mode).
func New(nc *nats.Conn, workers, queueDepth int, recorder Recorder, logger *zap.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{
		client:   &http.Client{Timeout: attemptTimeout},
		nc:       nc,
		fallback: make(chan Job, queueDepth),
		workers:  workers,
		recorder: recorder,
		logger:   logger,
		seq:      sequenceCounter(),
	}
}

func sequenceCounter() func() int64 {
	var n int64
	return func() int64 {
		n++
		return n
	}
}

// Run starts the worker pool. Blocks until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	if d.nc != nil {
		sub, err := d.nc.QueueSubscribe(Subject, queueGroup, func(msg *nats.Msg) {
			var job Job
			if err := json.Unmarshal(msg.Data, &job); err != nil {
				d.logger.Error("malformed callback job on subject", zap.Error(err))
				return
			}
			d.deliver(ctx, job)
		})
		if err != nil {
			d.logger.Error("nats subscribe failed, falling back to in-process queue", zap.Error(err))
			d.nc = nil
		} else {
			defer sub.Unsubscribe()
		}
	}
	if d.nc == nil {
		for i := 0; i < d.workers; i++ {
			go d.worker(ctx)
		}
	}
	<-ctx.Done()
}

func (d *Dispatcher) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-d.fallback:
			d.deliver(ctx, job)
		}
	}
}

// Schedule enqueues job without blocking the caller (spec §4.6: "must
// not block the acknowledgement response"). If the queue is full the
// job is dropped and a delivery-failure event recorded immediately,
// since an unbounded queue would let a slow downstream exhaust memory.
func (d *Dispatcher) Schedule(ctx context.Context, job Job) {
	if job.MaxRetries <= 0 {
		job.MaxRetries = defaultRetries
	}
	if d.nc != nil {
		data, err := json.Marshal(job)
		if err != nil {
			d.logger.Error("failed to marshal callback job", zap.Error(err))
			d.recordFailure(ctx, job, err)
			return
		}
		if err := d.nc.Publish(Subject, data); err != nil {
			d.logger.Warn("nats publish failed, dropping job", zap.String("uetr", job.UETR), zap.Error(err))
			d.recordFailure(ctx, job, err)
		}
		return
	}
	select {
	case d.fallback <- job:
	default:
		d.logger.Warn("callback queue full, dropping job", zap.String("uetr", job.UETR))
		d.recordFailure(ctx, job, fmt.Errorf("callback queue full"))
	}
}

func (d *Dispatcher) deliver(ctx context.Context, job Job) {
	if job.CallbackURL == "" {
		d.logger.Warn("no callback url, skipping delivery", zap.String("uetr", job.UETR))
		return
	}

	var lastErr error
	for attempt := 1; attempt <= job.MaxRetries; attempt++ {
		if attempt > 1 {
			backoff := time.Duration(1<<uint(attempt-2)) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
		err := d.attempt(attemptCtx, job)
		cancel()
		if err == nil {
			d.recordSuccess(ctx, job)
			return
		}
		lastErr = err
		d.logger.Warn("callback delivery attempt failed",
			zap.String("uetr", job.UETR), zap.Int("attempt", attempt), zap.Error(err))
	}

	d.recordFailure(ctx, job, lastErr)
}

func (d *Dispatcher) attempt(ctx context.Context, job Job) error {
	timestamp := time.Now().UTC().Format(time.RFC3339)
	signature := Sign(job.ActorSecret, timestamp, job.UETR, job.StatusXML)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, job.CallbackURL, bytes.NewBufferString(job.StatusXML))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/xml")
	req.Header.Set("X-UETR", job.UETR)
	req.Header.Set("X-Message-Type", "pacs.002")
	req.Header.Set("X-Transaction-Status", job.TxStatus)
	req.Header.Set("X-Callback-Timestamp", timestamp)
	req.Header.Set("X-Callback-Signature", signature)
	req.Header.Set("X-Callback-Version", "1")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("transport: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
		return nil
	default:
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
}

func (d *Dispatcher) recordSuccess(ctx context.Context, job Job) {
	d.logger.Info("callback delivered", zap.String("uetr", job.UETR), zap.String("status", job.TxStatus))
	if d.recorder == nil {
		return
	}
	_ = d.recorder.CommitEvent(ctx, model.PaymentEvent{
		EventID:    eventID(job.UETR, d.seq()),
		UETR:       job.UETR,
		EventType:  model.EventCallbackDelivered,
		Actor:      "gateway",
		Data:       map[string]any{"status": job.TxStatus, "callbackUrl": job.CallbackURL},
		OccurredAt: time.Now().UTC(),
		Sequence:   d.seq(),
	})
}

func (d *Dispatcher) recordFailure(ctx context.Context, job Job, cause error) {
	d.logger.Error("callback delivery failed after retries",
		zap.String("uetr", job.UETR), zap.Error(errs.ErrCallbackDeliveryFailed.With(cause)))
	if d.recorder == nil {
		return
	}
	_ = d.recorder.CommitEvent(ctx, model.PaymentEvent{
		EventID:    eventID(job.UETR, d.seq()),
		UETR:       job.UETR,
		EventType:  model.EventCallbackFailed,
		Actor:      "gateway",
		Data:       map[string]any{"callbackUrl": job.CallbackURL, "error": cause.Error()},
		OccurredAt: time.Now().UTC(),
		Sequence:   d.seq(),
	})
}

func eventID(uetr string, seq int64) string {
	return fmt.Sprintf("%s-cb-%d", uetr, seq)
}
