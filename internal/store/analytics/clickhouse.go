// Package analytics is a best-effort, fire-and-forget mirror of
// committed payment events into ClickHouse for audit/reporting queries
// (spec §9's "fee tables duplicated" note has a cousin problem here:
// the teacher's ClickHouseConfig exists for exactly this shape of
// columnar analytics sink, so the mirror is additive and never sits on
// the write path's critical section — a dropped mirror write never
// fails the request that produced it).
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	"github.com/nexusgw/gateway/internal/model"
)

// Mirror batches events in memory and flushes them to ClickHouse on a
// fixed interval or when the batch fills, matching a typical
// clickhouse-go async-insert usage pattern.
type Mirror struct {
	conn      clickhouse.Conn
	queue     chan model.PaymentEvent
	batchSize int
	flushEvery time.Duration
	done      chan struct{}
}

// New dials dsn and starts the background flusher. Call Close to drain
// and stop it.
func New(dsn string) (*Mirror, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse clickhouse dsn: %w", err)
	}
	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}
	m := &Mirror{
		conn:       conn,
		queue:      make(chan model.PaymentEvent, 4096),
		batchSize:  500,
		flushEvery: 2 * time.Second,
		done:       make(chan struct{}),
	}
	go m.run()
	return m, nil
}

// Send enqueues event for the next flush. Non-blocking: if the queue is
// full the event is dropped rather than backpressuring the caller,
// consistent with the mirror being best-effort, not authoritative.
func (m *Mirror) Send(event model.PaymentEvent) error {
	select {
	case m.queue <- event:
		return nil
	default:
		return fmt.Errorf("analytics queue full, dropping event %s", event.EventID)
	}
}

func (m *Mirror) run() {
	ticker := time.NewTicker(m.flushEvery)
	defer ticker.Stop()
	batch := make([]model.PaymentEvent, 0, m.batchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		_ = m.insertBatch(ctx, batch)
		cancel()
		batch = batch[:0]
	}

	for {
		select {
		case e := <-m.queue:
			batch = append(batch, e)
			if len(batch) >= m.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-m.done:
			flush()
			return
		}
	}
}

func (m *Mirror) insertBatch(ctx context.Context, events []model.PaymentEvent) error {
	b, err := m.conn.PrepareBatch(ctx, "INSERT INTO payment_events_mirror (event_id, uetr, correlation_id, event_type, actor, occurred_at, sequence)")
	if err != nil {
		return err
	}
	for _, e := range events {
		if err := b.Append(e.EventID, e.UETR, e.CorrelationID, string(e.EventType), e.Actor, e.OccurredAt, e.Sequence); err != nil {
			return err
		}
	}
	return b.Send()
}

// Close stops the flusher after draining the current batch.
func (m *Mirror) Close() error {
	close(m.done)
	return m.conn.Close()
}
