// Package hybrid composes the Postgres payments repository and the
// Mongo event-log repository into a single store.Store, the
// production persistence configuration (spec §4.3).
package hybrid

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/nexusgw/gateway/internal/model"
	"github.com/nexusgw/gateway/internal/store"
	"github.com/nexusgw/gateway/internal/store/analytics"
	"github.com/nexusgw/gateway/internal/store/mongo"
	"github.com/nexusgw/gateway/internal/store/postgres"
)

// Store satisfies store.Store by fanning payment writes to Postgres and
// event writes to Mongo. There is no cross-engine transaction: spec §5
// assumes a single writer per record, so the ordering guarantee that
// matters (persist-then-ack, §4.5/§9) is satisfied by writing the
// payment row before the event row, sequentially, on the same
// goroutine that serves the request.
type Store struct {
	payments *postgres.Repository
	events   *mongo.Repository
	mirror   *analytics.Mirror // optional, nil disables the analytics mirror
	logger   *zap.Logger
}

func New(payments *postgres.Repository, events *mongo.Repository, mirror *analytics.Mirror, logger *zap.Logger) *Store {
	return &Store{payments: payments, events: events, mirror: mirror, logger: logger}
}

func (s *Store) CommitPayment(ctx context.Context, payment model.Payment, event model.PaymentEvent) error {
	if err := s.payments.Upsert(ctx, payment); err != nil {
		return err
	}
	if err := s.events.Append(ctx, event); err != nil {
		return err
	}
	s.mirrorBestEffort(event)
	return nil
}

func (s *Store) CommitEvent(ctx context.Context, event model.PaymentEvent) error {
	if err := s.events.Append(ctx, event); err != nil {
		return err
	}
	s.mirrorBestEffort(event)
	return nil
}

func (s *Store) mirrorBestEffort(event model.PaymentEvent) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.Send(event); err != nil {
		s.logger.Warn("analytics mirror dropped event", zap.String("event_id", event.EventID), zap.Error(err))
	}
}

func (s *Store) GetPayment(ctx context.Context, key model.PaymentKey) (model.Payment, bool, error) {
	return s.payments.Get(ctx, key.UETR, key.InitiatedAt)
}

func (s *Store) GetLatestPaymentByUETR(ctx context.Context, uetr string) (model.Payment, bool, error) {
	return s.payments.GetLatestByUETR(ctx, uetr)
}

func (s *Store) EventsByUETR(ctx context.Context, uetr string) ([]model.PaymentEvent, error) {
	return s.events.EventsByUETR(ctx, uetr)
}

func (s *Store) EventsByCorrelationID(ctx context.Context, correlationID string) ([]model.PaymentEvent, error) {
	return s.events.EventsByCorrelationID(ctx, correlationID)
}

func (s *Store) MessagesByUETR(ctx context.Context, uetr string) ([]model.PaymentEvent, error) {
	return s.events.MessagesByUETR(ctx, uetr)
}

func (s *Store) LatestStatusByUETR(ctx context.Context, uetr string) (model.PaymentStatus, bool, error) {
	p, ok, err := s.GetLatestPaymentByUETR(ctx, uetr)
	if err != nil || !ok {
		return "", ok, err
	}
	return p.Status, true, nil
}

func (s *Store) ListPayments(ctx context.Context, status model.PaymentStatus, limit int) ([]model.Payment, error) {
	return s.payments.ListPayments(ctx, status, limit)
}

var _ store.Store = (*Store)(nil)

// pingInterval is a 15-second health-check interval for the two
// backing stores. It is unexported and nothing reads it; no readiness
// probe is wired to it.
const pingInterval = 15 * time.Second
