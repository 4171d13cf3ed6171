// Package memory is the in-process Store implementation (spec §4.3):
// the default for tests and sandbox deployments, matching the
// teacher's internal/adapters/repository/memory pattern.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/nexusgw/gateway/internal/model"
)

// Store is a mutex-protected, process-local Store. Writers serialize
// through a single mutex rather than per-row locks (spec §5 names
// per-row locking as the production contract; a single mutex is the
// in-memory stand-in since there is only one process to serialize
// within).
type Store struct {
	mu       sync.Mutex
	payments map[model.PaymentKey]model.Payment
	byUETR   map[string][]model.PaymentKey // insertion order per UETR
	events   []model.PaymentEvent
	seq      int64
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		payments: make(map[model.PaymentKey]model.Payment),
		byUETR:   make(map[string][]model.PaymentKey),
	}
}

func (s *Store) nextSeq() int64 {
	s.seq++
	return s.seq
}

func (s *Store) CommitPayment(ctx context.Context, payment model.Payment, event model.PaymentEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := payment.Key()
	if _, exists := s.payments[key]; !exists {
		s.byUETR[key.UETR] = append(s.byUETR[key.UETR], key)
	}
	s.payments[key] = payment

	event.Sequence = s.nextSeq()
	s.events = append(s.events, event)
	return nil
}

func (s *Store) CommitEvent(ctx context.Context, event model.PaymentEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	event.Sequence = s.nextSeq()
	s.events = append(s.events, event)
	return nil
}

func (s *Store) GetPayment(ctx context.Context, key model.PaymentKey) (model.Payment, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[key]
	return p, ok, nil
}

func (s *Store) GetLatestPaymentByUETR(ctx context.Context, uetr string) (model.Payment, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := s.byUETR[uetr]
	if len(keys) == 0 {
		return model.Payment{}, false, nil
	}
	latest := keys[0]
	for _, k := range keys[1:] {
		if k.InitiatedAt.After(latest.InitiatedAt) {
			latest = k
		}
	}
	return s.payments[latest], true, nil
}

func (s *Store) EventsByUETR(ctx context.Context, uetr string) ([]model.PaymentEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.PaymentEvent
	for _, e := range s.events {
		if e.UETR == uetr {
			out = append(out, e)
		}
	}
	sortEvents(out)
	return out, nil
}

func (s *Store) EventsByCorrelationID(ctx context.Context, correlationID string) ([]model.PaymentEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.PaymentEvent
	for _, e := range s.events {
		if e.CorrelationID == correlationID {
			out = append(out, e)
		}
	}
	sortEvents(out)
	return out, nil
}

func (s *Store) MessagesByUETR(ctx context.Context, uetr string) ([]model.PaymentEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.PaymentEvent
	for _, e := range s.events {
		if e.UETR == uetr && e.RawSlot != "" {
			out = append(out, e)
		}
	}
	sortEvents(out)
	return out, nil
}

func (s *Store) LatestStatusByUETR(ctx context.Context, uetr string) (model.PaymentStatus, bool, error) {
	p, ok, _ := s.GetLatestPaymentByUETR(ctx, uetr)
	if !ok {
		return "", false, nil
	}
	return p.Status, true, nil
}

// ListPayments returns every stored payment matching status (or all, if
// status is empty), newest-initiated first, capped at limit.
func (s *Store) ListPayments(ctx context.Context, status model.PaymentStatus, limit int) ([]model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Payment, 0, len(s.payments))
	for _, p := range s.payments {
		if status != "" && p.Status != status {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InitiatedAt.After(out[j].InitiatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func sortEvents(events []model.PaymentEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].OccurredAt.Equal(events[j].OccurredAt) {
			return events[i].Sequence < events[j].Sequence
		}
		return events[i].OccurredAt.Before(events[j].OccurredAt)
	})
}
