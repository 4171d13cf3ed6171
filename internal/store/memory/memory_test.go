package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexusgw/gateway/internal/model"
	"github.com/nexusgw/gateway/internal/store"
)

var _ store.Store = (*Store)(nil)

func TestCommitPayment_IdempotentOnDuplicateKey(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now()
	p := model.Payment{UETR: "u1", InitiatedAt: now, Status: model.StatusReceived}

	require.NoError(t, s.CommitPayment(ctx, p, model.PaymentEvent{UETR: "u1", EventType: model.EventPaymentReceived, OccurredAt: now}))
	require.NoError(t, s.CommitPayment(ctx, p, model.PaymentEvent{UETR: "u1", EventType: model.EventPaymentReceived, OccurredAt: now}))

	got, ok, err := s.GetPayment(ctx, p.Key())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.StatusReceived, got.Status)

	events, err := s.EventsByUETR(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, events, 2, "each commit call still appends its own event row")
}

func TestEventsByUETR_OrderedByTimeThenSequence(t *testing.T) {
	s := New()
	ctx := context.Background()
	base := time.Now()

	_ = s.CommitEvent(ctx, model.PaymentEvent{UETR: "u2", EventType: model.EventPaymentReceived, OccurredAt: base})
	_ = s.CommitEvent(ctx, model.PaymentEvent{UETR: "u2", EventType: model.EventPaymentSubmitted, OccurredAt: base})
	_ = s.CommitEvent(ctx, model.PaymentEvent{UETR: "u2", EventType: model.EventPaymentAccepted, OccurredAt: base.Add(time.Second)})

	events, err := s.EventsByUETR(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, model.EventPaymentReceived, events[0].EventType)
	assert.Equal(t, model.EventPaymentSubmitted, events[1].EventType)
	assert.Equal(t, model.EventPaymentAccepted, events[2].EventType)
}

func TestMessagesByUETR_OnlyRowsWithRawSlot(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now()

	_ = s.CommitEvent(ctx, model.PaymentEvent{UETR: "u3", EventType: model.EventPaymentReceived, OccurredAt: now, RawSlot: model.SlotPaymentInstruction, RawMessage: "<Doc/>"})
	_ = s.CommitEvent(ctx, model.PaymentEvent{UETR: "u3", EventType: model.EventPaymentSubmitted, OccurredAt: now.Add(time.Millisecond)})

	msgs, err := s.MessagesByUETR(ctx, "u3")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, model.SlotPaymentInstruction, msgs[0].RawSlot)
}

func TestEventsByCorrelationID_PairsProxyConversation(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now()

	_ = s.CommitEvent(ctx, model.PaymentEvent{CorrelationID: "K", EventType: model.EventProxyRequest, OccurredAt: now, RawSlot: model.SlotProxyRequest})
	_ = s.CommitEvent(ctx, model.PaymentEvent{CorrelationID: "K", EventType: model.EventProxyResponse, OccurredAt: now.Add(time.Millisecond), RawSlot: model.SlotProxyResponse})

	pair, err := s.EventsByCorrelationID(ctx, "K")
	require.NoError(t, err)
	require.Len(t, pair, 2)
	assert.Equal(t, model.EventProxyRequest, pair[0].EventType)
	assert.Equal(t, model.EventProxyResponse, pair[1].EventType)
}
