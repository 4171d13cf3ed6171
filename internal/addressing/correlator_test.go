package addressing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexusgw/gateway/internal/model"
)

type fakeEventStore struct {
	events map[string][]model.PaymentEvent
}

func (f *fakeEventStore) EventsByCorrelationID(_ context.Context, correlationID string) ([]model.PaymentEvent, error) {
	return f.events[correlationID], nil
}

func TestTrackRequest_PendingUntilResolved(t *testing.T) {
	c := New(&fakeEventStore{})
	c.TrackRequest("corr-1")
	assert.True(t, c.Pending("corr-1"))
	c.ResolveResponse("corr-1")
	assert.False(t, c.Pending("corr-1"))
}

func TestConversation_ResolvedPairReturnsAccountDetails(t *testing.T) {
	store := &fakeEventStore{events: map[string][]model.PaymentEvent{
		"corr-2": {
			{EventType: model.EventProxyRequest, CorrelationID: "corr-2", OccurredAt: time.Now()},
			{EventType: model.EventProxyResponse, CorrelationID: "corr-2", Data: map[string]any{
				"resolved":  true,
				"accountId": "SG123",
			}, OccurredAt: time.Now()},
		},
	}}
	c := New(store)

	outcome, err := c.Conversation(context.Background(), "corr-2")
	require.NoError(t, err)
	assert.True(t, outcome.Resolved)
	assert.Equal(t, "SG123", outcome.AccountID)
	assert.Empty(t, outcome.ReasonCode)
}

func TestConversation_UnresolvedYieldsBE23(t *testing.T) {
	store := &fakeEventStore{events: map[string][]model.PaymentEvent{
		"corr-3": {
			{EventType: model.EventProxyRequest, CorrelationID: "corr-3", OccurredAt: time.Now()},
			{EventType: model.EventProxyResponse, CorrelationID: "corr-3", Data: map[string]any{
				"resolved": false,
			}, OccurredAt: time.Now()},
		},
	}}
	c := New(store)

	outcome, err := c.Conversation(context.Background(), "corr-3")
	require.NoError(t, err)
	assert.False(t, outcome.Resolved)
	assert.Equal(t, "BE23", string(outcome.ReasonCode))
}

func TestConversation_UnknownCorrelationIDNotFound(t *testing.T) {
	c := New(&fakeEventStore{})
	_, err := c.Conversation(context.Background(), "nope")
	require.Error(t, err)
}
