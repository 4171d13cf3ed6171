package callback

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nexusgw/gateway/internal/model"
)

type recordedCalls struct {
	mu     sync.Mutex
	events []model.PaymentEvent
}

func (r *recordedCalls) CommitEvent(_ context.Context, e model.PaymentEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordedCalls) snapshot() []model.PaymentEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.PaymentEvent, len(r.events))
	copy(out, r.events)
	return out
}

func TestDispatcher_DeliversAndRecordsSuccess(t *testing.T) {
	var gotSig, gotTS string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get("X-Callback-Signature")
		gotTS = r.Header.Get("X-Callback-Timestamp")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	rec := &recordedCalls{}
	d := New(nil, 2, 10, rec, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.Schedule(ctx, Job{CallbackURL: srv.URL, UETR: "uetr-1", StatusXML: "<Document/>", TxStatus: "ACCC", ActorSecret: "s3cret"})

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)
	events := rec.snapshot()
	assert.Equal(t, model.EventCallbackDelivered, events[0].EventType)
	assert.NotEmpty(t, gotSig)
	assert.NotEmpty(t, gotTS)
	assert.True(t, Verify("s3cret", gotTS, "uetr-1", "<Document/>", gotSig))
}

func TestDispatcher_RecordsFailureAfterExhaustingRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	rec := &recordedCalls{}
	d := New(nil, 1, 10, rec, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.Schedule(ctx, Job{CallbackURL: srv.URL, UETR: "uetr-2", StatusXML: "<Document/>", TxStatus: "RJCT", ActorSecret: "s3cret", MaxRetries: 2})

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, 5*time.Second, 10*time.Millisecond)
	events := rec.snapshot()
	assert.Equal(t, model.EventCallbackFailed, events[0].EventType)
}

func TestDispatcher_MissingURLSkipsSilently(t *testing.T) {
	rec := &recordedCalls{}
	d := New(nil, 1, 10, rec, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.Schedule(ctx, Job{UETR: "uetr-3", StatusXML: "<Document/>", TxStatus: "ACCC"})

	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, rec.snapshot())
}
