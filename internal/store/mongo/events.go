// Package mongo is the Mongo-backed half of the Event & Payment Store:
// the append-only payment_events log. A document store fits this
// table's "one nullable column per message family" shape naturally —
// each event document only ever sets the one raw-message field its
// event type populates, instead of carrying ten empty relational
// columns (matching the teacher's internal/adapters/repository/mongo
// usage for sparse, schema-flexible collections).
package mongo

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nexusgw/gateway/internal/errs"
	"github.com/nexusgw/gateway/internal/model"
)

const collectionName = "payment_events"

// Repository is the event-log half of the hybrid Store.
type Repository struct {
	coll *mongo.Collection
	seq  atomic.Int64
}

// New connects to uri/dbName and ensures the indexes the store's
// queries rely on (spec §4.3: events-by-UETR, events-by-correlationId,
// ordered messages-by-UETR).
func New(ctx context.Context, uri, dbName string) (*Repository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errs.ErrDBUnavailable.With(fmt.Errorf("connect mongo: %w", err))
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, errs.ErrDBUnavailable.With(fmt.Errorf("ping mongo: %w", err))
	}
	coll := client.Database(dbName).Collection(collectionName)

	_, err = coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "uetr", Value: 1}, {Key: "occurred_at", Value: 1}, {Key: "sequence", Value: 1}}},
		{Keys: bson.D{{Key: "correlation_id", Value: 1}, {Key: "occurred_at", Value: 1}}},
	})
	if err != nil {
		return nil, errs.ErrDBUnavailable.With(fmt.Errorf("create indexes: %w", err))
	}

	return &Repository{coll: coll}, nil
}

type eventDoc struct {
	EventID       string         `bson:"event_id"`
	UETR          string         `bson:"uetr,omitempty"`
	CorrelationID string         `bson:"correlation_id,omitempty"`
	EventType     model.EventType `bson:"event_type"`
	Actor         string         `bson:"actor,omitempty"`
	Data          map[string]any `bson:"data,omitempty"`
	RawSlot       model.RawMessageSlot `bson:"raw_slot,omitempty"`
	RawMessage    string         `bson:"raw_message,omitempty"`
	OccurredAt    time.Time      `bson:"occurred_at"`
	Sequence      int64          `bson:"sequence"`
}

func toDoc(e model.PaymentEvent) eventDoc {
	return eventDoc{
		EventID: e.EventID, UETR: e.UETR, CorrelationID: e.CorrelationID,
		EventType: e.EventType, Actor: e.Actor, Data: e.Data,
		RawSlot: e.RawSlot, RawMessage: e.RawMessage,
		OccurredAt: e.OccurredAt, Sequence: e.Sequence,
	}
}

func fromDoc(d eventDoc) model.PaymentEvent {
	return model.PaymentEvent{
		EventID: d.EventID, UETR: d.UETR, CorrelationID: d.CorrelationID,
		EventType: d.EventType, Actor: d.Actor, Data: d.Data,
		RawSlot: d.RawSlot, RawMessage: d.RawMessage,
		OccurredAt: d.OccurredAt, Sequence: d.Sequence,
	}
}

// Append inserts event, stamping a process-local monotonic sequence
// number used as the ordering tiebreak (spec §4.3). Production
// deployments with multiple writer processes should source Sequence
// from a shared counter (e.g. a Postgres sequence) instead — out of
// scope for the single-writer assumption in spec §5.
func (r *Repository) Append(ctx context.Context, e model.PaymentEvent) error {
	e.Sequence = r.seq.Add(1)
	_, err := r.coll.InsertOne(ctx, toDoc(e))
	if err != nil {
		return errs.ErrDBUnavailable.With(fmt.Errorf("insert event: %w", err))
	}
	return nil
}

func (r *Repository) byFilter(ctx context.Context, filter bson.D) ([]model.PaymentEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "occurred_at", Value: 1}, {Key: "sequence", Value: 1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, errs.ErrDBUnavailable.With(err)
	}
	defer cur.Close(ctx)

	var docs []eventDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errs.ErrDBUnavailable.With(err)
	}
	out := make([]model.PaymentEvent, 0, len(docs))
	for _, d := range docs {
		out = append(out, fromDoc(d))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].Sequence < out[j].Sequence
		}
		return out[i].OccurredAt.Before(out[j].OccurredAt)
	})
	return out, nil
}

func (r *Repository) EventsByUETR(ctx context.Context, uetr string) ([]model.PaymentEvent, error) {
	return r.byFilter(ctx, bson.D{{Key: "uetr", Value: uetr}})
}

func (r *Repository) EventsByCorrelationID(ctx context.Context, correlationID string) ([]model.PaymentEvent, error) {
	return r.byFilter(ctx, bson.D{{Key: "correlation_id", Value: correlationID}})
}

func (r *Repository) MessagesByUETR(ctx context.Context, uetr string) ([]model.PaymentEvent, error) {
	return r.byFilter(ctx, bson.D{
		{Key: "uetr", Value: uetr},
		{Key: "raw_slot", Value: bson.D{{Key: "$exists", Value: true}, {Key: "$ne", Value: ""}}},
	})
}
