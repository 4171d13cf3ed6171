// Package registry is the Participant Registry (spec §4.7, C7): CRUD
// for the five Nexus actor kinds, each with a per-actor callback secret
// minted from a cryptographic RNG and returned exactly once.
package registry

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nexusgw/gateway/internal/errs"
	"github.com/nexusgw/gateway/internal/model"
)

// secretBytes is the minimum entropy for a callback secret (spec §4.7: "≥ 32 bytes").
const secretBytes = 32

// Store is the persistence surface the registry needs. A separate,
// narrower interface than store.Store since actors are a distinct
// aggregate from payments/events (spec §3).
type Store interface {
	SaveActor(ctx context.Context, actor model.Actor) error
	GetActor(ctx context.Context, actorID string) (model.Actor, bool, error)
	ListActors(ctx context.Context, kind model.ActorKind) ([]model.Actor, error)
}

// CallbackTester delivers a no-op probe to an actor's callback URL to
// verify reachability without mutating any payment state.
type CallbackTester interface {
	Test(ctx context.Context, callbackURL, secret string) error
}

// Registry implements register/list/get/rotateSecret/testCallback (spec §4.7).
type Registry struct {
	store       Store
	tester      CallbackTester
	productionMode bool
}

// New builds a Registry. productionMode, when true, rejects non-https
// callback URLs (spec §4.7: "https in production ... http ... in sandbox").
func New(store Store, tester CallbackTester, productionMode bool) *Registry {
	return &Registry{store: store, tester: tester, productionMode: productionMode}
}

// RegisterRequest is the input to Register.
type RegisterRequest struct {
	ActorKind       model.ActorKind
	LegalName       string
	BICFI           string
	CallbackURL     string
	AssociatedFxpID string // meaningful for ActorKind == model.ActorSAP only
}

// RegisterResult carries the callback secret, disclosed only here
// (spec §4.7: "secret returned once, at creation").
type RegisterResult struct {
	Actor          model.Actor
	CallbackSecret string
}

func (r *Registry) Register(ctx context.Context, req RegisterRequest) (RegisterResult, error) {
	if err := r.validateCallbackURL(req.CallbackURL); err != nil {
		return RegisterResult{}, err
	}

	secret, err := generateSecret()
	if err != nil {
		return RegisterResult{}, fmt.Errorf("generate callback secret: %w", err)
	}

	actor := model.Actor{
		ActorID:         uuid.NewString(),
		ActorKind:       req.ActorKind,
		LegalName:       req.LegalName,
		BICFI:           req.BICFI,
		CallbackURL:     req.CallbackURL,
		CallbackSecret:  secret,
		CreatedAt:       time.Now().UTC(),
		AssociatedFxpID: req.AssociatedFxpID,
	}

	if err := r.store.SaveActor(ctx, actor); err != nil {
		return RegisterResult{}, err
	}

	return RegisterResult{Actor: redact(actor), CallbackSecret: secret}, nil
}

func (r *Registry) Get(ctx context.Context, actorID string) (model.Actor, error) {
	actor, ok, err := r.store.GetActor(ctx, actorID)
	if err != nil {
		return model.Actor{}, err
	}
	if !ok {
		return model.Actor{}, errs.NotFound("actor")
	}
	return redact(actor), nil
}

func (r *Registry) List(ctx context.Context, kind model.ActorKind) ([]model.Actor, error) {
	actors, err := r.store.ListActors(ctx, kind)
	if err != nil {
		return nil, err
	}
	out := make([]model.Actor, len(actors))
	for i, a := range actors {
		out[i] = redact(a)
	}
	return out, nil
}

// RotateSecret mints a fresh secret for actorID and persists it,
// returning the new value (spec §4.7).
func (r *Registry) RotateSecret(ctx context.Context, actorID string) (string, error) {
	actor, ok, err := r.store.GetActor(ctx, actorID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errs.NotFound("actor")
	}

	secret, err := generateSecret()
	if err != nil {
		return "", fmt.Errorf("generate callback secret: %w", err)
	}
	actor.CallbackSecret = secret
	if err := r.store.SaveActor(ctx, actor); err != nil {
		return "", err
	}
	return secret, nil
}

// TestCallback delivers a reachability probe to actorID's callback URL
// using its current secret, without touching payment state.
func (r *Registry) TestCallback(ctx context.Context, actorID string) error {
	actor, ok, err := r.store.GetActor(ctx, actorID)
	if err != nil {
		return err
	}
	if !ok {
		return errs.NotFound("actor")
	}
	if r.tester == nil {
		return fmt.Errorf("no callback tester configured")
	}
	return r.tester.Test(ctx, actor.CallbackURL, actor.CallbackSecret)
}

// SecretFor returns the current callback secret of the actor whose ID,
// or failing that whose BICFI, equals bicOrActorID, or "" if no actor
// matches. Used by the ISO 20022 Pipeline to sign outbound callbacks
// (Pipeline.ActorSecret).
func (r *Registry) SecretFor(ctx context.Context, bicOrActorID string) string {
	actor, ok, err := r.store.GetActor(ctx, bicOrActorID)
	if err != nil {
		return ""
	}
	if ok {
		return actor.CallbackSecret
	}
	actors, err := r.store.ListActors(ctx, "")
	if err != nil {
		return ""
	}
	for _, a := range actors {
		if a.BICFI != "" && a.BICFI == bicOrActorID {
			return a.CallbackSecret
		}
	}
	return ""
}

func (r *Registry) validateCallbackURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return errs.ErrInvalidURL.With(fmt.Errorf("not an absolute URL: %q", raw))
	}
	if r.productionMode && u.Scheme != "https" {
		return errs.ErrInvalidURL.With(fmt.Errorf("scheme %q not permitted in production", u.Scheme))
	}
	if !r.productionMode && u.Scheme != "https" && u.Scheme != "http" {
		return errs.ErrInvalidURL.With(fmt.Errorf("unsupported scheme %q", u.Scheme))
	}
	return nil
}

// redact never returns the stored secret from a read path; only
// Register/RotateSecret's direct return values carry it (spec §4.7).
func redact(a model.Actor) model.Actor {
	a.CallbackSecret = ""
	return a
}

func generateSecret() (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// memoryStore is a concurrency-safe in-memory Store, the default/sandbox
// backing for the registry (mirrors the quote engine's memory store).
type memoryStore struct {
	mu     sync.RWMutex
	actors map[string]model.Actor
}

// NewMemoryStore builds an in-process Store.
func NewMemoryStore() Store {
	return &memoryStore{actors: make(map[string]model.Actor)}
}

func (m *memoryStore) SaveActor(_ context.Context, actor model.Actor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actors[actor.ActorID] = actor
	return nil
}

func (m *memoryStore) GetActor(_ context.Context, actorID string) (model.Actor, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.actors[actorID]
	return a, ok, nil
}

func (m *memoryStore) ListActors(_ context.Context, kind model.ActorKind) ([]model.Actor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Actor
	for _, a := range m.actors {
		if kind == "" || a.ActorKind == kind {
			out = append(out, a)
		}
	}
	return out, nil
}
