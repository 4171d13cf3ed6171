package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexusgw/gateway/internal/model"
)

func TestRegister_ReturnsSecretOnceAndRedactsOnRead(t *testing.T) {
	reg := New(NewMemoryStore(), nil, false)

	result, err := reg.Register(context.Background(), RegisterRequest{
		ActorKind:   model.ActorPSP,
		LegalName:   "Example Bank",
		BICFI:       "EXAMPLESG",
		CallbackURL: "http://localhost:9000/callbacks",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.CallbackSecret)
	assert.GreaterOrEqual(t, len(result.CallbackSecret), 32)
	assert.Empty(t, result.Actor.CallbackSecret)

	fetched, err := reg.Get(context.Background(), result.Actor.ActorID)
	require.NoError(t, err)
	assert.Empty(t, fetched.CallbackSecret)
	assert.Equal(t, "Example Bank", fetched.LegalName)
}

func TestRegister_RejectsNonHTTPSInProduction(t *testing.T) {
	reg := New(NewMemoryStore(), nil, true)

	_, err := reg.Register(context.Background(), RegisterRequest{
		ActorKind:   model.ActorFXP,
		LegalName:   "Example FX",
		CallbackURL: "http://localhost:9000/callbacks",
	})
	require.Error(t, err)
}

func TestRegister_AllowsHTTPInSandbox(t *testing.T) {
	reg := New(NewMemoryStore(), nil, false)

	_, err := reg.Register(context.Background(), RegisterRequest{
		ActorKind:   model.ActorFXP,
		LegalName:   "Example FX",
		CallbackURL: "http://localhost:9000/callbacks",
	})
	require.NoError(t, err)
}

func TestRotateSecret_ChangesStoredSecret(t *testing.T) {
	reg := New(NewMemoryStore(), nil, false)
	result, err := reg.Register(context.Background(), RegisterRequest{
		ActorKind:   model.ActorSAP,
		LegalName:   "Example SAP",
		CallbackURL: "https://sap.example.com/cb",
	})
	require.NoError(t, err)

	newSecret, err := reg.RotateSecret(context.Background(), result.Actor.ActorID)
	require.NoError(t, err)
	assert.NotEqual(t, result.CallbackSecret, newSecret)
}

func TestGet_UnknownActorReturnsNotFound(t *testing.T) {
	reg := New(NewMemoryStore(), nil, false)
	_, err := reg.Get(context.Background(), "does-not-exist")
	require.Error(t, err)
}
