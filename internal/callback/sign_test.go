package callback

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVerify_RoundTrips(t *testing.T) {
	ts := time.Now().UTC().Format(time.RFC3339)
	sig := Sign("secret", ts, "uetr-1", "<Document/>")
	assert.True(t, Verify("secret", ts, "uetr-1", "<Document/>", sig))
}

func TestVerify_RejectsTamperedBody(t *testing.T) {
	ts := time.Now().UTC().Format(time.RFC3339)
	sig := Sign("secret", ts, "uetr-1", "<Document/>")
	assert.False(t, Verify("secret", ts, "uetr-1", "<Document tampered=\"1\"/>", sig))
}

func TestVerify_RejectsWrongSecret(t *testing.T) {
	ts := time.Now().UTC().Format(time.RFC3339)
	sig := Sign("secret-a", ts, "uetr-1", "<Document/>")
	assert.False(t, Verify("secret-b", ts, "uetr-1", "<Document/>", sig))
}
