package registry

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"
)

// HTTPCallbackTester delivers a zero-byte POST to an actor's callback
// URL and treats any status of 300 or above as unreachable, without
// touching payment state. The probe carries X-Nexus-Probe and, when the
// actor has a secret, an X-Nexus-Signature holding the hex HMAC-SHA256
// of an empty payload; it does not use the timestamped
// X-Callback-Signature scheme the Callback Dispatcher signs real
// deliveries with (spec §4.6).
type HTTPCallbackTester struct {
	Client *http.Client
}

// NewHTTPCallbackTester builds a tester with the given per-probe timeout.
func NewHTTPCallbackTester(timeout time.Duration) *HTTPCallbackTester {
	return &HTTPCallbackTester{Client: &http.Client{Timeout: timeout}}
}

func (t *HTTPCallbackTester) Test(ctx context.Context, callbackURL, secret string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, callbackURL, bytes.NewReader(nil))
	if err != nil {
		return err
	}
	req.Header.Set("X-Nexus-Probe", "true")
	if secret != "" {
		mac := hmac.New(sha256.New, []byte(secret))
		req.Header.Set("X-Nexus-Signature", hex.EncodeToString(mac.Sum(nil)))
	}

	resp, err := t.Client.Do(req)
	if err != nil {
		return fmt.Errorf("callback probe: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("callback probe returned status %d", resp.StatusCode)
	}
	return nil
}
