// Package callback is the Callback Dispatcher (spec §4.6, C6): signed,
// retried, backgrounded delivery of pacs.002 status reports to
// registered participant endpoints, grounded on the original source's
// callbacks.py HMAC scheme and the teacher's NATS worker-pool idiom for
// reimplementing its fire-and-forget asyncio.create_task calls.
package callback

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
)

// Sign computes base64(HMAC_SHA256(secret, timestamp+":"+uetr+":"+body))
// (spec §4.6).
func Sign(secret, timestamp, uetr, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte(":"))
	mac.Write([]byte(uetr))
	mac.Write([]byte(":"))
	mac.Write([]byte(body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature matches the HMAC of the given
// parameters, in constant time regardless of where the first differing
// byte falls (spec §4.6, §8: "constant-time comparison").
func Verify(secret, timestamp, uetr, body, signature string) bool {
	expected := Sign(secret, timestamp, uetr, body)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}
