// Package httpapi is the gateway's HTTP surface (spec §6): a chi
// router mounting the ISO 20022 Pipeline, Quote Engine, Participant
// Registry, and audit views behind the Ingress Guard.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nexusgw/gateway/internal/errs"
)

// errorBody is the JSON shape every 4xx/5xx response carries (spec §7:
// "{error, validationErrors?, reference?}").
type errorBody struct {
	Error            string   `json:"error"`
	ValidationErrors []string `json:"validationErrors,omitempty"`
	Reference        string   `json:"reference,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError classifies err into the closed taxonomy (spec §7) and
// writes the corresponding status and body. Unclassified errors are
// treated as internal and never echo their text to the client.
func writeError(w http.ResponseWriter, err error, validationErrors []string) {
	var gwErr *errs.Error
	if errors.As(err, &gwErr) {
		status := gwErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		writeJSON(w, status, errorBody{Error: gwErr.Code, ValidationErrors: validationErrors})
		return
	}
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "INTERNAL"})
}
