package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nexusgw/gateway/internal/addressing"
	"github.com/nexusgw/gateway/internal/errs"
	"github.com/nexusgw/gateway/internal/model"
	"github.com/nexusgw/gateway/internal/store"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// paymentsHandler mounts the audit views over the Event & Payment Store
// (spec §4.3, §6): events/messages/status by UETR, plus the addressing
// conversation lookup by correlationId (spec §4.8, §8 scenario 6).
type paymentsHandler struct {
	store      store.Store
	correlator *addressing.Correlator
}

func (h *paymentsHandler) routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Route("/{uetr}", func(r chi.Router) {
		r.Get("/events", h.events)
		r.Get("/messages", h.messages)
		r.Get("/status", h.status)
	})
	r.Get("/correlations/{id}", h.conversation)
	return r
}

// list answers GET /payments (spec §6 audit view), grounded on
// payments_explorer.py's list_payments: optional ?status= filter,
// ?limit= (default 20, max 100), newest-initiated first.
func (h *paymentsHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	status := model.PaymentStatus(r.URL.Query().Get("status"))
	payments, err := h.store.ListPayments(r.Context(), status, limit)
	if err != nil {
		writeError(w, errs.ErrDBUnavailable.With(err), nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"payments": payments})
}

func (h *paymentsHandler) events(w http.ResponseWriter, r *http.Request) {
	uetr := chi.URLParam(r, "uetr")
	events, err := h.store.EventsByUETR(r.Context(), uetr)
	if err != nil {
		writeError(w, errs.ErrDBUnavailable.With(err), nil)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// messages answers GET /payments/{uetr}/messages, or, when
// correlation_id is given, GET /payments/anything/messages?correlation_id=K
// (spec §8 scenario 6: a proxy-resolution conversation has no payment
// record, so the uetr path segment is a placeholder in that case).
func (h *paymentsHandler) messages(w http.ResponseWriter, r *http.Request) {
	if correlationID := r.URL.Query().Get("correlation_id"); correlationID != "" {
		events, err := h.store.EventsByCorrelationID(r.Context(), correlationID)
		if err != nil {
			writeError(w, errs.ErrDBUnavailable.With(err), nil)
			return
		}
		writeJSON(w, http.StatusOK, events)
		return
	}

	uetr := chi.URLParam(r, "uetr")
	messages, err := h.store.MessagesByUETR(r.Context(), uetr)
	if err != nil {
		writeError(w, errs.ErrDBUnavailable.With(err), nil)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

// conversation answers the resolved outcome of a proxy-resolution
// exchange by correlationId (spec §4.8).
func (h *paymentsHandler) conversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	outcome, err := h.correlator.Conversation(r.Context(), id)
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (h *paymentsHandler) status(w http.ResponseWriter, r *http.Request) {
	uetr := chi.URLParam(r, "uetr")
	status, ok, err := h.store.LatestStatusByUETR(r.Context(), uetr)
	if err != nil {
		writeError(w, errs.ErrDBUnavailable.With(err), nil)
		return
	}
	if !ok {
		writeError(w, errs.NotFound("payment"), nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"uetr": uetr, "status": string(status)})
}
