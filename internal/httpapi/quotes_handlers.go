package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/nexusgw/gateway/internal/errs"
	"github.com/nexusgw/gateway/internal/model"
	"github.com/nexusgw/gateway/internal/quote"
	"github.com/nexusgw/gateway/internal/registry"
)

// quotesHandler mounts the Quote Engine's HTTP surface (spec §6): quote
// creation/lookup, pre-transaction disclosure, and the supplemented
// intermediary-agents lookup.
type quotesHandler struct {
	quotes   *quote.Engine
	registry *registry.Registry
}

func (h *quotesHandler) routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Get("/{id}/intermediary-agents", h.intermediaryAgents)
	return r
}

type createQuoteRequest struct {
	SourceCurrency      string          `json:"sourceCurrency"`
	DestinationCurrency string          `json:"destinationCurrency"`
	Amount              decimal.Decimal `json:"amount"`
	AmountType          string          `json:"amountType"`
	FxpPreference       string          `json:"fxpPreference,omitempty"`
	PSPBic              string          `json:"pspBic"`
}

func (h *quotesHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createQuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errs.ErrBadXML.With(err), nil)
		return
	}

	q, err := h.quotes.Create(r.Context(), quote.CreateRequest{
		SourceCurrency:      req.SourceCurrency,
		DestinationCurrency: req.DestinationCurrency,
		Amount:              req.Amount,
		AmountType:          model.AmountType(req.AmountType),
		FxpPreference:       req.FxpPreference,
		PSPBic:              req.PSPBic,
	})
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (h *quotesHandler) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	q, ok, err := h.quotes.Get(r.Context(), id)
	if err != nil {
		writeError(w, err, nil)
		return
	}
	if !ok {
		writeError(w, errs.NotFound("quote"), nil)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// intermediaryAgents answers the Settlement Access Provider lookup
// (SPEC_FULL.md, grounded on intermediary_agents.py): the SAP actors
// registered against the FXP bound to this quote.
func (h *quotesHandler) intermediaryAgents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	q, ok, err := h.quotes.Get(r.Context(), id)
	if err != nil {
		writeError(w, err, nil)
		return
	}
	if !ok {
		writeError(w, errs.NotFound("quote"), nil)
		return
	}

	saps, err := h.registry.List(r.Context(), model.ActorSAP)
	if err != nil {
		writeError(w, err, nil)
		return
	}
	var matched []model.Actor
	for _, sap := range saps {
		if sap.AssociatedFxpID == q.FxpID {
			matched = append(matched, sap)
		}
	}
	writeJSON(w, http.StatusOK, matched)
}

// disclose implements GET /pre-transaction-disclosure?quote_id=&source_psp_fee_type=.
// source_psp_fee_type is accepted for wire compatibility but unused:
// the Numeric Kernel's source PSP fee schedule (numeric.SourcePspFee)
// is a single fixed table, not one selectable per request.
func (h *quotesHandler) disclose(w http.ResponseWriter, r *http.Request) {
	quoteID := r.URL.Query().Get("quote_id")
	d, err := h.quotes.Disclose(r.Context(), quoteID)
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
