package httpapi

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nexusgw/gateway/internal/errs"
	"github.com/nexusgw/gateway/internal/iso20022"
	"github.com/nexusgw/gateway/internal/schema"
)

// isoHandler mounts the message-family endpoints of spec §6, each a
// thin adapter reading the body and query params and delegating to the
// Pipeline, following the teacher's handlers.BookHandler.Routes idiom.
type isoHandler struct {
	pipeline *iso20022.Pipeline
}

func (h *isoHandler) routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/pacs008", h.pacs008)
	r.Post("/acmt023", h.acmt023)
	r.Post("/acmt024", h.plain(func(body []byte, r *http.Request) (iso20022.Ack, *errs.Error) {
		return h.pipeline.HandleAcmt024(r.Context(), body)
	}))
	r.Post("/pain001", h.plain(func(body []byte, r *http.Request) (iso20022.Ack, *errs.Error) {
		return h.pipeline.HandlePain001(r.Context(), body)
	}))
	r.Post("/camt103", h.plain(func(body []byte, r *http.Request) (iso20022.Ack, *errs.Error) {
		return h.pipeline.HandleCamt103(r.Context(), body)
	}))
	r.Post("/pacs004", h.plain(func(body []byte, r *http.Request) (iso20022.Ack, *errs.Error) {
		return h.pipeline.HandlePacs004(r.Context(), body)
	}))
	r.Post("/pacs028", h.plain(func(body []byte, r *http.Request) (iso20022.Ack, *errs.Error) {
		return h.pipeline.HandlePacs028(r.Context(), body)
	}))
	r.Post("/camt056", h.plain(func(body []byte, r *http.Request) (iso20022.Ack, *errs.Error) {
		return h.pipeline.HandleCamt056(r.Context(), body)
	}))
	r.Post("/camt029", h.plain(func(body []byte, r *http.Request) (iso20022.Ack, *errs.Error) {
		return h.pipeline.HandleCamt029(r.Context(), body)
	}))
	r.Post("/pacs002", h.plain(func(body []byte, r *http.Request) (iso20022.Ack, *errs.Error) {
		return h.pipeline.HandlePacs002(r.Context(), body)
	}))
	r.Post("/validate", h.validate)
	return r
}

// plain adapts a Pipeline handler of the common (body) -> (Ack, *errs.Error)
// shape into an http.HandlerFunc: read body, delegate, write JSON.
func (h *isoHandler) plain(fn func(body []byte, r *http.Request) (iso20022.Ack, *errs.Error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, errs.ErrBadXML.With(err), nil)
			return
		}
		ack, verr := fn(body, r)
		if verr != nil {
			writeError(w, verr, nil)
			return
		}
		writeJSON(w, http.StatusOK, ack)
	}
}

func (h *isoHandler) pacs008(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, errs.ErrBadXML.With(err), nil)
		return
	}
	quoteID := r.URL.Query().Get("quoteId")
	callbackURL := r.URL.Query().Get("pacs002Endpoint")
	ack, verr := h.pipeline.HandlePacs008(r.Context(), body, quoteID, callbackURL)
	if verr != nil {
		writeError(w, verr, nil)
		return
	}
	writeJSON(w, http.StatusOK, ack)
}

func (h *isoHandler) acmt023(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, errs.ErrBadXML.With(err), nil)
		return
	}
	// acmt024Endpoint is accepted for symmetry with pacs008's
	// pacs002Endpoint convention but the Addressing Correlator (C8)
	// answers over the synchronous Ack, not a scheduled callback — the
	// responding IPSO/PSP sends its own acmt.024 independently.
	ack, verr := h.pipeline.HandleAcmt023(r.Context(), body)
	if verr != nil {
		writeError(w, verr, nil)
		return
	}
	writeJSON(w, http.StatusOK, ack)
}

func (h *isoHandler) validate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, errs.ErrBadXML.With(err), nil)
		return
	}
	mt := schema.MessageType(r.URL.Query().Get("messageType"))
	result := h.pipeline.Validate(body, mt)
	writeJSON(w, http.StatusOK, result)
}
