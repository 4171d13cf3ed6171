package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nexusgw/gateway/internal/errs"
	"github.com/nexusgw/gateway/internal/model"
	"github.com/nexusgw/gateway/internal/registry"
)

// actorsHandler mounts the Participant Registry's HTTP surface (spec §4.7, §6).
type actorsHandler struct {
	registry *registry.Registry
}

func (h *actorsHandler) routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.register)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Post("/{id}/rotate-secret", h.rotateSecret)
	r.Post("/{id}/test-callback", h.testCallback)
	return r
}

type registerActorRequest struct {
	ActorKind       string `json:"actorKind"`
	LegalName       string `json:"legalName"`
	BICFI           string `json:"bicfi"`
	CallbackURL     string `json:"callbackUrl"`
	AssociatedFxpID string `json:"associatedFxpId,omitempty"`
}

func (h *actorsHandler) register(w http.ResponseWriter, r *http.Request) {
	var req registerActorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errs.ErrBadXML.With(err), nil)
		return
	}
	result, err := h.registry.Register(r.Context(), registry.RegisterRequest{
		ActorKind:       model.ActorKind(req.ActorKind),
		LegalName:       req.LegalName,
		BICFI:           req.BICFI,
		CallbackURL:     req.CallbackURL,
		AssociatedFxpID: req.AssociatedFxpID,
	})
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *actorsHandler) list(w http.ResponseWriter, r *http.Request) {
	kind := model.ActorKind(r.URL.Query().Get("kind"))
	actors, err := h.registry.List(r.Context(), kind)
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, actors)
}

func (h *actorsHandler) get(w http.ResponseWriter, r *http.Request) {
	actor, err := h.registry.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, actor)
}

func (h *actorsHandler) rotateSecret(w http.ResponseWriter, r *http.Request) {
	secret, err := h.registry.RotateSecret(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"callbackSecret": secret})
}

func (h *actorsHandler) testCallback(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.TestCallback(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
