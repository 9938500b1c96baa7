package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wezaxes/alias-server-go/internal/audit"
	apperrors "github.com/wezaxes/alias-server-go/internal/errors"
	"github.com/wezaxes/alias-server-go/internal/model"
	"github.com/wezaxes/alias-server-go/internal/service"
)

type LocalHandler struct {
	games *service.LocalService
}

func NewLocalHandler(games *service.LocalService) *LocalHandler {
	return &LocalHandler{games: games}
}

func (h *LocalHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Delete("/{id}", h.Delete)
	r.Post("/{id}/actions", h.Act)

	return r
}

// POST /api/local
func (h *LocalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var params model.CreateLocalGameParams
	if err := decodeJSON(r, &params); err != nil {
		writeError(w, err)
		return
	}

	view, err := h.games.Create(params)
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type: audit.EventLocalGameCreate,
		Details: map[string]interface{}{
			"gameId": view.ID,
			"teams":  len(view.Teams),
		},
	})

	writeJSON(w, http.StatusCreated, view)
}

// GET /api/local/{id}
func (h *LocalHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.games.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// POST /api/local/{id}/actions
func (h *LocalHandler) Act(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Type model.ActionType `json:"type"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if body.Type == "" {
		writeError(w, apperrors.MissingRequired("type"))
		return
	}

	view, err := h.games.Act(chi.URLParam(r, "id"), body.Type)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// DELETE /api/local/{id}
func (h *LocalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.games.Delete(chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
