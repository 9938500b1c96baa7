package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wezaxes/alias-server-go/internal/audit"
	"github.com/wezaxes/alias-server-go/internal/service"
)

type WordHandler struct {
	words *service.WordService
}

func NewWordHandler(words *service.WordService) *WordHandler {
	return &WordHandler{words: words}
}

// Routes mounts the word API. addLimits guard submissions only.
func (h *WordHandler) Routes(addLimits ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.Count)
	r.Get("/list", h.List)
	r.With(addLimits...).Post("/", h.Add)

	return r
}

// GET /api/words
func (h *WordHandler) Count(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"count": h.words.Count()})
}

// GET /api/words/list?limit=&offset=
func (h *WordHandler) List(w http.ResponseWriter, r *http.Request) {
	p := ParsePagination(r)
	all := h.words.Words()

	writeJSON(w, http.StatusOK, map[string]any{
		"words":  Page(all, p),
		"count":  len(all),
		"limit":  p.Limit,
		"offset": p.Offset,
	})
}

// POST /api/words
func (h *WordHandler) Add(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Word string `json:"word"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.words.Add(r.Context(), body.Word)
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventWordAdd,
		Details: map[string]interface{}{"word": result.Word},
	})

	writeJSON(w, http.StatusCreated, result)
}
