package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"

	"github.com/wezaxes/alias-server-go/internal/audit"
	"github.com/wezaxes/alias-server-go/internal/config"
	apperrors "github.com/wezaxes/alias-server-go/internal/errors"
	"github.com/wezaxes/alias-server-go/internal/model"
	"github.com/wezaxes/alias-server-go/internal/service"
	"github.com/wezaxes/alias-server-go/internal/sse"
)

const qrCodeSize = 320

// RoomHandler serves remote rooms. A nil room service means the shared
// store never came up; every route then answers 503.
type RoomHandler struct {
	rooms   *service.RoomService
	broker  *sse.Broker
	baseURL string
}

func NewRoomHandler(rooms *service.RoomService, broker *sse.Broker, baseURL string) *RoomHandler {
	return &RoomHandler{
		rooms:   rooms,
		broker:  broker,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Routes mounts the room API. createLimits guard room creation only.
func (h *RoomHandler) Routes(createLimits ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(h.requireStore)

	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
		r.With(createLimits...).Post("/", h.Create)
		r.Get("/{code}", h.Poll)
		r.Post("/{code}/actions", h.Act)
		r.Get("/{code}/qr", h.QRCode)
	})

	// Streams outlive the request timeout.
	r.Get("/{code}/events", h.Events)

	return r
}

func (h *RoomHandler) requireStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.rooms == nil {
			writeError(w, apperrors.StoreUnavailable())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// POST /api/rooms
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	var params service.CreateRoomParams
	if err := decodeJSON(r, &params); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.rooms.Create(r.Context(), params)
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:   audit.EventRoomCreate,
		Room:   result.Code,
		Player: result.View.Host,
		Details: map[string]interface{}{
			"rounds":  result.View.TotalRounds,
			"seconds": result.View.TurnDurationSeconds,
		},
	})

	writeJSON(w, http.StatusCreated, result)
}

// GET /api/rooms/{code}?player=NAME
func (h *RoomHandler) Poll(w http.ResponseWriter, r *http.Request) {
	view, err := h.rooms.Poll(r.Context(), chi.URLParam(r, "code"), r.URL.Query().Get("player"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// POST /api/rooms/{code}/actions
func (h *RoomHandler) Act(w http.ResponseWriter, r *http.Request) {
	var action model.Action
	if err := decodeJSON(r, &action); err != nil {
		writeError(w, err)
		return
	}
	if action.Type == "" {
		writeError(w, apperrors.MissingRequired("type"))
		return
	}

	view, err := h.rooms.Act(r.Context(), chi.URLParam(r, "code"), action)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// GET /api/rooms/{code}/qr
func (h *RoomHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	view, err := h.rooms.Poll(r.Context(), chi.URLParam(r, "code"), "")
	if err != nil {
		writeError(w, err)
		return
	}

	png, err := qrcode.Encode(h.joinURL(r, view.Code), qrcode.Medium, qrCodeSize)
	if err != nil {
		log.Error().Err(err).Str("roomCode", view.Code).Msg("failed to encode join qr code")
		writeError(w, apperrors.Internal("Failed to render QR code"))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func (h *RoomHandler) joinURL(r *http.Request, code string) string {
	base := h.baseURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	return base + "/?room=" + code
}
