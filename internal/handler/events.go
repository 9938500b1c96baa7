package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/wezaxes/alias-server-go/internal/errors"
	"github.com/wezaxes/alias-server-go/internal/model"
	"github.com/wezaxes/alias-server-go/internal/poller"
	"github.com/wezaxes/alias-server-go/internal/sse"
)

// GET /api/rooms/{code}/events?player=NAME
//
// Streams "view" events from a server-side poller. The broker, when present,
// only shortens the poller's sleep after another client writes.
func (h *RoomHandler) Events(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rawCode := chi.URLParam(r, "code")
	viewer := r.URL.Query().Get("player")

	first, err := h.rooms.Poll(ctx, rawCode, viewer)
	if err != nil {
		writeError(w, err)
		return
	}
	code := first.Code

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Streaming not supported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	var nudges <-chan struct{}
	var done <-chan struct{}
	if h.broker != nil {
		sub := h.broker.Subscribe(code)
		defer h.broker.Unsubscribe(sub)
		nudges = sub.Nudges
		done = sub.Done
	}

	log.Info().
		Str("roomCode", code).
		Str("actor", viewer).
		Msg("sse connection established")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Heartbeats share the writer with the poller, so every write goes through
	// this goroutine.
	views := make(chan model.View)
	result := make(chan error, 1)
	p := poller.New(
		func(ctx context.Context) (model.View, error) {
			v, err := h.rooms.Poll(ctx, code, viewer)
			if err != nil {
				return model.View{}, err
			}
			return *v, nil
		},
		func(v model.View) error {
			select {
			case views <- v:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
		nudges,
	)
	go func() { result <- p.Run(ctx) }()

	heartbeat := time.NewTicker(sse.HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("roomCode", code).Msg("sse connection closed by client")
			return

		case <-done:
			log.Info().Str("roomCode", code).Msg("sse connection closed by broker")
			return

		case v := <-views:
			if err := sendEvent(w, flusher, "view", v); err != nil {
				log.Debug().Err(err).Str("roomCode", code).Msg("failed to send view, closing connection")
				return
			}

		case err := <-result:
			if apperrors.HasCode(err, apperrors.ErrCodeNotFound) {
				sendEvent(w, flusher, "gone", map[string]string{"code": code})
				log.Info().Str("roomCode", code).Msg("room gone, closing sse connection")
			}
			return

		case <-heartbeat.C:
			if _, err := fmt.Fprintf(w, ": ping\n\n"); err != nil {
				log.Debug().Str("roomCode", code).Msg("heartbeat failed, closing connection")
				return
			}
			flusher.Flush()
		}
	}
}

func sendEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return sendRawEvent(w, flusher, eventType, jsonData)
}

func sendRawEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data []byte) error {
	if _, err := fmt.Fprintf(w, "event: %s\n", eventType); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
