package handler

import (
	"net/http"
	"time"
)

// Health reports liveness and whether remote rooms are available.
func Health(remote bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
			"remote":    remote,
		})
	}
}
