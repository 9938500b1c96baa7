// Package audit writes one structured line per security-relevant game event.
package audit

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type EventType string

const (
	EventRoomCreate      EventType = "room_create"
	EventLocalGameCreate EventType = "local_game_create"
	EventWordAdd         EventType = "word_add"
	EventForbiddenAction EventType = "forbidden_action"
	EventRateLimitExceed EventType = "rate_limit_exceeded"
)

type Event struct {
	Type      EventType
	Room      string
	Player    string
	IP        string
	UserAgent string
	Details   map[string]interface{}
}

// Log emits the event at info, or warn for refusals, tagged audit=game.
func Log(_ context.Context, event Event) {
	e := log.Info()
	if event.Type == EventForbiddenAction || event.Type == EventRateLimitExceed {
		e = log.Warn()
	}

	e = e.Str("audit", "game").
		Str("event_type", string(event.Type)).
		Time("timestamp", time.Now())
	e = optional(e, "room", event.Room)
	e = optional(e, "player", event.Player)
	e = optional(e, "ip", event.IP)
	e = optional(e, "user_agent", event.UserAgent)

	if len(event.Details) > 0 {
		details := zerolog.Dict()
		for k, v := range event.Details {
			details = addField(details, k, v)
		}
		e = e.Dict("details", details)
	}

	e.Msg("game audit event")
}

func optional(e *zerolog.Event, key, value string) *zerolog.Event {
	if value == "" {
		return e
	}
	return e.Str(key, value)
}

func addField(e *zerolog.Event, key string, value interface{}) *zerolog.Event {
	switch v := value.(type) {
	case string:
		return e.Str(key, v)
	case int:
		return e.Int(key, v)
	case int64:
		return e.Int64(key, v)
	case bool:
		return e.Bool(key, v)
	default:
		return e.Interface(key, v)
	}
}

func LogFromRequest(r *http.Request, event Event) {
	event.IP = ClientIP(r)
	event.UserAgent = r.UserAgent()
	Log(r.Context(), event)
}

// ClientIP returns the first X-Forwarded-For hop, then X-Real-IP, then the
// socket address without its port.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
