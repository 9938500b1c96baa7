package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/wezaxes/alias-server-go/internal/repository"
	"github.com/wezaxes/alias-server-go/internal/service"
	"github.com/wezaxes/alias-server-go/internal/wordbank"
)

type testServer struct {
	router http.Handler
	bank   *wordbank.Bank
	mr     *miniredis.Miniredis
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	bank := wordbank.New(nil)
	rooms := service.NewRoomService(repository.NewSessionRepository(client, time.Hour), bank, nil)

	return &testServer{
		router: newRouter(NewRoomHandler(rooms, nil, "https://alias.example"), bank),
		bank:   bank,
		mr:     mr,
	}
}

func newRouter(rooms *RoomHandler, bank *wordbank.Bank) http.Handler {
	words := NewWordHandler(service.NewWordService(bank))

	r := chi.NewRouter()
	r.Get("/health", Health(rooms.rooms != nil))
	r.Route("/api", func(r chi.Router) {
		r.Mount("/rooms", rooms.Routes())
		r.Mount("/local", NewLocalHandler(service.NewLocalService(bank)).Routes())
		r.Mount("/words", words.Routes())
	})
	return r
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
