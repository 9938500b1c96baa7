package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wezaxes/alias-server-go/internal/model"
)

func TestLocalHandler(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/local", model.CreateLocalGameParams{
		Teams:   []string{"Cats", "Dogs"},
		Rounds:  2,
		Seconds: 30,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[model.LocalView](t, rec)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "Cats", created.Active)
	assert.False(t, created.TurnActive)
	path := "/api/local/" + created.ID

	t.Run("get returns the game", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, path, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, created.ID, decode[model.LocalView](t, rec).ID)
	})

	t.Run("ready starts a turn with a word", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, path+"/actions", map[string]string{"type": "ready"})

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		view := decode[model.LocalView](t, rec)
		assert.True(t, view.TurnActive)
		assert.NotEmpty(t, view.Word)
	})

	t.Run("guessed scores for the active team", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, path+"/actions", map[string]string{"type": "mark-guessed"})

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		view := decode[model.LocalView](t, rec)
		for _, e := range view.Scores {
			if e.Player == "Cats" {
				assert.Equal(t, 1, e.Score)
			}
		}
	})

	t.Run("remote-only action is refused", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, path+"/actions", map[string]string{"type": "begin-turn"})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing action type", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, path+"/actions", map[string]string{})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "MISSING_REQUIRED", decode[errorBody](t, rec).Code)
	})

	t.Run("delete removes the game", func(t *testing.T) {
		rec := s.do(t, http.MethodDelete, path, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = s.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestLocalHandler_CreateValidation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		params model.CreateLocalGameParams
	}{
		{"one team", model.CreateLocalGameParams{Teams: []string{"Solo"}}},
		{"blank team name", model.CreateLocalGameParams{Teams: []string{"A", "  "}}},
		{"too many rounds", model.CreateLocalGameParams{Teams: []string{"A", "B"}, Rounds: 21}},
		{"timer too short", model.CreateLocalGameParams{Teams: []string{"A", "B"}, Seconds: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/local", tt.params)

			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}
