package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/wezaxes/alias-server-go/internal/errors"
	"github.com/wezaxes/alias-server-go/internal/model"
)

type recorder struct {
	mu    sync.Mutex
	views []model.View
}

func (r *recorder) emit(v model.View) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views = append(r.views, v)
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

func TestPoller_EmitsOnlyChanges(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls int
	poll := func(context.Context) (model.View, error) {
		calls++
		v := model.View{Version: 1, Stage: model.StageLobby, PollAfterMs: 1}
		if calls >= 5 {
			v.Version = 2
		}
		if calls >= 8 {
			cancel()
		}
		return v, nil
	}

	rec := &recorder{}
	require.NoError(t, New(poll, rec.emit, nil).Run(ctx))

	require.Equal(t, 2, rec.count())
	assert.Equal(t, int64(1), rec.views[0].Version)
	assert.Equal(t, int64(2), rec.views[1].Version)
}

func TestPoller_StopsWhenRoomIsGone(t *testing.T) {
	poll := func(context.Context) (model.View, error) {
		return model.View{}, apperrors.NotFound("Room")
	}

	err := New(poll, (&recorder{}).emit, nil).Run(context.Background())
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))
}

func TestPoller_RetriesTransientErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls int
	poll := func(context.Context) (model.View, error) {
		calls++
		if calls < 3 {
			return model.View{}, errors.New("connection refused")
		}
		cancel()
		return model.View{Version: 7, PollAfterMs: 1}, nil
	}

	p := New(poll, (&recorder{}).emit, nil)
	p.retryInterval = time.Millisecond
	rec := &recorder{}
	p.emit = rec.emit

	require.NoError(t, p.Run(ctx))
	assert.Equal(t, 3, calls)
	assert.Equal(t, 1, rec.count())
}

func TestPoller_EmitErrorStops(t *testing.T) {
	poll := func(context.Context) (model.View, error) {
		return model.View{PollAfterMs: 1}, nil
	}
	boom := errors.New("client went away")

	err := New(poll, func(model.View) error { return boom }, nil).Run(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestPoller_NudgeCutsWaitShort(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	nudge := make(chan struct{}, 1)
	var calls int
	poll := func(context.Context) (model.View, error) {
		calls++
		if calls == 2 {
			cancel()
		}
		return model.View{Version: int64(calls), PollAfterMs: int64(time.Hour / time.Millisecond)}, nil
	}

	nudge <- struct{}{}
	start := time.Now()
	require.NoError(t, New(poll, (&recorder{}).emit, nudge).Run(ctx))
	assert.Equal(t, 2, calls)
	assert.Less(t, time.Since(start), time.Second)
}
