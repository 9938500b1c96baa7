// Package poller drives the read-reconcile-render loop for one room viewer.
package poller

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wezaxes/alias-server-go/internal/config"
	apperrors "github.com/wezaxes/alias-server-go/internal/errors"
	"github.com/wezaxes/alias-server-go/internal/model"
)

// PollFunc reads the room, applies any due transition and returns the
// viewer's projection.
type PollFunc func(ctx context.Context) (model.View, error)

// EmitFunc hands a view to whoever renders it. Returning an error stops the
// poller.
type EmitFunc func(model.View) error

type Poller struct {
	poll  PollFunc
	emit  EmitFunc
	nudge <-chan struct{}

	// Used when a read fails and there is no view to take the interval from.
	retryInterval time.Duration
}

// New builds a poller. nudge may be nil; a receive on it cuts the current
// wait short.
func New(poll PollFunc, emit EmitFunc, nudge <-chan struct{}) *Poller {
	return &Poller{
		poll:          poll,
		emit:          emit,
		nudge:         nudge,
		retryInterval: config.PollLobby,
	}
}

// Run polls until ctx is done, the room disappears or emit fails. A view is
// emitted whenever something a viewer can see has changed.
func (p *Poller) Run(ctx context.Context) error {
	var last *model.View

	for {
		wait := p.retryInterval

		view, err := p.poll(ctx)
		switch {
		case err == nil:
			if changed(last, &view) {
				if err := p.emit(view); err != nil {
					return err
				}
				last = &view
			}
			wait = time.Duration(view.PollAfterMs) * time.Millisecond
		case ctx.Err() != nil:
			return nil
		case apperrors.HasCode(err, apperrors.ErrCodeNotFound):
			return err
		default:
			log.Warn().Err(err).Dur("retryIn", wait).Msg("room poll failed")
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-p.nudge:
			timer.Stop()
		case <-timer.C:
		}
	}
}

func changed(last, next *model.View) bool {
	if last == nil {
		return true
	}
	return last.Version != next.Version ||
		last.Stage != next.Stage ||
		last.RemainingSeconds != next.RemainingSeconds
}
