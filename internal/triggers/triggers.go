// Package triggers turns user and XR events into scene navigation.
package triggers

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/banshee-data/lesson.view/internal/flow"
	"github.com/banshee-data/lesson.view/internal/host"
)

// Scene names the XR binding and the marker pick lead to.
const (
	SceneOverview       = "Overview"
	SceneARIntroduction = "ArIntroduction"
)

// Engine is the navigation surface of a flow.Engine.
type Engine interface {
	GoTo(ctx context.Context, name string) error
	Next(ctx context.Context) error
	Prev(ctx context.Context) error
}

// Buttons implements the top menu navigation buttons. Pressing next on the
// last scene or previous on the first does nothing.
type Buttons struct {
	Engine Engine
}

func (b Buttons) Next(ctx context.Context) error {
	return ignoreEnds(b.Engine.Next(ctx))
}

func (b Buttons) Prev(ctx context.Context) error {
	return ignoreEnds(b.Engine.Prev(ctx))
}

func ignoreEnds(err error) error {
	if errors.Is(err, flow.ErrNoNeighbour) {
		return nil
	}
	return err
}

// PickMarker navigates to the overview when the picked mesh is the placement
// marker. It reports whether navigation happened.
func PickMarker(ctx context.Context, e Engine, picked, marker host.Mesh) (bool, error) {
	if picked == nil || marker == nil || picked != marker {
		return false, nil
	}
	return true, e.GoTo(ctx, SceneOverview)
}

// ToggleAR enters XR when outside it and exits when inside. Requests during
// the transitional states are ignored.
func ToggleAR(xr host.XRSession) error {
	switch xr.State() {
	case host.InXR:
		return xr.Exit()
	case host.NotInXR:
		return xr.Enter()
	default:
		return nil
	}
}

// XRBinding restarts the lesson at the AR placement scene whenever an XR
// session starts and at the overview whenever it ends.
type XRBinding struct {
	xr     host.XRSession
	engine Engine
	id     string
	events <-chan host.XRState

	stopOnce sync.Once
	done     chan struct{}
}

// BindXR subscribes to xr and starts forwarding state changes to e until ctx
// is done or Stop is called.
func BindXR(ctx context.Context, xr host.XRSession, e Engine) *XRBinding {
	id, events := xr.Subscribe()
	b := &XRBinding{xr: xr, engine: e, id: id, events: events, done: make(chan struct{})}
	go b.run(ctx)
	return b
}

func (b *XRBinding) run(ctx context.Context) {
	defer close(b.done)
	go func() {
		select {
		case <-ctx.Done():
			b.Stop()
		case <-b.done:
		}
	}()

	for state := range b.events {
		var target string
		switch state {
		case host.InXR:
			target = SceneARIntroduction
		case host.NotInXR:
			target = SceneOverview
		default:
			continue
		}
		if err := b.engine.GoTo(context.WithoutCancel(ctx), target); err != nil {
			log.Printf("[xr] %s -> %s: %v", state, target, err)
		}
	}
}

// Stop unsubscribes. The forwarding goroutine exits once the subscription
// channel is closed.
func (b *XRBinding) Stop() {
	b.stopOnce.Do(func() { b.xr.Unsubscribe(b.id) })
}

// Done is closed when the forwarding goroutine has exited.
func (b *XRBinding) Done() <-chan struct{} { return b.done }
