// Package app assembles a headless lesson: the in-memory host, the shared
// context, the scene engine and the XR binding.
package app

import (
	"context"
	"fmt"
	"log"

	"github.com/banshee-data/lesson.view/internal/align"
	"github.com/banshee-data/lesson.view/internal/config"
	"github.com/banshee-data/lesson.view/internal/effects"
	"github.com/banshee-data/lesson.view/internal/flow"
	"github.com/banshee-data/lesson.view/internal/host/memhost"
	"github.com/banshee-data/lesson.view/internal/lesson"
	"github.com/banshee-data/lesson.view/internal/timeutil"
	"github.com/banshee-data/lesson.view/internal/triggers"
)

// App is a running lesson.
type App struct {
	Config  *config.LessonConfig
	World   *memhost.World
	Context *lesson.Context
	Engine  *flow.Engine[lesson.Context]
	Clock   timeutil.Clock
	Buttons triggers.Buttons

	binding *triggers.XRBinding
}

// Option customises New.
type Option func(*App)

// WithClock sets the clock for blink timing, transition timestamps and the
// frame driver.
func WithClock(c timeutil.Clock) Option {
	return func(a *App) { a.Clock = c }
}

// WithObserver registers a transition observer on the engine.
func WithObserver(fn func(flow.Transition)) Option {
	return func(a *App) { a.Engine.WithObserver(fn) }
}

// New builds the lesson described by cfg over a fresh memhost world.
func New(cfg *config.LessonConfig, opts ...Option) (*App, error) {
	w := memhost.NewWorld()
	a := &App{Config: cfg, World: w, Clock: timeutil.RealClock{}}

	plane, _ := w.Scene.FindMesh(cfg.GetOcclusionPlane())
	a.Context = &lesson.Context{
		Graph:         w.Scene,
		Model:         lesson.NewModel(w.Scene, w.Root, w.Groups, cfg.GetModelAnimation()),
		Camera:        w.Camera,
		Overlay:       w.Overlay,
		TopMenu:       w.TopMenu,
		XR:            w.XR,
		Floor:         w.Floor,
		Marker:        w.Marker,
		Skybox:        w.Skybox,
		Plane:         plane,
		Aligner:       &align.Aligner{StepDegrees: cfg.GetAlignStepDegrees(), FPS: cfg.GetFPS()},
		AnchorMesh:    cfg.GetAnchorMesh(),
		BlinkInterval: cfg.GetBlinkInterval(),
	}
	a.Engine = flow.New(a.Context)
	for _, opt := range opts {
		opt(a)
	}
	a.Engine.WithClock(a.Clock).WithHookLock(w.Scene.RenderLock())
	a.Context.Effects = effects.NewManager(w.Scene, w.Overlay).WithClock(a.Clock)
	a.Context.Nav = a.Engine
	a.Buttons = triggers.Buttons{Engine: a.Engine}

	if err := lesson.Register(a.Engine, cfg); err != nil {
		return nil, fmt.Errorf("register scenes: %w", err)
	}
	// Hidden until a scene shows it.
	a.Context.Model.SetVisible(false)
	return a, nil
}

// Start binds XR state to navigation and enters the initial scene.
func (a *App) Start(ctx context.Context) error {
	a.binding = triggers.BindXR(ctx, a.World.XR, a.Engine)
	log.Printf("[lesson] starting at %s", a.Config.GetInitialScene())
	return a.Engine.Start(ctx, a.Config.GetInitialScene())
}

// Stop releases the XR binding.
func (a *App) Stop() {
	if a.binding != nil {
		a.binding.Stop()
		<-a.binding.Done()
	}
}

// Run drives the frame loop until ctx is done.
func (a *App) Run(ctx context.Context) error {
	return a.World.Scene.Run(ctx, a.Clock, a.Config.GetFPS())
}

// PickMarker simulates a tap on the placement marker.
func (a *App) PickMarker(ctx context.Context) (bool, error) {
	return triggers.PickMarker(ctx, a.Engine, a.World.Marker, a.World.Marker)
}

// ToggleAR simulates the AR button.
func (a *App) ToggleAR() error {
	return triggers.ToggleAR(a.World.XR)
}

// State is a snapshot of the lesson for status reporting.
type State struct {
	Scene   string `json:"scene"`
	Active  bool   `json:"active"`
	Pending int    `json:"pending"`
	XR      string `json:"xr"`
	Placed  bool   `json:"placed"`
}

// State reads the current scene and XR placement. It takes the frame lock so
// it never observes a hook half way through.
func (a *App) State() State {
	l := a.World.Scene.RenderLock()
	l.Lock()
	defer l.Unlock()
	name, active := a.Engine.Current()
	return State{
		Scene:   name,
		Active:  active,
		Pending: a.Engine.Pending(),
		XR:      a.World.XR.State().String(),
		Placed:  a.Context.IsARPlaced,
	}
}
