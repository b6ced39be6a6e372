// Package flow sequences the scenes of a lesson.
//
// An Engine holds a fixed registry of scenes and a pointer to the active one.
// Every change of scene goes through GoTo, which queues the request and runs
// queued transitions one at a time: the outgoing scene's Exit runs to
// completion, the pointer moves, then the target's Enter runs to completion.
// Hooks therefore never overlap, even when navigation is requested from
// several goroutines at once.
package flow

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/banshee-data/lesson.view/internal/monitoring"
	"github.com/banshee-data/lesson.view/internal/timeutil"
)

var (
	ErrUnknownScene   = errors.New("unknown scene")
	ErrDuplicateName  = errors.New("duplicate scene name")
	ErrAlreadyStarted = errors.New("engine already started")
	ErrNoNeighbour    = errors.New("no neighbouring scene")
	ErrAborted        = errors.New("transition aborted")
)

const tracerName = "github.com/banshee-data/lesson.view/internal/flow"

// Scene is one step of a lesson. Enter sets up everything the scene shows;
// Exit undoes it.
type Scene[C any] interface {
	Name() string
	Enter(ctx context.Context, c *C) error
	Exit(ctx context.Context, c *C) error
}

// Transition describes a completed scene change. From is empty for the first
// transition.
type Transition struct {
	From      string
	To        string
	ExitErr   error
	EnterErr  error
	StartedAt time.Time
	Duration  time.Duration
}

type request struct {
	name string
	done chan error
}

type hookKey struct{}

// Engine runs scenes over a shared context of type C.
type Engine[C any] struct {
	shared   *C
	clock    timeutil.Clock
	tracer   trace.Tracer
	hookLock sync.Locker

	mu        sync.Mutex
	scenes    map[string]Scene[C]
	order     []string
	current   string
	active    bool
	started   bool
	inflight  string
	queue     []*request
	draining  bool
	observers []func(Transition)
}

// New returns an engine whose scenes share c.
func New[C any](c *C) *Engine[C] {
	return &Engine[C]{
		shared: c,
		clock:  timeutil.RealClock{},
		tracer: otel.Tracer(tracerName),
		scenes: make(map[string]Scene[C]),
	}
}

// WithClock sets the clock used for transition timestamps.
func (e *Engine[C]) WithClock(c timeutil.Clock) *Engine[C] {
	e.clock = c
	return e
}

// WithTracerProvider replaces the global tracer provider.
func (e *Engine[C]) WithTracerProvider(tp trace.TracerProvider) *Engine[C] {
	e.tracer = tp.Tracer(tracerName)
	return e
}

// WithHookLock makes every hook run while holding l. Hosts that render from
// another goroutine pass their frame lock so hooks and frame callbacks never
// interleave. Frame callbacks must not call GoTo while holding l.
func (e *Engine[C]) WithHookLock(l sync.Locker) *Engine[C] {
	e.hookLock = l
	return e
}

// WithObserver registers fn to be called after every transition. Observers
// run on the goroutine that drains the queue, before the next transition.
func (e *Engine[C]) WithObserver(fn func(Transition)) *Engine[C] {
	e.mu.Lock()
	e.observers = append(e.observers, fn)
	e.mu.Unlock()
	return e
}

// Context returns the shared context.
func (e *Engine[C]) Context() *C { return e.shared }

// Register adds a scene. Registration order is navigation order.
func (e *Engine[C]) Register(s Scene[C]) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	name := s.Name()
	if _, ok := e.scenes[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	e.scenes[name] = s
	e.order = append(e.order, name)
	return nil
}

// Names returns the registered scene names in registration order.
func (e *Engine[C]) Names() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.order)
}

// Current returns the active scene. It reports false before the first
// transition and while an Exit hook is running.
func (e *Engine[C]) Current() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current, e.active
}

// Pending returns the number of queued requests not yet started.
func (e *Engine[C]) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

// Start enters the initial scene. It may be called once.
func (e *Engine[C]) Start(ctx context.Context, name string) error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return ErrAlreadyStarted
	}
	if _, ok := e.scenes[name]; !ok {
		e.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownScene, name)
	}
	e.started = true
	e.mu.Unlock()
	return e.GoTo(ctx, name)
}

// GoTo requests a transition to name and waits for it to finish, returning
// the target's Enter error. Called from within a hook, it queues the request
// and returns nil at once. If ctx ends while waiting, GoTo returns ctx.Err()
// but the request still runs in turn.
func (e *Engine[C]) GoTo(ctx context.Context, name string) error {
	return e.submit(ctx, func() (string, error) {
		if _, ok := e.scenes[name]; !ok {
			return "", fmt.Errorf("%w: %q", ErrUnknownScene, name)
		}
		return name, nil
	})
}

// Next moves to the scene registered after the most recently requested one.
func (e *Engine[C]) Next(ctx context.Context) error {
	return e.submit(ctx, func() (string, error) { return e.neighbour(1) })
}

// Prev moves to the scene registered before the most recently requested one.
func (e *Engine[C]) Prev(ctx context.Context) error {
	return e.submit(ctx, func() (string, error) { return e.neighbour(-1) })
}

// neighbour must be called with e.mu held.
func (e *Engine[C]) neighbour(step int) (string, error) {
	var ref string
	switch {
	case len(e.queue) > 0:
		ref = e.queue[len(e.queue)-1].name
	case e.inflight != "":
		ref = e.inflight
	case e.active:
		ref = e.current
	default:
		return "", ErrNoNeighbour
	}
	i := slices.Index(e.order, ref) + step
	if i < 0 || i >= len(e.order) {
		return "", fmt.Errorf("%w: %q", ErrNoNeighbour, ref)
	}
	return e.order[i], nil
}

// submit resolves the target and enqueues it under one lock so concurrent
// relative navigation sees a consistent queue.
func (e *Engine[C]) submit(ctx context.Context, resolve func() (string, error)) error {
	e.mu.Lock()
	name, err := resolve()
	if err != nil {
		e.mu.Unlock()
		return err
	}
	e.started = true
	req := &request{name: name, done: make(chan error, 1)}
	e.queue = append(e.queue, req)

	if e.draining {
		e.mu.Unlock()
		if ctx.Value(hookKey{}) == any(e) {
			return nil
		}
		select {
		case err := <-req.done:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	e.draining = true
	e.mu.Unlock()

	e.drain(context.WithoutCancel(ctx))
	return <-req.done
}

func (e *Engine[C]) drain(base context.Context) {
	hookCtx := context.WithValue(base, hookKey{}, any(e))
	var req *request
	finished := false
	defer func() {
		if finished {
			return
		}
		// A panic escaped a transition. Fail everything still waiting so the
		// next GoTo starts a fresh drain.
		e.mu.Lock()
		pending := e.queue
		e.queue = nil
		e.draining = false
		e.inflight = ""
		e.mu.Unlock()
		if req != nil {
			req.done <- ErrAborted
		}
		for _, r := range pending {
			r.done <- ErrAborted
		}
	}()
	for {
		e.mu.Lock()
		if len(e.queue) == 0 {
			e.draining = false
			e.inflight = ""
			e.mu.Unlock()
			finished = true
			return
		}
		req = e.queue[0]
		e.queue = e.queue[1:]
		e.inflight = req.name
		e.mu.Unlock()

		err := e.transition(hookCtx, req.name)
		req.done <- err
		req = nil
	}
}

func (e *Engine[C]) transition(ctx context.Context, to string) error {
	e.mu.Lock()
	from, hadActive := e.current, e.active
	outgoing := e.scenes[from]
	incoming := e.scenes[to]
	e.active = false
	e.current = ""
	observers := slices.Clone(e.observers)
	e.mu.Unlock()

	t := Transition{To: to, StartedAt: e.clock.Now()}
	ctx, span := e.tracer.Start(ctx, "flow.transition", trace.WithAttributes(
		attribute.String("scene.from", from),
		attribute.String("scene.to", to),
	))
	defer span.End()

	if hadActive {
		t.From = from
		t.ExitErr = e.runHook(ctx, "flow.exit", from, outgoing.Exit)
		if t.ExitErr != nil {
			monitoring.Recoverable("flow", fmt.Errorf("exit %q: %w", from, t.ExitErr))
		}
	}

	e.mu.Lock()
	e.current = to
	e.active = true
	e.mu.Unlock()

	t.EnterErr = e.runHook(ctx, "flow.enter", to, incoming.Enter)
	if t.EnterErr != nil {
		span.SetStatus(codes.Error, t.EnterErr.Error())
	}
	t.Duration = e.clock.Since(t.StartedAt)

	for _, fn := range observers {
		notify(fn, t)
	}
	if t.EnterErr != nil {
		return fmt.Errorf("enter %q: %w", to, t.EnterErr)
	}
	return nil
}

// notify calls one observer. A panicking observer is counted and skipped.
func notify(fn func(Transition), t Transition) {
	defer func() {
		if r := recover(); r != nil {
			monitoring.Recoverable("flow", fmt.Errorf("observer of %q: panic: %v", t.To, r))
		}
	}()
	fn(t)
}

// runHook runs a lifecycle hook in a child span, turning a panic into an
// error.
func (e *Engine[C]) runHook(ctx context.Context, spanName, scene string, hook func(context.Context, *C) error) (err error) {
	ctx, span := e.tracer.Start(ctx, spanName, trace.WithAttributes(attribute.String("scene.name", scene)))
	if e.hookLock != nil {
		e.hookLock.Lock()
		defer e.hookLock.Unlock()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", spanName, r)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	return hook(ctx, e.shared)
}
