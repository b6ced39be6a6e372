// Package effects owns the transient visual effects a scene creates while it
// is active: blinking highlights, floating labels, per-frame rules and
// hit-test subscriptions.
//
// Every effect is created inside a Scope. A scene opens its scope with
// Manager.Begin when it enters and closes it with Scope.ReleaseAll when it
// exits; releasing tears down every handle in reverse creation order, so
// nothing a scene started can outlive it.
package effects

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/lesson.view/internal/host"
	"github.com/banshee-data/lesson.view/internal/monitoring"
	"github.com/banshee-data/lesson.view/internal/occlusion"
	"github.com/banshee-data/lesson.view/internal/timeutil"
)

// Kind identifies the type of effect behind a Handle.
type Kind string

const (
	KindBlink        Kind = "blink"
	KindLabel        Kind = "label"
	KindFrame        Kind = "frame"
	KindOcclusion    Kind = "occlusion"
	KindSubscription Kind = "subscription"
	KindDefer        Kind = "defer"
)

// Default highlight appearance.
var (
	HighlightColor = host.Color{R: 0.72, G: 0.25, B: 0.62}
	GlowIntensity  = 0.8
)

// Handle is a live effect. Release is idempotent.
type Handle interface {
	ID() string
	Kind() Kind
	Name() string
	Release()
	Released() bool
}

type handle struct {
	id      string
	kind    Kind
	name    string
	release func()

	mu       sync.Mutex
	released bool
}

func newHandle(kind Kind, name string, release func()) *handle {
	return &handle{id: uuid.New().String(), kind: kind, name: name, release: release}
}

func (h *handle) ID() string   { return h.id }
func (h *handle) Kind() Kind   { return h.kind }
func (h *handle) Name() string { return h.name }

func (h *handle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}

// Release runs the teardown once. A panic in the teardown is logged and
// swallowed so the remaining handles of a scope still get released.
func (h *handle) Release() {
	h.mu.Lock()
	if h.released {
		h.mu.Unlock()
		return
	}
	h.released = true
	h.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			monitoring.Recoverable("effects", fmt.Errorf("release %s %q: panic: %v", h.kind, h.name, r))
		}
	}()
	if h.release != nil {
		h.release()
	}
}

// Manager creates scopes bound to one scene graph and overlay.
type Manager struct {
	graph   host.SceneGraph
	overlay host.Overlay
	clock   timeutil.Clock

	mu     sync.Mutex
	scopes []*Scope
}

// NewManager returns a manager using the real clock.
func NewManager(graph host.SceneGraph, overlay host.Overlay) *Manager {
	return &Manager{graph: graph, overlay: overlay, clock: timeutil.RealClock{}}
}

// WithClock replaces the clock driving blink timing.
func (m *Manager) WithClock(c timeutil.Clock) *Manager {
	m.clock = c
	return m
}

// Begin opens a scope for owner.
func (m *Manager) Begin(owner string) *Scope {
	s := &Scope{m: m, owner: owner}
	m.mu.Lock()
	m.scopes = append(m.scopes, s)
	m.mu.Unlock()
	return s
}

// Current returns the most recently opened scope that is still open, or nil.
func (m *Manager) Current() *Scope {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.scopes) == 0 {
		return nil
	}
	return m.scopes[len(m.scopes)-1]
}

// Open returns the owners of all open scopes, oldest first.
func (m *Manager) Open() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.scopes))
	for i, s := range m.scopes {
		out[i] = s.owner
	}
	return out
}

func (m *Manager) remove(s *Scope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, x := range m.scopes {
		if x == s {
			m.scopes = append(m.scopes[:i], m.scopes[i+1:]...)
			return
		}
	}
}

// Scope collects the handles created for one scene activation.
type Scope struct {
	m     *Manager
	owner string

	mu      sync.Mutex
	handles []*handle
}

// Owner returns the name passed to Begin.
func (s *Scope) Owner() string { return s.owner }

// Len returns the number of handles not yet released.
func (s *Scope) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, h := range s.handles {
		if !h.Released() {
			n++
		}
	}
	return n
}

func (s *Scope) track(h *handle) *handle {
	s.mu.Lock()
	s.handles = append(s.handles, h)
	s.mu.Unlock()
	return h
}

// ReleaseAll releases every handle of the scope, newest first, and closes the
// scope. Calling it again is a no-op.
func (s *Scope) ReleaseAll() {
	s.mu.Lock()
	handles := s.handles
	s.handles = nil
	s.mu.Unlock()

	for i := len(handles) - 1; i >= 0; i-- {
		handles[i].Release()
	}
	s.m.remove(s)
}

// OnFrame runs fn once per rendered frame until released.
func (s *Scope) OnFrame(name string, fn func()) Handle {
	frames := s.m.graph.Frames()
	id := frames.Register(name, fn)
	return s.track(newHandle(KindFrame, name, func() {
		frames.Unregister(id)
	}))
}

// Defer registers an arbitrary cleanup.
func (s *Scope) Defer(name string, fn func()) Handle {
	return s.track(newHandle(KindDefer, name, fn))
}

// RunBlinkingHighlight gives mesh a highlight material at once and then
// alternates between the highlight and the original material every interval.
// Timing is sampled on each frame, so the blink stops as soon as the handle
// is released. Release restores the original material.
func (s *Scope) RunBlinkingHighlight(mesh host.Mesh, interval time.Duration) (Handle, error) {
	if mesh == nil {
		return nil, fmt.Errorf("%w: blink target is nil", host.ErrMeshNotFound)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("blink interval must be positive, got %s", interval)
	}

	original := mesh.Material()
	highlight := s.m.graph.NewHighlightMaterial(mesh.Name()+"_highlight", HighlightColor)
	mesh.SetMaterial(highlight)

	var glow host.Glow
	if gp, ok := s.m.graph.(host.GlowProvider); ok {
		glow = gp.NewGlow(mesh.Name()+"_glow", GlowIntensity)
		glow.SetEnabled(true)
	}

	clock := s.m.clock
	b := &blink{mesh: mesh, original: original, highlight: highlight, glow: glow, interval: interval, last: clock.Now(), on: true}
	frames := s.m.graph.Frames()
	id := frames.Register("blink:"+mesh.Name(), func() { b.step(clock) })

	return s.track(newHandle(KindBlink, mesh.Name(), func() {
		frames.Unregister(id)
		mesh.SetMaterial(original)
		if glow != nil {
			glow.Dispose()
		}
	})), nil
}

// RunBlinkingHighlightByName looks the mesh up in the scene graph.
func (s *Scope) RunBlinkingHighlightByName(name string, interval time.Duration) (Handle, error) {
	mesh, ok := s.m.graph.FindMesh(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", host.ErrMeshNotFound, name)
	}
	return s.RunBlinkingHighlight(mesh, interval)
}

type blink struct {
	mesh      host.Mesh
	original  host.Material
	highlight host.Material
	glow      host.Glow
	interval  time.Duration
	last      time.Time
	on        bool
}

func (b *blink) step(clock timeutil.Clock) {
	elapsed := clock.Since(b.last)
	if elapsed < b.interval {
		return
	}
	n := int64(elapsed / b.interval)
	b.last = b.last.Add(time.Duration(n) * b.interval)
	if n%2 == 0 {
		return
	}
	b.on = !b.on
	if b.on {
		b.mesh.SetMaterial(b.highlight)
	} else {
		b.mesh.SetMaterial(b.original)
	}
	if b.glow != nil {
		b.glow.SetEnabled(b.on)
	}
}

// AttachFloatingLabel adds an overlay label that tracks anchor on screen.
func (s *Scope) AttachFloatingLabel(anchor host.Mesh, text string) (Handle, error) {
	if anchor == nil {
		return nil, fmt.Errorf("%w: label anchor is nil", host.ErrMeshNotFound)
	}
	label := s.m.overlay.AddLabel(text)
	label.LinkWithMesh(anchor)
	return s.track(newHandle(KindLabel, text, label.Dispose)), nil
}

// AttachFloatingLabelByName looks the anchor up in the scene graph.
func (s *Scope) AttachFloatingLabelByName(anchorName, text string) (Handle, error) {
	mesh, ok := s.m.graph.FindMesh(anchorName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", host.ErrMeshNotFound, anchorName)
	}
	return s.AttachFloatingLabel(mesh, text)
}

// InstallOcclusion shows the plane and hides every part of root above it on
// each frame. Release hides the plane and shows all parts.
func (s *Scope) InstallOcclusion(root host.Node, plane host.Mesh) (Handle, error) {
	if plane == nil {
		return nil, fmt.Errorf("%w: occlusion plane is nil", host.ErrMeshNotFound)
	}
	rule := &occlusion.Rule{Graph: s.m.graph, Root: root, Plane: plane}
	plane.SetVisible(true)
	frames := s.m.graph.Frames()
	id := frames.Register("occlusion", rule.Apply)
	return s.track(newHandle(KindOcclusion, plane.Name(), func() {
		frames.Unregister(id)
		rule.Reset()
	})), nil
}

// SubscribeHitTests delivers hit-test results to fn from the frame loop, so
// fn runs on the same thread as every other frame callback. Release stops
// delivery and unsubscribes.
func (s *Scope) SubscribeHitTests(src host.HitTestSource, fn func([]host.HitResult)) Handle {
	subID, ch := src.Subscribe()
	frames := s.m.graph.Frames()
	id := frames.Register("hittest", func() {
		select {
		case results, ok := <-ch:
			if ok {
				fn(results)
			}
		default:
		}
	})
	return s.track(newHandle(KindSubscription, "hittest", func() {
		frames.Unregister(id)
		src.Unsubscribe(subID)
	}))
}
