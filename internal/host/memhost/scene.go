package memhost

import (
	"context"
	"fmt"
	"sync"

	"github.com/banshee-data/lesson.view/internal/host"
	"github.com/banshee-data/lesson.view/internal/timeutil"
)

// Scene is an in-memory scene graph. Tick advances animations and then runs
// the frame callbacks, mirroring a renderer's before-render pass.
type Scene struct {
	render sync.Mutex

	mu     sync.RWMutex
	meshes []*Mesh
	byName map[string]*Mesh
	glows  []*Glow

	frames   *FrameLoop
	animator *Animator
}

// NewScene creates an empty scene.
func NewScene() *Scene {
	return &Scene{
		byName:   make(map[string]*Mesh),
		frames:   &FrameLoop{},
		animator: &Animator{},
	}
}

// Add registers meshes with the scene. Later meshes shadow earlier ones with
// the same name in FindMesh.
func (s *Scene) Add(meshes ...*Mesh) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range meshes {
		s.meshes = append(s.meshes, m)
		s.byName[m.Name()] = m
	}
}

func (s *Scene) FindMesh(name string) (host.Mesh, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.byName[name]
	if !ok {
		return nil, false
	}
	return m, true
}

func (s *Scene) Children(node host.Node) []host.Mesh {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []host.Mesh
	for _, m := range s.meshes {
		for p := m.Parent(); p != nil; p = p.Parent() {
			if p == node {
				out = append(out, m)
				break
			}
		}
	}
	return out
}

func (s *Scene) NewHighlightMaterial(name string, emissive host.Color) host.Material {
	m := NewMaterial(name)
	m.Emissive = emissive
	return m
}

func (s *Scene) Frames() host.FrameLoop  { return s.frames }
func (s *Scene) Animator() host.Animator { return s.animator }

// FrameLoop exposes the concrete loop for inspection in tests.
func (s *Scene) FrameLoop() *FrameLoop { return s.frames }

// Animations exposes the concrete animator for inspection in tests.
func (s *Scene) Animations() *Animator { return s.animator }

// NewGlow implements host.GlowProvider.
func (s *Scene) NewGlow(name string, intensity float64) host.Glow {
	g := &Glow{Name: name, Intensity: intensity, enabled: true}
	s.mu.Lock()
	s.glows = append(s.glows, g)
	s.mu.Unlock()
	return g
}

// Glows returns every glow layer created so far, disposed or not.
func (s *Scene) Glows() []*Glow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Glow(nil), s.glows...)
}

// RenderLock is held for the duration of every Tick.
func (s *Scene) RenderLock() sync.Locker { return &s.render }

// Tick renders one frame.
func (s *Scene) Tick() {
	s.render.Lock()
	defer s.render.Unlock()
	s.animator.step()
	s.frames.Tick()
}

// Run ticks the scene at fps until ctx is done.
func (s *Scene) Run(ctx context.Context, clock timeutil.Clock, fps int) error {
	ticker := clock.NewTicker(timeutil.FrameInterval(fps))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C():
			s.Tick()
		}
	}
}

type frameEntry struct {
	id      host.FrameID
	name    string
	fn      func()
	removed bool
}

// FrameLoop runs callbacks in registration order.
type FrameLoop struct {
	mu      sync.Mutex
	nextID  host.FrameID
	entries []*frameEntry
	frame   uint64
}

func (l *FrameLoop) Register(name string, fn func()) host.FrameID {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	l.entries = append(l.entries, &frameEntry{id: l.nextID, name: name, fn: fn})
	return l.nextID
}

func (l *FrameLoop) Unregister(id host.FrameID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, e := range l.entries {
		if e.id == id {
			e.removed = true
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return
		}
	}
}

// Len returns the number of registered callbacks.
func (l *FrameLoop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Names returns the registered callback names in order.
func (l *FrameLoop) Names() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.name
	}
	return out
}

// Frame returns how many ticks have run.
func (l *FrameLoop) Frame() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frame
}

// Tick runs every callback once. Callbacks unregistered during the tick are
// skipped.
func (l *FrameLoop) Tick() {
	l.mu.Lock()
	l.frame++
	snapshot := append([]*frameEntry(nil), l.entries...)
	l.mu.Unlock()

	for _, e := range snapshot {
		l.mu.Lock()
		removed := e.removed
		l.mu.Unlock()
		if removed {
			continue
		}
		e.fn()
	}
}

// YawAnimation is a recorded AnimateYaw request and its progress.
type YawAnimation struct {
	Node   host.Node
	From   float64
	To     float64
	Frames int
	FPS    int
	frame  int
}

// Done reports whether the animation has reached its last frame.
func (a *YawAnimation) Done() bool { return a.frame >= a.Frames }

// Animator interpolates node yaw once per tick. A new animation on a node
// replaces the running one.
type Animator struct {
	mu      sync.Mutex
	active  []*YawAnimation
	history []YawAnimation
}

func (a *Animator) AnimateYaw(node host.Node, from, to float64, frames, fps int) {
	anim := &YawAnimation{Node: node, From: from, To: to, Frames: frames, FPS: fps}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = append(a.history, *anim)
	kept := a.active[:0]
	for _, x := range a.active {
		if x.Node != node {
			kept = append(kept, x)
		}
	}
	a.active = append(kept, anim)
	if frames <= 0 {
		node.SetYaw(to)
		a.active = a.active[:len(a.active)-1]
	}
}

// History returns every requested animation in order.
func (a *Animator) History() []YawAnimation {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]YawAnimation(nil), a.history...)
}

// Active returns the number of running animations.
func (a *Animator) Active() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.active)
}

func (a *Animator) step() {
	a.mu.Lock()
	defer a.mu.Unlock()
	kept := a.active[:0]
	for _, x := range a.active {
		x.frame++
		t := float64(x.frame) / float64(x.Frames)
		if t > 1 {
			t = 1
		}
		x.Node.SetYaw(x.From + (x.To-x.From)*t)
		if !x.Done() {
			kept = append(kept, x)
		}
	}
	a.active = kept
}

// Glow is a glow layer.
type Glow struct {
	mu        sync.Mutex
	Name      string
	Intensity float64
	enabled   bool
	disposed  bool
}

func (g *Glow) SetEnabled(e bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.enabled = e
}

func (g *Glow) Dispose() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.disposed = true
	g.enabled = false
}

// Enabled reports the current glow state.
func (g *Glow) Enabled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.enabled
}

// Disposed reports whether Dispose was called.
func (g *Glow) Disposed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.disposed
}

// AnimationGroups is a host.AnimationPlayer that records what was played.
type AnimationGroups struct {
	mu     sync.Mutex
	groups map[string]bool
	plays  []Play
	stops  int
}

// Play is one recorded AnimationPlayer.Play call.
type Play struct {
	Name     string
	Loop     bool
	Speed    float64
	From, To int
}

// NewAnimationGroups creates a player knowing the given group names.
func NewAnimationGroups(names ...string) *AnimationGroups {
	g := &AnimationGroups{groups: make(map[string]bool)}
	for _, n := range names {
		g.groups[n] = true
	}
	return g
}

func (g *AnimationGroups) Play(name string, loop bool, speed float64, from, to int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.groups[name] {
		return fmt.Errorf("animation group %q not found", name)
	}
	g.plays = append(g.plays, Play{Name: name, Loop: loop, Speed: speed, From: from, To: to})
	return nil
}

func (g *AnimationGroups) StopAll() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stops++
}

// Stops returns how many times StopAll was called.
func (g *AnimationGroups) Stops() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stops
}

// Plays returns every recorded Play call.
func (g *AnimationGroups) Plays() []Play {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Play(nil), g.plays...)
}
