package lesson

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/lesson.view/internal/host"
)

const (
	dimmedAlpha = 0.3
)

var darkAlbedo = host.Color{R: 0.3, G: 0.3, B: 0.3}

// Model is the loaded lesson model: a root mesh with named parts and the
// animation groups that came with it.
type Model struct {
	graph     host.SceneGraph
	root      host.Mesh
	player    host.AnimationPlayer
	animation string

	// unique records meshes whose material has already been cloned so that
	// tinting one mesh never changes another sharing the same material.
	unique map[string]bool
}

// NewModel wraps root and its animation player. animation is the group
// PlayAnimation drives.
func NewModel(graph host.SceneGraph, root host.Mesh, player host.AnimationPlayer, animation string) *Model {
	return &Model{
		graph:     graph,
		root:      root,
		player:    player,
		animation: animation,
		unique:    make(map[string]bool),
	}
}

// Root returns the model root node.
func (m *Model) Root() host.Node { return m.root }

// FindMesh returns a part of the model by name.
func (m *Model) FindMesh(name string) (host.Mesh, bool) {
	if name == m.root.Name() {
		return m.root, true
	}
	for _, mesh := range m.graph.Children(m.root) {
		if mesh.Name() == name {
			return mesh, true
		}
	}
	return nil, false
}

// Meshes returns the root followed by every part.
func (m *Model) Meshes() []host.Mesh {
	return append([]host.Mesh{m.root}, m.graph.Children(m.root)...)
}

func (m *Model) SetVisible(v bool) { m.root.SetEnabled(v) }

// Visible reports whether the model is shown.
func (m *Model) Visible() bool { return m.root.Enabled() }

func (m *Model) SetScaling(s float64) { m.root.SetScaling(r3.Vec{X: s, Y: s, Z: s}) }

func (m *Model) SetParent(p host.Node) { m.root.SetParent(p) }

// SetPosition moves the model root within its parent.
func (m *Model) SetPosition(p r3.Vec) { m.root.SetPosition(p) }

// StopAll stops every animation group.
func (m *Model) StopAll() { m.player.StopAll() }

// PlayAnimation stops whatever is playing and plays frames from..to of the
// model animation once at normal speed.
func (m *Model) PlayAnimation(from, to int) error {
	m.player.StopAll()
	if err := m.player.Play(m.animation, false, 1, from, to); err != nil {
		return fmt.Errorf("play %s %d-%d: %w", m.animation, from, to, err)
	}
	return nil
}

// Highlight fades every part except name. With darken the named part is
// also drawn darker.
func (m *Model) Highlight(name string, darken bool) error {
	found := false
	for _, mesh := range m.Meshes() {
		if mesh.Name() == name {
			found = true
			if darken {
				if t, ok := m.ownMaterial(mesh); ok {
					t.SetAlbedo(darkAlbedo)
				}
			}
			continue
		}
		if t, ok := m.ownMaterial(mesh); ok {
			t.SetAlpha(dimmedAlpha)
		}
	}
	if !found {
		return fmt.Errorf("%w: %q", host.ErrMeshNotFound, name)
	}
	return nil
}

// ResetHighlight restores full opacity and color on every part.
func (m *Model) ResetHighlight() {
	for _, mesh := range m.Meshes() {
		if t, ok := m.ownMaterial(mesh); ok {
			t.SetAlpha(1)
			t.SetAlbedo(host.Color{R: 1, G: 1, B: 1})
		}
	}
}

func (m *Model) ownMaterial(mesh host.Mesh) (host.Tintable, bool) {
	mat := mesh.Material()
	if mat == nil {
		return nil, false
	}
	if !m.unique[mesh.Name()] {
		mat = mat.Clone(mesh.Name() + "_mat")
		mesh.SetMaterial(mat)
		m.unique[mesh.Name()] = true
	}
	t, ok := mat.(host.Tintable)
	return t, ok
}
