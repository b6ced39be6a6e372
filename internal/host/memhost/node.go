// Package memhost is a headless, in-memory implementation of the host
// contracts. It keeps a real transform hierarchy so world positions and
// bounding centers behave like a renderer's, but draws nothing.
package memhost

import (
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/lesson.view/internal/host"
)

// Node is a transform node.
type Node struct {
	mu      sync.RWMutex
	name    string
	parent  host.Node
	pos     r3.Vec
	yaw     float64
	scale   r3.Vec
	enabled bool
}

// NewNode creates an enabled node at the origin with unit scale.
func NewNode(name string) *Node {
	return &Node{name: name, scale: r3.Vec{X: 1, Y: 1, Z: 1}, enabled: true}
}

func (n *Node) Name() string { return n.name }

func (n *Node) Parent() host.Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.parent
}

func (n *Node) SetParent(p host.Node) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.parent = p
}

func (n *Node) Position() r3.Vec {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.pos
}

func (n *Node) SetPosition(p r3.Vec) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pos = p
}

func (n *Node) Yaw() float64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.yaw
}

func (n *Node) SetYaw(y float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.yaw = y
}

func (n *Node) Scaling() r3.Vec {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.scale
}

func (n *Node) SetScaling(s r3.Vec) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.scale = s
}

// Enabled reports whether the node and all its ancestors are enabled.
func (n *Node) Enabled() bool {
	n.mu.RLock()
	enabled, parent := n.enabled, n.parent
	n.mu.RUnlock()
	if !enabled {
		return false
	}
	if parent != nil {
		return parent.Enabled()
	}
	return true
}

func (n *Node) SetEnabled(e bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = e
}

func (n *Node) WorldPosition() r3.Vec {
	return ToWorld(n, r3.Vec{})
}

// ToWorld maps a point in the local space of n to world space by applying
// scale, yaw and translation of n and then of each ancestor.
func ToWorld(n host.Node, p r3.Vec) r3.Vec {
	for n != nil {
		s := n.Scaling()
		p = r3.Vec{X: p.X * s.X, Y: p.Y * s.Y, Z: p.Z * s.Z}
		if yaw := n.Yaw(); yaw != 0 {
			p = r3.NewRotation(yaw, host.Up).Rotate(p)
		}
		p = r3.Add(p, n.Position())
		n = n.Parent()
	}
	return p
}

// Material is a standard material. It is not safe for concurrent mutation;
// scenes only touch materials from hooks and frame callbacks.
type Material struct {
	name     string
	Emissive host.Color
	Albedo   host.Color
	Alpha    float64
}

// NewMaterial creates an opaque white material.
func NewMaterial(name string) *Material {
	return &Material{name: name, Alpha: 1, Albedo: host.Color{R: 1, G: 1, B: 1}}
}

func (m *Material) Name() string { return m.name }

func (m *Material) SetAlpha(a float64)     { m.Alpha = a }
func (m *Material) SetAlbedo(c host.Color) { m.Albedo = c }

func (m *Material) Clone(name string) host.Material {
	c := *m
	c.name = name
	return &c
}

// Mesh is a renderable node with a local bounding-box center.
type Mesh struct {
	*Node
	center   r3.Vec
	visible  bool
	material host.Material
}

// NewMesh creates a visible mesh whose bounding box is centered at the local
// point center.
func NewMesh(name string, center r3.Vec, mat host.Material) *Mesh {
	return &Mesh{Node: NewNode(name), center: center, visible: true, material: mat}
}

func (m *Mesh) Visible() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.visible
}

func (m *Mesh) SetVisible(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visible = v
}

func (m *Mesh) Material() host.Material {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.material
}

func (m *Mesh) SetMaterial(mat host.Material) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.material = mat
}

func (m *Mesh) BoundsCenterWorld() r3.Vec {
	return ToWorld(m, m.center)
}

// Camera is a fixed-position camera.
type Camera struct {
	mu  sync.RWMutex
	pos r3.Vec
}

// NewCamera places a camera at pos.
func NewCamera(pos r3.Vec) *Camera { return &Camera{pos: pos} }

func (c *Camera) Position() r3.Vec {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pos
}

// SetPosition moves the camera.
func (c *Camera) SetPosition(p r3.Vec) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pos = p
}
