// Package host declares the rendering-host, XR and widget contracts the lesson
// core consumes. Implementations live outside this repository except for the
// headless memhost package used by tests and the command-line tools.
package host

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrMeshNotFound is returned when a named mesh is not part of the loaded model.
var ErrMeshNotFound = errors.New("mesh not found")

// Up is the vertical axis. Yaw rotations are about this axis.
var Up = r3.Vec{Y: 1}

// Node is a transform in the scene graph.
type Node interface {
	Name() string
	Parent() Node
	SetParent(Node)

	Position() r3.Vec
	SetPosition(r3.Vec)

	// Yaw is the rotation about Up in radians.
	Yaw() float64
	SetYaw(float64)

	Scaling() r3.Vec
	SetScaling(r3.Vec)

	Enabled() bool
	SetEnabled(bool)

	// WorldPosition recomputes the world matrix and returns the node origin
	// in world space.
	WorldPosition() r3.Vec
}

// Material is an opaque render material.
type Material interface {
	Name() string
	Clone(name string) Material
}

// Tintable is implemented by materials whose opacity and base color can be
// changed at runtime.
type Tintable interface {
	SetAlpha(float64)
	SetAlbedo(Color)
}

// Mesh is a renderable node.
type Mesh interface {
	Node

	Visible() bool
	SetVisible(bool)

	Material() Material
	SetMaterial(Material)

	// BoundsCenterWorld is the center of the world-space bounding box.
	BoundsCenterWorld() r3.Vec
}

// Color is a linear RGB color.
type Color struct{ R, G, B float64 }

// FrameID identifies a registered frame callback.
type FrameID uint64

// FrameLoop runs callbacks once per rendered frame in registration order.
type FrameLoop interface {
	Register(name string, fn func()) FrameID
	Unregister(id FrameID)
}

// Animator plays timed interpolations on nodes.
type Animator interface {
	// AnimateYaw interpolates node yaw from -> to over frames at fps.
	AnimateYaw(node Node, from, to float64, frames, fps int)
}

// AnimationPlayer plays the named animation groups bundled with a model.
type AnimationPlayer interface {
	// Play starts the named group. A negative from or to plays the whole group.
	Play(name string, loop bool, speed float64, from, to int) error
	StopAll()
}

// SceneGraph is the rendering scene.
type SceneGraph interface {
	FindMesh(name string) (Mesh, bool)
	// Children returns every mesh below node, depth first.
	Children(node Node) []Mesh
	NewHighlightMaterial(name string, emissive Color) Material
	Frames() FrameLoop
	Animator() Animator
}

// Glow is a toggleable glow post-process layer.
type Glow interface {
	SetEnabled(bool)
	Dispose()
}

// GlowProvider is implemented by scene graphs that support glow layers.
type GlowProvider interface {
	NewGlow(name string, intensity float64) Glow
}

// Camera is the active view.
type Camera interface {
	Position() r3.Vec
}

// Label is a screen-space UI element.
type Label interface {
	LinkWithMesh(Mesh)
	Dispose()
}

// DialogSpec describes a full-screen dialog card.
type DialogSpec struct {
	Image  string
	Title  string
	Body   string
	Button string
}

// Dialog is a full-screen dialog card.
type Dialog interface {
	OnButton(fn func())
	SetScale(float64)
	Dispose()
}

// Overlay is the full-screen UI layer.
type Overlay interface {
	AddLabel(text string) Label
	AddDialog(DialogSpec) Dialog
}

// TopMenu is the caption bar shown over slides.
type TopMenu interface {
	SetVisible(bool)
	SetCaption(string)
	MaximizeCaption()
	MinimizeCaption()
	SetScale(float64)
	SetARIcon(inAR bool)
}

// XRState is the XR session state.
type XRState int

const (
	NotInXR XRState = iota
	EnteringXR
	InXR
	ExitingXR
)

func (s XRState) String() string {
	switch s {
	case NotInXR:
		return "not-in-xr"
	case EnteringXR:
		return "entering-xr"
	case InXR:
		return "in-xr"
	case ExitingXR:
		return "exiting-xr"
	default:
		return "unknown"
	}
}

// HitResult is a detected real-world surface. T is a row-major 4x4 rigid
// transform.
type HitResult struct {
	T [16]float64
}

// Position returns the translation part of T.
func (h HitResult) Position() r3.Vec {
	return r3.Vec{X: h.T[3], Y: h.T[7], Z: h.T[11]}
}

// Yaw returns the rotation about Up encoded in T.
func (h HitResult) Yaw() float64 {
	return math.Atan2(h.T[2], h.T[0])
}

// HitAt builds an upright hit result at p rotated by yaw.
func HitAt(p r3.Vec, yaw float64) HitResult {
	c, s := math.Cos(yaw), math.Sin(yaw)
	return HitResult{T: [16]float64{
		c, 0, s, p.X,
		0, 1, 0, p.Y,
		-s, 0, c, p.Z,
		0, 0, 0, 1,
	}}
}

// HitTestSource streams hit-test results while an XR session is active.
type HitTestSource interface {
	Subscribe() (string, <-chan []HitResult)
	Unsubscribe(id string)
}

// XRSession exposes XR state changes and the hit-test feature.
type XRSession interface {
	State() XRState
	// Subscribe registers for state changes. The channel is closed on
	// Unsubscribe.
	Subscribe() (string, <-chan XRState)
	Unsubscribe(id string)
	Enter() error
	Exit() error
	HitTests() HitTestSource
}
