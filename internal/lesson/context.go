// Package lesson defines the scenes of the roof construction lesson and the
// context they share.
package lesson

import (
	"context"
	"time"

	"github.com/banshee-data/lesson.view/internal/align"
	"github.com/banshee-data/lesson.view/internal/effects"
	"github.com/banshee-data/lesson.view/internal/host"
)

// Navigator moves the lesson to another scene.
type Navigator interface {
	GoTo(ctx context.Context, name string) error
}

// Context is passed to every scene hook. A scene sets in Enter every field it
// depends on and never assumes what the previous scene left behind.
type Context struct {
	Graph   host.SceneGraph
	Model   *Model
	Camera  host.Camera
	Overlay host.Overlay
	TopMenu host.TopMenu
	XR      host.XRSession

	// IsARPlaced is set once the model has been placed on a real surface and
	// cleared when the lesson is viewed outside AR again.
	IsARPlaced bool

	Floor  host.Node
	Marker host.Mesh
	Skybox host.Mesh
	Plane  host.Mesh

	Effects *effects.Manager
	Aligner *align.Aligner
	Nav     Navigator

	AnchorMesh    string
	BlinkInterval time.Duration
}

// InXR reports whether an XR session is running.
func (c *Context) InXR() bool {
	return c.XR != nil && c.XR.State() == host.InXR
}

// uiScale is the scale applied to full-screen UI so it stays legible when
// projected into the room.
func (c *Context) uiScale() float64 {
	if c.InXR() {
		return 3
	}
	return 1
}
