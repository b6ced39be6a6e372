// Package occlusion hides the parts of a model that sit above a horizontal
// cutting plane, producing a cross-section view.
package occlusion

import (
	"github.com/banshee-data/lesson.view/internal/host"
)

// Visible reports whether a part whose bounding center is at partCenterY
// should be drawn. A part exactly on the plane stays visible.
func Visible(partCenterY, planeY float64) bool {
	return partCenterY <= planeY
}

// Rule applies Visible to every mesh under Root, using the world height of
// Plane. The plane itself is never touched.
type Rule struct {
	Graph host.SceneGraph
	Root  host.Node
	Plane host.Mesh
}

// Apply recomputes visibility for one frame.
func (r *Rule) Apply() {
	planeY := r.Plane.WorldPosition().Y
	for _, m := range r.Graph.Children(r.Root) {
		if m == r.Plane {
			continue
		}
		m.SetVisible(Visible(m.BoundsCenterWorld().Y, planeY))
	}
}

// Reset hides the plane and makes every part visible again.
func (r *Rule) Reset() {
	r.Plane.SetVisible(false)
	for _, m := range r.Graph.Children(r.Root) {
		if m == r.Plane {
			continue
		}
		m.SetVisible(true)
	}
}
