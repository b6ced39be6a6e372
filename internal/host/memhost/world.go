package memhost

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// World bundles every headless collaborator the lesson needs: the truss
// model, a camera, the UI layers and an XR session.
type World struct {
	*Truss
	Camera  *Camera
	Overlay *Overlay
	TopMenu *TopMenu
	XR      *XR
	Floor   *Node
	Marker  *Mesh
	Skybox  *Mesh
}

// NewWorld builds a world with the model parented to the floor node and the
// camera ten units in front of the origin.
func NewWorld() *World {
	tr := NewTruss()
	floor := NewNode("ParentNode")
	tr.Root.SetParent(floor)

	marker := NewMesh("marker", r3.Vec{}, NewMaterial("marker_mat"))
	marker.SetVisible(false)
	skybox := NewMesh("skyBox", r3.Vec{}, NewMaterial("skyBox"))
	tr.Scene.Add(marker, skybox)

	return &World{
		Truss:   tr,
		Camera:  NewCamera(r3.Vec{Z: 10}),
		Overlay: NewOverlay(),
		TopMenu: NewTopMenu(),
		XR:      NewXR(),
		Floor:   floor,
		Marker:  marker,
		Skybox:  skybox,
	}
}
