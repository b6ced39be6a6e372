package memhost

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Truss is a stand-in for the roof truss lesson model: a root mesh with a
// handful of named parts and a horizontal cutting plane parented to it.
type Truss struct {
	Scene  *Scene
	Root   *Mesh
	Plane  *Mesh
	Parts  map[string]*Mesh
	Groups *AnimationGroups
}

// TrussPart names used by the lesson script.
const (
	PartTopPlank    = "topplank.001"
	PartWall        = "Wall"
	PartConnector   = "Connecter"
	PartAnchorStrap = "AnchorStrap"
	PartCement      = "Cement"
	PartRafter      = "Rafter"
	PlaneName       = "CullingPlane"
)

// NewTruss builds the model into a fresh scene. The cutting plane sits at
// local height 4.
func NewTruss() *Truss {
	sc := NewScene()
	root := NewMesh("__root__", r3.Vec{}, nil)

	parts := map[string]*Mesh{}
	add := func(name string, pos, center r3.Vec) {
		m := NewMesh(name, center, NewMaterial(name+"_mat"))
		m.SetPosition(pos)
		m.SetParent(root)
		parts[name] = m
	}
	add(PartCement, r3.Vec{}, r3.Vec{Y: 0.2})
	add(PartWall, r3.Vec{}, r3.Vec{Y: 1.5})
	add(PartConnector, r3.Vec{X: 1.5, Y: 2.8, Z: 0.5}, r3.Vec{})
	add(PartAnchorStrap, r3.Vec{X: -1.5, Y: 2.4, Z: 0.5}, r3.Vec{})
	add(PartTopPlank, r3.Vec{X: 2, Y: 3.2}, r3.Vec{})
	add(PartRafter, r3.Vec{Y: 4.5}, r3.Vec{})

	plane := NewMesh(PlaneName, r3.Vec{}, NewMaterial(PlaneName+"_mat"))
	plane.SetPosition(r3.Vec{Y: 4})
	plane.SetParent(root)

	sc.Add(root)
	for _, name := range []string{PartCement, PartWall, PartConnector, PartAnchorStrap, PartTopPlank, PartRafter} {
		sc.Add(parts[name])
	}
	sc.Add(plane)

	return &Truss{
		Scene:  sc,
		Root:   root,
		Plane:  plane,
		Parts:  parts,
		Groups: NewAnimationGroups("Animation"),
	}
}
