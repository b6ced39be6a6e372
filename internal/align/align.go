// Package align turns a model so that a chosen anchor mesh faces the camera.
//
// The search is a brute-force sweep of the model root's yaw over a full
// revolution. For every sample the anchor's world position is recomputed and
// its distance to the camera measured; the closest sample wins. The root's
// yaw is restored before returning, so Align has no lasting effect on the
// scene. The caller plays the returned Request to animate the turn.
package align

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/lesson.view/internal/host"
	"github.com/banshee-data/lesson.view/internal/timeutil"
)

const (
	DefaultStepDegrees = 2.0
	fullTurn           = 360.0
)

// Model is the part of a loaded model the aligner needs.
type Model interface {
	Root() host.Node
	FindMesh(name string) (host.Mesh, bool)
}

// Sample is one point of the sweep.
type Sample struct {
	Degrees  float64
	Distance float64
}

// Result is the outcome of a sweep. It is computed fresh on every call.
type Result struct {
	// TargetRotation is BestRotation plus the requested offset, in radians.
	TargetRotation float64
	BestRotation   float64
	BestDistance   float64
	Samples        []Sample
}

// Request is a yaw animation to hand to a host.Animator.
type Request struct {
	Node   host.Node
	From   float64
	To     float64
	Frames int
	FPS    int
	Result Result
}

// Play starts the request on the animator.
func (r Request) Play(a host.Animator) {
	a.AnimateYaw(r.Node, r.From, r.To, r.Frames, r.FPS)
}

// Duration is how long the turn takes at the request's frame rate.
func (r Request) Duration() time.Duration {
	return timeutil.FramesToDuration(r.Frames, r.FPS)
}

// Aligner holds the sweep resolution and the playback frame rate.
type Aligner struct {
	StepDegrees float64
	FPS         int
}

// New returns an Aligner with a 2 degree step at 60 fps.
func New() *Aligner {
	return &Aligner{StepDegrees: DefaultStepDegrees, FPS: timeutil.DefaultFPS}
}

func (a *Aligner) step() float64 {
	if a == nil || a.StepDegrees <= 0 || a.StepDegrees > fullTurn {
		return DefaultStepDegrees
	}
	return a.StepDegrees
}

func (a *Aligner) fps() int {
	if a == nil || a.FPS <= 0 {
		return timeutil.DefaultFPS
	}
	return a.FPS
}

// Sweep measures the anchor-to-camera distance for every step of a full
// revolution of the model root. Sample angles are derived from an integer
// index so there is no accumulated drift. The root yaw is restored on return.
func (a *Aligner) Sweep(m Model, anchorName string, camera r3.Vec) (Result, error) {
	anchor, ok := m.FindMesh(anchorName)
	if !ok || anchor == nil {
		return Result{}, fmt.Errorf("%w: %q", host.ErrMeshNotFound, anchorName)
	}
	root := m.Root()
	original := root.Yaw()
	defer root.SetYaw(original)

	step := a.step()
	n := int(math.Ceil(fullTurn/step - 1e-9))
	res := Result{
		BestDistance: math.Inf(1),
		Samples:      make([]Sample, 0, n),
	}
	for i := 0; i < n; i++ {
		deg := float64(i) * step
		rad := deg * math.Pi / 180
		root.SetYaw(rad)
		d := r3.Norm(r3.Sub(anchor.WorldPosition(), camera))
		res.Samples = append(res.Samples, Sample{Degrees: deg, Distance: d})
		// Strict comparison keeps the smallest angle on ties.
		if d < res.BestDistance {
			res.BestDistance = d
			res.BestRotation = rad
		}
	}
	return res, nil
}

// Align computes the yaw that brings the anchor closest to the camera, adds
// offsetDegrees and returns the animation request that turns the root there
// over durationFrames.
func (a *Aligner) Align(m Model, anchorName string, camera r3.Vec, offsetDegrees float64, durationFrames int) (Request, error) {
	res, err := a.Sweep(m, anchorName, camera)
	if err != nil {
		return Request{}, err
	}
	res.TargetRotation = res.BestRotation + offsetDegrees*math.Pi/180

	root := m.Root()
	return Request{
		Node:   root,
		From:   root.Yaw(),
		To:     res.TargetRotation,
		Frames: durationFrames,
		FPS:    a.fps(),
		Result: res,
	}, nil
}
