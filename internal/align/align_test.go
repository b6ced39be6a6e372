package align

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/lesson.view/internal/host"
	"github.com/banshee-data/lesson.view/internal/host/memhost"
)

type model struct {
	root  *memhost.Mesh
	scene *memhost.Scene
}

func (m model) Root() host.Node                        { return m.root }
func (m model) FindMesh(name string) (host.Mesh, bool) { return m.scene.FindMesh(name) }

func newModel(anchorPos r3.Vec) model {
	sc := memhost.NewScene()
	root := memhost.NewMesh("__root__", r3.Vec{}, nil)
	anchor := memhost.NewMesh("anchor", r3.Vec{}, nil)
	anchor.SetPosition(anchorPos)
	anchor.SetParent(root)
	sc.Add(root, anchor)
	return model{root: root, scene: sc}
}

func deg(d float64) float64 { return d * math.Pi / 180 }

func TestSweep(t *testing.T) {
	t.Parallel()

	t.Run("finds the yaw facing the camera", func(t *testing.T) {
		t.Parallel()
		m := newModel(r3.Vec{X: 1})
		res, err := New().Sweep(m, "anchor", r3.Vec{Z: 10})
		require.NoError(t, err)
		assert.Len(t, res.Samples, 180)
		// +X rotated by 270 degrees about +Y lands on +Z.
		assert.InDelta(t, deg(270), res.BestRotation, deg(DefaultStepDegrees))
		assert.InDelta(t, 9, res.BestDistance, 1e-6)
	})

	t.Run("ties keep the smallest angle", func(t *testing.T) {
		t.Parallel()
		m := newModel(r3.Vec{})
		res, err := New().Sweep(m, "anchor", r3.Vec{Z: 5})
		require.NoError(t, err)
		assert.Equal(t, 0.0, res.BestRotation)
	})

	t.Run("sample angles are integer multiples of the step", func(t *testing.T) {
		t.Parallel()
		m := newModel(r3.Vec{X: 1})
		a := &Aligner{StepDegrees: 0.1, FPS: 60}
		res, err := a.Sweep(m, "anchor", r3.Vec{Z: 10})
		require.NoError(t, err)
		require.Len(t, res.Samples, 3600)
		assert.InDelta(t, 359.9, res.Samples[3599].Degrees, 1e-9)
	})

	t.Run("restores the root yaw", func(t *testing.T) {
		t.Parallel()
		m := newModel(r3.Vec{X: 1})
		m.root.SetYaw(1.23)
		_, err := New().Sweep(m, "anchor", r3.Vec{Z: 10})
		require.NoError(t, err)
		assert.Equal(t, 1.23, m.root.Yaw())
	})
}

func TestAlign(t *testing.T) {
	t.Parallel()

	t.Run("adds the offset and builds a request", func(t *testing.T) {
		t.Parallel()
		m := newModel(r3.Vec{X: 1})
		m.root.SetYaw(0.5)
		req, err := New().Align(m, "anchor", r3.Vec{Z: 10}, 20, 30)
		require.NoError(t, err)
		assert.Same(t, m.root, req.Node)
		assert.Equal(t, 0.5, req.From)
		assert.InDelta(t, req.Result.BestRotation+deg(20), req.To, 1e-12)
		assert.Equal(t, 30, req.Frames)
		assert.Equal(t, 60, req.FPS)
		assert.Equal(t, 0.5, m.root.Yaw())
	})

	t.Run("is deterministic", func(t *testing.T) {
		t.Parallel()
		m := newModel(r3.Vec{X: 2, Y: 3, Z: -1})
		a, err := New().Align(m, "anchor", r3.Vec{X: 4, Y: 1, Z: 7}, 0, 30)
		require.NoError(t, err)
		b, err := New().Align(m, "anchor", r3.Vec{X: 4, Y: 1, Z: 7}, 0, 30)
		require.NoError(t, err)
		assert.Equal(t, a.To, b.To)
	})

	t.Run("missing anchor", func(t *testing.T) {
		t.Parallel()
		m := newModel(r3.Vec{X: 1})
		_, err := New().Align(m, "nope", r3.Vec{Z: 10}, 0, 30)
		require.Error(t, err)
		assert.True(t, errors.Is(err, host.ErrMeshNotFound))
		assert.Contains(t, err.Error(), `"nope"`)
	})

	t.Run("play hands the request to the animator", func(t *testing.T) {
		t.Parallel()
		m := newModel(r3.Vec{X: 1})
		req, err := New().Align(m, "anchor", r3.Vec{Z: 10}, 0, 0)
		require.NoError(t, err)
		req.Play(m.scene.Animator())
		assert.InDelta(t, req.To, m.root.Yaw(), 1e-12)
		hist := m.scene.Animations().History()
		require.Len(t, hist, 1)
		assert.Equal(t, req.To, hist[0].To)
	})

	t.Run("duration follows frames and fps", func(t *testing.T) {
		t.Parallel()
		m := newModel(r3.Vec{X: 1})
		req, err := (&Aligner{FPS: 30}).Align(m, "anchor", r3.Vec{Z: 10}, 20, 30)
		require.NoError(t, err)
		assert.Equal(t, time.Second, req.Duration())

		req, err = New().Align(m, "anchor", r3.Vec{Z: 10}, 90, 60)
		require.NoError(t, err)
		assert.Equal(t, time.Second, req.Duration())
	})

	t.Run("invalid step falls back to default", func(t *testing.T) {
		t.Parallel()
		m := newModel(r3.Vec{X: 1})
		res, err := (&Aligner{}).Sweep(m, "anchor", r3.Vec{Z: 10})
		require.NoError(t, err)
		assert.Len(t, res.Samples, 180)
	})
}
