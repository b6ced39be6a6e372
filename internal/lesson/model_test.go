package lesson

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/lesson.view/internal/config"
	"github.com/banshee-data/lesson.view/internal/host"
	"github.com/banshee-data/lesson.view/internal/host/memhost"
)

func newTestModel() (*Model, *memhost.Truss) {
	tr := memhost.NewTruss()
	return NewModel(tr.Scene, tr.Root, tr.Groups, "Animation"), tr
}

func TestModelHelpers(t *testing.T) {
	t.Parallel()
	m, tr := newTestModel()

	m.SetVisible(false)
	assert.False(t, m.Visible())
	assert.False(t, tr.Parts[memhost.PartWall].Enabled())
	m.SetVisible(true)
	assert.True(t, tr.Parts[memhost.PartWall].Enabled())

	m.SetScaling(0.5)
	assert.Equal(t, r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}, tr.Root.Scaling())

	floor := memhost.NewNode("floor")
	m.SetParent(floor)
	assert.Same(t, floor, tr.Root.Parent())

	wall, ok := m.FindMesh(memhost.PartWall)
	require.True(t, ok)
	assert.Equal(t, memhost.PartWall, wall.Name())
	_, ok = m.FindMesh("Chimney")
	assert.False(t, ok)
	assert.Len(t, m.Meshes(), 8)
}

func TestPlayAnimation(t *testing.T) {
	t.Parallel()
	m, tr := newTestModel()

	require.NoError(t, m.PlayAnimation(410, 462))
	assert.Equal(t, 1, tr.Groups.Stops())
	assert.Equal(t, []memhost.Play{{Name: "Animation", Speed: 1, From: 410, To: 462}}, tr.Groups.Plays())

	bad := NewModel(tr.Scene, tr.Root, tr.Groups, "Missing")
	assert.Error(t, bad.PlayAnimation(0, 1))
}

func TestHighlight(t *testing.T) {
	t.Parallel()
	m, tr := newTestModel()
	shared := memhost.NewMaterial("shared")
	tr.Parts[memhost.PartWall].SetMaterial(shared)
	tr.Parts[memhost.PartCement].SetMaterial(shared)

	require.NoError(t, m.Highlight(memhost.PartWall, true))

	wallMat := tr.Parts[memhost.PartWall].Material().(*memhost.Material)
	cementMat := tr.Parts[memhost.PartCement].Material().(*memhost.Material)
	assert.Equal(t, 1.0, wallMat.Alpha)
	assert.Equal(t, host.Color{R: 0.3, G: 0.3, B: 0.3}, wallMat.Albedo)
	assert.Equal(t, 0.3, cementMat.Alpha)
	assert.Equal(t, 1.0, shared.Alpha, "shared material must not be modified")

	m.ResetHighlight()
	assert.Equal(t, 1.0, cementMat.Alpha)
	assert.Equal(t, host.Color{R: 1, G: 1, B: 1}, wallMat.Albedo)

	err := m.Highlight("Chimney", false)
	assert.True(t, errors.Is(err, host.ErrMeshNotFound))
}

func TestNewScene(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	kinds := map[string]string{}
	for _, sc := range cfg.Scenes {
		s, err := NewScene(sc, cfg.GetInitialScene())
		require.NoError(t, err)
		assert.Equal(t, sc.Name, s.Name())
		switch s.(type) {
		case *DialogScene:
			kinds[sc.Name] = "dialog"
		case *ModelScene:
			kinds[sc.Name] = "model"
		case *PlacementScene:
			kinds[sc.Name] = "placement"
		}
	}
	assert.Equal(t, "dialog", kinds["Conclusion"])
	assert.Equal(t, "model", kinds["Slide4"])
	assert.Equal(t, "placement", kinds["ArIntroduction"])

	conclusion, err := NewScene(cfg.Scenes[7], "Introduction")
	require.NoError(t, err)
	assert.Equal(t, "Introduction", conclusion.(*DialogScene).next)

	_, err = NewScene(config.SceneConfig{Name: "Quiz", Kind: "quiz"}, "")
	assert.Error(t, err)
}
