package lesson

import (
	"context"
	"fmt"
	"log"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/lesson.view/internal/config"
	"github.com/banshee-data/lesson.view/internal/effects"
	"github.com/banshee-data/lesson.view/internal/flow"
	"github.com/banshee-data/lesson.view/internal/host"
)

const (
	arFloorScale = 1.0
	// In the 3D view the model is shrunk to fit the default camera.
	viewFloorScale = 0.7
)

// Register adds one scene per entry of cfg to e, in file order.
func Register(e *flow.Engine[Context], cfg *config.LessonConfig) error {
	for _, sc := range cfg.Scenes {
		s, err := NewScene(sc, cfg.GetInitialScene())
		if err != nil {
			return err
		}
		if err := e.Register(s); err != nil {
			return err
		}
	}
	return nil
}

// NewScene builds the scene described by sc. restart is where dialogs
// without an explicit next scene lead.
func NewScene(sc config.SceneConfig, restart string) (flow.Scene[Context], error) {
	switch sc.Kind {
	case config.KindDialog:
		next := restart
		if sc.Dialog.Next != "" {
			next = sc.Dialog.Next
		}
		return &DialogScene{cfg: sc, next: next}, nil
	case config.KindOverview:
		return &ModelScene{cfg: sc, placeInAR: true}, nil
	case config.KindSlide:
		return &ModelScene{cfg: sc}, nil
	case config.KindARPlacement:
		return &PlacementScene{name: sc.Name}, nil
	default:
		return nil, fmt.Errorf("scene %q: unknown kind %q", sc.Name, sc.Kind)
	}
}

// DialogScene shows a full-screen card whose button moves the lesson on.
type DialogScene struct {
	cfg   config.SceneConfig
	next  string
	scope *effects.Scope
}

func (s *DialogScene) Name() string { return s.cfg.Name }

func (s *DialogScene) Enter(ctx context.Context, c *Context) error {
	s.scope = c.Effects.Begin(s.cfg.Name)

	d := s.cfg.Dialog
	dlg := c.Overlay.AddDialog(host.DialogSpec{Image: d.Image, Title: d.Title, Body: d.Body, Button: d.Button})
	dlg.SetScale(c.uiScale())
	next := s.next
	nav := c.Nav
	dlg.OnButton(func() {
		if nav == nil {
			return
		}
		if err := nav.GoTo(context.Background(), next); err != nil {
			log.Printf("[lesson] %s: button navigation to %s failed: %v", s.cfg.Name, next, err)
		}
	})
	s.scope.Defer("dialog", dlg.Dispose)
	return nil
}

func (s *DialogScene) Exit(ctx context.Context, c *Context) error {
	if s.scope != nil {
		s.scope.ReleaseAll()
		s.scope = nil
	}
	return nil
}

// ModelScene shows the model with a caption, turns it toward the camera and
// plays a range of the model animation. Slides may also blink a part and
// point at it with a label. The overview additionally handles placement when
// entered inside an AR session.
type ModelScene struct {
	cfg       config.SceneConfig
	placeInAR bool
	scope     *effects.Scope
}

func (s *ModelScene) Name() string { return s.cfg.Name }

func (s *ModelScene) Enter(ctx context.Context, c *Context) error {
	s.scope = c.Effects.Begin(s.cfg.Name)

	c.TopMenu.SetVisible(true)
	c.TopMenu.SetCaption(s.cfg.Caption)
	c.TopMenu.MaximizeCaption()
	c.Model.SetVisible(true)

	if s.placeInAR {
		s.place(c)
	}

	if a := s.cfg.Align; a != nil {
		anchor := a.Anchor
		if anchor == "" {
			anchor = c.AnchorMesh
		}
		req, err := c.Aligner.Align(c.Model, anchor, c.Camera.Position(), a.OffsetDegrees, a.DurationFrames)
		if err != nil {
			log.Printf("[lesson] %s: align skipped: %v", s.cfg.Name, err)
		} else {
			log.Printf("[lesson] %s: turning to %.0f deg over %v", s.cfg.Name, req.To*180/math.Pi, req.Duration())
			req.Play(c.Graph.Animator())
		}
	}

	if r := s.cfg.Animation; r != nil {
		if err := c.Model.PlayAnimation(r.From, r.To); err != nil {
			log.Printf("[lesson] %s: animation skipped: %v", s.cfg.Name, err)
		}
	} else {
		c.Model.StopAll()
	}

	if c.Plane != nil {
		if _, err := s.scope.InstallOcclusion(c.Model.Root(), c.Plane); err != nil {
			log.Printf("[lesson] %s: occlusion skipped: %v", s.cfg.Name, err)
		}
	}

	if l := s.cfg.Label; l != nil {
		if mesh, ok := c.Model.FindMesh(l.Anchor); ok {
			if _, err := s.scope.AttachFloatingLabel(mesh, l.Text); err != nil {
				log.Printf("[lesson] %s: label skipped: %v", s.cfg.Name, err)
			}
		} else {
			log.Printf("[lesson] %s: label skipped: %v: %q", s.cfg.Name, host.ErrMeshNotFound, l.Anchor)
		}
	}

	if s.cfg.Highlight != "" {
		mesh, ok := c.Model.FindMesh(s.cfg.Highlight)
		if !ok {
			log.Printf("[lesson] %s: highlight skipped: %v: %q", s.cfg.Name, host.ErrMeshNotFound, s.cfg.Highlight)
		} else if _, err := s.scope.RunBlinkingHighlight(mesh, c.BlinkInterval); err != nil {
			log.Printf("[lesson] %s: highlight skipped: %v", s.cfg.Name, err)
		}
	}
	return nil
}

// place puts the model on the floor node. Inside AR the floor sits where the
// user tapped and the model keeps real-world scale; otherwise the skybox is
// shown and the model is scaled down for the 3D view.
func (s *ModelScene) place(c *Context) {
	if c.InXR() {
		c.IsARPlaced = true
		c.TopMenu.SetScale(3)
		c.Marker.SetVisible(false)
		c.Model.SetParent(c.Floor)
		c.Model.SetPosition(r3.Vec{})
		c.Floor.SetScaling(r3.Vec{X: arFloorScale, Y: arFloorScale, Z: arFloorScale})
		c.TopMenu.SetARIcon(true)
		return
	}
	c.IsARPlaced = false
	c.Skybox.SetVisible(true)
	c.TopMenu.SetScale(1)
	c.Floor.SetScaling(r3.Vec{X: viewFloorScale, Y: viewFloorScale, Z: viewFloorScale})
	c.TopMenu.SetARIcon(false)
}

func (s *ModelScene) Exit(ctx context.Context, c *Context) error {
	if s.scope != nil {
		s.scope.ReleaseAll()
		s.scope = nil
	}
	c.TopMenu.SetVisible(false)
	c.TopMenu.MinimizeCaption()
	c.Model.SetVisible(false)
	return nil
}

// PlacementScene lets the user pick a real surface for the model. While the
// model is not yet placed, every hit-test result moves the marker and the
// floor node to the detected pose.
type PlacementScene struct {
	name  string
	scope *effects.Scope
}

func (s *PlacementScene) Name() string { return s.name }

func (s *PlacementScene) Enter(ctx context.Context, c *Context) error {
	s.scope = c.Effects.Begin(s.name)

	c.Skybox.SetVisible(false)
	c.Marker.SetVisible(true)
	if c.XR == nil {
		return nil
	}
	s.scope.SubscribeHitTests(c.XR.HitTests(), func(results []host.HitResult) {
		if c.IsARPlaced {
			return
		}
		if len(results) == 0 {
			c.Marker.SetVisible(false)
			return
		}
		hit := results[0]
		c.Marker.SetVisible(true)
		c.Marker.SetPosition(hit.Position())
		c.Marker.SetYaw(hit.Yaw())
		c.Floor.SetPosition(hit.Position())
		c.Floor.SetYaw(hit.Yaw())
	})
	return nil
}

func (s *PlacementScene) Exit(ctx context.Context, c *Context) error {
	if s.scope != nil {
		s.scope.ReleaseAll()
		s.scope = nil
	}
	return nil
}
