package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

//go:embed lesson.defaults.json
var defaultLessonJSON []byte

// Scene kinds understood by the lesson builder.
const (
	KindDialog      = "dialog"
	KindOverview    = "overview"
	KindSlide       = "slide"
	KindARPlacement = "ar_placement"
)

// LessonConfig is the lesson script plus the tunables of the effect and
// alignment subsystems. Pointer fields fall back to defaults in the Get*
// accessors so partial files are safe.
type LessonConfig struct {
	Title            *string  `json:"title,omitempty"`
	FPS              *int     `json:"fps,omitempty"`
	AlignStepDegrees *float64 `json:"align_step_degrees,omitempty"`
	BlinkInterval    *string  `json:"blink_interval,omitempty"` // duration string like "1s"
	InitialScene     *string  `json:"initial_scene,omitempty"`
	AnchorMesh       *string  `json:"anchor_mesh,omitempty"`
	ModelAnimation   *string  `json:"model_animation,omitempty"`
	OcclusionPlane   *string  `json:"occlusion_plane,omitempty"`

	Scenes []SceneConfig `json:"scenes"`
}

// SceneConfig describes one step of the lesson. Scenes are registered in
// file order, which is also the next/previous navigation order.
type SceneConfig struct {
	Name      string        `json:"name"`
	Kind      string        `json:"kind"`
	Caption   string        `json:"caption,omitempty"`
	Align     *AlignConfig  `json:"align,omitempty"`
	Animation *FrameRange   `json:"animation,omitempty"`
	Highlight string        `json:"highlight,omitempty"`
	Label     *LabelConfig  `json:"label,omitempty"`
	Dialog    *DialogConfig `json:"dialog,omitempty"`
}

// AlignConfig frames the anchor mesh before the scene is shown.
type AlignConfig struct {
	Anchor         string  `json:"anchor,omitempty"` // defaults to LessonConfig.AnchorMesh
	OffsetDegrees  float64 `json:"offset_degrees"`
	DurationFrames int     `json:"duration_frames"`
}

// FrameRange is an inclusive animation frame range.
type FrameRange struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// LabelConfig is a floating label bound to a mesh.
type LabelConfig struct {
	Anchor string `json:"anchor"`
	Text   string `json:"text"`
}

// DialogConfig is a full-screen dialog card. Pressing its button navigates to
// Next; an empty Next restarts at the initial scene.
type DialogConfig struct {
	Image  string `json:"image,omitempty"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	Button string `json:"button"`
	Next   string `json:"next,omitempty"`
}

// Default returns the embedded lesson script.
func Default() *LessonConfig {
	cfg, err := parseLessonConfig(defaultLessonJSON)
	if err != nil {
		panic("embedded lesson config is invalid: " + err.Error())
	}
	return cfg
}

// LoadLessonConfig loads a LessonConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
func LoadLessonConfig(path string) (*LessonConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return parseLessonConfig(data)
}

func parseLessonConfig(data []byte) (*LessonConfig, error) {
	cfg := &LessonConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *LessonConfig) Validate() error {
	if c.FPS != nil && *c.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", *c.FPS)
	}
	if c.AlignStepDegrees != nil {
		if s := *c.AlignStepDegrees; s <= 0 || s > 360 {
			return fmt.Errorf("align_step_degrees must be in (0, 360], got %f", s)
		}
	}
	if c.BlinkInterval != nil && *c.BlinkInterval != "" {
		d, err := time.ParseDuration(*c.BlinkInterval)
		if err != nil {
			return fmt.Errorf("invalid blink_interval '%s': %w", *c.BlinkInterval, err)
		}
		if d <= 0 {
			return fmt.Errorf("blink_interval must be positive, got %s", d)
		}
	}

	if len(c.Scenes) == 0 {
		return fmt.Errorf("scenes must not be empty")
	}
	seen := make(map[string]bool, len(c.Scenes))
	for i, s := range c.Scenes {
		if s.Name == "" {
			return fmt.Errorf("scenes[%d]: name is required", i)
		}
		if seen[s.Name] {
			return fmt.Errorf("scenes[%d]: duplicate scene name %q", i, s.Name)
		}
		seen[s.Name] = true

		switch s.Kind {
		case KindDialog:
			if s.Dialog == nil {
				return fmt.Errorf("scene %q: dialog scenes need a dialog block", s.Name)
			}
		case KindOverview, KindSlide, KindARPlacement:
		default:
			return fmt.Errorf("scene %q: unknown kind %q", s.Name, s.Kind)
		}
		if s.Animation != nil && s.Animation.To < s.Animation.From {
			return fmt.Errorf("scene %q: animation range %d-%d is reversed", s.Name, s.Animation.From, s.Animation.To)
		}
		if s.Align != nil && s.Align.DurationFrames < 0 {
			return fmt.Errorf("scene %q: duration_frames must be non-negative", s.Name)
		}
		if s.Label != nil && (s.Label.Anchor == "" || s.Label.Text == "") {
			return fmt.Errorf("scene %q: label needs anchor and text", s.Name)
		}
	}

	for _, s := range c.Scenes {
		if s.Dialog != nil && s.Dialog.Next != "" && !seen[s.Dialog.Next] {
			return fmt.Errorf("scene %q: dialog next %q is not a scene", s.Name, s.Dialog.Next)
		}
	}
	if c.InitialScene != nil && !seen[*c.InitialScene] {
		return fmt.Errorf("initial_scene %q is not a scene", *c.InitialScene)
	}
	return nil
}

// SceneNames returns the scene names in file order.
func (c *LessonConfig) SceneNames() []string {
	out := make([]string, len(c.Scenes))
	for i, s := range c.Scenes {
		out[i] = s.Name
	}
	return out
}

// GetFPS returns the fps value or the default.
func (c *LessonConfig) GetFPS() int {
	if c.FPS == nil {
		return 60
	}
	return *c.FPS
}

// GetAlignStepDegrees returns the align_step_degrees value or the default.
func (c *LessonConfig) GetAlignStepDegrees() float64 {
	if c.AlignStepDegrees == nil {
		return 2
	}
	return *c.AlignStepDegrees
}

// GetBlinkInterval parses and returns the BlinkInterval as a time.Duration.
func (c *LessonConfig) GetBlinkInterval() time.Duration {
	if c.BlinkInterval == nil || *c.BlinkInterval == "" {
		return time.Second
	}
	d, err := time.ParseDuration(*c.BlinkInterval)
	if err != nil || d <= 0 {
		return time.Second
	}
	return d
}

// GetInitialScene returns the initial_scene value or the first scene.
func (c *LessonConfig) GetInitialScene() string {
	if c.InitialScene != nil {
		return *c.InitialScene
	}
	if len(c.Scenes) > 0 {
		return c.Scenes[0].Name
	}
	return ""
}

// GetAnchorMesh returns the anchor_mesh value or the default.
func (c *LessonConfig) GetAnchorMesh() string {
	if c.AnchorMesh == nil {
		return "topplank.001"
	}
	return *c.AnchorMesh
}

// GetModelAnimation returns the model_animation value or the default.
func (c *LessonConfig) GetModelAnimation() string {
	if c.ModelAnimation == nil {
		return "Animation"
	}
	return *c.ModelAnimation
}

// GetOcclusionPlane returns the occlusion_plane value or the default.
func (c *LessonConfig) GetOcclusionPlane() string {
	if c.OcclusionPlane == nil {
		return "CullingPlane"
	}
	return *c.OcclusionPlane
}

// GetTitle returns the title value or the default.
func (c *LessonConfig) GetTitle() string {
	if c.Title == nil {
		return "Lesson"
	}
	return *c.Title
}
