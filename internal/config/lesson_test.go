package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultLessonConfig(t *testing.T) {
	cfg := Default()

	want := []string{"Introduction", "Overview", "Slide1", "Slide2", "Slide3", "Slide4", "Slide5", "Conclusion", "ArIntroduction"}
	got := cfg.SceneNames()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("SceneNames() = %v, want %v", got, want)
	}

	if cfg.GetFPS() != 60 {
		t.Errorf("GetFPS() = %d, want 60", cfg.GetFPS())
	}
	if cfg.GetBlinkInterval() != time.Second {
		t.Errorf("GetBlinkInterval() = %v, want 1s", cfg.GetBlinkInterval())
	}
	if cfg.GetAnchorMesh() != "topplank.001" {
		t.Errorf("GetAnchorMesh() = %q", cfg.GetAnchorMesh())
	}

	offsets := map[string]float64{"Overview": 20, "Slide1": 0, "Slide2": 35, "Slide3": 35, "Slide4": 35, "Slide5": 90}
	for _, s := range cfg.Scenes {
		off, ok := offsets[s.Name]
		if !ok {
			continue
		}
		if s.Align == nil || s.Align.OffsetDegrees != off {
			t.Errorf("scene %s: expected offset %v, got %+v", s.Name, off, s.Align)
		}
	}

	slide3 := cfg.Scenes[4]
	if slide3.Highlight != "Connecter" || slide3.Label == nil || slide3.Label.Anchor != "Wall" {
		t.Errorf("Slide3 should blink Connecter with a label on Wall, got %+v", slide3)
	}
	if intro := cfg.Scenes[0]; intro.Dialog == nil || intro.Dialog.Next != "Overview" {
		t.Errorf("Introduction dialog should lead to Overview, got %+v", intro.Dialog)
	}
}

func TestGettersFallBackToDefaults(t *testing.T) {
	cfg := &LessonConfig{Scenes: []SceneConfig{{Name: "Only", Kind: KindSlide}}}

	if cfg.GetFPS() != 60 {
		t.Errorf("GetFPS() = %d, want 60", cfg.GetFPS())
	}
	if cfg.GetAlignStepDegrees() != 2 {
		t.Errorf("GetAlignStepDegrees() = %v, want 2", cfg.GetAlignStepDegrees())
	}
	if cfg.GetInitialScene() != "Only" {
		t.Errorf("GetInitialScene() = %q, want first scene", cfg.GetInitialScene())
	}
	if cfg.GetModelAnimation() != "Animation" {
		t.Errorf("GetModelAnimation() = %q", cfg.GetModelAnimation())
	}
	if cfg.GetOcclusionPlane() != "CullingPlane" {
		t.Errorf("GetOcclusionPlane() = %q", cfg.GetOcclusionPlane())
	}

	bad := "soon"
	cfg.BlinkInterval = &bad
	if cfg.GetBlinkInterval() != time.Second {
		t.Errorf("GetBlinkInterval() with invalid value = %v, want 1s", cfg.GetBlinkInterval())
	}
}

func TestLoadLessonConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "lesson.json")

	testJSON := `{
  "fps": 30,
  "blink_interval": "250ms",
  "initial_scene": "B",
  "scenes": [
    {"name": "A", "kind": "dialog", "dialog": {"title": "t", "body": "b", "button": "GO", "next": "B"}},
    {"name": "B", "kind": "slide", "caption": "c", "animation": {"from": 1, "to": 2}}
  ]
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadLessonConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.GetFPS() != 30 {
		t.Errorf("GetFPS() = %d, want 30", cfg.GetFPS())
	}
	if cfg.GetBlinkInterval() != 250*time.Millisecond {
		t.Errorf("GetBlinkInterval() = %v, want 250ms", cfg.GetBlinkInterval())
	}
	if cfg.GetInitialScene() != "B" {
		t.Errorf("GetInitialScene() = %q, want B", cfg.GetInitialScene())
	}
}

func TestLoadLessonConfigRejectsFiles(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("wrong extension", func(t *testing.T) {
		p := filepath.Join(tmpDir, "lesson.yaml")
		if err := os.WriteFile(p, []byte("{}"), 0644); err != nil {
			t.Fatal(err)
		}
		_, err := LoadLessonConfig(p)
		if err == nil || !strings.Contains(err.Error(), ".json extension") {
			t.Errorf("expected extension error, got %v", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadLessonConfig(filepath.Join(tmpDir, "missing.json"))
		if err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("too large", func(t *testing.T) {
		p := filepath.Join(tmpDir, "big.json")
		if err := os.WriteFile(p, make([]byte, 1024*1024+1), 0644); err != nil {
			t.Fatal(err)
		}
		_, err := LoadLessonConfig(p)
		if err == nil || !strings.Contains(err.Error(), "too large") {
			t.Errorf("expected size error, got %v", err)
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		p := filepath.Join(tmpDir, "bad.json")
		if err := os.WriteFile(p, []byte("{"), 0644); err != nil {
			t.Fatal(err)
		}
		_, err := LoadLessonConfig(p)
		if err == nil || !strings.Contains(err.Error(), "parse config JSON") {
			t.Errorf("expected parse error, got %v", err)
		}
	})
}

func TestValidate(t *testing.T) {
	str := func(s string) *string { return &s }
	num := func(n int) *int { return &n }
	step := func(f float64) *float64 { return &f }
	slide := func(name string) SceneConfig { return SceneConfig{Name: name, Kind: KindSlide} }

	tests := []struct {
		name    string
		cfg     LessonConfig
		wantErr string
	}{
		{"valid", LessonConfig{Scenes: []SceneConfig{slide("A")}}, ""},
		{"no scenes", LessonConfig{}, "scenes must not be empty"},
		{"empty name", LessonConfig{Scenes: []SceneConfig{slide("")}}, "name is required"},
		{"duplicate", LessonConfig{Scenes: []SceneConfig{slide("A"), slide("A")}}, "duplicate scene name"},
		{"unknown kind", LessonConfig{Scenes: []SceneConfig{{Name: "A", Kind: "quiz"}}}, "unknown kind"},
		{"dialog without block", LessonConfig{Scenes: []SceneConfig{{Name: "A", Kind: KindDialog}}}, "dialog block"},
		{"dialog next missing", LessonConfig{Scenes: []SceneConfig{{Name: "A", Kind: KindDialog, Dialog: &DialogConfig{Next: "Z"}}}}, "is not a scene"},
		{"initial missing", LessonConfig{InitialScene: str("Z"), Scenes: []SceneConfig{slide("A")}}, "initial_scene"},
		{"zero fps", LessonConfig{FPS: num(0), Scenes: []SceneConfig{slide("A")}}, "fps must be positive"},
		{"step too big", LessonConfig{AlignStepDegrees: step(400), Scenes: []SceneConfig{slide("A")}}, "align_step_degrees"},
		{"bad blink", LessonConfig{BlinkInterval: str("often"), Scenes: []SceneConfig{slide("A")}}, "invalid blink_interval"},
		{"negative blink", LessonConfig{BlinkInterval: str("-1s"), Scenes: []SceneConfig{slide("A")}}, "blink_interval must be positive"},
		{"reversed range", LessonConfig{Scenes: []SceneConfig{{Name: "A", Kind: KindSlide, Animation: &FrameRange{From: 5, To: 1}}}}, "reversed"},
		{"label without text", LessonConfig{Scenes: []SceneConfig{{Name: "A", Kind: KindSlide, Label: &LabelConfig{Anchor: "Wall"}}}}, "label needs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}
