package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Runtime holds process settings that come from the environment rather than
// the lesson file.
type Runtime struct {
	ConfigPath   string `env:"LESSON_CONFIG"`
	DBPath       string `env:"LESSON_DB" envDefault:"lesson.db"`
	Listen       string `env:"LESSON_LISTEN" envDefault:"localhost:8090"`
	OTelEndpoint string `env:"LESSON_OTEL_ENDPOINT"`
	OTelEnabled  bool   `env:"LESSON_OTEL_ENABLED" envDefault:"false"`
	DevMode      bool   `env:"LESSON_DEV_MODE" envDefault:"false"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadRuntime parses Runtime from the environment.
func LoadRuntime() (Runtime, error) {
	var rt Runtime
	if err := ParseEnv(&rt); err != nil {
		return Runtime{}, err
	}
	return rt, nil
}

// LoadLesson returns the lesson file at path, or the embedded lesson when path
// is empty.
func LoadLesson(path string) (*LessonConfig, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadLessonConfig(path)
}
