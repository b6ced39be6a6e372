package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRuntimeDefaults(t *testing.T) {
	rt, err := LoadRuntime()
	require.NoError(t, err)
	assert.Equal(t, "lesson.db", rt.DBPath)
	assert.Equal(t, "localhost:8090", rt.Listen)
	assert.False(t, rt.OTelEnabled)
}

func TestLoadRuntimeFromEnv(t *testing.T) {
	t.Setenv("LESSON_DB", "/tmp/progress.db")
	t.Setenv("LESSON_OTEL_ENABLED", "true")
	rt, err := LoadRuntime()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/progress.db", rt.DBPath)
	assert.True(t, rt.OTelEnabled)
}

func TestParseEnvError(t *testing.T) {
	t.Setenv("LESSON_OTEL_ENABLED", "not-a-bool")
	_, err := LoadRuntime()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestLoadLessonEmptyPathUsesEmbedded(t *testing.T) {
	cfg, err := LoadLesson("")
	require.NoError(t, err)
	assert.Equal(t, "Introduction", cfg.GetInitialScene())
}
