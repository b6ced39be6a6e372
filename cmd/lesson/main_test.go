package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/lesson.view/internal/api"
	"github.com/banshee-data/lesson.view/internal/app"
	"github.com/banshee-data/lesson.view/internal/config"
	"github.com/banshee-data/lesson.view/internal/flow"
	"github.com/banshee-data/lesson.view/internal/progress"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LESSON_DB", filepath.Join(t.TempDir(), "lesson.db"))
	root, err := newRootCmd()
	require.NoError(t, err)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err = root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestValidate(t *testing.T) {
	out, err := run(t, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "9 scenes, starts at Introduction")
	assert.Contains(t, out, "ArIntroduction")

	bad := filepath.Join(t.TempDir(), "lesson.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("{}"), 0o644))
	_, err = run(t, "validate", bad)
	assert.Error(t, err)
}

func TestSweep(t *testing.T) {
	png := filepath.Join(t.TempDir(), "sweep.png")
	out, err := run(t, "sweep", "--step", "10", "-o", png)
	require.NoError(t, err)
	assert.Contains(t, out, "36 samples")

	info, err := os.Stat(png)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	_, err = run(t, "sweep", "--anchor", "Chimney", "-o", png)
	assert.Error(t, err)
}

func TestReport(t *testing.T) {
	db := filepath.Join(t.TempDir(), "progress.db")
	store, err := progress.Open(db)
	require.NoError(t, err)
	session, err := store.BeginSession("Roof truss")
	require.NoError(t, err)
	store.Observe(flow.Transition{To: "Introduction", StartedAt: time.Unix(1000, 0)})
	store.Observe(flow.Transition{From: "Introduction", To: "Overview", StartedAt: time.Unix(1012, 0)})
	require.NoError(t, store.Close())

	html := filepath.Join(t.TempDir(), "report.html")
	out, err := run(t, "report", "--db", db, "-o", html)
	require.NoError(t, err)
	assert.Contains(t, out, session)

	body, err := os.ReadFile(html)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Overview")

	_, err = run(t, "report", "--db", filepath.Join(t.TempDir(), "empty.db"), "-o", html)
	assert.ErrorIs(t, err, progress.ErrNoSessions)
}

func TestNav(t *testing.T) {
	a, err := app.New(config.Default())
	require.NoError(t, err)
	t.Cleanup(a.Stop)
	require.NoError(t, a.Start(context.Background()))
	ts := httptest.NewServer(api.NewServer(a, nil).ServeMux())
	t.Cleanup(ts.Close)

	out, err := run(t, "nav", "next", "--server", ts.URL)
	require.NoError(t, err)
	assert.Contains(t, out, `"scene": "Overview"`)

	out, err = run(t, "nav", "goto", "Slide2", "--server", ts.URL)
	require.NoError(t, err)
	assert.Contains(t, out, `"scene": "Slide2"`)

	_, err = run(t, "nav", "goto", "--server", ts.URL)
	assert.Error(t, err)

	_, err = run(t, "nav", "goto", "Quiz", "--server", ts.URL)
	assert.Error(t, err)
}
