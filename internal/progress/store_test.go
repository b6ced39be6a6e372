package progress

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/lesson.view/internal/flow"
	"github.com/banshee-data/lesson.view/internal/timeutil"
)

func openTestStore(t *testing.T) (*Store, *timeutil.MockClock) {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "progress.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	clock := timeutil.NewMockClock(time.Unix(1000, 0))
	s.WithClock(clock)
	return s, clock
}

func TestOpenAppliesMigrations(t *testing.T) {
	s, _ := openTestStore(t)

	version, dirty, err := s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)

	// Re-running is a no-op.
	require.NoError(t, s.MigrateUp())

	var journalMode string
	require.NoError(t, s.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	if journalMode != "wal" {
		t.Errorf("Expected journal_mode=wal, got %s", journalMode)
	}
}

func TestRecordRequiresSession(t *testing.T) {
	s, _ := openTestStore(t)
	assert.Error(t, s.Record(flow.Transition{To: "Introduction"}))
	assert.Empty(t, s.Session())
}

func TestRecordAndSummary(t *testing.T) {
	s, clock := openTestStore(t)
	id, err := s.BeginSession("Roof truss")
	require.NoError(t, err)
	assert.Equal(t, id, s.Session())

	at := func(sec int64) time.Time { return time.Unix(sec, 0) }
	s.Observe(flow.Transition{To: "Introduction", StartedAt: at(1000), Duration: time.Millisecond})
	s.Observe(flow.Transition{From: "Introduction", To: "Overview", StartedAt: at(1010)})
	s.Observe(flow.Transition{From: "Overview", To: "Slide1", StartedAt: at(1040), EnterErr: errors.New("boom")})
	s.Observe(flow.Transition{From: "Slide1", To: "Overview", StartedAt: at(1045)})
	clock.Set(at(1050))

	entries, err := s.Transitions(id)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Equal(t, "", entries[0].From)
	assert.Equal(t, time.Millisecond, entries[0].Duration)
	assert.Equal(t, "boom", entries[2].EnterErr)
	assert.True(t, entries[1].StartedAt.Equal(at(1010)))

	got, err := s.Summary(id)
	require.NoError(t, err)
	want := []Dwell{
		{Scene: "Introduction", Visits: 1, Total: 10 * time.Second},
		{Scene: "Overview", Visits: 2, Total: 35 * time.Second},
		{Scene: "Slide1", Visits: 1, Total: 5 * time.Second},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Summary mismatch (-want +got):\n%s", diff)
	}

	other, err := s.Summary("missing")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestAdminRoutes(t *testing.T) {
	s, clock := openTestStore(t)
	_, err := s.BeginSession("Roof truss")
	require.NoError(t, err)
	s.Observe(flow.Transition{To: "Introduction", StartedAt: clock.Now()})
	clock.Advance(3 * time.Second)

	mux := http.NewServeMux()
	require.NoError(t, s.AttachAdminRoutes(mux))

	req := httptest.NewRequest(http.MethodGet, "/debug/progress", nil)
	req.RemoteAddr = "127.0.0.1:1234"
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got []Dwell
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, []Dwell{{Scene: "Introduction", Visits: 1, Total: 3 * time.Second}}, got)

	req = httptest.NewRequest(http.MethodGet, "/debug/backup", nil)
	req.RemoteAddr = "127.0.0.1:1234"
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
	assert.NotZero(t, rec.Body.Len())
}

func TestLatestSession(t *testing.T) {
	s, clock := openTestStore(t)
	_, err := s.LatestSession()
	assert.ErrorIs(t, err, ErrNoSessions)

	first, err := s.BeginSession("Roof truss")
	require.NoError(t, err)
	clock.Advance(time.Minute)
	second, err := s.BeginSession("Roof truss")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	got, err := s.LatestSession()
	require.NoError(t, err)
	assert.Equal(t, second, got)
}
