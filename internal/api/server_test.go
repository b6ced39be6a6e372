package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/lesson.view/internal/app"
	"github.com/banshee-data/lesson.view/internal/config"
	"github.com/banshee-data/lesson.view/internal/progress"
	"github.com/banshee-data/lesson.view/internal/testutil"
	"github.com/banshee-data/lesson.view/internal/timeutil"
)

func newTestServer(t *testing.T, withStore bool) (*Server, *app.App) {
	t.Helper()
	clock := timeutil.NewMockClock(time.Unix(1000, 0))
	var store *progress.Store
	var opts []app.Option
	opts = append(opts, app.WithClock(clock))
	if withStore {
		var err error
		store, err = progress.Open(testutil.TempDBPath(t))
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })
		store.WithClock(clock)
		_, err = store.BeginSession("Roof truss")
		require.NoError(t, err)
		opts = append(opts, app.WithObserver(store.Observe))
	}
	a, err := app.New(config.Default(), opts...)
	require.NoError(t, err)
	t.Cleanup(a.Stop)
	require.NoError(t, a.Start(context.Background()))
	return NewServer(a, store), a
}

func TestShowScene(t *testing.T) {
	s, _ := newTestServer(t, false)
	rec := testutil.Serve(s.ServeMux(), http.MethodGet, "/scene")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	st := testutil.DecodeJSON[app.State](t, rec)
	assert.Equal(t, app.State{Scene: "Introduction", Active: true, XR: "not-in-xr"}, st)
}

func TestListScenes(t *testing.T) {
	s, _ := newTestServer(t, false)
	rec := testutil.Serve(s.ServeMux(), http.MethodGet, "/scenes")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	got := testutil.DecodeJSON[map[string][]string](t, rec)
	assert.Equal(t, config.Default().SceneNames(), got["scenes"])
}

func TestNavigation(t *testing.T) {
	s, a := newTestServer(t, false)
	mux := s.ServeMux()

	tests := []struct {
		method, path string
		status       int
		scene        string
		errText      string
	}{
		{http.MethodPost, "/scene/prev", http.StatusConflict, "", "no neighbouring scene"},
		{http.MethodPost, "/scene/next", http.StatusOK, "Overview", ""},
		{http.MethodPost, "/scene/goto?name=Slide3", http.StatusOK, "Slide3", ""},
		{http.MethodPost, "/scene/goto?name=Quiz", http.StatusNotFound, "", "unknown scene"},
		{http.MethodPost, "/scene/goto", http.StatusBadRequest, "", "missing 'name'"},
		{http.MethodPost, "/scene/prev", http.StatusOK, "Slide2", ""},
		{http.MethodGet, "/scene/next", http.StatusMethodNotAllowed, "", ""},
	}
	for _, tt := range tests {
		rec := testutil.Serve(mux, tt.method, tt.path)
		switch {
		case tt.errText != "":
			testutil.AssertJSONError(t, rec, tt.status, tt.errText)
		case tt.scene != "":
			testutil.AssertStatusCode(t, rec.Code, tt.status)
			assert.Equal(t, tt.scene, testutil.DecodeJSON[app.State](t, rec).Scene, tt.path)
		default:
			testutil.AssertStatusCode(t, rec.Code, tt.status)
		}
	}
	name, _ := a.Engine.Current()
	assert.Equal(t, "Slide2", name)
}

func TestXRRoutes(t *testing.T) {
	s, a := newTestServer(t, false)
	mux := s.ServeMux()

	rec := testutil.Serve(mux, http.MethodPost, "/xr/exit")
	testutil.AssertJSONError(t, rec, http.StatusConflict, "already not-in-xr")

	rec = testutil.Serve(mux, http.MethodPost, "/xr/enter")
	testutil.AssertStatusCode(t, rec.Code, http.StatusAccepted)
	assert.Equal(t, "in-xr", testutil.DecodeJSON[app.State](t, rec).XR)
	require.Eventually(t, func() bool { return a.State().Scene == "ArIntroduction" }, 2*time.Second, 5*time.Millisecond)

	rec = testutil.Serve(mux, http.MethodPost, "/xr/exit")
	testutil.AssertStatusCode(t, rec.Code, http.StatusAccepted)
	require.Eventually(t, func() bool { return a.State().Scene == "Overview" }, 2*time.Second, 5*time.Millisecond)
}

func TestReport(t *testing.T) {
	t.Run("without a store", func(t *testing.T) {
		s, _ := newTestServer(t, false)
		rec := testutil.Serve(s.ServeMux(), http.MethodGet, "/report")
		testutil.AssertJSONError(t, rec, http.StatusNotFound, "disabled")
	})

	t.Run("renders the session dwell chart", func(t *testing.T) {
		s, _ := newTestServer(t, true)
		mux := s.ServeMux()
		testutil.Serve(mux, http.MethodPost, "/scene/next")

		rec := testutil.Serve(mux, http.MethodGet, "/report")
		testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
		assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"))
		assert.Contains(t, rec.Body.String(), "Overview")
	})
}

func TestLoggingMiddleware(t *testing.T) {
	h := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	rec := testutil.Serve(h, http.MethodGet, "/scene?x=1")
	testutil.AssertStatusCode(t, rec.Code, http.StatusCreated)
	assert.Contains(t, statusCodeColor(http.StatusCreated), "201")
	assert.Contains(t, statusCodeColor(http.StatusNotFound), colorBoldRed)
}

func TestClient(t *testing.T) {
	s, _ := newTestServer(t, false)
	ts := httptest.NewServer(s.ServeMux())
	t.Cleanup(ts.Close)
	c := NewClient(ts.URL+"/", nil)
	ctx := context.Background()

	scenes, err := c.Scenes(ctx)
	require.NoError(t, err)
	assert.Len(t, scenes, 9)

	st, err := c.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Overview", st.Scene)

	st, err = c.GoTo(ctx, "Slide5")
	require.NoError(t, err)
	assert.Equal(t, "Slide5", st.Scene)

	st, err = c.Prev(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Slide4", st.Scene)

	_, err = c.GoTo(ctx, "Quiz")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Contains(t, apiErr.Message, "Quiz")

	st, err = c.SetXR(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, "in-xr", st.XR)

	st, err = c.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, "in-xr", st.XR)
}
