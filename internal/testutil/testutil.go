// Package testutil provides shared helpers for HTTP handler tests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// Serve sends a request with no body through h and returns the recorder.
func Serve(h http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

// DecodeJSON decodes the recorded body into a T, failing the test on error.
func DecodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

// AssertJSONError checks for a JSON error body with the given status whose
// message contains substr.
func AssertJSONError(t *testing.T, rec *httptest.ResponseRecorder, status int, substr string) {
	t.Helper()
	AssertStatusCode(t, rec.Code, status)
	body := DecodeJSON[map[string]string](t, rec)
	if !strings.Contains(body["error"], substr) {
		t.Errorf("error = %q, want it to contain %q", body["error"], substr)
	}
}

// TempDBPath returns a database path inside a per-test directory.
func TempDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "lesson.db")
}
