// Package api exposes a running lesson over HTTP so it can be driven
// headlessly: scene navigation, XR toggling and the progress report.
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/lesson.view/internal/app"
	"github.com/banshee-data/lesson.view/internal/flow"
	"github.com/banshee-data/lesson.view/internal/host"
	"github.com/banshee-data/lesson.view/internal/progress"
	"github.com/banshee-data/lesson.view/internal/report"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	app   *app.App
	store *progress.Store
}

// NewServer serves a. store may be nil, in which case /report answers 404.
func NewServer(a *app.App, store *progress.Store) *Server {
	return &Server{app: a, store: store}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /scene", s.showScene)
	mux.HandleFunc("GET /scenes", s.listScenes)
	mux.HandleFunc("POST /scene/next", s.navigate(func(r *http.Request) error { return s.app.Engine.Next(r.Context()) }))
	mux.HandleFunc("POST /scene/prev", s.navigate(func(r *http.Request) error { return s.app.Engine.Prev(r.Context()) }))
	mux.HandleFunc("POST /scene/goto", s.gotoScene)
	mux.HandleFunc("POST /xr/enter", s.setXR(host.InXR))
	mux.HandleFunc("POST /xr/exit", s.setXR(host.NotInXR))
	mux.HandleFunc("GET /report", s.showReport)
	return mux
}

func (s *Server) showScene(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.app.State())
}

func (s *Server) listScenes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"scenes": s.app.Engine.Names()})
}

func (s *Server) navigate(move func(*http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := move(r); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s.app.State())
	}
}

func (s *Server) gotoScene(w http.ResponseWriter, r *http.Request) {
	name := r.FormValue("name")
	if name == "" {
		writeJSONError(w, http.StatusBadRequest, "missing 'name' parameter")
		return
	}
	s.navigate(func(r *http.Request) error { return s.app.Engine.GoTo(r.Context(), name) })(w, r)
}

// setXR requests an XR state change. The matching scene change happens
// asynchronously through the XR binding, so the response is 202.
func (s *Server) setXR(want host.XRState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		xr := s.app.World.XR
		if xr.State() == want {
			writeJSONError(w, http.StatusConflict, "already "+want.String())
			return
		}
		var err error
		if want == host.InXR {
			err = xr.Enter()
		} else {
			err = xr.Exit()
		}
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusAccepted, s.app.State())
	}
}

func (s *Server) showReport(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSONError(w, http.StatusNotFound, "progress store disabled")
		return
	}
	session := r.URL.Query().Get("session")
	if session == "" {
		session = s.store.Session()
	}
	dwell, err := s.store.Summary(session)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	var buf bytes.Buffer
	if err := report.DwellChart(&buf, s.app.Config.GetTitle(), dwell); err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// writeError maps navigation errors to status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, flow.ErrUnknownScene):
		writeJSONError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, flow.ErrNoNeighbour):
		writeJSONError(w, http.StatusConflict, err.Error())
	default:
		writeJSONError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode json response: %v", err)
	}
}
