// Package progress records scene transitions to SQLite so a lesson session
// can be reviewed afterwards.
package progress

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/lesson.view/internal/flow"
	"github.com/banshee-data/lesson.view/internal/timeutil"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var ErrNoSessions = errors.New("no recorded sessions")

const pragmas = "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=temp_store(MEMORY)"

// Store is a transition log backed by SQLite.
type Store struct {
	*sql.DB
	path    string
	session string
	clock   timeutil.Clock
}

// Entry is one stored transition.
type Entry struct {
	ID        int64
	Session   string
	From      string
	To        string
	ExitErr   string
	EnterErr  string
	StartedAt time.Time
	Duration  time.Duration
}

// Dwell is the time spent in one scene over a session.
type Dwell struct {
	Scene  string
	Visits int
	Total  time.Duration
}

// Open opens (creating if needed) the database at path and applies pending
// migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+pragmas)
	if err != nil {
		return nil, err
	}
	s := &Store{DB: db, path: path, clock: timeutil.RealClock{}}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// WithClock sets the clock used to close the dwell of the current scene.
func (s *Store) WithClock(c timeutil.Clock) *Store {
	s.clock = c
	return s
}

// MigrateUp runs all pending migrations. It is a no-op when the schema is
// already current.
func (s *Store) MigrateUp() error {
	m, err := s.newMigrate()
	if err != nil {
		return err
	}
	// Closing m would close the shared *sql.DB.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// MigrateVersion returns the applied schema version. It returns 0 for a
// database with no migrations.
func (s *Store) MigrateVersion() (uint, bool, error) {
	m, err := s.newMigrate()
	if err != nil {
		return 0, false, err
	}
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func (s *Store) newMigrate() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(s.DB, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = &migrateLogger{}
	return m, nil
}

type migrateLogger struct{}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	log.Printf("[migrate] "+format, v...)
}

func (l *migrateLogger) Verbose() bool { return false }

// BeginSession starts a new session for the named lesson and makes it the
// target of Record.
func (s *Store) BeginSession(title string) (string, error) {
	id := uuid.NewString()
	_, err := s.Exec(`INSERT INTO sessions (session_id, lesson_title, started_at_ns) VALUES (?, ?, ?)`,
		id, title, s.clock.Now().UnixNano())
	if err != nil {
		return "", fmt.Errorf("begin session: %w", err)
	}
	s.session = id
	log.Printf("[progress] session %s started for %q", id, title)
	return id, nil
}

// Session returns the current session id, or "" before BeginSession.
func (s *Store) Session() string { return s.session }

// Record stores t under the current session.
func (s *Store) Record(t flow.Transition) error {
	if s.session == "" {
		return errors.New("record transition: no session")
	}
	_, err := s.Exec(`
		INSERT INTO transitions (session_id, from_scene, to_scene, exit_error, enter_error, started_at_ns, duration_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.session, t.From, t.To, errString(t.ExitErr), errString(t.EnterErr),
		t.StartedAt.UnixNano(), int64(t.Duration))
	if err != nil {
		return fmt.Errorf("record transition: %w", err)
	}
	return nil
}

// Observe is a flow observer that logs storage failures instead of
// returning them.
func (s *Store) Observe(t flow.Transition) {
	if err := s.Record(t); err != nil {
		log.Printf("[progress] %v", err)
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// Transitions returns the transitions of session in the order they started.
func (s *Store) Transitions(session string) ([]Entry, error) {
	rows, err := s.Query(`
		SELECT transition_id, session_id, from_scene, to_scene, exit_error, enter_error, started_at_ns, duration_ns
		FROM transitions WHERE session_id = ?
		ORDER BY started_at_ns, transition_id`, session)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var started, dur int64
		if err := rows.Scan(&e.ID, &e.Session, &e.From, &e.To, &e.ExitErr, &e.EnterErr, &started, &dur); err != nil {
			return nil, err
		}
		e.StartedAt = time.Unix(0, started)
		e.Duration = time.Duration(dur)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Summary returns the time spent in each scene of session, in order of first
// visit. A scene's dwell runs from the start of the transition into it to the
// start of the next transition; the last scene is closed at the clock's now.
func (s *Store) Summary(session string) ([]Dwell, error) {
	entries, err := s.Transitions(session)
	if err != nil {
		return nil, err
	}
	var out []Dwell
	index := map[string]int{}
	for i, e := range entries {
		end := s.clock.Now()
		if i+1 < len(entries) {
			end = entries[i+1].StartedAt
		}
		j, ok := index[e.To]
		if !ok {
			j = len(out)
			index[e.To] = j
			out = append(out, Dwell{Scene: e.To})
		}
		out[j].Visits++
		if d := end.Sub(e.StartedAt); d > 0 {
			out[j].Total += d
		}
	}
	return out, nil
}

// LatestSession returns the most recently started session.
func (s *Store) LatestSession() (string, error) {
	var id string
	err := s.QueryRow(`SELECT session_id FROM sessions ORDER BY started_at_ns DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoSessions
	}
	return id, err
}
