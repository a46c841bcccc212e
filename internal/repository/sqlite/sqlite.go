// Package sqlite persists exploration sessions and their observation logs.
// A recorded session can rebuild the candidate store offline, without
// re-spending oracle queries.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"librarium/internal/domain"

	_ "modernc.org/sqlite"
)

// Repository stores sessions and observations in SQLite
type Repository struct {
	db *sql.DB
}

// New creates a new SQLite repository
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

// Close releases the underlying database handle.
func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		problem TEXT NOT NULL,
		room_count INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS observations (
		session_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		plan TEXT NOT NULL,
		labels TEXT NOT NULL,
		PRIMARY KEY (session_id, seq),
		FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_observations_session ON observations(session_id);
	`

	_, err := r.db.Exec(schema)
	return err
}

// Session describes one recorded exploration run.
type Session struct {
	ID        string
	Problem   string
	RoomCount int
	CreatedAt time.Time
}

// CreateSession registers a new run against the named problem.
func (r *Repository) CreateSession(ctx context.Context, problem string, roomCount int) (*Session, error) {
	s := &Session{
		ID:        uuid.NewString(),
		Problem:   problem,
		RoomCount: roomCount,
		CreatedAt: time.Now().UTC(),
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, problem, room_count, created_at)
		VALUES (?, ?, ?, ?)
	`, s.ID, s.Problem, s.RoomCount, s.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return s, nil
}

// GetSession loads one session by ID.
func (r *Repository) GetSession(ctx context.Context, id string) (*Session, error) {
	var s Session
	err := r.db.QueryRowContext(ctx, `
		SELECT id, problem, room_count, created_at FROM sessions WHERE id = ?
	`, id).Scan(&s.ID, &s.Problem, &s.RoomCount, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &s, nil
}

// ListSessions returns all sessions, newest first.
func (r *Repository) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, problem, room_count, created_at FROM sessions
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.Problem, &s.RoomCount, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// AppendObservation stores one observation at the given sequence position.
func (r *Repository) AppendObservation(ctx context.Context, sessionID string, seq int, obs domain.Observation) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO observations (session_id, seq, plan, labels)
		VALUES (?, ?, ?, ?)
	`, sessionID, seq, obs.Plan.String(), domain.FormatLabels(obs.Raw))
	if err != nil {
		return fmt.Errorf("failed to append observation: %w", err)
	}
	return nil
}

// Observations loads a session's observation log in recorded order.
func (r *Repository) Observations(ctx context.Context, sessionID string) ([]domain.Observation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT plan, labels FROM observations
		WHERE session_id = ? ORDER BY seq
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query observations: %w", err)
	}
	defer rows.Close()

	var obs []domain.Observation
	for rows.Next() {
		var planStr, labelStr string
		if err := rows.Scan(&planStr, &labelStr); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		plan, err := domain.ParsePlan(planStr)
		if err != nil {
			return nil, fmt.Errorf("stored plan %q: %w", planStr, err)
		}
		labels, err := domain.ParseLabels(labelStr)
		if err != nil {
			return nil, fmt.Errorf("stored labels %q: %w", labelStr, err)
		}
		obs = append(obs, domain.Observation{Plan: plan, Raw: labels})
	}
	return obs, rows.Err()
}

// Recorder binds a session to the engine's observation stream.
type Recorder struct {
	repo      *Repository
	sessionID string
	seq       int
}

// Recorder creates an appending recorder for the session.
func (r *Repository) Recorder(sessionID string) *Recorder {
	return &Recorder{repo: r, sessionID: sessionID}
}

// Record appends the observation to the session log.
func (rec *Recorder) Record(ctx context.Context, obs domain.Observation) error {
	if err := rec.repo.AppendObservation(ctx, rec.sessionID, rec.seq, obs); err != nil {
		return err
	}
	rec.seq++
	return nil
}
