package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"focustimer/internal/core/model"
)

// SnapshotKey is the fixed key of the timer snapshot slot.
const SnapshotKey = "timer-state"

// ErrTaskNotFound is returned when a task id does not exist.
var ErrTaskNotFound = errors.New("task not found")

// SQLiteStore keeps tasks, logged focus sessions and the timer snapshot in a
// local SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db, now: func() time.Time { return time.Now().UTC() }}
	if err := store.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		status TEXT NOT NULL,
		prior_status TEXT,
		duration_minutes INTEGER NOT NULL DEFAULT 0,
		started_at DATETIME,
		completed_at DATETIME,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS focus_sessions (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL DEFAULT '',
		minutes INTEGER NOT NULL,
		kind TEXT NOT NULL,
		logged_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
	CREATE INDEX IF NOT EXISTS idx_focus_sessions_logged_at ON focus_sessions(logged_at);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_focus_sessions_session_id ON focus_sessions(session_id) WHERE session_id != '';
	`

	_, err := s.db.Exec(schema)
	return err
}

// AddTask creates a new task in the todo state.
func (s *SQLiteStore) AddTask(ctx context.Context, title string) (model.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Task{}, fmt.Errorf("add task: title is empty")
	}

	task := model.Task{
		ID:     uuid.New().String(),
		Title:  title,
		Status: model.TaskStatusTodo,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, title, status, duration_minutes, created_at) VALUES (?, ?, ?, 0, ?)`,
		task.ID, task.Title, task.Status, s.now(),
	)
	if err != nil {
		return model.Task{}, fmt.Errorf("add task: %w", err)
	}
	return task, nil
}

func (s *SQLiteStore) GetTask(ctx context.Context, id string) (model.Task, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, status, duration_minutes, started_at, completed_at
		FROM tasks
		WHERE id = ?
	`, id)

	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Task{}, ErrTaskNotFound
	}
	return task, err
}

func (s *SQLiteStore) ListTasks(ctx context.Context) ([]model.Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, status, duration_minutes, started_at, completed_at
		FROM tasks
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// MarkTaskStarted moves a task to in progress when a timer is bound to it and
// remembers the status it had, so CancelTask can put it back. Marking an
// already started task again keeps the first remembered status.
func (s *SQLiteStore) MarkTaskStarted(ctx context.Context, id string) (model.TaskResult, error) {
	return s.updateTask(ctx, id, `
		UPDATE tasks SET
			prior_status = CASE WHEN prior_status IS NOT NULL AND status = ? THEN prior_status ELSE status END,
			status = ?,
			started_at = COALESCE(started_at, ?)
		WHERE id = ?`,
		model.TaskStatusInProgress, model.TaskStatusInProgress, s.now(), id,
	)
}

func (s *SQLiteStore) CompleteTask(ctx context.Context, id string, durationMinutes int) (model.TaskResult, error) {
	return s.updateTask(ctx, id,
		`UPDATE tasks SET status = ?, prior_status = NULL, duration_minutes = ?, completed_at = ? WHERE id = ?`,
		model.TaskStatusCompleted, durationMinutes, s.now(), id,
	)
}

// CancelTask reverts a task to the status it had before MarkTaskStarted, todo
// when none was recorded. started_at survives only for a task that was
// already in progress.
func (s *SQLiteStore) CancelTask(ctx context.Context, id string) (model.TaskResult, error) {
	return s.updateTask(ctx, id, `
		UPDATE tasks SET
			status = COALESCE(prior_status, ?),
			started_at = CASE WHEN prior_status = ? THEN started_at ELSE NULL END,
			completed_at = NULL,
			prior_status = NULL
		WHERE id = ?`,
		model.TaskStatusTodo, model.TaskStatusInProgress, id,
	)
}

func (s *SQLiteStore) UpdateTask(ctx context.Context, id string, patch model.TaskPatch) (model.TaskResult, error) {
	var (
		sets []string
		args []any
	)
	if patch.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *patch.Status)
		if *patch.Status == model.TaskStatusCompleted {
			sets = append(sets, "prior_status = NULL", "completed_at = COALESCE(completed_at, ?)")
			args = append(args, s.now())
		}
	}
	if patch.DurationMinutes != nil {
		sets = append(sets, "duration_minutes = ?")
		args = append(args, *patch.DurationMinutes)
	}
	if len(sets) == 0 {
		task, err := s.GetTask(ctx, id)
		if err != nil {
			return model.TaskResult{}, err
		}
		return model.TaskResult{Success: true, Task: task}, nil
	}

	args = append(args, id)
	query := "UPDATE tasks SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	return s.updateTask(ctx, id, query, args...)
}

func (s *SQLiteStore) updateTask(ctx context.Context, id string, query string, args ...any) (model.TaskResult, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return model.TaskResult{}, fmt.Errorf("update task %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return model.TaskResult{}, err
	}
	if affected == 0 {
		return model.TaskResult{}, ErrTaskNotFound
	}

	task, err := s.GetTask(ctx, id)
	if err != nil {
		return model.TaskResult{}, err
	}
	return model.TaskResult{Success: true, Task: task}, nil
}

// LogFocusSession appends a focus interval. A second entry for the same
// non-empty sessionID is ignored.
func (s *SQLiteStore) LogFocusSession(ctx context.Context, sessionID string, minutes int, kind model.SessionKind) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO focus_sessions (id, session_id, minutes, kind, logged_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), sessionID, minutes, kind, s.now(),
	)
	if err != nil {
		return fmt.Errorf("log focus session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListFocusSessions(ctx context.Context, since time.Time) ([]model.FocusSession, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, minutes, kind, logged_at
		FROM focus_sessions
		WHERE logged_at >= ?
		ORDER BY logged_at ASC
	`, since.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.FocusSession
	for rows.Next() {
		var session model.FocusSession
		if err := rows.Scan(&session.ID, &session.SessionID, &session.Minutes, &session.Kind, &session.LoggedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// SaveSnapshot overwrites the timer snapshot slot.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snapshot model.Snapshot) error {
	value, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, SnapshotKey, string(value), s.now())
	return err
}

// LoadSnapshot returns the stored snapshot, or nil when the slot is empty.
func (s *SQLiteStore) LoadSnapshot(ctx context.Context) (*model.Snapshot, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, SnapshotKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var snapshot model.Snapshot
	if err := json.Unmarshal([]byte(value), &snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snapshot, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (model.Task, error) {
	var (
		task        model.Task
		startedAt   sql.NullTime
		completedAt sql.NullTime
	)
	if err := row.Scan(&task.ID, &task.Title, &task.Status, &task.DurationMinutes, &startedAt, &completedAt); err != nil {
		return model.Task{}, err
	}
	if startedAt.Valid {
		task.StartedAt = startedAt.Time
	}
	if completedAt.Valid {
		task.CompletedAt = completedAt.Time
	}
	return task, nil
}
