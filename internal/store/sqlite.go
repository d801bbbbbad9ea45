package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/lifelens/lifelens-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. Timestamps are
// stored as Unix nanoseconds.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS todos (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	action_id  TEXT NOT NULL UNIQUE,
	title      TEXT NOT NULL,
	note       TEXT NOT NULL DEFAULT '',
	chips      TEXT NOT NULL DEFAULT '[]',
	done       INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS assessments (
	id         TEXT PRIMARY KEY,
	input      TEXT NOT NULL,
	output     TEXT NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS card_cache (
	cache_key  TEXT PRIMARY KEY,
	cards      TEXT NOT NULL,
	cached_at  INTEGER NOT NULL,
	expires_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_assessments_created_at ON assessments(created_at);
CREATE INDEX IF NOT EXISTS idx_card_cache_expires_at ON card_cache(expires_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- To-dos ---

func (s *SQLiteStore) AddTodoFromCard(ctx context.Context, card model.Card) ([]model.Todo, error) {
	todo, err := todoFromCard(card, s.now().UTC())
	if err != nil {
		return nil, err
	}
	chips, err := json.Marshal(todo.Chips)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal chips")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO todos (action_id, title, note, chips, done, created_at) VALUES (?, ?, ?, ?, 0, ?)
		 ON CONFLICT(action_id) DO NOTHING`,
		todo.ActionID, todo.Title, todo.Note, string(chips), todo.Created.UnixNano(),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert todo %s", todo.ActionID)
	}
	return s.ListTodos(ctx)
}

func (s *SQLiteStore) ListTodos(ctx context.Context) ([]model.Todo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT action_id, title, note, chips, done, created_at FROM todos ORDER BY seq DESC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list todos")
	}
	defer rows.Close() //nolint:errcheck

	todos := []model.Todo{}
	for rows.Next() {
		var t model.Todo
		var chips string
		var created int64
		if err := rows.Scan(&t.ActionID, &t.Title, &t.Note, &chips, &t.Done, &created); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan todo")
		}
		if err := json.Unmarshal([]byte(chips), &t.Chips); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal chips")
		}
		t.Created = time.Unix(0, created).UTC()
		todos = append(todos, t)
	}
	return todos, eris.Wrap(rows.Err(), "sqlite: list todos iterate")
}

func (s *SQLiteStore) ToggleTodo(ctx context.Context, actionID string) ([]model.Todo, error) {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE todos SET done = CASE done WHEN 0 THEN 1 ELSE 0 END WHERE action_id = ?`, actionID,
	); err != nil {
		return nil, eris.Wrapf(err, "sqlite: toggle todo %s", actionID)
	}
	return s.ListTodos(ctx)
}

func (s *SQLiteStore) RemoveTodo(ctx context.Context, actionID string) ([]model.Todo, error) {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM todos WHERE action_id = ?`, actionID); err != nil {
		return nil, eris.Wrapf(err, "sqlite: remove todo %s", actionID)
	}
	return s.ListTodos(ctx)
}

func (s *SQLiteStore) ClearTodos(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM todos`)
	return eris.Wrap(err, "sqlite: clear todos")
}

// --- Assessments ---

func (s *SQLiteStore) SaveAssessment(ctx context.Context, input model.RawHealthInput, output model.EngineOutput) (*model.Assessment, error) {
	a := &model.Assessment{
		ID:        uuid.New().String(),
		Input:     input,
		Output:    output,
		CreatedAt: s.now().UTC(),
	}
	inJSON, outJSON, err := marshalAssessment(a)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal assessment")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO assessments (id, input, output, created_at) VALUES (?, ?, ?, ?)`,
		a.ID, string(inJSON), string(outJSON), a.CreatedAt.UnixNano(),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert assessment")
	}
	return a, nil
}

func (s *SQLiteStore) GetAssessment(ctx context.Context, id string) (*model.Assessment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, input, output, created_at FROM assessments WHERE id = ?`, id,
	)
	a, err := scanAssessment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: assessment %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get assessment %s", id)
	}
	return a, nil
}

func (s *SQLiteStore) ListAssessments(ctx context.Context, limit int) ([]model.Assessment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, input, output, created_at FROM assessments ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		assessmentLimit(limit),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list assessments")
	}
	defer rows.Close() //nolint:errcheck

	out := []model.Assessment{}
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan assessment")
		}
		out = append(out, *a)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list assessments iterate")
}

// --- Card cache ---

func (s *SQLiteStore) GetCachedCards(ctx context.Context, key string) ([]model.Card, bool, error) {
	var cardsJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT cards FROM card_cache WHERE cache_key = ? AND expires_at > ?`,
		key, s.now().UnixNano(),
	).Scan(&cardsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "sqlite: get cached cards")
	}

	var cards []model.Card
	if err := json.Unmarshal([]byte(cardsJSON), &cards); err != nil {
		return nil, false, eris.Wrap(err, "sqlite: unmarshal cached cards")
	}
	return cards, true, nil
}

func (s *SQLiteStore) SetCachedCards(ctx context.Context, key string, cards []model.Card, ttl time.Duration) error {
	cardsJSON, err := json.Marshal(cards)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal cards")
	}
	now := s.now()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO card_cache (cache_key, cards, cached_at, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(cache_key) DO UPDATE SET cards = excluded.cards, cached_at = excluded.cached_at, expires_at = excluded.expires_at`,
		key, string(cardsJSON), now.UnixNano(), now.Add(ttl).UnixNano(),
	)
	return eris.Wrap(err, "sqlite: set cached cards")
}

func (s *SQLiteStore) DeleteExpiredCards(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM card_cache WHERE expires_at <= ?`, s.now().UnixNano())
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired cards")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func scanAssessment(row scannable) (*model.Assessment, error) {
	var a model.Assessment
	var inJSON, outJSON string
	var created int64
	if err := row.Scan(&a.ID, &inJSON, &outJSON, &created); err != nil {
		return nil, err
	}
	if err := unmarshalAssessment(&a, []byte(inJSON), []byte(outJSON)); err != nil {
		return nil, err
	}
	a.CreatedAt = time.Unix(0, created).UTC()
	return &a, nil
}

func marshalAssessment(a *model.Assessment) ([]byte, []byte, error) {
	in, err := json.Marshal(a.Input)
	if err != nil {
		return nil, nil, err
	}
	out, err := json.Marshal(a.Output)
	if err != nil {
		return nil, nil, err
	}
	return in, out, nil
}

func unmarshalAssessment(a *model.Assessment, in, out []byte) error {
	if err := json.Unmarshal(in, &a.Input); err != nil {
		return eris.Wrap(err, "unmarshal assessment input")
	}
	if err := json.Unmarshal(out, &a.Output); err != nil {
		return eris.Wrap(err, "unmarshal assessment output")
	}
	return nil
}
