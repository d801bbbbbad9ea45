package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/lifelens/lifelens-cli/internal/model"
)

// pgxPool is the subset of *pgxpool.Pool the store uses; pgxmock
// satisfies it in tests.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    pgxPool
	closeFn func()
	now     func() time.Time
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close, now: time.Now}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS todos (
	seq        BIGSERIAL PRIMARY KEY,
	action_id  TEXT NOT NULL UNIQUE,
	title      TEXT NOT NULL,
	note       TEXT NOT NULL DEFAULT '',
	chips      JSONB NOT NULL DEFAULT '[]'::jsonb,
	done       BOOLEAN NOT NULL DEFAULT false,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS assessments (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	input      JSONB NOT NULL,
	output     JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS card_cache (
	cache_key  TEXT PRIMARY KEY,
	cards      JSONB NOT NULL,
	cached_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_assessments_created_at ON assessments(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_card_cache_expires_at ON card_cache(expires_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// --- To-dos ---

func (s *PostgresStore) AddTodoFromCard(ctx context.Context, card model.Card) ([]model.Todo, error) {
	todo, err := todoFromCard(card, s.now().UTC())
	if err != nil {
		return nil, err
	}
	chips, err := json.Marshal(todo.Chips)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal chips")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO todos (action_id, title, note, chips, done, created_at) VALUES ($1, $2, $3, $4, false, $5)
		 ON CONFLICT (action_id) DO NOTHING`,
		todo.ActionID, todo.Title, todo.Note, chips, todo.Created,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert todo %s", todo.ActionID)
	}
	return s.ListTodos(ctx)
}

func (s *PostgresStore) ListTodos(ctx context.Context) ([]model.Todo, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT action_id, title, note, chips, done, created_at FROM todos ORDER BY seq DESC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list todos")
	}
	defer rows.Close()

	todos := []model.Todo{}
	for rows.Next() {
		var t model.Todo
		var chips []byte
		if err := rows.Scan(&t.ActionID, &t.Title, &t.Note, &chips, &t.Done, &t.Created); err != nil {
			return nil, eris.Wrap(err, "postgres: scan todo")
		}
		if err := json.Unmarshal(chips, &t.Chips); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal chips")
		}
		todos = append(todos, t)
	}
	return todos, eris.Wrap(rows.Err(), "postgres: list todos iterate")
}

func (s *PostgresStore) ToggleTodo(ctx context.Context, actionID string) ([]model.Todo, error) {
	if _, err := s.pool.Exec(ctx, `UPDATE todos SET done = NOT done WHERE action_id = $1`, actionID); err != nil {
		return nil, eris.Wrapf(err, "postgres: toggle todo %s", actionID)
	}
	return s.ListTodos(ctx)
}

func (s *PostgresStore) RemoveTodo(ctx context.Context, actionID string) ([]model.Todo, error) {
	if _, err := s.pool.Exec(ctx, `DELETE FROM todos WHERE action_id = $1`, actionID); err != nil {
		return nil, eris.Wrapf(err, "postgres: remove todo %s", actionID)
	}
	return s.ListTodos(ctx)
}

func (s *PostgresStore) ClearTodos(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM todos`)
	return eris.Wrap(err, "postgres: clear todos")
}

// --- Assessments ---

func (s *PostgresStore) SaveAssessment(ctx context.Context, input model.RawHealthInput, output model.EngineOutput) (*model.Assessment, error) {
	a := &model.Assessment{
		ID:        uuid.New().String(),
		Input:     input,
		Output:    output,
		CreatedAt: s.now().UTC(),
	}
	inJSON, outJSON, err := marshalAssessment(a)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal assessment")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO assessments (id, input, output, created_at) VALUES ($1, $2, $3, $4)`,
		a.ID, inJSON, outJSON, a.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert assessment")
	}
	return a, nil
}

func (s *PostgresStore) GetAssessment(ctx context.Context, id string) (*model.Assessment, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, input, output, created_at FROM assessments WHERE id = $1`, id,
	)
	a, err := scanPgAssessment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: assessment %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get assessment %s", id)
	}
	return a, nil
}

func (s *PostgresStore) ListAssessments(ctx context.Context, limit int) ([]model.Assessment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, input, output, created_at FROM assessments ORDER BY created_at DESC LIMIT $1`,
		assessmentLimit(limit),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list assessments")
	}
	defer rows.Close()

	out := []model.Assessment{}
	for rows.Next() {
		a, err := scanPgAssessment(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan assessment")
		}
		out = append(out, *a)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list assessments iterate")
}

// --- Card cache ---

func (s *PostgresStore) GetCachedCards(ctx context.Context, key string) ([]model.Card, bool, error) {
	var cardsJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT cards FROM card_cache WHERE cache_key = $1 AND expires_at > now()`, key,
	).Scan(&cardsJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "postgres: get cached cards")
	}

	var cards []model.Card
	if err := json.Unmarshal(cardsJSON, &cards); err != nil {
		return nil, false, eris.Wrap(err, "postgres: unmarshal cached cards")
	}
	return cards, true, nil
}

func (s *PostgresStore) SetCachedCards(ctx context.Context, key string, cards []model.Card, ttl time.Duration) error {
	cardsJSON, err := json.Marshal(cards)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal cards")
	}
	now := s.now().UTC()
	_, err = s.pool.Exec(ctx,
		`INSERT INTO card_cache (cache_key, cards, cached_at, expires_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (cache_key) DO UPDATE SET cards = EXCLUDED.cards, cached_at = EXCLUDED.cached_at, expires_at = EXCLUDED.expires_at`,
		key, cardsJSON, now, now.Add(ttl),
	)
	return eris.Wrap(err, "postgres: set cached cards")
}

func (s *PostgresStore) DeleteExpiredCards(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM card_cache WHERE expires_at <= now()`)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired cards")
	}
	return int(tag.RowsAffected()), nil
}

func scanPgAssessment(row scannable) (*model.Assessment, error) {
	var a model.Assessment
	var inJSON, outJSON []byte
	if err := row.Scan(&a.ID, &inJSON, &outJSON, &a.CreatedAt); err != nil {
		return nil, err
	}
	if err := unmarshalAssessment(&a, inJSON, outJSON); err != nil {
		return nil, err
	}
	return &a, nil
}
