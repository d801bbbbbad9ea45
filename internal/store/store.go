// Package store persists to-do items, assessment history and refined-card
// cache entries. SQLite is the default backend; Postgres is available for
// shared deployments.
package store

import (
	"context"
	"regexp"
	"time"

	"github.com/rotisserie/eris"

	"github.com/lifelens/lifelens-cli/internal/model"
)

// Backend drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DefaultAssessmentLimit caps ListAssessments when no limit is given.
const DefaultAssessmentLimit = 20

var (
	// ErrNotFound is returned when a keyed record does not exist.
	ErrNotFound = eris.New("store: not found")

	// ErrNoActionID is returned when a card without an action ID is saved
	// as a to-do.
	ErrNoActionID = eris.New("store: card has no action id")
)

// Store defines the persistence interface.
type Store interface {
	// To-dos, newest first.
	AddTodoFromCard(ctx context.Context, card model.Card) ([]model.Todo, error)
	ListTodos(ctx context.Context) ([]model.Todo, error)
	ToggleTodo(ctx context.Context, actionID string) ([]model.Todo, error)
	RemoveTodo(ctx context.Context, actionID string) ([]model.Todo, error)
	ClearTodos(ctx context.Context) error

	// Assessments
	SaveAssessment(ctx context.Context, input model.RawHealthInput, output model.EngineOutput) (*model.Assessment, error)
	GetAssessment(ctx context.Context, id string) (*model.Assessment, error)
	ListAssessments(ctx context.Context, limit int) ([]model.Assessment, error)

	// Refined-card cache
	GetCachedCards(ctx context.Context, key string) ([]model.Card, bool, error)
	SetCachedCards(ctx context.Context, key string, cards []model.Card, ttl time.Duration) error
	DeleteExpiredCards(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open connects to the configured backend. It does not migrate.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "", DriverSQLite:
		return NewSQLite(dsn)
	case DriverPostgres:
		return NewPostgres(ctx, dsn, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}

var tryThisPrefix = regexp.MustCompile(`(?i)^Try this:\s*`)

// todoFromCard builds the to-do saved for a suggestion card.
func todoFromCard(card model.Card, now time.Time) (model.Todo, error) {
	if card.ActionID == "" {
		return model.Todo{}, ErrNoActionID
	}
	title := tryThisPrefix.ReplaceAllString(card.Title, "")
	if title == "" {
		title = "Action"
	}
	chips := card.MetricCallouts
	if chips == nil {
		chips = []string{}
	}
	return model.Todo{
		ActionID: card.ActionID,
		Title:    title,
		Note:     card.Body,
		Chips:    chips,
		Created:  now,
	}, nil
}

func assessmentLimit(limit int) int {
	if limit <= 0 {
		return DefaultAssessmentLimit
	}
	return limit
}
