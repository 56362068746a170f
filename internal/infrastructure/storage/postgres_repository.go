// Package storage persists day states and the conversation log in Postgres.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"NewsCaster/internal/domain"
	"NewsCaster/internal/ports"
)

// PostgresRepository stores one serialized DayState per (conversation, date)
// and an independent append-only conversation log.
type PostgresRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.StateRepository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Open connects to Postgres and verifies the connection.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// InitSchema creates the tables if they do not exist.
func (r *PostgresRepository) InitSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS day_states (
			conversation_id TEXT NOT NULL,
			date TEXT NOT NULL,
			state_json JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (conversation_id, date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_day_states_date ON day_states(date)`,
		`CREATE TABLE IF NOT EXISTS conversation_log (
			id BIGSERIAL PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			date TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversation_log_chat_date ON conversation_log(conversation_id, date)`,
	}

	for _, stmt := range statements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: init schema: %v", domain.ErrPersistence, err)
		}
	}
	return nil
}

// Load returns the stored state for the key, or nil when absent.
func (r *PostgresRepository) Load(ctx context.Context, conversationID, date string) (*domain.DayState, error) {
	query, args, err := r.builder.
		Select("state_json").
		From("day_states").
		Where(sq.Eq{"conversation_id": conversationID, "date": date}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: build load query: %v", domain.ErrPersistence, err)
	}

	var raw []byte
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: load state: %v", domain.ErrPersistence, err)
	}

	var state domain.DayState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("%w: decode state: %v", domain.ErrPersistence, err)
	}
	return &state, nil
}

// Save upserts the state atomically, keyed by (conversation_id, date). A
// serialization failure aborts before anything is written.
func (r *PostgresRepository) Save(ctx context.Context, state domain.DayState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("%w: encode state: %v", domain.ErrPersistence, err)
	}

	query, args, err := r.builder.
		Insert("day_states").
		Columns("conversation_id", "date", "state_json").
		Values(state.ConversationID, state.Date, raw).
		Suffix(`ON CONFLICT (conversation_id, date) DO UPDATE
			SET state_json = EXCLUDED.state_json, updated_at = NOW()`).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: build upsert: %v", domain.ErrPersistence, err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: upsert state: %v", domain.ErrPersistence, err)
	}
	return nil
}

// Delete removes the state for the key. Used by the retention job.
func (r *PostgresRepository) Delete(ctx context.Context, conversationID, date string) error {
	query, args, err := r.builder.
		Delete("day_states").
		Where(sq.Eq{"conversation_id": conversationID, "date": date}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: build delete: %v", domain.ErrPersistence, err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: delete state: %v", domain.ErrPersistence, err)
	}
	return nil
}

// AppendLog records conversation entries in the append-only log.
func (r *PostgresRepository) AppendLog(ctx context.Context, conversationID, date string, messages []domain.Message) error {
	if len(messages) == 0 {
		return nil
	}

	insert := r.builder.
		Insert("conversation_log").
		Columns("conversation_id", "date", "role", "content", "created_at")
	for _, msg := range messages {
		insert = insert.Values(conversationID, date, msg.Role, msg.Content, msg.Timestamp)
	}

	query, args, err := insert.ToSql()
	if err != nil {
		return fmt.Errorf("%w: build log insert: %v", domain.ErrPersistence, err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: append log: %v", domain.ErrPersistence, err)
	}
	return nil
}

// History returns the chronological conversation for the last N days.
func (r *PostgresRepository) History(ctx context.Context, conversationID string, days int) ([]domain.Message, error) {
	if days <= 0 {
		days = 7
	}

	query, args, err := r.builder.
		Select("role", "content", "created_at").
		From("conversation_log").
		Where(sq.Eq{"conversation_id": conversationID}).
		Where(sq.Expr("created_at >= NOW() - make_interval(days => ?)", days)).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: build history query: %v", domain.ErrPersistence, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query history: %v", domain.ErrPersistence, err)
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(&msg.Role, &msg.Content, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("%w: scan history row: %v", domain.ErrPersistence, err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate history: %v", domain.ErrPersistence, err)
	}

	return messages, nil
}
