package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/set-night/citycopilot/internal/domain"
)

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const listThreads = `
SELECT id, title, jsonb_array_length(messages), updated_at
FROM threads
ORDER BY updated_at DESC`

const getThread = `SELECT messages FROM threads WHERE id = $1`

// The title is only written on insert; later saves replace messages only.
const upsertThread = `
INSERT INTO threads (id, title, messages, created_at, updated_at)
VALUES ($1, $2, $3, $4, $4)
ON CONFLICT (id) DO UPDATE
SET messages = EXCLUDED.messages, updated_at = EXCLUDED.updated_at`

type ThreadRepository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewThreadRepository(pool *pgxpool.Pool) *ThreadRepository {
	return &ThreadRepository{pool: pool, now: time.Now}
}

func (r *ThreadRepository) List(ctx context.Context) ([]domain.ThreadSummary, error) {
	rows, err := r.pool.Query(ctx, listThreads)
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	defer rows.Close()

	var threads []domain.ThreadSummary
	for rows.Next() {
		var (
			s         domain.ThreadSummary
			count     int32
			updatedAt pgtype.Timestamptz
		)
		if err := rows.Scan(&s.ID, &s.Title, &count, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan thread: %w", err)
		}
		s.MessageCount = int(count)
		s.UpdatedAt = pgTimestamptzToTime(updatedAt)
		threads = append(threads, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate threads: %w", err)
	}
	return threads, nil
}

func (r *ThreadRepository) Get(ctx context.Context, id string) ([]domain.Message, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, getThread, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrThreadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get thread %s: %w", id, err)
	}

	var messages []domain.Message
	if err := json.Unmarshal(raw, &messages); err != nil {
		return nil, fmt.Errorf("decode thread %s: %w", id, err)
	}
	return messages, nil
}

func (r *ThreadRepository) Save(ctx context.Context, id, title string, messages []domain.Message) error {
	return saveThread(ctx, r.pool, id, title, messages, r.now())
}

// Seed writes the mock history in a single transaction.
func (r *ThreadRepository) Seed(ctx context.Context) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback(ctx)

	now := r.now()
	for _, t := range SeedThreads(now) {
		if err := saveThread(ctx, tx, t.ID, t.Title, t.Messages, now); err != nil {
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	return nil
}

func saveThread(ctx context.Context, db dbtx, id, title string, messages []domain.Message, now time.Time) error {
	if messages == nil {
		messages = []domain.Message{}
	}
	if title == "" {
		title = defaultTitle(messages)
	}
	raw, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("encode thread %s: %w", id, err)
	}
	if _, err := db.Exec(ctx, upsertThread, id, title, raw, timeToPgTimestamptz(now)); err != nil {
		return fmt.Errorf("save thread %s: %w", id, err)
	}
	return nil
}

// defaultTitle derives a title from the first user message.
func defaultTitle(messages []domain.Message) string {
	for _, m := range messages {
		if m.Role == domain.RoleUser && m.Content != "" {
			return domain.TitleFrom(m.Content)
		}
	}
	return "New conversation"
}
