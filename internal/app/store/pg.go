package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"eventlive/internal/app/whiteboard"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// NewPool initializes a new PostgreSQL connection pool and executes database migrations.
func NewPool(dsn string) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database DSN: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	sqlDB := stdlib.OpenDB(*pool.Config().ConnConfig)
	defer sqlDB.Close()

	if err := runMigrations(sqlDB); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

// runMigrations applies all pending migrations from the embedded file system.
func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}

// PGStore implements Store over a pgx connection pool.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore wraps an existing pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// SaveChatMessage durably appends a chat message.
func (s *PGStore) SaveChatMessage(ctx context.Context, msg ChatMessage) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO chat_messages (id, room, event_id, conversation_id, sender_id, content, sent_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`,
		msg.ID, msg.Room, msg.EventID, msg.ConversationID, msg.SenderID, msg.Content, msg.SentAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert chat message: %w", err)
	}
	return nil
}

// SaveSnapshot upserts the latest whiteboard snapshot for a room.
func (s *PGStore) SaveSnapshot(ctx context.Context, snap whiteboard.Snapshot) error {
	elements, err := json.Marshal(snap.Elements)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot elements: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO whiteboard_snapshots (room_id, elements, taken_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (room_id) DO UPDATE SET elements = EXCLUDED.elements, taken_at = EXCLUDED.taken_at`,
		snap.RoomID, elements, snap.TakenAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert whiteboard snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the persisted snapshot for a room, or nil when none exists.
func (s *PGStore) LoadSnapshot(ctx context.Context, roomID string) (*whiteboard.Snapshot, error) {
	var (
		elements []byte
		takenAt  time.Time
	)

	err := s.pool.QueryRow(ctx,
		`SELECT elements, taken_at FROM whiteboard_snapshots WHERE room_id = $1`,
		roomID,
	).Scan(&elements, &takenAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load whiteboard snapshot: %w", err)
	}

	snap := &whiteboard.Snapshot{RoomID: roomID, TakenAt: takenAt}
	if err := json.Unmarshal(elements, &snap.Elements); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot elements: %w", err)
	}
	return snap, nil
}

// CanAccessEvent reports whether the user is a member of the event.
func (s *PGStore) CanAccessEvent(ctx context.Context, userID string, eventID string) (bool, error) {
	var allowed bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM event_members WHERE event_id = $1 AND user_id = $2)`,
		eventID, userID,
	).Scan(&allowed)
	if err != nil {
		return false, fmt.Errorf("failed to check event access: %w", err)
	}
	return allowed, nil
}

// CanAccessConversation reports whether the user is a party to the conversation.
func (s *PGStore) CanAccessConversation(ctx context.Context, userID string, conversationID string) (bool, error) {
	var allowed bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM conversation_members WHERE conversation_id = $1 AND user_id = $2)`,
		conversationID, userID,
	).Scan(&allowed)
	if err != nil {
		return false, fmt.Errorf("failed to check conversation access: %w", err)
	}
	return allowed, nil
}
