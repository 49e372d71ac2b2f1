package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Schema is the SQL DDL for ipabot's bookkeeping tables. Execute it via
// [PostgresStore.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS replies (
    message_id TEXT PRIMARY KEY,
    reply_id   TEXT NOT NULL,
    channel_id TEXT NOT NULL,
    guild_id   TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_replies_created ON replies(created_at);

CREATE TABLE IF NOT EXISTS notify_channels (
    guild_id   TEXT PRIMARY KEY,
    channel_id TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS error_log (
    id          BIGSERIAL PRIMARY KEY,
    guild_id    TEXT NOT NULL DEFAULT '',
    message     TEXT NOT NULL,
    occurred_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// DB is the database interface used by [PostgresStore]. Both *pgxpool.Pool
// and *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore is a [Store] backed by a PostgreSQL database.
type PostgresStore struct {
	db DB
}

// Compile-time interface check.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a [PostgresStore] using the given connection or
// pool. Call [PostgresStore.Migrate] once before issuing queries.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate executes the [Schema] DDL against the database.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// SaveReply implements [Store.SaveReply].
func (s *PostgresStore) SaveReply(ctx context.Context, r Reply) error {
	created := r.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO replies (message_id, reply_id, channel_id, guild_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (message_id) DO UPDATE
		SET reply_id = EXCLUDED.reply_id, channel_id = EXCLUDED.channel_id,
		    guild_id = EXCLUDED.guild_id, created_at = EXCLUDED.created_at`,
		r.MessageID, r.ReplyID, r.ChannelID, r.GuildID, created)
	if err != nil {
		return fmt.Errorf("store: save reply: %w", err)
	}
	return nil
}

// Reply implements [Store.Reply].
func (s *PostgresStore) Reply(ctx context.Context, messageID string) (Reply, error) {
	var r Reply
	err := s.db.QueryRow(ctx, `
		SELECT message_id, reply_id, channel_id, guild_id, created_at
		FROM replies WHERE message_id = $1`, messageID).
		Scan(&r.MessageID, &r.ReplyID, &r.ChannelID, &r.GuildID, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Reply{}, ErrNotFound
	}
	if err != nil {
		return Reply{}, fmt.Errorf("store: load reply: %w", err)
	}
	return r, nil
}

// DeleteReply implements [Store.DeleteReply].
func (s *PostgresStore) DeleteReply(ctx context.Context, messageID string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM replies WHERE message_id = $1`, messageID); err != nil {
		return fmt.Errorf("store: delete reply: %w", err)
	}
	return nil
}

// PruneReplies implements [Store.PruneReplies].
func (s *PostgresStore) PruneReplies(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM replies WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("store: prune replies: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// SetNotifyChannel implements [Store.SetNotifyChannel].
func (s *PostgresStore) SetNotifyChannel(ctx context.Context, guildID, channelID string) error {
	var err error
	if channelID == "" {
		_, err = s.db.Exec(ctx, `DELETE FROM notify_channels WHERE guild_id = $1`, guildID)
	} else {
		_, err = s.db.Exec(ctx, `
			INSERT INTO notify_channels (guild_id, channel_id) VALUES ($1, $2)
			ON CONFLICT (guild_id) DO UPDATE SET channel_id = EXCLUDED.channel_id`,
			guildID, channelID)
	}
	if err != nil {
		return fmt.Errorf("store: set notify channel: %w", err)
	}
	return nil
}

// NotifyChannel implements [Store.NotifyChannel].
func (s *PostgresStore) NotifyChannel(ctx context.Context, guildID string) (string, error) {
	var ch string
	err := s.db.QueryRow(ctx, `SELECT channel_id FROM notify_channels WHERE guild_id = $1`, guildID).Scan(&ch)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("store: load notify channel: %w", err)
	}
	return ch, nil
}

// LogError implements [Store.LogError].
func (s *PostgresStore) LogError(ctx context.Context, rec ErrorRecord) error {
	occurred := rec.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now().UTC()
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO error_log (guild_id, message, occurred_at) VALUES ($1, $2, $3)`,
		rec.GuildID, rec.Message, occurred)
	if err != nil {
		return fmt.Errorf("store: log error: %w", err)
	}
	return nil
}
