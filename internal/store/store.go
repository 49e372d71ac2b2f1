// Package store defines the persistence boundary for ipabot's bookkeeping:
// which bot reply answers which user message (so edits and deletes can be
// propagated), per-guild error notification channels, and an append-only
// error log.
//
// Two implementations are provided: [PostgresStore] for deployments with a
// database, and [MemStore] for tests and database-less runs.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("store: not found")

// Reply records that the bot answered a user message, so a later edit or
// delete of that message can be propagated to the reply.
type Reply struct {
	// MessageID is the ID of the user's message that triggered the reply.
	MessageID string

	// ReplyID is the ID of the bot's reply message.
	ReplyID string

	// ChannelID is the channel both messages live in.
	ChannelID string

	// GuildID is the guild the exchange happened in. Empty for DMs.
	GuildID string

	// CreatedAt is when the reply was sent.
	CreatedAt time.Time
}

// ErrorRecord is one logged runtime failure.
type ErrorRecord struct {
	// GuildID is the guild the failure occurred in, when known.
	GuildID string

	// Message is the failure description.
	Message string

	// OccurredAt is when the failure happened.
	OccurredAt time.Time
}

// Store is the persistence interface consumed by the Discord layer.
// Implementations must be safe for concurrent use.
type Store interface {
	// SaveReply records a message → reply association, replacing any
	// existing record for the same message ID.
	SaveReply(ctx context.Context, r Reply) error

	// Reply returns the association for the given user message ID.
	// Returns [ErrNotFound] when the message has no recorded reply.
	Reply(ctx context.Context, messageID string) (Reply, error)

	// DeleteReply removes the association for the given user message ID.
	// Deleting an unknown ID is not an error.
	DeleteReply(ctx context.Context, messageID string) error

	// PruneReplies removes associations created before cutoff and returns
	// the number removed. Old associations are useless once their messages
	// scroll out of living memory, and pruning bounds table growth.
	PruneReplies(ctx context.Context, cutoff time.Time) (int, error)

	// SetNotifyChannel records the channel runtime errors for guildID are
	// reported to. An empty channelID clears the setting.
	SetNotifyChannel(ctx context.Context, guildID, channelID string) error

	// NotifyChannel returns the error notification channel for guildID.
	// Returns [ErrNotFound] when none is configured.
	NotifyChannel(ctx context.Context, guildID string) (string, error)

	// LogError appends a record to the error log.
	LogError(ctx context.Context, rec ErrorRecord) error
}
