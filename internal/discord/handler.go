package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/MrWong99/ipabot/internal/observe"
	"github.com/MrWong99/ipabot/internal/store"
	"github.com/MrWong99/ipabot/internal/xlit"
)

// Messenger is the subset of Discord messaging operations the event handlers
// need. *discordgo.Session is wrapped by sessionMessenger; tests supply a
// recording fake.
type Messenger interface {
	// SendReply sends content to channelID as a reply to the referenced
	// message and returns the sent message.
	SendReply(channelID, content string, ref *discordgo.MessageReference) (*discordgo.Message, error)

	// EditMessage replaces the content of an existing bot message.
	EditMessage(channelID, messageID, content string) error

	// DeleteMessage removes a bot message.
	DeleteMessage(channelID, messageID string) error

	// SendMessage sends a plain message to a channel (error notifications).
	SendMessage(channelID, content string) error
}

// sessionMessenger adapts *discordgo.Session to [Messenger].
type sessionMessenger struct {
	s *discordgo.Session
}

func (m *sessionMessenger) SendReply(channelID, content string, ref *discordgo.MessageReference) (*discordgo.Message, error) {
	return m.s.ChannelMessageSendReply(channelID, content, ref)
}

func (m *sessionMessenger) EditMessage(channelID, messageID, content string) error {
	_, err := m.s.ChannelMessageEdit(channelID, messageID, content)
	return err
}

func (m *sessionMessenger) DeleteMessage(channelID, messageID string) error {
	return m.s.ChannelMessageDelete(channelID, messageID)
}

func (m *sessionMessenger) SendMessage(channelID, content string) error {
	_, err := m.s.ChannelMessageSend(channelID, content)
	return err
}

// MessageHandler turns message events into transliteration replies and keeps
// the reply bookkeeping consistent across edits and deletes.
//
// The engine is resolved through a getter on every event so a reload
// published mid-stream is picked up by the next event without locking.
type MessageHandler struct {
	engine  func() *xlit.Engine
	store   store.Store
	metrics *observe.Metrics
	budget  int
}

// NewMessageHandler creates a MessageHandler. budget caps reply length in
// Unicode code points.
func NewMessageHandler(engine func() *xlit.Engine, st store.Store, metrics *observe.Metrics, budget int) *MessageHandler {
	return &MessageHandler{
		engine:  engine,
		store:   st,
		metrics: metrics,
		budget:  budget,
	}
}

// render runs the engine over content and returns the truncated reply text.
// Empty means no rule set was invoked.
func (h *MessageHandler) render(ctx context.Context, content string) string {
	start := time.Now()
	results := h.engine().SearchResults(content)
	h.metrics.RecordSearch(ctx, time.Since(start))

	if len(results) == 0 {
		return ""
	}

	lines := make([]string, 0, len(results))
	for _, res := range results {
		h.metrics.RecordTransliteration(ctx, res.Set.Name())
		lines = append(lines, res.Line)
	}
	return TruncateRunes(strings.Join(lines, "\n"), h.budget)
}

// HandleCreate answers a new message that invokes at least one rule set.
func (h *MessageHandler) HandleCreate(ctx context.Context, m Messenger, msg *discordgo.Message) {
	ctx, span := observe.StartSpan(ctx, "discord.message_create")
	defer span.End()

	content := h.render(ctx, msg.Content)
	if content == "" {
		return
	}

	sent, err := m.SendReply(msg.ChannelID, content, msg.Reference())
	if err != nil {
		h.reportError(ctx, m, msg.GuildID, "reply", fmt.Errorf("send reply: %w", err))
		return
	}

	rec := store.Reply{
		MessageID: msg.ID,
		ReplyID:   sent.ID,
		ChannelID: msg.ChannelID,
		GuildID:   msg.GuildID,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.store.SaveReply(ctx, rec); err != nil {
		// The reply is already sent; losing the bookkeeping only means a
		// later edit will not propagate.
		observe.Logger(ctx).Warn("failed to save reply record", "message_id", msg.ID, "err", err)
		h.metrics.RecordHandlerError(ctx, "bookkeeping")
	}
}

// HandleUpdate re-renders the bot's reply after a source message edit. An
// edit that introduces notation gets a fresh reply; an edit that removes all
// notation removes the reply.
func (h *MessageHandler) HandleUpdate(ctx context.Context, m Messenger, msg *discordgo.Message) {
	ctx, span := observe.StartSpan(ctx, "discord.message_update")
	defer span.End()

	rec, err := h.store.Reply(ctx, msg.ID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		// No reply yet: the edit may have introduced notation.
		h.HandleCreate(ctx, m, msg)
		return
	case err != nil:
		observe.Logger(ctx).Warn("failed to load reply record", "message_id", msg.ID, "err", err)
		h.metrics.RecordHandlerError(ctx, "bookkeeping")
		return
	}

	content := h.render(ctx, msg.Content)
	if content == "" {
		if err := m.DeleteMessage(rec.ChannelID, rec.ReplyID); err != nil {
			h.reportError(ctx, m, msg.GuildID, "edit", fmt.Errorf("delete stale reply: %w", err))
			return
		}
		if err := h.store.DeleteReply(ctx, msg.ID); err != nil {
			observe.Logger(ctx).Warn("failed to delete reply record", "message_id", msg.ID, "err", err)
		}
		h.metrics.ReplyDeletes.Add(ctx, 1)
		return
	}

	if err := m.EditMessage(rec.ChannelID, rec.ReplyID, content); err != nil {
		h.reportError(ctx, m, msg.GuildID, "edit", fmt.Errorf("edit reply: %w", err))
		return
	}
	h.metrics.ReplyEdits.Add(ctx, 1)
}

// HandleDelete removes the bot's reply after its source message is deleted.
func (h *MessageHandler) HandleDelete(ctx context.Context, m Messenger, messageID, guildID string) {
	ctx, span := observe.StartSpan(ctx, "discord.message_delete")
	defer span.End()

	rec, err := h.store.Reply(ctx, messageID)
	if errors.Is(err, store.ErrNotFound) {
		return
	}
	if err != nil {
		observe.Logger(ctx).Warn("failed to load reply record", "message_id", messageID, "err", err)
		h.metrics.RecordHandlerError(ctx, "bookkeeping")
		return
	}

	if err := m.DeleteMessage(rec.ChannelID, rec.ReplyID); err != nil {
		h.reportError(ctx, m, guildID, "delete", fmt.Errorf("delete reply: %w", err))
		return
	}
	if err := h.store.DeleteReply(ctx, messageID); err != nil {
		observe.Logger(ctx).Warn("failed to delete reply record", "message_id", messageID, "err", err)
	}
	h.metrics.ReplyDeletes.Add(ctx, 1)
}

// reportError logs a handling failure, records it, and posts it to the
// guild's notification channel when one is configured.
func (h *MessageHandler) reportError(ctx context.Context, m Messenger, guildID, op string, err error) {
	observe.Logger(ctx).Error("discord handler error", "op", op, "guild_id", guildID, "err", err)
	h.metrics.RecordHandlerError(ctx, op)

	if logErr := h.store.LogError(ctx, store.ErrorRecord{
		GuildID:    guildID,
		Message:    fmt.Sprintf("%s: %v", op, err),
		OccurredAt: time.Now().UTC(),
	}); logErr != nil {
		observe.Logger(ctx).Warn("failed to persist error record", "err", logErr)
	}

	ch, chErr := h.store.NotifyChannel(ctx, guildID)
	if chErr != nil {
		return
	}
	if sendErr := m.SendMessage(ch, fmt.Sprintf("ipabot error (%s): %v", op, err)); sendErr != nil {
		observe.Logger(ctx).Warn("failed to post error notification", "channel_id", ch, "err", sendErr)
	}
}
