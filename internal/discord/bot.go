// Package discord provides the Discord layer for ipabot. It owns the
// discordgo.Session lifecycle, watches message create/edit/delete events for
// transliteration triggers, routes slash command interactions to registered
// handlers, and keeps the reply bookkeeping that lets edits and deletes of a
// user message propagate to the bot's reply.
package discord

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/bwmarrin/discordgo"

	"github.com/MrWong99/ipabot/internal/observe"
	"github.com/MrWong99/ipabot/internal/store"
	"github.com/MrWong99/ipabot/internal/xlit"
)

// Config holds Discord bot configuration.
type Config struct {
	// Token is the Discord bot token.
	Token string

	// OwnerID is the Discord user ID allowed to run privileged commands.
	OwnerID string

	// ReplyBudget caps reply length in Unicode code points. Replies longer
	// than this are truncated; Discord rejects messages over 2000.
	ReplyBudget int
}

// Bot owns the Discord gateway connection. The live transliteration engine
// is held behind an atomic pointer so /reload can swap in a fresh engine
// without interrupting in-flight message handling.
type Bot struct {
	mu        sync.RWMutex
	session   *discordgo.Session
	router    *CommandRouter
	handler   *MessageHandler
	engine    atomic.Pointer[xlit.Engine]
	metrics   *observe.Metrics
	ownerID   string
	commands  []*discordgo.ApplicationCommand
	closeOnce sync.Once
}

// New creates a Bot, connects to Discord, and registers the event handlers.
// The engine must already be loaded; use [Bot.SwapEngine] for reloads.
func New(cfg Config, engine *xlit.Engine, st store.Store, metrics *observe.Metrics) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("discord: create session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	b := &Bot{
		session: session,
		router:  NewCommandRouter(),
		metrics: metrics,
		ownerID: cfg.OwnerID,
	}
	b.engine.Store(engine)
	metrics.RuleSetsLoaded.Add(context.Background(), int64(len(engine.RuleSets())))

	b.handler = NewMessageHandler(b.Engine, st, metrics, cfg.ReplyBudget)

	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("discord: open session: %w", err)
	}

	selfID := session.State.User.ID
	msgr := &sessionMessenger{s: session}

	session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil || m.Author.ID == selfID || m.Author.Bot {
			return
		}
		b.handler.HandleCreate(context.Background(), msgr, m.Message)
	})
	session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageUpdate) {
		if m.Author == nil || m.Author.ID == selfID || m.Author.Bot {
			return
		}
		b.handler.HandleUpdate(context.Background(), msgr, m.Message)
	})
	session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageDelete) {
		b.handler.HandleDelete(context.Background(), msgr, m.ID, m.GuildID)
	})
	session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		b.router.Handle(s, i)
	})

	return b, nil
}

// Engine returns the live engine snapshot. Callers must treat it as
// immutable; a concurrent reload publishes a new engine rather than mutating
// this one.
func (b *Bot) Engine() *xlit.Engine {
	return b.engine.Load()
}

// SwapEngine atomically publishes a freshly loaded engine. In-flight
// searches keep using the engine they started with.
func (b *Bot) SwapEngine(e *xlit.Engine) {
	old := b.engine.Swap(e)
	delta := int64(len(e.RuleSets())) - int64(len(old.RuleSets()))
	b.metrics.RuleSetsLoaded.Add(context.Background(), delta)
	slog.Info("rule engine swapped", "rule_sets", len(e.RuleSets()))
}

// IsOwner reports whether the interaction was invoked by the configured
// bot owner.
func (b *Bot) IsOwner(i *discordgo.InteractionCreate) bool {
	return b.ownerID != "" && InteractionUserID(i) == b.ownerID
}

// Router returns the command router for registering handlers.
func (b *Bot) Router() *CommandRouter {
	return b.router
}

// Session returns the underlying discordgo session.
func (b *Bot) Session() *discordgo.Session {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.session
}

// Run registers slash commands with the Discord API and blocks until ctx is
// cancelled.
func (b *Bot) Run(ctx context.Context) error {
	b.mu.RLock()
	appID := b.session.State.User.ID
	b.mu.RUnlock()

	cmds := b.router.ApplicationCommands()
	if len(cmds) > 0 {
		registered, err := b.session.ApplicationCommandBulkOverwrite(appID, "", cmds)
		if err != nil {
			return fmt.Errorf("discord: register commands: %w", err)
		}
		b.mu.Lock()
		b.commands = registered
		b.mu.Unlock()
		slog.Info("discord commands registered", "count", len(registered))
	}

	<-ctx.Done()
	return ctx.Err()
}

// Close disconnects from Discord and unregisters commands.
func (b *Bot) Close() error {
	var closeErr error
	b.closeOnce.Do(func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		if b.session != nil && len(b.commands) > 0 {
			appID := b.session.State.User.ID
			for _, cmd := range b.commands {
				if err := b.session.ApplicationCommandDelete(appID, "", cmd.ID); err != nil {
					slog.Warn("discord: failed to delete command", "name", cmd.Name, "err", err)
				}
			}
		}

		if b.session != nil {
			if err := b.session.Close(); err != nil {
				closeErr = fmt.Errorf("discord: close session: %w", err)
			}
		}

		slog.Info("discord bot closed")
	})
	return closeErr
}

// InteractionUserID returns the invoking user's ID for both guild and DM
// interactions.
func InteractionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
