package discord

import (
	"log/slog"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// HandlerFunc is the signature for slash command handlers.
type HandlerFunc func(s *discordgo.Session, i *discordgo.InteractionCreate)

// AutocompleteFunc is the signature for autocomplete handlers.
type AutocompleteFunc func(s *discordgo.Session, i *discordgo.InteractionCreate)

// commandEntry stores a command definition along with its handler.
type commandEntry struct {
	command *discordgo.ApplicationCommand
	handler HandlerFunc
}

// CommandRouter dispatches Discord interactions to registered handlers.
type CommandRouter struct {
	mu           sync.RWMutex
	commands     map[string]commandEntry     // "command" or "command/subcommand" → entry
	autocomplete map[string]AutocompleteFunc // "command" or "command/subcommand" → handler
}

// NewCommandRouter creates an empty router.
func NewCommandRouter() *CommandRouter {
	return &CommandRouter{
		commands:     make(map[string]commandEntry),
		autocomplete: make(map[string]AutocompleteFunc),
	}
}

// RegisterCommand registers a handler for a slash command. The key format is
// "command" or "command/subcommand" (e.g., "notify/set"). The cmd definition
// is used when registering commands with Discord; only top-level commands
// carry a definition, subcommands are nested inside it.
func (r *CommandRouter) RegisterCommand(key string, cmd *discordgo.ApplicationCommand, handler HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[key] = commandEntry{command: cmd, handler: handler}
}

// RegisterHandler registers a handler for a subcommand key whose parent
// command definition is already registered.
func (r *CommandRouter) RegisterHandler(key string, handler HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[key] = commandEntry{handler: handler}
}

// RegisterAutocomplete registers an autocomplete handler.
func (r *CommandRouter) RegisterAutocomplete(key string, handler AutocompleteFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.autocomplete[key] = handler
}

// ApplicationCommands returns the list of top-level command definitions for
// registration with the Discord API.
func (r *CommandRouter) ApplicationCommands() []*discordgo.ApplicationCommand {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var cmds []*discordgo.ApplicationCommand
	for _, entry := range r.commands {
		if entry.command == nil || seen[entry.command.Name] {
			continue
		}
		seen[entry.command.Name] = true
		cmds = append(cmds, entry.command)
	}
	return cmds
}

// Handle dispatches an interaction to the matching registered handler.
// Unrecognised interactions are logged and ignored.
func (r *CommandRouter) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		key := commandKey(i)
		r.mu.RLock()
		entry, ok := r.commands[key]
		r.mu.RUnlock()
		if !ok || entry.handler == nil {
			slog.Warn("discord: no handler for command", "key", key)
			return
		}
		entry.handler(s, i)

	case discordgo.InteractionApplicationCommandAutocomplete:
		key := commandKey(i)
		r.mu.RLock()
		handler, ok := r.autocomplete[key]
		r.mu.RUnlock()
		if !ok {
			return
		}
		handler(s, i)
	}
}

// commandKey derives the router key ("command" or "command/subcommand") from
// an application command interaction.
func commandKey(i *discordgo.InteractionCreate) string {
	data := i.ApplicationCommandData()
	key := data.Name
	if len(data.Options) > 0 && data.Options[0].Type == discordgo.ApplicationCommandOptionSubCommand {
		key += "/" + data.Options[0].Name
	}
	return key
}
