package commands

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/MrWong99/ipabot/internal/discord"
	"github.com/MrWong99/ipabot/internal/xlit"
)

// Loader builds a fresh engine from the rule library on disk.
type Loader func() (*xlit.Engine, error)

// ReloadCommands handles the owner-only /reload slash command.
type ReloadCommands struct {
	bot  *discord.Bot
	load Loader
}

// ReloadConfig holds dependencies for creating ReloadCommands.
type ReloadConfig struct {
	Bot  *discord.Bot
	Load Loader
}

// NewReloadCommands creates a ReloadCommands and registers its handler with
// the bot's router.
func NewReloadCommands(cfg ReloadConfig) *ReloadCommands {
	rc := &ReloadCommands{bot: cfg.Bot, load: cfg.Load}
	rc.Register(cfg.Bot.Router())
	return rc
}

// Register registers the /reload command.
func (rc *ReloadCommands) Register(router *discord.CommandRouter) {
	cmd := &discordgo.ApplicationCommand{
		Name:        "reload",
		Description: "Reload the transliteration rule library (bot owner only)",
	}
	router.RegisterCommand("reload", cmd, rc.handleReload)
}

// handleReload handles /reload. The new engine is built completely before
// being swapped in, so a broken rule library leaves the running engine
// untouched.
func (rc *ReloadCommands) handleReload(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !rc.bot.IsOwner(i) {
		discord.RespondEphemeral(s, i, "Only the bot owner can reload rule sets.")
		return
	}

	engine, err := rc.load()
	if err != nil {
		discord.RespondError(s, i, err)
		return
	}

	rc.bot.SwapEngine(engine)
	discord.RespondEphemeral(s, i, fmt.Sprintf("Reloaded %d alphabets.", len(engine.RuleSets())))
}
