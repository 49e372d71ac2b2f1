package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/MrWong99/ipabot/internal/discord"
	"github.com/MrWong99/ipabot/internal/store"
)

// storeTimeout bounds store calls made from interaction handlers.
const storeTimeout = 5 * time.Second

// NotifyCommands handles the /notify command group, which configures the
// channel runtime errors for a guild are reported to.
type NotifyCommands struct {
	store store.Store
}

// NotifyConfig holds dependencies for creating NotifyCommands.
type NotifyConfig struct {
	Bot   *discord.Bot
	Store store.Store
}

// NewNotifyCommands creates a NotifyCommands and registers its handlers with
// the bot's router.
func NewNotifyCommands(cfg NotifyConfig) *NotifyCommands {
	nc := &NotifyCommands{store: cfg.Store}
	nc.Register(cfg.Bot.Router())
	return nc
}

// Register registers /notify set and /notify clear.
func (nc *NotifyCommands) Register(router *discord.CommandRouter) {
	cmd := &discordgo.ApplicationCommand{
		Name:        "notify",
		Description: "Configure error notifications for this server",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "set",
				Description: "Report ipabot errors to a channel",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionChannel,
						Name:        "channel",
						Description: "The channel to report errors to",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "clear",
				Description: "Stop reporting ipabot errors",
			},
		},
	}
	router.RegisterCommand("notify/set", cmd, nc.handleSet)
	router.RegisterHandler("notify/clear", nc.handleClear)
}

// canManage reports whether the invoking member may manage notifications.
func canManage(i *discordgo.InteractionCreate) bool {
	return i.Member != nil && i.Member.Permissions&discordgo.PermissionManageGuild != 0
}

// handleSet handles /notify set.
func (nc *NotifyCommands) handleSet(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !canManage(i) {
		discord.RespondEphemeral(s, i, "You need the Manage Server permission to configure notifications.")
		return
	}

	opts := i.ApplicationCommandData().Options[0].Options
	if len(opts) == 0 {
		discord.RespondEphemeral(s, i, "A channel is required.")
		return
	}
	channelID := opts[0].Value.(string)

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := nc.store.SetNotifyChannel(ctx, i.GuildID, channelID); err != nil {
		discord.RespondError(s, i, err)
		return
	}
	discord.RespondEphemeral(s, i, fmt.Sprintf("Errors will be reported to <#%s>.", channelID))
}

// handleClear handles /notify clear.
func (nc *NotifyCommands) handleClear(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !canManage(i) {
		discord.RespondEphemeral(s, i, "You need the Manage Server permission to configure notifications.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := nc.store.SetNotifyChannel(ctx, i.GuildID, ""); err != nil {
		discord.RespondError(s, i, err)
		return
	}
	discord.RespondEphemeral(s, i, "Error notifications disabled.")
}
