package discord_test

import (
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/MrWong99/ipabot/internal/discord"
)

// interaction builds an application-command InteractionCreate for the given
// command and optional subcommand.
func interaction(name, sub string) *discordgo.InteractionCreate {
	data := discordgo.ApplicationCommandInteractionData{Name: name}
	if sub != "" {
		data.Options = []*discordgo.ApplicationCommandInteractionDataOption{
			{Name: sub, Type: discordgo.ApplicationCommandOptionSubCommand},
		}
	}
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type: discordgo.InteractionApplicationCommand,
			Data: data,
		},
	}
}

func TestRouterDispatch(t *testing.T) {
	t.Parallel()

	r := discord.NewCommandRouter()

	var calls []string
	r.RegisterCommand("alphabets", &discordgo.ApplicationCommand{Name: "alphabets"},
		func(*discordgo.Session, *discordgo.InteractionCreate) { calls = append(calls, "alphabets") })
	r.RegisterCommand("notify/set", &discordgo.ApplicationCommand{Name: "notify"},
		func(*discordgo.Session, *discordgo.InteractionCreate) { calls = append(calls, "notify/set") })
	r.RegisterHandler("notify/clear",
		func(*discordgo.Session, *discordgo.InteractionCreate) { calls = append(calls, "notify/clear") })

	r.Handle(nil, interaction("alphabets", ""))
	r.Handle(nil, interaction("notify", "set"))
	r.Handle(nil, interaction("notify", "clear"))
	// Unregistered commands are ignored.
	r.Handle(nil, interaction("unknown", ""))

	want := []string{"alphabets", "notify/set", "notify/clear"}
	if len(calls) != len(want) {
		t.Fatalf("calls: expected %v, got %v", want, calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d: expected %q, got %q", i, want[i], calls[i])
		}
	}
}

func TestRouterApplicationCommandsDeduplicates(t *testing.T) {
	t.Parallel()

	r := discord.NewCommandRouter()
	notify := &discordgo.ApplicationCommand{Name: "notify"}
	r.RegisterCommand("notify/set", notify, func(*discordgo.Session, *discordgo.InteractionCreate) {})
	r.RegisterCommand("notify/other", notify, func(*discordgo.Session, *discordgo.InteractionCreate) {})
	r.RegisterCommand("alphabets", &discordgo.ApplicationCommand{Name: "alphabets"},
		func(*discordgo.Session, *discordgo.InteractionCreate) {})

	cmds := r.ApplicationCommands()
	if len(cmds) != 2 {
		t.Errorf("commands: expected 2 after dedup, got %d", len(cmds))
	}
}
