// Package commands implements ipabot's slash commands, registered against
// the discord package's command router.
package commands

import (
	"fmt"
	"strings"

	"github.com/antzucaro/matchr"
	"github.com/bwmarrin/discordgo"

	"github.com/MrWong99/ipabot/internal/discord"
	"github.com/MrWong99/ipabot/internal/xlit"
)

// suggestionThreshold is the minimum Jaro-Winkler score for an alphabet-name
// suggestion to be offered on a failed lookup.
const suggestionThreshold = 0.7

// maxAutocompleteChoices is Discord's limit on autocomplete choices.
const maxAutocompleteChoices = 25

// EngineProvider returns the live engine snapshot. The engine behind it may
// be swapped by /reload between calls.
type EngineProvider func() *xlit.Engine

// AlphabetCommands handles the /alphabets slash command.
type AlphabetCommands struct {
	engine EngineProvider
}

// AlphabetConfig holds dependencies for creating AlphabetCommands.
type AlphabetConfig struct {
	Bot *discord.Bot
}

// NewAlphabetCommands creates an AlphabetCommands and registers its handlers
// with the bot's router.
func NewAlphabetCommands(cfg AlphabetConfig) *AlphabetCommands {
	ac := &AlphabetCommands{engine: cfg.Bot.Engine}
	ac.Register(cfg.Bot.Router())
	return ac
}

// Register registers the /alphabets command and its autocomplete handler.
func (ac *AlphabetCommands) Register(router *discord.CommandRouter) {
	cmd := &discordgo.ApplicationCommand{
		Name:        "alphabets",
		Description: "List the available transliteration alphabets",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:         discordgo.ApplicationCommandOptionString,
				Name:         "name",
				Description:  "Show details for one alphabet",
				Autocomplete: true,
			},
		},
	}
	router.RegisterCommand("alphabets", cmd, ac.handleAlphabets)
	router.RegisterAutocomplete("alphabets", ac.handleAutocomplete)
}

// handleAlphabets handles /alphabets [name].
func (ac *AlphabetCommands) handleAlphabets(s *discordgo.Session, i *discordgo.InteractionCreate) {
	e := ac.engine()

	name := ""
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "name" {
			name = opt.StringValue()
		}
	}

	if name == "" {
		discord.RespondEphemeral(s, i, "Available alphabets:\n"+e.AlphabetList())
		return
	}

	rs := e.RuleSet(name)
	if rs == nil {
		msg := fmt.Sprintf("Unknown alphabet %q.", name)
		if suggestion, ok := ClosestName(name, alphabetNames(e)); ok {
			msg += fmt.Sprintf(" Did you mean %q?", suggestion)
		}
		discord.RespondEphemeral(s, i, msg)
		return
	}

	discord.RespondEphemeral(s, i, Describe(rs))
}

// handleAutocomplete offers alphabet names matching the typed prefix.
func (ac *AlphabetCommands) handleAutocomplete(s *discordgo.Session, i *discordgo.InteractionCreate) {
	partial := ""
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "name" && opt.Focused {
			partial = opt.StringValue()
		}
	}
	partial = strings.ToLower(partial)

	var choices []*discordgo.ApplicationCommandOptionChoice
	for _, name := range alphabetNames(ac.engine()) {
		if partial != "" && !strings.HasPrefix(strings.ToLower(name), partial) {
			continue
		}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  name,
			Value: name,
		})
		if len(choices) == maxAutocompleteChoices {
			break
		}
	}
	discord.RespondChoices(s, i, choices)
}

// alphabetNames returns the loaded rule set names in load order.
func alphabetNames(e *xlit.Engine) []string {
	sets := e.RuleSets()
	names := make([]string, len(sets))
	for i, rs := range sets {
		names[i] = rs.Name()
	}
	return names
}

// ClosestName returns the candidate most similar to name by Jaro-Winkler
// score, provided the score clears the suggestion threshold.
func ClosestName(name string, candidates []string) (string, bool) {
	best := ""
	bestScore := 0.0
	for _, c := range candidates {
		score := matchr.JaroWinkler(strings.ToLower(name), strings.ToLower(c), false)
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	if bestScore < suggestionThreshold {
		return "", false
	}
	return best, true
}

// Describe renders a one-alphabet summary for /alphabets <name>.
func Describe(rs *xlit.RuleSet) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s** (symbol %s)\n", rs.Name(), rs.Symbol())
	if rs.Terminator() != "" {
		fmt.Fprintf(&b, "Usage: `%stext%s`\n", rs.Trigger(), rs.Terminator())
	} else {
		fmt.Fprintf(&b, "Usage: `%sword` (span ends at whitespace)\n", rs.Trigger())
	}
	fmt.Fprintf(&b, "%d rules loaded", rs.Len())
	return b.String()
}
