// Package stats implements the /stats slash command over the play
// history store and the per-guild command log.
package stats

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"quaver/internal/core"
	"quaver/internal/storage"
	"quaver/pkg/util"
)

const recentLimit = 10

type StatsCommand struct{}

func (c *StatsCommand) Name() string        { return "stats" }
func (c *StatsCommand) Description() string { return "Server playback and command statistics" }

func (c *StatsCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Type:        discordgo.ChatApplicationCommand,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "recent",
				Description: "Recently played tracks on this server",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "commands",
				Description: "Recently used bot commands on this server",
			},
		},
	}
}

func (c *StatsCommand) Run(ctx interface{}) error {
	slash, ok := ctx.(*core.SlashInteractionContext)
	if !ok {
		return fmt.Errorf("wrong context type")
	}

	opts := slash.Event.ApplicationCommandData().Options
	sub := "recent"
	if len(opts) > 0 {
		sub = opts[0].Name
	}
	switch sub {
	case "commands":
		return c.runCommands(slash)
	default:
		return c.runRecent(slash)
	}
}

func (c *StatsCommand) runRecent(slash *core.SlashInteractionContext) error {
	if slash.History == nil {
		return core.RespondEphemeral(slash.Session, slash.Event, "History is not available.")
	}

	plays, err := slash.History.RecentByGuild(slash.Event.GuildID, recentLimit)
	if err != nil {
		return core.RespondEphemeral(slash.Session, slash.Event, "Could not read play history.")
	}
	if len(plays) == 0 {
		return core.Respond(slash.Session, slash.Event, "Nothing has been played here yet.")
	}

	var b strings.Builder
	for i, p := range plays {
		fmt.Fprintf(&b, "%d. %s (%s), <t:%d:R>\n", i+1, p.Song, util.FormatDuration(p.Duration), p.PlayedAt.Unix())
	}
	return core.RespondEmbed(slash.Session, slash.Event, &discordgo.MessageEmbed{
		Title:       "Recently played",
		Description: b.String(),
		Color:       core.EmbedColor,
	})
}

func (c *StatsCommand) runCommands(slash *core.SlashInteractionContext) error {
	if slash.Storage == nil {
		return core.RespondEphemeral(slash.Session, slash.Event, "Command history is not available.")
	}

	records, err := slash.Storage.FetchCommandHistory(slash.Event.GuildID)
	if err != nil {
		return core.RespondEphemeral(slash.Session, slash.Event, "Could not read command history.")
	}
	if len(records) == 0 {
		return core.Respond(slash.Session, slash.Event, "No commands used here yet.")
	}

	return core.RespondEmbed(slash.Session, slash.Event, &discordgo.MessageEmbed{
		Title:       "Recent commands",
		Description: formatCommandHistory(records, recentLimit),
		Color:       core.EmbedColor,
	})
}

// formatCommandHistory renders the newest records first. The store
// appends chronologically, so iteration runs from the tail.
func formatCommandHistory(records []storage.CommandHistoryRecord, limit int) string {
	var b strings.Builder
	n := 0
	for i := len(records) - 1; i >= 0 && n < limit; i-- {
		r := records[i]
		line := "/" + r.Command
		if r.Param != "" {
			line += " " + r.Param
		}
		n++
		fmt.Fprintf(&b, "%d. %s by %s, <t:%d:R>\n", n, line, r.Username, r.Datetime.Unix())
	}
	return b.String()
}
