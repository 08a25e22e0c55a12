// Package music implements the /music slash command and its
// subcommands: playback control, queue inspection and track lookup.
package music

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"quaver/internal/core"
	"quaver/internal/music/resolver"
	"quaver/internal/music/spotify"
)

type MusicCommand struct {
	Resolver *resolver.Client
	Spotify  *spotify.Client // nil when credentials are absent
}

func (c *MusicCommand) Name() string        { return "music" }
func (c *MusicCommand) Description() string { return "Play and control music" }

func (c *MusicCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Type:        discordgo.ChatApplicationCommand,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "play",
				Description: "Play a link, playlist or search query",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "query",
						Description: "YouTube/Spotify link or song name",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "queue",
				Description: "Show the queue",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "page",
						Description: "Queue page",
						Required:    false,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "trackinfo",
				Description: "Show details of a queued track",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "position",
						Description: "Queue position, 0 for the current track",
						Required:    false,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "whereis",
				Description: "Find a track in the queue and when it plays",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "query",
						Description: "Part of the title or link",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "pause",
				Description: "Pause playback",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "resume",
				Description: "Resume playback",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "skip",
				Description: "Skip the current track",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "prev",
				Description: "Replay the current track from the start",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "repeat",
				Description: "Drop the queue and loop the current track",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "shuffle",
				Description: "Shuffle the queue",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "clear",
				Description: "Clear the queue and stop the current track",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "stop",
				Description: "Stop everything and leave voice",
			},
		},
	}
}

func (c *MusicCommand) Run(ctx interface{}) error {
	slash, ok := ctx.(*core.SlashInteractionContext)
	if !ok {
		return fmt.Errorf("wrong context type")
	}

	opts := slash.Event.ApplicationCommandData().Options
	if len(opts) == 0 {
		return core.RespondEphemeral(slash.Session, slash.Event, "Missing subcommand.")
	}

	sub := opts[0]
	switch sub.Name {
	case "play":
		return c.runPlay(slash, sub)
	case "queue":
		return c.runQueue(slash, sub)
	case "trackinfo":
		return c.runTrackInfo(slash, sub)
	case "whereis":
		return c.runWhereIs(slash, sub)
	case "pause":
		return c.runPause(slash)
	case "resume":
		return c.runResume(slash)
	case "skip":
		return c.runSkip(slash)
	case "prev":
		return c.runPrev(slash)
	case "repeat":
		return c.runRepeat(slash)
	case "shuffle":
		return c.runShuffle(slash)
	case "clear":
		return c.runClear(slash)
	case "stop":
		return c.runStop(slash)
	default:
		return core.RespondEphemeral(slash.Session, slash.Event, "Unknown subcommand.")
	}
}

func intOption(sub *discordgo.ApplicationCommandInteractionDataOption, name string, def int) int {
	for _, o := range sub.Options {
		if o.Name == name && o.Type == discordgo.ApplicationCommandOptionInteger {
			return int(o.IntValue())
		}
	}
	return def
}

func stringOption(sub *discordgo.ApplicationCommandInteractionDataOption, name string) string {
	for _, o := range sub.Options {
		if o.Name == name && o.Type == discordgo.ApplicationCommandOptionString {
			return o.StringValue()
		}
	}
	return ""
}
