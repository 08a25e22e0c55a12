package music

import (
	"fmt"
	"strings"

	"quaver/internal/core"
	"quaver/pkg/util"

	"github.com/bwmarrin/discordgo"
)

const queuePageSize = 10

func (c *MusicCommand) runQueue(slash *core.SlashInteractionContext, sub *discordgo.ApplicationCommandInteractionDataOption) error {
	sess := sessionFor(slash)
	q := sess.Queue()
	now := q.NowPlaying()
	entries := q.Snapshot()

	if now == nil && len(entries) == 0 {
		return core.Respond(slash.Session, slash.Event, "The queue is empty.")
	}

	page := intOption(sub, "page", 1)
	start, end, page, pages := util.PageBounds(len(entries), queuePageSize, page)

	var b strings.Builder
	if now != nil {
		fmt.Fprintf(&b, "**Now playing:** %s (%s)\n\n", now.DisplayTitle(), util.FormatDuration(now.Duration))
	}
	for i := start; i < end; i++ {
		e := entries[i]
		if e.Pending() {
			fmt.Fprintf(&b, "%d. %s *(resolving...)*\n", i+1, e.DisplayTitle())
			continue
		}
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, e.DisplayTitle(), util.FormatDuration(e.Duration))
	}
	if len(entries) == 0 {
		b.WriteString("Nothing queued after this one.")
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Queue",
		Description: b.String(),
		Color:       core.EmbedColor,
	}
	if pages > 1 {
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Page %d/%d, %d tracks", page, pages, len(entries)),
		}
	}
	return core.RespondEmbed(slash.Session, slash.Event, embed)
}

func (c *MusicCommand) runTrackInfo(slash *core.SlashInteractionContext, sub *discordgo.ApplicationCommandInteractionDataOption) error {
	sess := sessionFor(slash)
	q := sess.Queue()

	pos := intOption(sub, "position", 0)
	e := q.NowPlaying()
	label := "Current track"
	if pos > 0 {
		entries := q.Snapshot()
		if pos > len(entries) {
			return core.RespondEphemeral(slash.Session, slash.Event,
				fmt.Sprintf("The queue only has %d tracks.", len(entries)))
		}
		e = entries[pos-1]
		label = fmt.Sprintf("Track #%d", pos)
	}
	if e == nil {
		return core.RespondEphemeral(slash.Session, slash.Event, "Nothing is playing.")
	}

	if e.Pending() {
		return core.Respond(slash.Session, slash.Event,
			fmt.Sprintf("%s: %s is still resolving.", label, e.DisplayTitle()))
	}

	embed := &discordgo.MessageEmbed{
		Title:       label,
		Description: e.DisplayTitle(),
		Color:       core.EmbedColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Duration", Value: util.FormatDuration(e.Duration), Inline: true},
			{Name: "Requested by", Value: e.Requester, Inline: true},
		},
	}
	if e.URL != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Link", Value: e.URL,
		})
	}
	return core.RespondEmbed(slash.Session, slash.Event, embed)
}

func (c *MusicCommand) runWhereIs(slash *core.SlashInteractionContext, sub *discordgo.ApplicationCommandInteractionDataOption) error {
	query := stringOption(sub, "query")
	sess := sessionFor(slash)

	e, pos, eta, ok := sess.Queue().Find(query)
	if !ok {
		return core.RespondEphemeral(slash.Session, slash.Event,
			fmt.Sprintf("Nothing in the queue matches %q.", query))
	}
	return core.Respond(slash.Session, slash.Event,
		fmt.Sprintf("**%s** is at position %d, estimated to start in %s.",
			e.DisplayTitle(), pos, util.FormatDuration(eta)))
}
