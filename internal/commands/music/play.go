package music

import (
	"context"
	"fmt"
	"time"

	"quaver/internal/core"
	"quaver/internal/music/player"
	"quaver/internal/music/queue"
	"quaver/internal/music/resolver"
	"quaver/internal/music/spotify"
	"quaver/pkg/util"

	"github.com/bwmarrin/discordgo"
)

const resolveTimeout = 30 * time.Second

func (c *MusicCommand) runPlay(slash *core.SlashInteractionContext, sub *discordgo.ApplicationCommandInteractionDataOption) error {
	query := stringOption(sub, "query")
	if query == "" {
		return core.RespondEphemeral(slash.Session, slash.Event, "Give me a link or something to search for.")
	}

	// Resolution can be slow, acknowledge first.
	if err := core.RespondDeferred(slash.Session, slash.Event); err != nil {
		return fmt.Errorf("deferred response: %w", err)
	}

	sess := sessionFor(slash)

	// An input matching something already queued reports where that
	// entry sits instead of queueing it twice.
	if notice, ok := alreadyQueuedNotice(sess.Queue(), query); ok {
		return core.FollowUp(slash.Session, slash.Event, notice)
	}

	member := slash.Event.Member
	voiceState, err := slash.Voice.FindUserVoiceState(slash.Event.GuildID, member.User.ID)
	if err != nil {
		return core.FollowUp(slash.Session, slash.Event, "Join a voice channel first.")
	}

	voiceCh := voiceState.ChannelID
	textCh := slash.Event.ChannelID

	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	defer cancel()

	switch {
	case spotify.IsPlaylistURL(query):
		if c.Spotify == nil {
			return core.FollowUp(slash.Session, slash.Event, "Spotify support is not configured.")
		}
		name, queries, err := c.Spotify.PlaylistQueries(query)
		if err != nil {
			return core.FollowUp(slash.Session, slash.Event, "Could not read that Spotify playlist: "+err.Error())
		}
		sess.SetChannels(voiceCh, textCh)
		sess.EnqueuePending(queries, member.User.ID, member.User.Username)
		if err := sess.StartIfIdle(voiceCh, textCh); err != nil {
			return core.FollowUp(slash.Session, slash.Event, "Could not join voice: "+err.Error())
		}
		return core.FollowUp(slash.Session, slash.Event,
			fmt.Sprintf("Queued %d tracks from **%s**. They resolve as the queue moves.", len(queries), name))

	case resolver.IsPlaylistURL(query):
		title, keys, err := c.Resolver.Playlist(ctx, query)
		if err != nil {
			return core.FollowUp(slash.Session, slash.Event, "Could not read that playlist: "+err.Error())
		}
		sess.SetChannels(voiceCh, textCh)
		sess.EnqueuePending(keys, member.User.ID, member.User.Username)
		if err := sess.StartIfIdle(voiceCh, textCh); err != nil {
			return core.FollowUp(slash.Session, slash.Event, "Could not join voice: "+err.Error())
		}
		if title == "" {
			title = "playlist"
		}
		return core.FollowUp(slash.Session, slash.Event,
			fmt.Sprintf("Queued %d tracks from **%s**.", len(keys), title))
	}

	// Single track: Spotify links become search queries first.
	searchKey := query
	if spotify.IsTrackURL(query) {
		if c.Spotify == nil {
			return core.FollowUp(slash.Session, slash.Event, "Spotify support is not configured.")
		}
		searchKey, err = c.Spotify.TrackQuery(query)
		if err != nil {
			return core.FollowUp(slash.Session, slash.Event, "Could not read that Spotify track: "+err.Error())
		}
	}

	res, err := c.Resolver.Resolve(ctx, searchKey)
	if err != nil {
		return core.FollowUp(slash.Session, slash.Event, fmt.Sprintf("Could not find anything for %q.", query))
	}

	entry := queue.NewResolvedEntry(res, member.User.ID, member.User.Username, searchKey)
	queued, err := sess.PlayResolved(entry, voiceCh, textCh)
	if err != nil {
		return core.FollowUp(slash.Session, slash.Event, "Could not join voice: "+err.Error())
	}
	if queued {
		pos := sess.Queue().Len()
		return core.FollowUp(slash.Session, slash.Event,
			fmt.Sprintf("Queued **%s** (%s) at position %d.", res.Title, util.FormatDuration(res.Duration), pos))
	}
	return core.FollowUp(slash.Session, slash.Event,
		fmt.Sprintf("Playing **%s** (%s).", res.Title, util.FormatDuration(res.Duration)))
}

// alreadyQueuedNotice looks the input up against queued titles, URLs
// and search keys and words the reply for a hit.
func alreadyQueuedNotice(q *queue.Queue, input string) (string, bool) {
	e, pos, eta, ok := q.Find(input)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("**%s** is already queued at position %d, starting in about %s.",
		e.DisplayTitle(), pos, util.FormatDuration(eta)), true
}

// sessionFor fetches this guild's playback session, creating it on
// first use.
func sessionFor(slash *core.SlashInteractionContext) *player.Session {
	guildName := ""
	if g, err := slash.Session.State.Guild(slash.Event.GuildID); err == nil && g != nil {
		guildName = g.Name
	}
	return slash.Players.GetOrCreate(slash.Event.GuildID, guildName)
}
