package discord

import (
	"fmt"
	"log"

	"quaver/internal/core"
	"quaver/internal/music/player"
	"quaver/internal/music/stream"
)

// newSession is the player.Registry factory: it assembles the sink,
// resolver, notifier and history recorder for one guild.
func (b *Bot) newSession(guildID, guildName string) *player.Session {
	sink := stream.NewVoiceSink(b.dg, guildID, b.resolver)
	var rec player.Recorder
	if b.history != nil {
		rec = b.history
	}
	return player.NewSession(guildID, guildName, player.DefaultConfig(),
		sink, b.resolver, channelNotifier{bot: b, guildID: guildID}, rec)
}

// channelNotifier posts playback messages into the guild's text channel.
// A message without a channel falls back to the guild's last recorded
// text channel, covering sessions that have not spoken since the
// process started.
type channelNotifier struct {
	bot     *Bot
	guildID string
}

func (n channelNotifier) Notify(channelID, message string) {
	if channelID == "" {
		channelID = n.fallbackChannel()
		if channelID == "" {
			return
		}
	}
	if _, err := n.bot.dg.ChannelMessageSend(channelID, message); err != nil {
		log.Printf("[WARN] [Bot] notify channel %s: %v", channelID, err)
	}
}

func (n channelNotifier) fallbackChannel() string {
	if n.bot.storage == nil {
		return ""
	}
	ch, err := n.bot.storage.GetLastTextChannel(n.guildID)
	if err != nil {
		return ""
	}
	return ch
}

// FindUserVoiceState finds the voice channel a user currently sits in.
func (b *Bot) FindUserVoiceState(guildID, userID string) (*core.VoiceState, error) {
	guild, err := b.dg.State.Guild(guildID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving guild: %w", err)
	}

	for _, vs := range guild.VoiceStates {
		if vs.UserID == userID {
			return &core.VoiceState{
				ChannelID: vs.ChannelID,
				UserID:    vs.UserID,
			}, nil
		}
	}
	return nil, fmt.Errorf("user not in any voice channel")
}
