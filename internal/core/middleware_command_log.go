package core

import (
	"log"
	"time"

	"quaver/internal/storage"
)

// WithCommandLogger wraps a command to record its execution in the
// guild's command history.
func WithCommandLogger() Middleware {
	return func(cmd Command) Command {
		return &wrappedCommand{
			Command: cmd,
			wrap: func(ctx interface{}) error {
				err := cmd.Run(ctx)

				v, ok := ctx.(*SlashInteractionContext)
				if !ok || v.Storage == nil || v.Event.Member == nil {
					return err
				}

				user := v.Event.Member.User
				guildName := ""
				if guild, gerr := v.Session.State.Guild(v.Event.GuildID); gerr == nil && guild != nil {
					guildName = guild.Name
				}

				rec := storage.CommandHistoryRecord{
					ChannelID: v.Event.ChannelID,
					GuildName: guildName,
					UserID:    user.ID,
					Username:  user.Username,
					Command:   cmd.Name(),
					Param:     FirstStringOption(v.Event),
					Datetime:  time.Now(),
				}
				if e := v.Storage.AppendCommandToHistory(v.Event.GuildID, rec); e != nil {
					log.Printf("[WARN] [Core] log command /%s: %v", cmd.Name(), e)
				}
				if e := v.Storage.SetLastTextChannel(v.Event.GuildID, v.Event.ChannelID); e != nil {
					log.Printf("[WARN] [Core] remember text channel: %v", e)
				}
				return err
			},
		}
	}
}
