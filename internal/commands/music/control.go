package music

import (
	"errors"

	"quaver/internal/core"
	"quaver/internal/music/player"
)

func (c *MusicCommand) runPause(slash *core.SlashInteractionContext) error {
	sess := sessionFor(slash)
	if err := sess.Pause(); err != nil {
		return core.RespondEphemeral(slash.Session, slash.Event, "Nothing is playing.")
	}
	return core.Respond(slash.Session, slash.Event, "Paused.")
}

func (c *MusicCommand) runResume(slash *core.SlashInteractionContext) error {
	sess := sessionFor(slash)
	if err := sess.Resume(); err != nil {
		return core.RespondEphemeral(slash.Session, slash.Event, "Nothing is playing.")
	}
	return core.Respond(slash.Session, slash.Event, "Resumed.")
}

func (c *MusicCommand) runSkip(slash *core.SlashInteractionContext) error {
	sess := sessionFor(slash)
	if err := sess.Skip(); err != nil {
		if errors.Is(err, player.ErrNoTrackPlaying) {
			return core.RespondEphemeral(slash.Session, slash.Event, "Nothing to skip.")
		}
		return core.RespondEphemeral(slash.Session, slash.Event, "Skip failed: "+err.Error())
	}
	return core.Respond(slash.Session, slash.Event, "Skipped.")
}

func (c *MusicCommand) runPrev(slash *core.SlashInteractionContext) error {
	sess := sessionFor(slash)
	if err := sess.Replay(); err != nil {
		return core.RespondEphemeral(slash.Session, slash.Event, "No current track to replay.")
	}
	return core.Respond(slash.Session, slash.Event, "Replaying from the top.")
}

func (c *MusicCommand) runRepeat(slash *core.SlashInteractionContext) error {
	sess := sessionFor(slash)
	if err := sess.Repeat(); err != nil {
		return core.RespondEphemeral(slash.Session, slash.Event, "No current track to repeat.")
	}
	return core.Respond(slash.Session, slash.Event, "Queue cleared, looping the current track.")
}

func (c *MusicCommand) runShuffle(slash *core.SlashInteractionContext) error {
	sess := sessionFor(slash)
	if sess.Queue().Len() < 2 {
		return core.RespondEphemeral(slash.Session, slash.Event, "Not enough queued tracks to shuffle.")
	}
	sess.Queue().Shuffle()
	return core.Respond(slash.Session, slash.Event, "Queue shuffled.")
}

func (c *MusicCommand) runClear(slash *core.SlashInteractionContext) error {
	sess := sessionFor(slash)
	sess.ClearQueue()
	return core.Respond(slash.Session, slash.Event, "Queue cleared.")
}

func (c *MusicCommand) runStop(slash *core.SlashInteractionContext) error {
	sess := sessionFor(slash)
	sess.Stop()
	return core.Respond(slash.Session, slash.Event, "Stopped and left the voice channel.")
}
