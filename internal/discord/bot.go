// Package discord wires the gateway connection to the command
// framework and the per-guild playback sessions.
package discord

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/bwmarrin/discordgo"

	"quaver/internal/commands/music"
	"quaver/internal/commands/stats"
	"quaver/internal/config"
	"quaver/internal/core"
	"quaver/internal/history"
	"quaver/internal/music/player"
	"quaver/internal/music/resolver"
	"quaver/internal/music/spotify"
	"quaver/internal/storage"
)

// Bot is a Discord bot
type Bot struct {
	dg       *discordgo.Session
	cfg      *config.Config
	storage  *storage.Storage
	history  *history.Store
	resolver *resolver.Client
	spotify  *spotify.Client
	players  *player.Registry

	mu         sync.Mutex
	registered map[string]bool
}

// StartBot runs the Discord bot until ctx is cancelled.
func StartBot(ctx context.Context, cfg *config.Config, store *storage.Storage, hist *history.Store) error {
	b := &Bot{
		cfg:        cfg,
		storage:    store,
		history:    hist,
		resolver:   resolver.New(),
		registered: make(map[string]bool),
	}

	if cfg.SpotifyEnabled() {
		sp, err := spotify.New(ctx, cfg.SpotifyClientID, cfg.SpotifyClientSecret)
		if err != nil {
			log.Printf("[WARN] [Bot] spotify disabled: %v", err)
		} else {
			b.spotify = sp
			log.Println("[INFO] [Bot] spotify link support enabled")
		}
	}

	b.players = player.NewRegistry(b.newSession)
	b.registerCommands()

	if err := b.run(ctx); err != nil {
		return fmt.Errorf("bot run error: %w", err)
	}
	return nil
}

func (b *Bot) run(ctx context.Context) error {
	dg, err := discordgo.New("Bot " + b.cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	b.dg = dg

	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsGuildMessages

	dg.AddHandler(b.onReady)
	dg.AddHandler(b.onGuildCreate)
	dg.AddHandler(b.onInteractionCreate)

	if err := dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer dg.Close()

	<-ctx.Done()
	log.Println("[INFO] [Bot] shutdown signal received, cleaning up")
	b.players.StopAll()
	return nil
}

// onReady is called when the bot is ready
func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	for _, g := range r.Guilds {
		if b.cfg.InitSlashCommands {
			if err := b.syncCommands(g.ID); err != nil {
				log.Printf("[ERR] [Bot] sync commands for guild %s: %v", g.ID, err)
			}
		}
	}
	log.Printf("[INFO] [Bot] %v is running on %d guild(s)", s.State.User.Username, len(r.Guilds))
}

// onGuildCreate is called when the bot joins a guild
func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	b.mu.Lock()
	seen := b.registered[g.Guild.ID]
	b.registered[g.Guild.ID] = true
	b.mu.Unlock()
	if seen {
		return
	}

	log.Printf("[INFO] [Bot] joined guild: %s (%s)", g.Guild.Name, g.Guild.ID)
	if b.cfg.InitSlashCommands {
		if err := b.syncCommands(g.Guild.ID); err != nil {
			log.Printf("[ERR] [Bot] sync commands for new guild %s: %v", g.Guild.ID, err)
		}
	}
}

// onInteractionCreate dispatches slash commands
func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	cmdName := i.ApplicationCommandData().Name
	cmd, ok := core.GetCommand(cmdName)
	if !ok {
		log.Printf("[WARN] [Bot] unknown command: %s", cmdName)
		return
	}

	ctx := &core.SlashInteractionContext{
		Session: s,
		Event:   i,
		Storage: b.storage,
		History: b.history,
		Players: b.players,
		Voice:   b,
	}
	if err := cmd.Run(ctx); err != nil {
		log.Printf("[ERR] [Bot] running /%s: %v", cmdName, err)
		core.RespondEphemeral(s, i, fmt.Sprintf("Error running command: %v", err))
	}
}

// registerCommands populates the local command registry.
func (b *Bot) registerCommands() {
	core.RegisterCommand(
		core.ApplyMiddlewares(
			&music.MusicCommand{Resolver: b.resolver, Spotify: b.spotify},
			core.WithGuildOnly(),
			core.WithCommandLogger(),
		),
	)
	core.RegisterCommand(
		core.ApplyMiddlewares(
			&stats.StatsCommand{},
			core.WithGuildOnly(),
			core.WithCommandLogger(),
		),
	)
}

// syncCommands pushes the registry's slash definitions to one guild.
func (b *Bot) syncCommands(guildID string) error {
	var defs []*discordgo.ApplicationCommand
	for _, c := range core.AllCommands() {
		if sp, ok := c.(core.SlashProvider); ok {
			if def := sp.SlashDefinition(); def != nil {
				defs = append(defs, def)
			}
		}
	}
	_, err := b.dg.ApplicationCommandBulkOverwrite(b.dg.State.User.ID, guildID, defs)
	return err
}
