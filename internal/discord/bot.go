// Package discord connects the room, playback and command machinery to a
// live Discord gateway session.
package discord

import (
	"context"
	"fmt"
	"log"
	"time"

	"server-kidnap/internal/command"
	"server-kidnap/internal/config"
	"server-kidnap/internal/kidnap"
	"server-kidnap/internal/playback"
	"server-kidnap/internal/reactor"
	"server-kidnap/internal/rooms"
	"server-kidnap/internal/status"
	"server-kidnap/internal/storage"
	"server-kidnap/pkg/cmd"
	"server-kidnap/pkg/jobmgr"

	"github.com/bwmarrin/discordgo"
)

const shutdownTimeout = 15 * time.Second

// Bot is a Discord bot
type Bot struct {
	dg      *discordgo.Session
	cfg     *config.Config
	storage *storage.Storage

	lifecycle *rooms.Lifecycle
	player    *playback.Coordinator
	reactor   *reactor.Reactor
	jobs      *jobmgr.Manager
	abductor  *kidnap.Abductor
	warden    *kidnap.Warden
	registry  *cmd.Registry
	router    *command.Router
	guilds    *guilds

	ctx context.Context
}

// NewBot builds the session and every component on top of it. Nothing
// connects until Run.
func NewBot(cfg *config.Config, store *storage.Storage) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	b := &Bot{
		dg:       dg,
		cfg:      cfg,
		storage:  store,
		registry: cmd.NewRegistry(),
		guilds:   &guilds{dg: dg},
		ctx:      context.Background(),
	}

	b.lifecycle = rooms.NewLifecycle(newPlatform(dg), rooms.WithCleanupDelay(cfg.TransientRoomTTL))
	b.player = playback.NewCoordinator(
		&voiceTransport{dg: dg},
		playback.NewLibrary(cfg.SoundsDir),
		b.lifecycle,
		playback.WithJoinTimeout(cfg.VoiceConnectTimeout),
	)
	b.reactor = reactor.New(b.lifecycle, b.player, reactor.DefaultQueueSize)
	b.jobs = jobmgr.NewManager(func(msg string) {
		log.Println("[DEBUG] [Jobs]", msg)
	})
	b.abductor = kidnap.NewAbductor(b.lifecycle, b.player, b.jobs)
	b.warden = kidnap.NewWarden(b.lifecycle)
	b.router = command.NewRouter(b.registry, cfg.CommandPrefix)
	b.registerCommands()

	return b, nil
}

// Run opens the gateway and blocks until ctx is cancelled, then tears
// everything down.
func (b *Bot) Run(ctx context.Context) error {
	b.ctx = ctx

	b.configureIntents()
	b.dg.AddHandler(b.onReady)
	b.dg.AddHandler(b.onMessageCreate)
	b.dg.AddHandler(b.onVoiceStateUpdate)
	b.dg.AddHandler(b.onChannelDelete)

	if err := b.dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}

	go b.reactor.Run(ctx)

	<-ctx.Done()
	log.Println("[INFO] ❎ Shutdown signal received. Cleaning up...")
	b.shutdown()
	return nil
}

func (b *Bot) shutdown() {
	b.jobs.StopAll()
	waitCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	if err := b.jobs.Wait(waitCtx); err != nil {
		log.Printf("[WARN] Shutdown did not wait for every abduction. %s", b.jobs.Status())
	}
	cancel()

	b.player.Stop()

	cleanupCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := b.lifecycle.Shutdown(cleanupCtx); err != nil {
		log.Printf("[WARN] Room cleanup incomplete: %v", err)
	}

	if err := b.dg.Close(); err != nil {
		log.Printf("[WARN] Failed to close session: %v", err)
	}
	log.Println("[DONE] Bot stopped")
}

func (b *Bot) configureIntents() {
	b.dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsMessageContent
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	log.Printf("[INFO] ✅ Logged in as %s#%s in %d guilds", r.User.Username, r.User.Discriminator, len(r.Guilds))
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}

	mc := &command.MessageContext{
		Event:   m,
		Guilds:  b.guilds,
		Respond: &transientReply{dg: s, message: m.Message, ttl: b.cfg.ReplyTTL},
	}

	handled, err := b.router.Dispatch(b.ctx, mc)
	if !handled {
		return
	}
	if err != nil {
		log.Printf("[ERR] Error running command %q: %v", m.Content, err)
		mc.Respond.Reply("Something went wrong, try again later.")
	}
}

func (b *Bot) onVoiceStateUpdate(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	if v.VoiceState == nil || v.UserID == b.selfID() {
		return
	}

	ev := reactor.MemberMoved{
		GuildID: v.GuildID,
		UserID:  v.UserID,
		After:   v.ChannelID,
	}
	if v.BeforeUpdate != nil {
		ev.Before = v.BeforeUpdate.ChannelID
	}
	b.submit(ev)
}

func (b *Bot) onChannelDelete(s *discordgo.Session, c *discordgo.ChannelDelete) {
	if c.Channel == nil {
		return
	}
	b.submit(reactor.RoomDeleted{GuildID: c.GuildID, RoomID: c.ID})
}

func (b *Bot) submit(ev reactor.Event) {
	if err := b.reactor.Submit(b.ctx, ev); err != nil {
		log.Printf("[WARN] [Reactor] Dropped %s: %v", ev, err)
	}
}

func (b *Bot) selfID() string {
	if b.dg.State == nil || b.dg.State.User == nil {
		return ""
	}
	return b.dg.State.User.ID
}

// Snapshot implements status.Source.
func (b *Bot) Snapshot() status.Snapshot {
	running := b.abductor.Running()
	abductions := make([]status.Abduction, 0, len(running))
	for _, job := range running {
		abductions = append(abductions, status.Abduction{Job: job.Name, Started: job.Started})
	}
	return status.Snapshot{
		Playback:       b.player.Active(),
		TransientRooms: b.lifecycle.Transient().Len(),
		Punishments:    b.lifecycle.Punishments().Len(),
		Abductions:     abductions,
	}
}

// Punishments implements status.Source.
func (b *Bot) Punishments(guildID string) []rooms.Punishment {
	return b.lifecycle.Punishments().List(guildID)
}
