package discord

import (
	"context"
	"fmt"
	"log"
	"sync"

	"server-kidnap/internal/playback"

	"github.com/bwmarrin/discordgo"
)

// voiceTransport implements playback.Transport with discordgo voice connections.
// discordgo keeps one connection per guild and moves it between channels,
// so a join handle is only as good as the latest join for its guild.
type voiceTransport struct {
	dg    *discordgo.Session
	joins joinTracker
}

// joinTracker numbers joins per guild.
type joinTracker struct {
	mu     sync.Mutex
	latest map[string]uint64
}

func (t *joinTracker) begin(guildID string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.latest == nil {
		t.latest = make(map[string]uint64)
	}
	t.latest[guildID]++
	return t.latest[guildID]
}

// current reports whether gen is still the newest join for guildID.
func (t *joinTracker) current(guildID string, gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.latest[guildID] == gen
}

type joinResult struct {
	vc  *discordgo.VoiceConnection
	err error
}

// Join connects to channelID. discordgo offers no way to abort a join in
// flight, so a join that completes after ctx ended is torn down, unless a
// newer join for the guild has taken the shared connection over.
func (t *voiceTransport) Join(ctx context.Context, guildID, channelID string) (playback.Connection, error) {
	gen := t.joins.begin(guildID)
	result := make(chan joinResult, 1)
	go func() {
		vc, err := t.dg.ChannelVoiceJoin(guildID, channelID, false, true)
		result <- joinResult{vc: vc, err: err}
	}()

	select {
	case r := <-result:
		if r.err != nil {
			t.dropStale(guildID, channelID, gen, r.vc)
			return nil, fmt.Errorf("failed to join voice channel: %w", r.err)
		}
		return &voiceConnection{vc: r.vc, channelID: channelID}, nil
	case <-ctx.Done():
		go func() {
			r := <-result
			t.dropStale(guildID, channelID, gen, r.vc)
		}()
		return nil, ctx.Err()
	}
}

// dropStale disconnects vc only while it still belongs to this join.
func (t *voiceTransport) dropStale(guildID, channelID string, gen uint64, vc *discordgo.VoiceConnection) {
	if vc == nil {
		return
	}
	if !t.joins.current(guildID, gen) || connectedTo(vc) != channelID {
		log.Printf("[DEBUG] [Player] Voice connection in guild %s moved on, keeping it", guildID)
		return
	}
	log.Printf("[DEBUG] [Player] Dropping late voice connection to %s", channelID)
	_ = vc.Disconnect()
}

func connectedTo(vc *discordgo.VoiceConnection) string {
	vc.RLock()
	defer vc.RUnlock()
	return vc.ChannelID
}

type voiceConnection struct {
	vc        *discordgo.VoiceConnection
	channelID string
}

func (c *voiceConnection) ChannelID() string     { return c.channelID }
func (c *voiceConnection) Frames() chan<- []byte { return c.vc.OpusSend }
func (c *voiceConnection) Speaking(on bool) error {
	return c.vc.Speaking(on)
}
func (c *voiceConnection) Disconnect() error {
	return c.vc.Disconnect()
}
