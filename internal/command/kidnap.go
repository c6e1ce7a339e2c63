package command

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"

	"server-kidnap/internal/kidnap"

	"github.com/bwmarrin/discordgo"
)

// Abductions starts abduction sequences.
type Abductions interface {
	Start(ctx context.Context, m kidnap.Member) error
}

var moveMembers = []int64{discordgo.PermissionVoiceMoveMembers}

type KidnapCommand struct {
	Abductor Abductions
}

func (c *KidnapCommand) Name() string             { return "kidnap" }
func (c *KidnapCommand) Description() string      { return "Drag someone into a dark room for a scream" }
func (c *KidnapCommand) Category() string         { return "🎭 Pranks" }
func (c *KidnapCommand) Usage() string            { return "@user" }
func (c *KidnapCommand) UserPermissions() []int64 { return moveMembers }

func (c *KidnapCommand) Run(ctx context.Context, mc *MessageContext) error {
	target, ok := mc.FirstMention()
	if !ok {
		mc.Respond.Reply("Please mention a user to kidnap!")
		return nil
	}

	roomID, ok := mc.Guilds.VoiceRoom(mc.GuildID(), target.ID)
	if !ok {
		mc.Respond.Reply("Target user is not in a voice channel!")
		return nil
	}

	return startAbduction(ctx, c.Abductor, mc, target.ID, roomID)
}

type RandomKidnapCommand struct {
	Abductor Abductions
	// Pick chooses an index in [0, n). Defaults to math/rand.
	Pick func(n int) int
}

func (c *RandomKidnapCommand) Name() string             { return "randomkidnap" }
func (c *RandomKidnapCommand) Description() string      { return "Kidnap a random member of your voice channel" }
func (c *RandomKidnapCommand) Category() string         { return "🎭 Pranks" }
func (c *RandomKidnapCommand) Usage() string            { return "" }
func (c *RandomKidnapCommand) UserPermissions() []int64 { return moveMembers }

func (c *RandomKidnapCommand) Run(ctx context.Context, mc *MessageContext) error {
	roomID, ok := mc.Guilds.VoiceRoom(mc.GuildID(), mc.Author().ID)
	if !ok {
		mc.Respond.Reply("You need to be in a voice channel!")
		return nil
	}

	members := mc.Guilds.RoomMembers(mc.GuildID(), roomID)
	if len(members) == 0 {
		mc.Respond.Reply("No one to kidnap!")
		return nil
	}

	pick := c.Pick
	if pick == nil {
		pick = rand.Intn
	}
	return startAbduction(ctx, c.Abductor, mc, members[pick(len(members))], roomID)
}

func startAbduction(ctx context.Context, abductor Abductions, mc *MessageContext, userID, roomID string) error {
	m := kidnap.Member{
		GuildID:  mc.GuildID(),
		UserID:   userID,
		Name:     mc.Guilds.DisplayName(mc.GuildID(), userID),
		RoomID:   roomID,
		ParentID: mc.Guilds.ParentOf(mc.GuildID(), roomID),
	}

	err := abductor.Start(ctx, m)
	if errors.Is(err, kidnap.ErrAlreadyRunning) {
		mc.Respond.Reply(fmt.Sprintf("%s is already being kidnapped!", m.Name))
		return nil
	}
	if err != nil {
		return fmt.Errorf("start kidnap of %s: %w", userID, err)
	}

	log.Printf("[INFO] %s kidnapped %s in guild %s", mc.Author().Username, userID, mc.GuildID())
	mc.Respond.Reply(fmt.Sprintf("🥷 %s has been kidnapped!", m.Name))
	return nil
}
