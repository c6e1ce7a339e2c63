package command

import (
	"context"
	"errors"
	"fmt"
	"log"

	"server-kidnap/internal/kidnap"
	"server-kidnap/internal/rooms"
)

// Confinement punishes and releases members.
type Confinement interface {
	Punish(ctx context.Context, m kidnap.Member) (rooms.Punishment, error)
	Unpunish(ctx context.Context, guildID, userID string) (rooms.Punishment, error)
}

type PunishCommand struct {
	Warden Confinement
}

func (c *PunishCommand) Name() string             { return "punish" }
func (c *PunishCommand) Description() string      { return "Lock a member in a muted room of their own" }
func (c *PunishCommand) Category() string         { return "🔒 Discipline" }
func (c *PunishCommand) Usage() string            { return "@user" }
func (c *PunishCommand) UserPermissions() []int64 { return moveMembers }

func (c *PunishCommand) Run(ctx context.Context, mc *MessageContext) error {
	target, ok := mc.FirstMention()
	if !ok {
		mc.Respond.Reply("Please mention a user to punish!")
		return nil
	}

	guildID := mc.GuildID()
	name := mc.Guilds.DisplayName(guildID, target.ID)
	m := kidnap.Member{GuildID: guildID, UserID: target.ID, Name: name}
	if roomID, ok := mc.Guilds.VoiceRoom(guildID, target.ID); ok {
		m.RoomID = roomID
		m.ParentID = mc.Guilds.ParentOf(guildID, roomID)
	}

	_, err := c.Warden.Punish(ctx, m)
	switch {
	case errors.Is(err, rooms.ErrAlreadyPunished):
		mc.Respond.Reply(fmt.Sprintf("%s is already punished!", name))
		return nil
	case errors.Is(err, rooms.ErrRoomCreationFailed):
		log.Printf("[ERR] Punish %s: %v", target.ID, err)
		mc.Respond.Reply("Failed to create punishment channel!")
		return nil
	case err != nil:
		return fmt.Errorf("punish %s: %w", target.ID, err)
	}

	mc.Respond.Reply(fmt.Sprintf("%s has been punished!", name))
	return nil
}

type UnpunishCommand struct {
	Warden Confinement
}

func (c *UnpunishCommand) Name() string             { return "unpunish" }
func (c *UnpunishCommand) Description() string      { return "Let a punished member out" }
func (c *UnpunishCommand) Category() string         { return "🔒 Discipline" }
func (c *UnpunishCommand) Usage() string            { return "@user" }
func (c *UnpunishCommand) UserPermissions() []int64 { return moveMembers }

func (c *UnpunishCommand) Run(ctx context.Context, mc *MessageContext) error {
	target, ok := mc.FirstMention()
	if !ok {
		mc.Respond.Reply("Please mention a user to unpunish!")
		return nil
	}

	name := mc.Guilds.DisplayName(mc.GuildID(), target.ID)
	_, err := c.Warden.Unpunish(ctx, mc.GuildID(), target.ID)
	if errors.Is(err, rooms.ErrNotPunished) {
		mc.Respond.Reply("This user is not punished!")
		return nil
	}
	if err != nil {
		return fmt.Errorf("unpunish %s: %w", target.ID, err)
	}

	mc.Respond.Reply(fmt.Sprintf("%s has been unpunished!", name))
	return nil
}
