package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"server-kidnap/internal/rooms"

	"github.com/bwmarrin/discordgo"
)

// platform implements rooms.Platform on top of a discordgo session.
type platform struct {
	dg *discordgo.Session
}

func newPlatform(dg *discordgo.Session) *platform {
	return &platform{dg: dg}
}

func (p *platform) CreateVoiceRoom(ctx context.Context, guildID string, spec rooms.RoomSpec) (string, error) {
	ch, err := p.dg.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:                 spec.Name,
		Type:                 discordgo.ChannelTypeGuildVoice,
		ParentID:             spec.ParentID,
		PermissionOverwrites: spec.Overwrites,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", mapError(err)
	}
	return ch.ID, nil
}

func (p *platform) DeleteRoom(ctx context.Context, roomID string) error {
	_, err := p.dg.ChannelDelete(roomID, discordgo.WithContext(ctx))
	return mapError(err)
}

func (p *platform) MoveMember(ctx context.Context, guildID, userID, roomID string) error {
	return mapError(p.dg.GuildMemberMove(guildID, userID, &roomID, discordgo.WithContext(ctx)))
}

func (p *platform) MuteMember(ctx context.Context, guildID, userID string, mute bool) error {
	return mapError(p.dg.GuildMemberMute(guildID, userID, mute, discordgo.WithContext(ctx)))
}

// Occupants counts the voice states in roomID from the gateway cache, bot excluded.
func (p *platform) Occupants(guildID, roomID string) int {
	return len(roomMembers(p.dg.State, guildID, roomID, p.SelfID()))
}

func (p *platform) SelfID() string {
	if p.dg.State == nil || p.dg.State.User == nil {
		return ""
	}
	return p.dg.State.User.ID
}

// mapError turns "unknown channel" into rooms.ErrRoomNotFound.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) {
		if restErr.Message != nil && restErr.Message.Code == discordgo.ErrCodeUnknownChannel {
			return fmt.Errorf("%w: %v", rooms.ErrRoomNotFound, err)
		}
		if restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound && restErr.Message == nil {
			return fmt.Errorf("%w: %v", rooms.ErrRoomNotFound, err)
		}
	}
	return err
}

func roomMembers(state *discordgo.State, guildID, roomID, selfID string) []string {
	if state == nil || roomID == "" {
		return nil
	}
	state.RLock()
	defer state.RUnlock()

	guild, err := guildFromState(state, guildID)
	if err != nil {
		return nil
	}
	var out []string
	for _, vs := range guild.VoiceStates {
		if vs.ChannelID == roomID && vs.UserID != selfID {
			out = append(out, vs.UserID)
		}
	}
	return out
}

// guildFromState reads the cached guild. The caller holds state's read lock.
func guildFromState(state *discordgo.State, guildID string) (*discordgo.Guild, error) {
	for _, g := range state.Guilds {
		if g.ID == guildID {
			return g, nil
		}
	}
	return nil, fmt.Errorf("guild %s not in state: %w", guildID, discordgo.ErrStateNotFound)
}
