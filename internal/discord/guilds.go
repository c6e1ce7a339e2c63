package discord

import (
	"github.com/bwmarrin/discordgo"
)

// guilds implements command.Guilds from the gateway state cache.
type guilds struct {
	dg *discordgo.Session
}

func (g *guilds) VoiceRoom(guildID, userID string) (string, bool) {
	vs, err := g.dg.State.VoiceState(guildID, userID)
	if err != nil || vs == nil || vs.ChannelID == "" {
		return "", false
	}
	return vs.ChannelID, true
}

func (g *guilds) RoomMembers(guildID, roomID string) []string {
	selfID := ""
	if g.dg.State.User != nil {
		selfID = g.dg.State.User.ID
	}
	return roomMembers(g.dg.State, guildID, roomID, selfID)
}

func (g *guilds) ParentOf(_, roomID string) string {
	ch, err := g.dg.State.Channel(roomID)
	if err != nil {
		return ""
	}
	return ch.ParentID
}

// DisplayName prefers the guild nickname, then the global name, then the username.
func (g *guilds) DisplayName(guildID, userID string) string {
	m, err := g.dg.State.Member(guildID, userID)
	if err != nil || m == nil || m.User == nil {
		return "<@" + userID + ">"
	}
	if m.Nick != "" {
		return m.Nick
	}
	if m.User.GlobalName != "" {
		return m.User.GlobalName
	}
	return m.User.Username
}

func (g *guilds) Permissions(userID, channelID string) (int64, error) {
	return g.dg.UserChannelPermissions(userID, channelID)
}
