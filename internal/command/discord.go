package command

import (
	"context"
	"fmt"

	"server-kidnap/pkg/cmd"

	"github.com/bwmarrin/discordgo"
)

const EmbedColor = 0xb01e66

// Responder answers the message that triggered a command. Replies are transient.
type Responder interface {
	Reply(text string)
	ReplyEmbed(embed *discordgo.MessageEmbed)
}

// Guilds answers questions about the guild a command runs in, so commands
// never touch the gateway state directly.
type Guilds interface {
	// VoiceRoom returns the voice room the user sits in.
	VoiceRoom(guildID, userID string) (string, bool)
	// RoomMembers lists the users in roomID, without the bot.
	RoomMembers(guildID, roomID string) []string
	// ParentOf returns the category of roomID, or "".
	ParentOf(guildID, roomID string) string
	DisplayName(guildID, userID string) string
	Permissions(userID, channelID string) (int64, error)
}

// MessageContext is what the runtime passes when executing a prefix command.
type MessageContext struct {
	Event   *discordgo.MessageCreate
	Args    []string
	Guilds  Guilds
	Respond Responder
}

func (mc *MessageContext) GuildID() string   { return mc.Event.GuildID }
func (mc *MessageContext) ChannelID() string { return mc.Event.ChannelID }

func (mc *MessageContext) Author() *discordgo.User {
	if mc.Event.Author != nil {
		return mc.Event.Author
	}
	return &discordgo.User{ID: "unknown", Username: "Unknown"}
}

// FirstMention returns the first mentioned user that is not a bot.
func (mc *MessageContext) FirstMention() (*discordgo.User, bool) {
	for _, u := range mc.Event.Mentions {
		if u != nil && !u.Bot {
			return u, true
		}
	}
	return nil, false
}

// DiscordMeta is exposed by the adapter so middleware can read Category/Permissions
// without depending on the concrete command type.
type DiscordMeta interface {
	Category() string
	Usage() string
	UserPermissions() []int64
}

// DiscordCommand is what individual chat commands implement.
type DiscordCommand interface {
	Name() string
	Description() string
	Category() string
	Usage() string
	UserPermissions() []int64
	Run(ctx context.Context, mc *MessageContext) error
}

// DiscordAdapter adapts a DiscordCommand to cmd.Command so it can live in the universal registry.
type DiscordAdapter struct {
	Cmd DiscordCommand
}

func (a *DiscordAdapter) Name() string             { return a.Cmd.Name() }
func (a *DiscordAdapter) Description() string      { return a.Cmd.Description() }
func (a *DiscordAdapter) Category() string         { return a.Cmd.Category() }
func (a *DiscordAdapter) Usage() string            { return a.Cmd.Usage() }
func (a *DiscordAdapter) UserPermissions() []int64 { return a.Cmd.UserPermissions() }

func (a *DiscordAdapter) Run(ctx context.Context, inv *cmd.Invocation) error {
	mc, ok := inv.Data.(*MessageContext)
	if !ok {
		return fmt.Errorf("wrong context type %T", inv.Data)
	}
	return a.Cmd.Run(ctx, mc)
}

// RegisterCommand registers a chat command with the registry and applies middlewares.
func RegisterCommand(registry *cmd.Registry, discordCmd DiscordCommand, mws ...cmd.Middleware) {
	c := cmd.Apply(&DiscordAdapter{Cmd: discordCmd}, mws...)
	registry.Register(c)
}
