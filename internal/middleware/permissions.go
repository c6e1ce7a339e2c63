package middleware

import (
	"context"
	"fmt"
	"log"
	"strings"

	"server-kidnap/internal/command"
	"server-kidnap/pkg/cmd"

	"github.com/bwmarrin/discordgo"
)

var PermissionNames = map[int64]string{
	discordgo.PermissionAdministrator:      "Administrator",
	discordgo.PermissionManageChannels:     "Manage Channels",
	discordgo.PermissionManageGuild:        "Manage Server",
	discordgo.PermissionViewChannel:        "View Channel",
	discordgo.PermissionVoiceConnect:       "Connect to Voice Channel",
	discordgo.PermissionVoiceSpeak:         "Speak",
	discordgo.PermissionVoiceMuteMembers:   "Mute Members",
	discordgo.PermissionVoiceDeafenMembers: "Deafen Members",
	discordgo.PermissionVoiceMoveMembers:   "Move Members",
	discordgo.PermissionModerateMembers:    "Moderate Members",
}

// WithUserPermissionCheck lets the command run only when the author holds at
// least one of its UserPermissions in the channel. Administrators and the
// developer always pass.
func WithUserPermissionCheck(developerID string) cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			v, ok := inv.Data.(*command.MessageContext)
			if !ok || v.GuildID() == "" {
				return c.Run(ctx, inv)
			}

			meta, ok := cmd.Root(c).(command.DiscordMeta)
			if !ok {
				return c.Run(ctx, inv)
			}
			required := meta.UserPermissions()
			if len(required) == 0 {
				return c.Run(ctx, inv)
			}

			author := v.Author()
			if developerID != "" && author.ID == developerID {
				return c.Run(ctx, inv)
			}

			memberPerms, err := v.Guilds.Permissions(author.ID, v.ChannelID())
			if err != nil {
				return fmt.Errorf("failed to get user permissions: %w", err)
			}
			if memberPerms&discordgo.PermissionAdministrator != 0 {
				return c.Run(ctx, inv)
			}

			for _, p := range required {
				if memberPerms&p != 0 {
					return c.Run(ctx, inv)
				}
			}

			var allowed []string
			for _, p := range required {
				name := PermissionNames[p]
				if name == "" {
					name = fmt.Sprintf("0x%x", p)
				}
				allowed = append(allowed, name)
			}
			log.Printf("[WARN] [%s] %s denied %s", v.GuildID(), author.Username, c.Name())
			v.Respond.Reply(fmt.Sprintf(
				"You need at least one of the following permissions to run this command:\n`%s`",
				strings.Join(allowed, "`, `"),
			))
			return nil
		})
	}
}
