package middleware

import (
	"context"

	"server-kidnap/internal/command"
	"server-kidnap/pkg/cmd"
)

// WithGuildOnly drops commands sent outside a guild and commands sent by bots.
func WithGuildOnly() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			if v, ok := inv.Data.(*command.MessageContext); ok {
				if v.Event.GuildID == "" || v.Author().Bot {
					return nil
				}
			}
			return c.Run(ctx, inv)
		})
	}
}
