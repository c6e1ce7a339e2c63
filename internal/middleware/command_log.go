package middleware

import (
	"context"
	"log"
	"strings"
	"time"

	"server-kidnap/internal/command"
	"server-kidnap/internal/storage"
	"server-kidnap/pkg/cmd"
)

// HistoryRecorder persists executed commands.
type HistoryRecorder interface {
	AppendCommandToHistory(guildID string, record storage.CommandHistoryRecord) error
}

// WithCommandLogger logs every execution and appends it to the guild's command history.
func WithCommandLogger(history HistoryRecorder) cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			started := time.Now()
			err := c.Run(ctx, inv)

			v, ok := inv.Data.(*command.MessageContext)
			if !ok {
				return err
			}

			author := v.Author()
			outcome := "ok"
			if err != nil {
				outcome = err.Error()
			}
			log.Printf("[INFO] [%s] %s ran %s in %s (%s)", v.GuildID(), author.Username, c.Name(), time.Since(started).Round(time.Millisecond), outcome)

			if history == nil {
				return err
			}
			record := storage.CommandHistoryRecord{
				ChannelID: v.ChannelID(),
				GuildID:   v.GuildID(),
				UserID:    author.ID,
				Username:  author.Username,
				Command:   c.Name(),
				Param:     strings.Join(inv.Args, " "),
				Outcome:   outcome,
				Datetime:  started,
			}
			if e := history.AppendCommandToHistory(v.GuildID(), record); e != nil {
				log.Printf("[WARN] Failed to log command %s: %v", c.Name(), e)
			}
			return err
		})
	}
}
