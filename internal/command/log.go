package command

import (
	"context"
	"fmt"
	"strings"

	"server-kidnap/internal/storage"
)

const (
	discordMaxMessageLength = 2000
	codeLeftBlockWrapper    = "```md"
	codeRightBlockWrapper   = "```"
)

var maxContentLength = discordMaxMessageLength - len(codeLeftBlockWrapper) - len(codeRightBlockWrapper) - 2

// History reads back the commands recorded for a guild.
type History interface {
	FetchCommandHistory(guildID string) ([]storage.CommandHistoryRecord, error)
}

type LogCommand struct {
	History History
	Prefix  string
}

func (c *LogCommand) Name() string             { return "log" }
func (c *LogCommand) Description() string      { return "Review recent commands and who ran them" }
func (c *LogCommand) Category() string         { return "🛠️ Maintenance" }
func (c *LogCommand) Usage() string            { return "" }
func (c *LogCommand) UserPermissions() []int64 { return moveMembers }

func (c *LogCommand) Run(ctx context.Context, mc *MessageContext) error {
	records, err := c.History.FetchCommandHistory(mc.GuildID())
	if err != nil {
		return fmt.Errorf("fetch command history: %w", err)
	}
	if len(records) == 0 {
		mc.Respond.Reply("No command history found.")
		return nil
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("%-19s\t%-15s\t%-10s\t%s\n", "# Datetime", "# Username", "# Outcome", "# Command"))

	// newest first
	for idx := len(records) - 1; idx >= 0; idx-- {
		r := records[idx]

		command := c.Prefix + r.Command
		if r.Param != "" {
			command += " " + r.Param
		}
		line := fmt.Sprintf(
			"%-19s\t%-15s\t%-10s\t%s\n",
			r.Datetime.Format("2006-01-02 15:04:05"),
			r.Username,
			r.Outcome,
			command,
		)

		if builder.Len()+len(line) > maxContentLength {
			break
		}
		builder.WriteString(line)
	}

	mc.Respond.Reply(codeLeftBlockWrapper + "\n" + builder.String() + codeRightBlockWrapper)
	return nil
}
