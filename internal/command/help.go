package command

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"server-kidnap/internal/config"
	"server-kidnap/pkg/cmd"

	embed "github.com/clinet/discordgo-embed"
)

type HelpCommand struct {
	Registry *cmd.Registry
	Prefix   string
}

func (c *HelpCommand) Name() string             { return "help" }
func (c *HelpCommand) Description() string      { return "Get a list of available commands" }
func (c *HelpCommand) Category() string         { return "🕯️ Information" }
func (c *HelpCommand) Usage() string            { return "" }
func (c *HelpCommand) UserPermissions() []int64 { return nil }

func (c *HelpCommand) Run(ctx context.Context, mc *MessageContext) error {
	e := embed.NewEmbed().
		SetTitle("Commands").
		SetColor(EmbedColor)

	for _, cat := range c.byCategory() {
		e.AddField(cat.name, strings.Join(cat.lines, "\n"))
	}

	mc.Respond.ReplyEmbed(e.MessageEmbed)
	return nil
}

type helpCategory struct {
	name  string
	lines []string
}

func (c *HelpCommand) byCategory() []helpCategory {
	index := map[string]*helpCategory{}
	var order []string

	for _, command := range c.Registry.GetAll() {
		category, usage := "General", ""
		if meta, ok := cmd.Root(command).(DiscordMeta); ok {
			if meta.Category() != "" {
				category = meta.Category()
			}
			usage = meta.Usage()
		}

		line := fmt.Sprintf("`%s%s", c.Prefix, command.Name())
		if usage != "" {
			line += " " + usage
		}
		line += "` - " + command.Description()

		hc, ok := index[category]
		if !ok {
			hc = &helpCategory{name: category}
			index[category] = hc
			order = append(order, category)
		}
		hc.lines = append(hc.lines, line)
	}

	sort.Slice(order, func(i, j int) bool {
		wi, iok := config.CategoryWeights[order[i]]
		wj, jok := config.CategoryWeights[order[j]]
		switch {
		case iok && jok && wi != wj:
			return wi < wj
		case iok != jok:
			return iok
		}
		return order[i] < order[j]
	})
	out := make([]helpCategory, 0, len(order))
	for _, name := range order {
		out = append(out, *index[name])
	}
	return out
}
