package discord

import (
	"server-kidnap/internal/command"
	"server-kidnap/internal/middleware"
	"server-kidnap/pkg/cmd"
)

func (b *Bot) registerCommands() {
	limiter := middleware.NewRateLimiter(b.cfg.CommandRate, b.cfg.CommandBurst)

	// the last middleware wraps outermost, so the guild check runs first
	mws := []cmd.Middleware{
		middleware.WithCommandLogger(b.storage),
		middleware.WithRateLimit(limiter),
		middleware.WithUserPermissionCheck(b.cfg.DeveloperID),
		middleware.WithGuildOnly(),
	}

	for _, c := range []command.DiscordCommand{
		&command.HelpCommand{Registry: b.registry, Prefix: b.cfg.CommandPrefix},
		&command.KidnapCommand{Abductor: b.abductor},
		&command.RandomKidnapCommand{Abductor: b.abductor},
		&command.PunishCommand{Warden: b.warden},
		&command.UnpunishCommand{Warden: b.warden},
		&command.LogCommand{History: b.storage, Prefix: b.cfg.CommandPrefix},
	} {
		command.RegisterCommand(b.registry, c, mws...)
	}
}
