package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	req := require.New(t)
	t.Setenv("DISCORD_TOKEN", "token")

	cfg, err := New()

	req.NoError(err)
	req.Equal("token", cfg.DiscordToken)
	req.Equal("!", cfg.CommandPrefix)
	req.Equal("sounds", cfg.SoundsDir)
	req.Equal(30*time.Second, cfg.TransientRoomTTL)
	req.Equal(30*time.Second, cfg.VoiceConnectTimeout)
	req.Empty(cfg.StatusAddr)
}

func TestNew_PrefixOverride(t *testing.T) {
	req := require.New(t)
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("COMMAND_PREFIX", "?")
	t.Setenv("TRANSIENT_ROOM_TTL", "5s")

	cfg, err := New()

	req.NoError(err)
	req.Equal("?", cfg.CommandPrefix)
	req.Equal(5*time.Second, cfg.TransientRoomTTL)
}

func TestNew_MissingToken(t *testing.T) {
	req := require.New(t)
	t.Setenv("DISCORD_TOKEN", "")

	cfg, err := New()

	req.Nil(cfg)
	req.ErrorIs(err, ErrConfigurationMissing)
}

func TestNew_BadDuration(t *testing.T) {
	req := require.New(t)
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("VOICE_CONNECT_TIMEOUT", "soon")

	_, err := New()

	req.Error(err)
	req.NotErrorIs(err, ErrConfigurationMissing)
}
