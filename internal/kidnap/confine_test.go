package kidnap_test

import (
	"context"
	"errors"
	"testing"

	"server-kidnap/internal/kidnap"
	"server-kidnap/internal/rooms"
	"server-kidnap/internal/rooms/roomstest"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/require"
)

func TestWarden_ConfinementScenario(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	// Given U in the lobby
	platform := roomstest.New()
	platform.AddRoom("lobby")
	platform.Join("U", "lobby")
	lifecycle := rooms.NewLifecycle(platform)
	warden := kidnap.NewWarden(lifecycle)

	// When U is punished
	p, err := warden.Punish(ctx, kidnap.Member{GuildID: "g", UserID: "U", Name: "Loud", RoomID: "lobby"})
	req.NoError(err)

	// Then U sits muted in a locked room of their own
	spec, ok := platform.Spec(p.RoomID)
	req.True(ok)
	req.Equal("punishment-loud", spec.Name)
	req.Equal(int64(discordgo.PermissionVoiceConnect|discordgo.PermissionVoiceSpeak), spec.Overwrites[0].Deny)
	req.Equal("U", spec.Overwrites[1].ID)
	req.NotZero(spec.Overwrites[1].Allow & discordgo.PermissionVoiceConnect)
	req.Equal(p.RoomID, platform.Location("U"))
	req.True(platform.Muted("U"))

	got, ok := lifecycle.Punishments().Lookup("g", "U")
	req.True(ok)
	req.Equal(p.RoomID, got.RoomID)
	req.Equal("lobby", got.ReturnRoomID)

	// When U is released
	_, err = warden.Unpunish(ctx, "g", "U")
	req.NoError(err)

	// Then the mute is lifted, U is back, the room is gone and nothing is recorded
	req.False(platform.Muted("U"))
	req.Equal("lobby", platform.Location("U"))
	req.False(platform.Exists(p.RoomID))
	_, ok = lifecycle.Punishments().Lookup("g", "U")
	req.False(ok)
}

func TestWarden_Punish_Twice(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	platform := roomstest.New()
	platform.AddRoom("lobby")
	platform.Join("U", "lobby")
	lifecycle := rooms.NewLifecycle(platform)
	warden := kidnap.NewWarden(lifecycle)

	first, err := warden.Punish(ctx, kidnap.Member{GuildID: "g", UserID: "U", RoomID: "lobby"})
	req.NoError(err)

	_, err = warden.Punish(ctx, kidnap.Member{GuildID: "g", UserID: "U", RoomID: first.RoomID})

	// no second room is created and the first entry stands
	req.ErrorIs(err, rooms.ErrAlreadyPunished)
	got, _ := lifecycle.Punishments().Lookup("g", "U")
	req.Equal(first.RoomID, got.RoomID)
	_, exists := platform.Spec("room-2")
	req.False(exists)
}

func TestWarden_Punish_RoomCreationFails(t *testing.T) {
	req := require.New(t)

	platform := roomstest.New()
	platform.AddRoom("lobby")
	platform.Join("U", "lobby")
	platform.CreateErr = errors.New("missing permissions")
	lifecycle := rooms.NewLifecycle(platform)

	_, err := kidnap.NewWarden(lifecycle).Punish(context.Background(), kidnap.Member{GuildID: "g", UserID: "U", RoomID: "lobby"})

	req.ErrorIs(err, rooms.ErrRoomCreationFailed)
	req.Zero(lifecycle.Punishments().Len())
	req.False(platform.Muted("U"))
	req.Equal("lobby", platform.Location("U"))
}

func TestWarden_Punish_NotInVoice(t *testing.T) {
	req := require.New(t)

	platform := roomstest.New()
	lifecycle := rooms.NewLifecycle(platform)

	p, err := kidnap.NewWarden(lifecycle).Punish(context.Background(), kidnap.Member{GuildID: "g", UserID: "U"})

	// recorded so the next voice join gets redirected
	req.NoError(err)
	req.True(platform.Exists(p.RoomID))
	req.Empty(platform.Moves())
	req.Equal(1, lifecycle.Punishments().Len())
}

func TestWarden_Unpunish_NotPunished(t *testing.T) {
	req := require.New(t)

	platform := roomstest.New()
	lifecycle := rooms.NewLifecycle(platform)

	_, err := kidnap.NewWarden(lifecycle).Unpunish(context.Background(), "g", "U")

	req.ErrorIs(err, rooms.ErrNotPunished)
	req.Empty(platform.Deletes())
}

func TestWarden_Unpunish_RoomAlreadyDeleted(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	platform := roomstest.New()
	lifecycle := rooms.NewLifecycle(platform)
	warden := kidnap.NewWarden(lifecycle)
	p, err := warden.Punish(ctx, kidnap.Member{GuildID: "g", UserID: "U"})
	req.NoError(err)
	req.NoError(platform.DeleteRoom(ctx, p.RoomID))

	_, err = warden.Unpunish(ctx, "g", "U")

	req.NoError(err)
	req.Zero(lifecycle.Punishments().Len())
}
