package rooms_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"server-kidnap/internal/rooms"
	"server-kidnap/internal/rooms/roomstest"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/require"
)

func TestLifecycle_CreateConfinementRoom_Overwrites(t *testing.T) {
	req := require.New(t)
	platform := roomstest.New()
	lc := rooms.NewLifecycle(platform)

	room, err := lc.CreateConfinementRoom(context.Background(), "guild", "target", "Bad Kid", "category")

	req.NoError(err)
	req.Equal(rooms.KindConfinement, room.Kind)
	spec, ok := platform.Spec(room.ID)
	req.True(ok)
	req.Equal("punishment-bad-kid", spec.Name)
	req.Equal("category", spec.ParentID)
	req.Len(spec.Overwrites, 3)

	everyone := spec.Overwrites[0]
	req.Equal("guild", everyone.ID)
	req.Equal(discordgo.PermissionOverwriteTypeRole, everyone.Type)
	req.NotZero(everyone.Deny & discordgo.PermissionVoiceConnect)
	req.NotZero(everyone.Deny & discordgo.PermissionVoiceSpeak)

	target := spec.Overwrites[1]
	req.Equal("target", target.ID)
	req.NotZero(target.Allow & discordgo.PermissionVoiceConnect)
	req.NotZero(target.Deny & discordgo.PermissionVoiceSpeak)
	req.Zero(target.Allow & discordgo.PermissionVoiceSpeak)

	bot := spec.Overwrites[2]
	req.Equal("bot", bot.ID)
	req.NotZero(bot.Allow & discordgo.PermissionVoiceMoveMembers)
	req.NotZero(bot.Allow & discordgo.PermissionManageChannels)
}

func TestLifecycle_CreateConfinementRoom_Failure(t *testing.T) {
	req := require.New(t)
	platform := roomstest.New()
	platform.CreateErr = errors.New("missing permissions")
	lc := rooms.NewLifecycle(platform)

	_, err := lc.CreateConfinementRoom(context.Background(), "guild", "target", "kid", "")

	req.ErrorIs(err, rooms.ErrRoomCreationFailed)
	req.Equal(0, lc.Punishments().Len())
}

func TestLifecycle_CreateTransientRoom_Registers(t *testing.T) {
	req := require.New(t)
	platform := roomstest.New()
	lc := rooms.NewLifecycle(platform)

	room, err := lc.CreateTransientRoom(context.Background(), "guild", "")

	req.NoError(err)
	req.Equal(rooms.KindAbduction, room.Kind)
	state, ok := lc.Transient().State(room.ID)
	req.True(ok)
	req.Equal(rooms.StateCreated, state)
	spec, _ := platform.Spec(room.ID)
	req.Empty(spec.Overwrites)
}

func TestLifecycle_FallbackTimer_DeletesAbandonedRoom(t *testing.T) {
	req := require.New(t)
	platform := roomstest.New()
	lc := rooms.NewLifecycle(platform, rooms.WithCleanupDelay(20*time.Millisecond))

	// Given a transient room whose occupant disconnected entirely
	room, err := lc.CreateTransientRoom(context.Background(), "guild", "")
	req.NoError(err)
	platform.Join("u", room.ID)
	platform.Leave("u")

	// Then the timer removes it without any membership event
	req.Eventually(func() bool { return !platform.Exists(room.ID) }, time.Second, 5*time.Millisecond)
	req.False(lc.Transient().Has(room.ID))
}

func TestLifecycle_FallbackTimer_LeavesOccupiedRoom(t *testing.T) {
	req := require.New(t)
	platform := roomstest.New()
	lc := rooms.NewLifecycle(platform, rooms.WithCleanupDelay(10*time.Millisecond))

	room, err := lc.CreateTransientRoom(context.Background(), "guild", "")
	req.NoError(err)
	platform.Join("u", room.ID)

	time.Sleep(50 * time.Millisecond)
	req.True(platform.Exists(room.ID))
	req.True(lc.Transient().Has(room.ID))
}

func TestLifecycle_MoveMember(t *testing.T) {
	req := require.New(t)
	platform := roomstest.New()
	lc := rooms.NewLifecycle(platform)
	room, _ := lc.CreateTransientRoom(context.Background(), "guild", "")

	// not in voice: false, no panic
	req.False(lc.MoveMember(context.Background(), "guild", "u", room.ID))

	platform.AddRoom("lobby")
	platform.Join("u", "lobby")
	req.True(lc.MoveMember(context.Background(), "guild", "u", room.ID))
	req.Equal(room.ID, platform.Location("u"))
	state, _ := lc.Transient().State(room.ID)
	req.Equal(rooms.StateOccupied, state)
}

func TestLifecycle_DeleteRoomIfEmpty_Twice(t *testing.T) {
	req := require.New(t)
	platform := roomstest.New()
	lc := rooms.NewLifecycle(platform)
	room, _ := lc.CreateTransientRoom(context.Background(), "guild", "")

	// When the timer and the event path both fire
	first := lc.DeleteRoomIfEmpty(context.Background(), "guild", room.ID)
	second := lc.DeleteRoomIfEmpty(context.Background(), "guild", room.ID)

	// Then exactly one deletion happened and the second call is a no-op
	req.True(first)
	req.False(second)
	req.Equal([]string{room.ID}, platform.Deletes())
	req.Equal(0, lc.Transient().Len())
}

func TestLifecycle_DeleteRoomIfEmpty_PlatformFailure_KeepsSafetyNet(t *testing.T) {
	req := require.New(t)
	platform := roomstest.New()
	lc := rooms.NewLifecycle(platform, rooms.WithCleanupDelay(20*time.Millisecond))
	room, err := lc.CreateTransientRoom(context.Background(), "guild", "")
	req.NoError(err)

	// Given a platform that refuses the delete
	platform.FailDeletes(errors.New("50013: missing permissions"))

	// When cleanup runs
	deleted := lc.DeleteRoomIfEmpty(context.Background(), "guild", room.ID)

	// Then the room is reported as not deleted and stays registered
	req.False(deleted)
	req.True(lc.Transient().Has(room.ID))
	req.True(platform.Exists(room.ID))

	// And the re-armed timer removes it once the platform recovers
	platform.FailDeletes(nil)
	req.Eventually(func() bool { return !platform.Exists(room.ID) }, time.Second, 5*time.Millisecond)
	req.False(lc.Transient().Has(room.ID))
}

func TestLifecycle_DeleteRoomIfEmpty_Concurrent(t *testing.T) {
	req := require.New(t)
	platform := roomstest.New()
	lc := rooms.NewLifecycle(platform)
	room, _ := lc.CreateTransientRoom(context.Background(), "guild", "")

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if lc.DeleteRoomIfEmpty(context.Background(), "guild", room.ID) {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	req.Equal(int32(1), wins.Load())
	req.Len(platform.Deletes(), 1)
}

func TestLifecycle_DeleteRoomIfEmpty_Occupied(t *testing.T) {
	req := require.New(t)
	platform := roomstest.New()
	lc := rooms.NewLifecycle(platform)
	room, _ := lc.CreateTransientRoom(context.Background(), "guild", "")
	platform.Join("u", room.ID)

	req.False(lc.DeleteRoomIfEmpty(context.Background(), "guild", room.ID))
	req.True(platform.Exists(room.ID))
	req.True(lc.Transient().Has(room.ID))
}

func TestLifecycle_DeleteRoomIfEmpty_BotDoesNotCount(t *testing.T) {
	req := require.New(t)
	platform := roomstest.New()
	lc := rooms.NewLifecycle(platform)
	room, _ := lc.CreateTransientRoom(context.Background(), "guild", "")
	platform.Join(platform.Self, room.ID)

	req.True(lc.DeleteRoomIfEmpty(context.Background(), "guild", room.ID))
}

func TestLifecycle_DeleteRoomIfEmpty_Unregistered(t *testing.T) {
	req := require.New(t)
	platform := roomstest.New()
	platform.AddRoom("lobby")
	lc := rooms.NewLifecycle(platform)

	req.False(lc.DeleteRoomIfEmpty(context.Background(), "guild", "lobby"))
	req.True(platform.Exists("lobby"))
}

func TestLifecycle_DeleteRoomIfEmpty_AlreadyGoneOnPlatform(t *testing.T) {
	req := require.New(t)
	platform := roomstest.New()
	lc := rooms.NewLifecycle(platform)
	room, _ := lc.CreateTransientRoom(context.Background(), "guild", "")

	// someone deleted it by hand
	req.NoError(platform.DeleteRoom(context.Background(), room.ID))

	req.True(lc.DeleteRoomIfEmpty(context.Background(), "guild", room.ID))
	req.False(lc.Transient().Has(room.ID))
}

func TestLifecycle_DeleteRoom_Tolerant(t *testing.T) {
	req := require.New(t)
	platform := roomstest.New()
	lc := rooms.NewLifecycle(platform)
	room, _ := lc.CreateConfinementRoom(context.Background(), "guild", "u", "u", "")

	req.NoError(lc.DeleteRoom(context.Background(), room))
	req.NoError(lc.DeleteRoom(context.Background(), room))
	req.Len(platform.Deletes(), 1)
}

func TestLifecycle_ForgetRoom(t *testing.T) {
	req := require.New(t)
	platform := roomstest.New()
	lc := rooms.NewLifecycle(platform)
	req.NoError(lc.Punishments().Punish(rooms.Punishment{GuildID: "guild", UserID: "u", RoomID: "p"}))

	dropped := lc.ForgetRoom("p")

	req.Len(dropped, 1)
	req.Equal(0, lc.Punishments().Len())
}

func TestLifecycle_Shutdown(t *testing.T) {
	req := require.New(t)
	platform := roomstest.New()
	lc := rooms.NewLifecycle(platform)
	for i := 0; i < 5; i++ {
		_, err := lc.CreateTransientRoom(context.Background(), "guild", "")
		req.NoError(err)
	}

	req.NoError(lc.Shutdown(context.Background()))

	req.Equal(0, lc.Transient().Len())
	req.Len(platform.Deletes(), 5)
}
