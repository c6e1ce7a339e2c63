package rooms_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"server-kidnap/internal/rooms"

	"github.com/stretchr/testify/require"
)

func TestTransientRegistry_StateMachine(t *testing.T) {
	req := require.New(t)
	registry := rooms.NewTransientRegistry()

	registry.Add(rooms.Room{ID: "r", GuildID: "g"})
	state, ok := registry.State("r")
	req.True(ok)
	req.Equal(rooms.StateCreated, state)

	req.True(registry.MarkOccupied("r"))
	state, _ = registry.State("r")
	req.Equal(rooms.StateOccupied, state)

	// vacated may be entered repeatedly
	req.True(registry.MarkVacated("r"))
	req.True(registry.MarkOccupied("r"))
	req.True(registry.MarkVacated("r"))
	state, _ = registry.State("r")
	req.Equal(rooms.StateVacated, state)

	room, ok := registry.Claim("r")
	req.True(ok)
	req.Equal(rooms.KindAbduction, room.Kind)

	// deleted is terminal
	_, ok = registry.State("r")
	req.False(ok)
	req.False(registry.MarkOccupied("r"))
	_, ok = registry.Claim("r")
	req.False(ok)
}

func TestTransientRegistry_Claim_ExactlyOnce(t *testing.T) {
	req := require.New(t)
	registry := rooms.NewTransientRegistry()
	registry.Add(rooms.Room{ID: "r", GuildID: "g"})

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := registry.Claim("r"); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	req.Equal(int32(1), wins.Load())
	req.Equal(0, registry.Len())
}

func TestTransientRegistry_Claim_StopsTimer(t *testing.T) {
	req := require.New(t)
	registry := rooms.NewTransientRegistry()
	registry.Add(rooms.Room{ID: "r", GuildID: "g"})

	var fired atomic.Bool
	req.True(registry.Schedule("r", 30*time.Millisecond, func() { fired.Store(true) }))
	_, ok := registry.Claim("r")
	req.True(ok)

	time.Sleep(60 * time.Millisecond)
	req.False(fired.Load())
	req.False(registry.Schedule("r", time.Millisecond, func() {}))
}

func TestTransientRegistry_Rooms_OldestFirst(t *testing.T) {
	req := require.New(t)
	registry := rooms.NewTransientRegistry()
	registry.Add(rooms.Room{ID: "a"})
	time.Sleep(time.Millisecond)
	registry.Add(rooms.Room{ID: "b"})

	list := registry.Rooms()

	req.Len(list, 2)
	req.Equal("a", list[0].ID)
	req.Equal("b", list[1].ID)
}

func TestState_String(t *testing.T) {
	require.Equal(t, "vacated", rooms.StateVacated.String())
	require.Equal(t, "deleted", rooms.StateDeleted.String())
}
