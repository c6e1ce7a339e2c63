package kidnap

import (
	"context"
	"fmt"
	"log"
	"time"

	"server-kidnap/internal/rooms"
)

// Warden locks members into confinement rooms and lets them out again.
type Warden struct {
	lifecycle *rooms.Lifecycle
}

func NewWarden(lifecycle *rooms.Lifecycle) *Warden {
	return &Warden{lifecycle: lifecycle}
}

// Punish creates a confinement room for m, records it, mutes m and moves m in.
// Nothing is recorded when the room cannot be created.
func (w *Warden) Punish(ctx context.Context, m Member) (rooms.Punishment, error) {
	registry := w.lifecycle.Punishments()
	if _, ok := registry.Lookup(m.GuildID, m.UserID); ok {
		return rooms.Punishment{}, fmt.Errorf("%w: %s", rooms.ErrAlreadyPunished, m.UserID)
	}

	room, err := w.lifecycle.CreateConfinementRoom(ctx, m.GuildID, m.UserID, m.Name, m.ParentID)
	if err != nil {
		return rooms.Punishment{}, err
	}

	p := rooms.Punishment{
		GuildID:      m.GuildID,
		UserID:       m.UserID,
		RoomID:       room.ID,
		ReturnRoomID: m.RoomID,
		Since:        time.Now(),
	}
	if err := registry.Punish(p); err != nil {
		// lost a race with a concurrent punish of the same member
		if delErr := w.lifecycle.DeleteRoom(context.WithoutCancel(ctx), room); delErr != nil {
			log.Printf("[ERR] [Warden] Failed to remove unused room %s: %v", room.ID, delErr)
		}
		return rooms.Punishment{}, err
	}

	if m.RoomID != "" {
		w.lifecycle.SetMute(ctx, m.GuildID, m.UserID, true)
		w.lifecycle.MoveMember(ctx, m.GuildID, m.UserID, room.ID)
	}

	log.Printf("[INFO] [Warden] User %s confined to %s in guild %s", m.UserID, room.ID, m.GuildID)
	return p, nil
}

// Unpunish forgets the punishment, lifts the mute, moves the member back where
// they were taken from and deletes the confinement room.
func (w *Warden) Unpunish(ctx context.Context, guildID, userID string) (rooms.Punishment, error) {
	p, err := w.lifecycle.Punishments().Unpunish(guildID, userID)
	if err != nil {
		return rooms.Punishment{}, err
	}

	w.lifecycle.SetMute(ctx, guildID, userID, false)
	if p.ReturnRoomID != "" {
		w.lifecycle.MoveMember(ctx, guildID, userID, p.ReturnRoomID)
	}

	room := rooms.Room{ID: p.RoomID, GuildID: guildID, Kind: rooms.KindConfinement}
	if err := w.lifecycle.DeleteRoom(ctx, room); err != nil {
		log.Printf("[ERR] [Warden] Failed to delete confinement room %s: %v", p.RoomID, err)
	}

	log.Printf("[INFO] [Warden] User %s released after %s", userID, time.Since(p.Since).Round(time.Second))
	return p, nil
}
