package rooms

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"server-kidnap/pkg/util"

	"github.com/bwmarrin/discordgo"
)

const (
	DefaultCleanupDelay = 30 * time.Second

	transientRoomName = "kidnapping-room"
	shutdownWorkers   = 4
)

// Lifecycle creates, populates and tears down rooms, and owns the two registries.
type Lifecycle struct {
	platform     Platform
	punishments  *PunishmentRegistry
	transient    *TransientRegistry
	cleanupDelay time.Duration
}

type Option func(*Lifecycle)

// WithCleanupDelay overrides how long a transient room may live before the fallback check.
func WithCleanupDelay(d time.Duration) Option {
	return func(l *Lifecycle) {
		if d > 0 {
			l.cleanupDelay = d
		}
	}
}

func NewLifecycle(platform Platform, opts ...Option) *Lifecycle {
	l := &Lifecycle{
		platform:     platform,
		punishments:  NewPunishmentRegistry(),
		transient:    NewTransientRegistry(),
		cleanupDelay: DefaultCleanupDelay,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Lifecycle) Punishments() *PunishmentRegistry { return l.punishments }
func (l *Lifecycle) Transient() *TransientRegistry    { return l.transient }

// Occupants counts the members currently in roomID.
func (l *Lifecycle) Occupants(guildID, roomID string) int {
	return l.platform.Occupants(guildID, roomID)
}

// CreateConfinementRoom creates a locked room the target may enter but not speak in.
func (l *Lifecycle) CreateConfinementRoom(ctx context.Context, guildID, targetID, targetName, parentID string) (Room, error) {
	spec := RoomSpec{
		Name:       confinementRoomName(targetName),
		ParentID:   parentID,
		Overwrites: confinementOverwrites(guildID, targetID, l.platform.SelfID()),
	}

	id, err := l.platform.CreateVoiceRoom(ctx, guildID, spec)
	if err != nil {
		return Room{}, fmt.Errorf("%w: %v", ErrRoomCreationFailed, err)
	}

	log.Printf("[INFO] [Rooms] Created confinement room %s for %s in guild %s", id, targetID, guildID)
	return Room{ID: id, GuildID: guildID, Kind: KindConfinement}, nil
}

// CreateTransientRoom creates an unrestricted room, registers it and arms the fallback cleanup.
func (l *Lifecycle) CreateTransientRoom(ctx context.Context, guildID, parentID string) (Room, error) {
	id, err := l.platform.CreateVoiceRoom(ctx, guildID, RoomSpec{Name: transientRoomName, ParentID: parentID})
	if err != nil {
		return Room{}, fmt.Errorf("%w: %v", ErrRoomCreationFailed, err)
	}

	room := Room{ID: id, GuildID: guildID, Kind: KindAbduction}
	l.track(room)

	log.Printf("[INFO] [Rooms] Created transient room %s in guild %s (cleanup in %s)", id, guildID, l.cleanupDelay)
	return room, nil
}

// track registers room and arms its fallback cleanup.
func (l *Lifecycle) track(room Room) {
	l.transient.Add(room)
	l.transient.Schedule(room.ID, l.cleanupDelay, func() {
		if l.DeleteRoomIfEmpty(context.Background(), room.GuildID, room.ID) {
			log.Printf("[INFO] [Rooms] Fallback cleanup removed transient room %s", room.ID)
		}
	})
}

// MoveMember moves userID into roomID. It never fails the caller; false means the move did not happen.
func (l *Lifecycle) MoveMember(ctx context.Context, guildID, userID, roomID string) bool {
	if err := l.platform.MoveMember(ctx, guildID, userID, roomID); err != nil {
		log.Printf("[WARN] [Rooms] %v: user %s to room %s: %v", ErrMoveFailed, userID, roomID, err)
		return false
	}
	l.transient.MarkOccupied(roomID)
	return true
}

// SetMute applies or lifts a server mute. Best-effort like MoveMember.
func (l *Lifecycle) SetMute(ctx context.Context, guildID, userID string, mute bool) bool {
	if err := l.platform.MuteMember(ctx, guildID, userID, mute); err != nil {
		log.Printf("[WARN] [Rooms] Failed to set mute=%v for user %s: %v", mute, userID, err)
		return false
	}
	return true
}

// DeleteRoomIfEmpty deletes a registered transient room when nobody is in it.
// Any number of concurrent callers may race here; at most one performs the deletion
// and reports true. Rooms that are occupied, unregistered or already gone are left alone.
// A failed platform delete puts the room back with a fresh fallback timer.
func (l *Lifecycle) DeleteRoomIfEmpty(ctx context.Context, guildID, roomID string) bool {
	if !l.transient.Has(roomID) {
		return false
	}
	if n := l.platform.Occupants(guildID, roomID); n > 0 {
		log.Printf("[DEBUG] [Rooms] Transient room %s still has %d occupant(s)", roomID, n)
		return false
	}

	room, ok := l.transient.Claim(roomID)
	if !ok {
		return false
	}

	if err := l.delete(ctx, room); err != nil {
		log.Printf("[ERR] [Rooms] Failed to delete transient room %s, retrying in %s: %v", roomID, l.cleanupDelay, err)
		l.track(room)
		l.transient.MarkVacated(roomID)
		return false
	}
	return true
}

// DeleteRoom deletes a room unconditionally. A room that is already gone is not an error.
func (l *Lifecycle) DeleteRoom(ctx context.Context, room Room) error {
	if room.Kind == KindAbduction {
		if _, ok := l.transient.Claim(room.ID); !ok {
			return nil
		}
	}
	return l.delete(ctx, room)
}

func (l *Lifecycle) delete(ctx context.Context, room Room) error {
	err := l.platform.DeleteRoom(ctx, room.ID)
	if errors.Is(err, ErrRoomNotFound) {
		log.Printf("[DEBUG] [Rooms] Room %s was already deleted", room.ID)
		return nil
	}
	if err != nil {
		return err
	}
	log.Printf("[INFO] [Rooms] Deleted %s room %s", room.Kind, room.ID)
	return nil
}

// ForgetRoom is called when a room disappeared from the platform by other means.
func (l *Lifecycle) ForgetRoom(roomID string) []Punishment {
	l.transient.Claim(roomID)
	return l.punishments.ForgetRoom(roomID)
}

// Shutdown deletes every transient room that is still registered.
func (l *Lifecycle) Shutdown(ctx context.Context) error {
	pending := l.transient.Rooms()
	if len(pending) == 0 {
		return nil
	}

	log.Printf("[INFO] [Rooms] Removing %d transient room(s) before exit", len(pending))
	return util.Parallel(ctx, pending, shutdownWorkers, func(ctx context.Context, room Room) error {
		return l.DeleteRoom(ctx, room)
	})
}

func confinementRoomName(targetName string) string {
	name := strings.ToLower(strings.TrimSpace(targetName))
	name = strings.Join(strings.Fields(name), "-")
	if name == "" {
		return "punishment-room"
	}
	return "punishment-" + name
}

// confinementOverwrites denies everyone entry and speech, lets the target in muted,
// and keeps full control for the bot.
func confinementOverwrites(guildID, targetID, botID string) []*discordgo.PermissionOverwrite {
	overwrites := []*discordgo.PermissionOverwrite{
		{
			ID:   guildID, // @everyone
			Type: discordgo.PermissionOverwriteTypeRole,
			Deny: discordgo.PermissionVoiceConnect | discordgo.PermissionVoiceSpeak,
		},
		{
			ID:    targetID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionVoiceConnect,
			Deny:  discordgo.PermissionVoiceSpeak,
		},
	}
	if botID != "" {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:   botID,
			Type: discordgo.PermissionOverwriteTypeMember,
			Allow: discordgo.PermissionViewChannel |
				discordgo.PermissionVoiceConnect |
				discordgo.PermissionVoiceSpeak |
				discordgo.PermissionVoiceMoveMembers |
				discordgo.PermissionVoiceMuteMembers |
				discordgo.PermissionManageChannels,
		})
	}
	return overwrites
}
