package rooms

import (
	"sort"
	"sync"
	"time"
)

// Punishment records where a member is confined and where they came from.
type Punishment struct {
	GuildID      string    `json:"guild_id"`
	UserID       string    `json:"user_id"`
	RoomID       string    `json:"room_id"`
	ReturnRoomID string    `json:"return_room_id,omitempty"`
	Since        time.Time `json:"since"`
}

type memberKey struct {
	guildID string
	userID  string
}

// PunishmentRegistry maps a guild member to their confinement room.
// A member appears at most once.
type PunishmentRegistry struct {
	mu      sync.RWMutex
	entries map[memberKey]Punishment
}

func NewPunishmentRegistry() *PunishmentRegistry {
	return &PunishmentRegistry{entries: make(map[memberKey]Punishment)}
}

// Punish inserts p unless the member is already punished.
func (r *PunishmentRegistry) Punish(p Punishment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := memberKey{p.GuildID, p.UserID}
	if _, ok := r.entries[key]; ok {
		return ErrAlreadyPunished
	}
	if p.Since.IsZero() {
		p.Since = time.Now()
	}
	r.entries[key] = p
	return nil
}

// Unpunish removes the member and returns the entry they had.
func (r *PunishmentRegistry) Unpunish(guildID, userID string) (Punishment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := memberKey{guildID, userID}
	p, ok := r.entries[key]
	if !ok {
		return Punishment{}, ErrNotPunished
	}
	delete(r.entries, key)
	return p, nil
}

func (r *PunishmentRegistry) Lookup(guildID, userID string) (Punishment, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.entries[memberKey{guildID, userID}]
	return p, ok
}

// ConfinementRoomFor returns the room the member must stay in.
func (r *PunishmentRegistry) ConfinementRoomFor(guildID, userID string) (string, bool) {
	p, ok := r.Lookup(guildID, userID)
	return p.RoomID, ok
}

// ForgetRoom drops every punishment confined to roomID and returns them.
func (r *PunishmentRegistry) ForgetRoom(roomID string) []Punishment {
	r.mu.Lock()
	defer r.mu.Unlock()

	var dropped []Punishment
	for key, p := range r.entries {
		if p.RoomID == roomID {
			dropped = append(dropped, p)
			delete(r.entries, key)
		}
	}
	return dropped
}

// List returns the guild's punishments, oldest first.
func (r *PunishmentRegistry) List(guildID string) []Punishment {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Punishment, 0, len(r.entries))
	for _, p := range r.entries {
		if p.GuildID == guildID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Since.Before(out[j].Since)
	})
	return out
}

func (r *PunishmentRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
