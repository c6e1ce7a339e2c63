package rooms

import (
	"sort"
	"sync"
	"time"
)

// State is the lifecycle position of a transient room.
type State int

const (
	StateCreated State = iota
	StateOccupied
	StateVacated
	StateDeleted
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateOccupied:
		return "occupied"
	case StateVacated:
		return "vacated"
	case StateDeleted:
		return "deleted"
	}
	return "unknown"
}

type transientEntry struct {
	room    Room
	state   State
	created time.Time
	timer   *time.Timer
}

// TransientRegistry holds the abduction rooms that still have to be deleted.
// An entry leaves the registry exactly once, through Claim.
type TransientRegistry struct {
	mu      sync.Mutex
	entries map[string]*transientEntry
}

func NewTransientRegistry() *TransientRegistry {
	return &TransientRegistry{entries: make(map[string]*transientEntry)}
}

// Add registers room in the created state.
func (r *TransientRegistry) Add(room Room) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room.Kind = KindAbduction
	r.entries[room.ID] = &transientEntry{room: room, state: StateCreated, created: time.Now()}
}

// Schedule arms fn to run after d, unless the room has already left the registry.
func (r *TransientRegistry) Schedule(roomID string, d time.Duration, fn func()) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[roomID]
	if !ok {
		return false
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(d, fn)
	return true
}

// MarkOccupied records that someone entered the room.
func (r *TransientRegistry) MarkOccupied(roomID string) bool {
	return r.transition(roomID, StateOccupied)
}

// MarkVacated records that someone left the room. It may happen many times.
func (r *TransientRegistry) MarkVacated(roomID string) bool {
	return r.transition(roomID, StateVacated)
}

func (r *TransientRegistry) transition(roomID string, to State) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[roomID]
	if !ok || e.state == StateDeleted {
		return false
	}
	e.state = to
	return true
}

// Claim moves the room to the terminal deleted state and removes it.
// Only the first caller gets ok == true; the winner owns the platform deletion.
func (r *TransientRegistry) Claim(roomID string) (Room, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[roomID]
	if !ok || e.state == StateDeleted {
		return Room{}, false
	}
	e.state = StateDeleted
	if e.timer != nil {
		e.timer.Stop()
	}
	delete(r.entries, roomID)
	return e.room, true
}

func (r *TransientRegistry) Has(roomID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[roomID]
	return ok
}

// State reports the room's state; ok is false once it has been claimed or was never added.
func (r *TransientRegistry) State(roomID string) (State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[roomID]
	if !ok {
		return StateDeleted, false
	}
	return e.state, true
}

// Rooms returns the registered rooms, oldest first.
func (r *TransientRegistry) Rooms() []Room {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := make([]*transientEntry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].created.Before(entries[j].created)
	})

	out := make([]Room, len(entries))
	for i, e := range entries {
		out[i] = e.room
	}
	return out
}

func (r *TransientRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
