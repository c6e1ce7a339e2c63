// Package roomstest provides an in-memory rooms.Platform for tests.
package roomstest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"server-kidnap/internal/rooms"
)

var ErrNotConnected = errors.New("target user is not connected to voice")

// Move is one successful member move.
type Move struct {
	GuildID string
	UserID  string
	From    string
	To      string
}

// Platform keeps rooms and member locations in maps. Guilds are not separated.
type Platform struct {
	mu sync.Mutex

	Self      string
	CreateErr error
	MoveErr   error
	deleteErr error

	next    int
	rooms   map[string]rooms.RoomSpec
	members map[string]string
	muted   map[string]bool
	moves   []Move
	deletes []string

	// OnMove runs after every successful move, outside the lock.
	OnMove func(Move)
}

func New() *Platform {
	return &Platform{
		Self:    "bot",
		rooms:   make(map[string]rooms.RoomSpec),
		members: make(map[string]string),
		muted:   make(map[string]bool),
	}
}

// AddRoom makes a pre-existing room.
func (p *Platform) AddRoom(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rooms[id] = rooms.RoomSpec{Name: id}
}

// FailDeletes makes every DeleteRoom return err until called again with nil.
func (p *Platform) FailDeletes(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deleteErr = err
}

// Join puts a member straight into a room without recording a move.
func (p *Platform) Join(userID, roomID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.members[userID] = roomID
}

// Leave disconnects a member from voice.
func (p *Platform) Leave(userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.members, userID)
}

func (p *Platform) CreateVoiceRoom(_ context.Context, _ string, spec rooms.RoomSpec) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.CreateErr != nil {
		return "", p.CreateErr
	}
	p.next++
	id := fmt.Sprintf("room-%d", p.next)
	p.rooms[id] = spec
	return id, nil
}

func (p *Platform) DeleteRoom(_ context.Context, roomID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.deleteErr != nil {
		return p.deleteErr
	}
	if _, ok := p.rooms[roomID]; !ok {
		return fmt.Errorf("delete %s: %w", roomID, rooms.ErrRoomNotFound)
	}
	delete(p.rooms, roomID)
	p.deletes = append(p.deletes, roomID)
	for user, room := range p.members {
		if room == roomID {
			delete(p.members, user)
		}
	}
	return nil
}

func (p *Platform) MoveMember(_ context.Context, guildID, userID, roomID string) error {
	p.mu.Lock()
	if p.MoveErr != nil {
		p.mu.Unlock()
		return p.MoveErr
	}
	from, connected := p.members[userID]
	if !connected {
		p.mu.Unlock()
		return ErrNotConnected
	}
	if _, ok := p.rooms[roomID]; !ok {
		p.mu.Unlock()
		return fmt.Errorf("move to %s: %w", roomID, rooms.ErrRoomNotFound)
	}
	p.members[userID] = roomID
	mv := Move{GuildID: guildID, UserID: userID, From: from, To: roomID}
	p.moves = append(p.moves, mv)
	hook := p.OnMove
	p.mu.Unlock()

	if hook != nil {
		hook(mv)
	}
	return nil
}

func (p *Platform) MuteMember(_ context.Context, _, userID string, mute bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, connected := p.members[userID]; !connected {
		return ErrNotConnected
	}
	p.muted[userID] = mute
	return nil
}

func (p *Platform) Occupants(_, roomID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for user, room := range p.members {
		if room == roomID && user != p.Self {
			n++
		}
	}
	return n
}

func (p *Platform) SelfID() string { return p.Self }

// Location returns the member's room, or "" when not in voice.
func (p *Platform) Location(userID string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.members[userID]
}

func (p *Platform) Exists(roomID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.rooms[roomID]
	return ok
}

func (p *Platform) Spec(roomID string) (rooms.RoomSpec, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	spec, ok := p.rooms[roomID]
	return spec, ok
}

func (p *Platform) Muted(userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.muted[userID]
}

func (p *Platform) Moves() []Move {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Move(nil), p.moves...)
}

func (p *Platform) Deletes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.deletes...)
}
