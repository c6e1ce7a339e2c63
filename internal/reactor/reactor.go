// Package reactor applies voice membership changes to the room registries,
// one event at a time.
package reactor

import (
	"context"
	"log"

	"server-kidnap/internal/rooms"
)

const DefaultQueueSize = 256

// Playback is the part of the playback coordinator the reactor drives.
type Playback interface {
	ConsiderDisconnect(guildID, roomID string) bool
}

type Reactor struct {
	lifecycle *rooms.Lifecycle
	playback  Playback
	events    chan Event
}

func New(lifecycle *rooms.Lifecycle, playback Playback, queueSize int) *Reactor {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Reactor{
		lifecycle: lifecycle,
		playback:  playback,
		events:    make(chan Event, queueSize),
	}
}

// Submit enqueues ev. It blocks while the queue is full and gives up when ctx ends.
func (r *Reactor) Submit(ctx context.Context, ev Event) error {
	select {
	case r.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run handles queued events in order until ctx is done.
func (r *Reactor) Run(ctx context.Context) {
	log.Println("[INFO] [Reactor] Started")
	defer log.Println("[INFO] [Reactor] Stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-r.events:
			r.Handle(ctx, ev)
		}
	}
}

// Handle applies a single event synchronously.
func (r *Reactor) Handle(ctx context.Context, ev Event) {
	switch e := ev.(type) {
	case MemberMoved:
		r.memberMoved(ctx, e)
	case RoomDeleted:
		r.roomDeleted(e)
	default:
		log.Printf("[WARN] [Reactor] Unhandled event in guild %s: %v", ev.guild(), ev)
	}
}

func (r *Reactor) memberMoved(ctx context.Context, e MemberMoved) {
	if e.Before == e.After {
		// mute, deafen or stream toggles
		return
	}

	r.enforceConfinement(ctx, e)

	transient := r.lifecycle.Transient()
	if e.After != "" && transient.MarkOccupied(e.After) {
		log.Printf("[DEBUG] [Reactor] Transient room %s occupied", e.After)
	}
	if e.Before != "" && transient.Has(e.Before) {
		transient.MarkVacated(e.Before)
		if r.lifecycle.DeleteRoomIfEmpty(ctx, e.GuildID, e.Before) {
			log.Printf("[INFO] [Reactor] Removed empty transient room %s", e.Before)
		}
	}

	// Occupants leaves the bot out, so zero means the bot would be alone
	if e.Before != "" && r.lifecycle.Occupants(e.GuildID, e.Before) == 0 {
		if r.playback.ConsiderDisconnect(e.GuildID, e.Before) {
			log.Printf("[INFO] [Reactor] Left room %s, no listeners left", e.Before)
		}
	}
}

// enforceConfinement moves a punished member straight back into their room.
// Leaving voice entirely is allowed.
func (r *Reactor) enforceConfinement(ctx context.Context, e MemberMoved) {
	roomID, ok := r.lifecycle.Punishments().ConfinementRoomFor(e.GuildID, e.UserID)
	if !ok || e.After == "" || e.After == roomID {
		return
	}

	log.Printf("[INFO] [Reactor] Punished user %s escaped to %s, moving back to %s", e.UserID, e.After, roomID)
	r.lifecycle.MoveMember(ctx, e.GuildID, e.UserID, roomID)
}

func (r *Reactor) roomDeleted(e RoomDeleted) {
	for _, p := range r.lifecycle.ForgetRoom(e.RoomID) {
		log.Printf("[INFO] [Reactor] Confinement room %s was deleted, user %s is no longer punished", e.RoomID, p.UserID)
	}
}
