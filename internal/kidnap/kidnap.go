// Package kidnap orchestrates the two pranks: abduction into a throwaway room
// while a clip plays, and confinement into a locked room.
package kidnap

import (
	"context"
	"errors"
	"fmt"
	"log"

	"server-kidnap/internal/rooms"
	"server-kidnap/pkg/jobmgr"
)

var ErrAlreadyRunning = errors.New("target is already being kidnapped")

// Member identifies a guild member and where they currently sit.
type Member struct {
	GuildID  string
	UserID   string
	Name     string
	RoomID   string // current voice room, empty when not in voice
	ParentID string // category of RoomID
}

// Player is the playback surface an abduction needs.
type Player interface {
	Play(ctx context.Context, guildID, roomID string) <-chan struct{}
	Release(guildID, roomID string) bool
}

type Abductor struct {
	lifecycle *rooms.Lifecycle
	player    Player
	jobs      *jobmgr.Manager
}

func NewAbductor(lifecycle *rooms.Lifecycle, player Player, jobs *jobmgr.Manager) *Abductor {
	return &Abductor{lifecycle: lifecycle, player: player, jobs: jobs}
}

func jobName(guildID, userID string) string {
	return fmt.Sprintf("kidnap:%s:%s", guildID, userID)
}

// Start runs Kidnap in the background. A member that is already being
// abducted is rejected with ErrAlreadyRunning.
func (a *Abductor) Start(ctx context.Context, m Member) error {
	err := a.jobs.Start(ctx, jobName(m.GuildID, m.UserID), func(ctx context.Context) error {
		return a.Kidnap(ctx, m)
	})
	if errors.Is(err, jobmgr.ErrAlreadyRunning) {
		return fmt.Errorf("%w: %s", ErrAlreadyRunning, m.UserID)
	}
	return err
}

// Kidnap moves m into a fresh room, plays a clip there, brings m back to
// m.RoomID and removes the room. Only room creation failure aborts; every
// later step is best-effort and cleanup still runs when ctx ends.
func (a *Abductor) Kidnap(ctx context.Context, m Member) error {
	room, err := a.lifecycle.CreateTransientRoom(ctx, m.GuildID, m.ParentID)
	if err != nil {
		return fmt.Errorf("kidnap %s: %w", m.UserID, err)
	}
	log.Printf("[INFO] [Kidnap] Taking user %s from %s to %s", m.UserID, m.RoomID, room.ID)

	a.lifecycle.MoveMember(ctx, m.GuildID, m.UserID, room.ID)

	select {
	case <-a.player.Play(ctx, m.GuildID, room.ID):
	case <-ctx.Done():
		log.Printf("[WARN] [Kidnap] Abduction of %s interrupted: %v", m.UserID, ctx.Err())
	}

	cleanupCtx := context.WithoutCancel(ctx)
	if m.RoomID != "" {
		a.lifecycle.MoveMember(cleanupCtx, m.GuildID, m.UserID, m.RoomID)
	}
	a.player.Release(m.GuildID, room.ID)
	if !a.lifecycle.DeleteRoomIfEmpty(cleanupCtx, m.GuildID, room.ID) {
		log.Printf("[DEBUG] [Kidnap] Room %s left for the fallback cleanup", room.ID)
	}

	log.Printf("[DONE] [Kidnap] User %s returned", m.UserID)
	return nil
}

// Running lists the abductions in progress with their start times.
func (a *Abductor) Running() []jobmgr.Job {
	return a.jobs.Jobs()
}
