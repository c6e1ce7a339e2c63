// Package rooms tracks punished members and throwaway voice rooms and drives
// their creation and teardown on the chat platform.
package rooms

import (
	"context"
	"errors"

	"github.com/bwmarrin/discordgo"
)

var (
	ErrAlreadyPunished    = errors.New("user is already punished")
	ErrNotPunished        = errors.New("user is not punished")
	ErrRoomCreationFailed = errors.New("room creation failed")
	ErrMoveFailed         = errors.New("move failed")
	ErrRoomNotFound       = errors.New("room not found")
)

// Kind classifies a room by the reason it exists.
type Kind string

const (
	KindNone        Kind = "none"
	KindConfinement Kind = "confinement"
	KindAbduction   Kind = "abduction"
)

type Room struct {
	ID      string
	GuildID string
	Kind    Kind
}

// RoomSpec describes a voice room to create.
type RoomSpec struct {
	Name       string
	ParentID   string
	Overwrites []*discordgo.PermissionOverwrite
}

// Platform is the slice of the chat platform the room lifecycle needs.
// DeleteRoom must return an error wrapping ErrRoomNotFound when the room is already gone.
// Occupants counts members in a voice room, excluding the bot itself.
type Platform interface {
	CreateVoiceRoom(ctx context.Context, guildID string, spec RoomSpec) (string, error)
	DeleteRoom(ctx context.Context, roomID string) error
	MoveMember(ctx context.Context, guildID, userID, roomID string) error
	MuteMember(ctx context.Context, guildID, userID string, mute bool) error
	Occupants(guildID, roomID string) int
	SelfID() string
}
