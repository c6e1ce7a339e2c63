package reactor

import "fmt"

// Event is a membership change the reactor knows how to handle.
type Event interface {
	fmt.Stringer
	guild() string
}

// MemberMoved reports a voice state change. Before or After is empty when
// the user joined or left voice.
type MemberMoved struct {
	GuildID string
	UserID  string
	Before  string
	After   string
}

func (e MemberMoved) guild() string { return e.GuildID }

func (e MemberMoved) String() string {
	return fmt.Sprintf("member %s moved %q -> %q in guild %s", e.UserID, e.Before, e.After, e.GuildID)
}

// RoomDeleted reports that a room disappeared from the guild.
type RoomDeleted struct {
	GuildID string
	RoomID  string
}

func (e RoomDeleted) guild() string { return e.GuildID }

func (e RoomDeleted) String() string {
	return fmt.Sprintf("room %s deleted in guild %s", e.RoomID, e.GuildID)
}
