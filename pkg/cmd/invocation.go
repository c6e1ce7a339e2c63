// Package cmd provides a transport-agnostic command core: a command is something
// with a name, description, and Run(ctx, invocation). How it is parsed and
// dispatched (chat prefix, HTTP) is defined by adapters that wrap this.
package cmd

import "context"

// Invocation carries what any command runner can pass: the name it was called
// by, its arguments and an opaque payload. Adapters set Data to their context
// (e.g. *discordgo.Session + event).
type Invocation struct {
	Name string
	Args []string
	Data interface{}
}

// Command is the universal contract: identity plus execution. Permissions and
// transport-specific details stay in adapters.
type Command interface {
	Name() string
	Description() string
	Run(ctx context.Context, inv *Invocation) error
}
