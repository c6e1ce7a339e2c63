package command

import (
	"context"
	"strings"

	"server-kidnap/pkg/cmd"
)

// ParseCommand splits "!kidnap @who" into ("kidnap", ["@who"]). ok is false
// when content does not start with prefix or names nothing.
func ParseCommand(content, prefix string) (name string, args []string, ok bool) {
	fields := strings.Fields(content)
	if len(fields) == 0 || prefix == "" {
		return "", nil, false
	}

	head := strings.ToLower(fields[0])
	if !strings.HasPrefix(head, prefix) {
		return "", nil, false
	}
	name = strings.TrimPrefix(head, prefix)
	if name == "" {
		return "", nil, false
	}
	return name, fields[1:], true
}

// Router maps prefixed chat messages onto registered commands.
type Router struct {
	registry *cmd.Registry
	prefix   string
}

func NewRouter(registry *cmd.Registry, prefix string) *Router {
	return &Router{registry: registry, prefix: prefix}
}

func (r *Router) Prefix() string { return r.prefix }

// Dispatch runs the command named by mc.Event.Content. Unknown commands are
// ignored and reported as not handled.
func (r *Router) Dispatch(ctx context.Context, mc *MessageContext) (bool, error) {
	name, args, ok := ParseCommand(mc.Event.Content, r.prefix)
	if !ok {
		return false, nil
	}
	c := r.registry.Get(name)
	if c == nil {
		return false, nil
	}

	mc.Args = args
	return true, c.Run(ctx, &cmd.Invocation{Name: name, Args: args, Data: mc})
}
