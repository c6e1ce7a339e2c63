package cmd

import "context"

// Unwrapper is implemented by middleware layers. Help output and the
// permission check use it to reach the command's metadata under the layers.
type Unwrapper interface {
	Unwrap() Command
}

// layer is one middleware around a command. Name and Description come from
// the command underneath so the registry key never changes.
type layer struct {
	next Command
	run  func(ctx context.Context, inv *Invocation) error
}

func (l *layer) Name() string        { return l.next.Name() }
func (l *layer) Description() string { return l.next.Description() }
func (l *layer) Unwrap() Command     { return l.next }

func (l *layer) Run(ctx context.Context, inv *Invocation) error {
	if l.run == nil {
		return l.next.Run(ctx, inv)
	}
	return l.run(ctx, inv)
}

// Wrap puts run in front of c. A nil run passes straight through to c.
func Wrap(c Command, run func(ctx context.Context, inv *Invocation) error) Command {
	return &layer{next: c, run: run}
}

// Root peels off every middleware layer.
func Root(c Command) Command {
	for {
		u, ok := c.(Unwrapper)
		if !ok {
			return c
		}
		c = u.Unwrap()
	}
}
