package tree

// NodeData is the committed state of a single node as seen by commit hooks.
type NodeData struct {
	Path  string
	Kind  string
	ID    string
	Props map[string]any
}

// View is a read-only image of the whole tree keyed by path, handed to
// hooks as the before and after states of a commit.
type View map[string]NodeData

// CommitInfo describes the commit being processed.
type CommitInfo struct {
	// ID is the store-assigned commit identifier.
	ID string

	// Marker is the marker the committer attached.
	Marker Marker
}

// Hook is invoked on every commit with the before and after tree states.
// A hook returning an error aborts the commit.
type Hook interface {
	ProcessCommit(before, after View, info *CommitInfo) error
}

// HookFunc adapts a function to the Hook interface.
type HookFunc func(before, after View, info *CommitInfo) error

func (f HookFunc) ProcessCommit(before, after View, info *CommitInfo) error {
	return f(before, after, info)
}

type emptyHook struct{}

func (emptyHook) ProcessCommit(before, after View, info *CommitInfo) error {
	return nil
}

// EmptyHook is a hook that does nothing.
var EmptyHook Hook = emptyHook{}

type compositeHook struct {
	hooks []Hook
}

// NewCompositeHook folds a sequence of hooks into a single one, feeding the
// output state of each hook invocation into the next. Empty input yields
// EmptyHook and a single hook is returned as is.
func NewCompositeHook(hooks ...Hook) Hook {
	switch len(hooks) {
	case 0:
		return EmptyHook
	case 1:
		return hooks[0]
	default:
		return compositeHook{hooks: hooks}
	}
}

func (c compositeHook) ProcessCommit(before, after View, info *CommitInfo) error {
	for _, hook := range c.hooks {
		if err := hook.ProcessCommit(before, after, info); err != nil {
			return err
		}
		before = after
	}
	return nil
}
