package tree

import "errors"

var (
	// ErrNodeExists is returned when adding a child under a name that is
	// already taken.
	ErrNodeExists = errors.New("node already exists")

	// ErrNoSuchNode is returned when an operation targets a node that does
	// not exist in the current snapshot.
	ErrNoSuchNode = errors.New("node does not exist")

	// ErrStorageFailure is returned for backend faults that are neither a
	// clean commit nor a conflict.
	ErrStorageFailure = errors.New("storage failure")
)

// Outcome is the result of a commit attempt. Conflict handling is ordinary
// control flow for callers, so the outcome is an explicit value rather than
// a sentinel error.
type Outcome int

const (
	// Committed means the snapshot's staged changes were applied atomically.
	Committed Outcome = iota

	// Conflict means the snapshot was stale relative to concurrently
	// committed state. The caller decides whether to refresh and retry.
	Conflict

	// Fatal means a backend fault; retrying without intervention is
	// pointless.
	Fatal
)

func (o Outcome) String() string {
	switch o {
	case Committed:
		return "committed"
	case Conflict:
		return "conflict"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Marker carries commit metadata handed to the hook pipeline. Maintenance
// commits are tagged so hooks can cheaply skip non-essential processing.
type Marker map[string]string

const (
	// MarkerInternal marks a commit as internal maintenance.
	MarkerInternal = "internal"

	// MarkerCommitID carries the store-assigned commit identifier.
	MarkerCommitID = "commit_id"
)

// InternalMarker returns a marker tagging a commit as internal maintenance.
func InternalMarker() Marker {
	return Marker{MarkerInternal: "true"}
}

// IsInternal reports whether the marker tags an internal maintenance commit.
func (m Marker) IsInternal() bool {
	return m[MarkerInternal] == "true"
}

// Node is a handle onto a single node within a snapshot. Handles stay valid
// across mutations of the snapshot; Exists reports whether the node is
// present in the snapshot's current state.
type Node interface {
	Exists() bool
	Path() string
	Name() string
	Kind() string

	// ID returns the node's stable identifier, which is distinct from its
	// path and survives moves.
	ID() string

	Parent() Node
	Child(name string) Node

	// AddChild stages a new child node of the given kind and assigns it a
	// fresh stable identifier.
	AddChild(name, kind string) (Node, error)

	// Remove stages removal of this node and its subtree. It returns false
	// if the node does not exist.
	Remove() bool

	SetProperty(name string, value any)
	Property(name string) (any, bool)
	Properties() map[string]any

	// Children returns handles for all current child nodes.
	Children() []Node

	// ChildrenCount counts children up to limit and then stops, bounding
	// the cost on large containers.
	ChildrenCount(limit int) int
}

// Root is a private snapshot of the store. Reads and staged writes act on
// the snapshot; Commit attempts to apply the staged changes atomically.
// A Root is not safe for concurrent use; concurrent callers each take their
// own root.
type Root interface {
	// Tree returns a handle for the given path, whether or not a node
	// exists there.
	Tree(path string) Node

	// NodeByID returns a handle for the node with the given stable
	// identifier, or a nonexistent handle when unknown.
	NodeByID(id string) Node

	// Refresh discards staged changes and re-bases the snapshot onto the
	// latest committed state.
	Refresh()

	// HasPendingChanges reports whether any changes are staged.
	HasPendingChanges() bool

	// Commit attempts to apply the staged changes. The error is only set
	// for Fatal outcomes.
	Commit(marker Marker) (Outcome, error)
}

// Store hands out snapshots.
type Store interface {
	NewRoot() Root
}

// GetOrAddChild returns the named child of parent, staging its creation
// with the given kind when absent. Creation is idempotent by path.
func GetOrAddChild(parent Node, name, kind string) (Node, error) {
	child := parent.Child(name)
	if child.Exists() {
		return child, nil
	}
	return parent.AddChild(name, kind)
}
