package tree

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/armon/go-radix"
	"github.com/hashicorp/go-uuid"
	"github.com/mitchellh/copystructure"

	"github.com/stephnangue/gatekeeper/helper"
	log "github.com/stephnangue/gatekeeper/logger"
)

// Verify interfaces are satisfied
var (
	_ Store = (*MemStore)(nil)
	_ Root  = (*memRoot)(nil)
	_ Node  = (*memNode)(nil)
)

// RootKind is the node kind of the tree root.
const RootKind = "sys:root"

// nodeState is the committed state of a node inside the store.
type nodeState struct {
	Kind  string
	ID    string
	Props map[string]any
	Rev   uint64
}

// MemStore is an in-memory versioned node tree with snapshot isolation and
// optimistic commit. It is useful for testing and development situations
// where the data is not expected to be durable. Snapshots taken via NewRoot
// detect staleness per path: a commit fails with Conflict when any path it
// touched was committed by another writer since the snapshot was taken.
type MemStore struct {
	mu     sync.Mutex
	rev    uint64
	nodes  *radix.Tree       // path -> *nodeState
	byID   map[string]string // stable id -> path
	hook   Hook
	logger log.Logger

	// failCommits makes the next n commits fail with a Fatal outcome,
	// for exercising backend fault handling in tests.
	failCommits int

	// conflictCommits makes the next n non-empty commits report Conflict,
	// for exercising conflict handling in tests.
	conflictCommits int
}

// NewMemStore creates an empty store containing only the root node. The
// given hooks run on every commit, composed into one.
func NewMemStore(logger log.Logger, hooks ...Hook) *MemStore {
	s := &MemStore{
		nodes:  radix.New(),
		byID:   make(map[string]string),
		hook:   NewCompositeHook(hooks...),
		logger: logger.WithSubsystem("tree"),
	}
	rootID, _ := uuid.GenerateUUID()
	s.nodes.Insert("", &nodeState{Kind: RootKind, ID: rootID, Props: map[string]any{}})
	s.byID[rootID] = ""
	return s
}

// FailCommits makes the next n commit attempts fail with a Fatal outcome.
func (s *MemStore) FailCommits(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failCommits = n
}

// ConflictCommits makes the next n non-empty commit attempts report a
// Conflict outcome.
func (s *MemStore) ConflictCommits(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conflictCommits = n
}

// NewRoot takes a private snapshot of the current committed state.
func (s *MemStore) NewRoot() Root {
	r := &memRoot{store: s}
	r.Refresh()
	return r
}

func cloneProps(props map[string]any) map[string]any {
	cloned, err := copystructure.Copy(props)
	if err == nil {
		return cloned.(map[string]any)
	}
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}

// viewLocked builds a read-only image of the committed tree. Caller holds
// s.mu.
func (s *MemStore) viewLocked() View {
	view := make(View)
	s.nodes.Walk(func(path string, v any) bool {
		state := v.(*nodeState)
		view[path] = NodeData{
			Path:  path,
			Kind:  state.Kind,
			ID:    state.ID,
			Props: cloneProps(state.Props),
		}
		return false
	})
	return view
}

type changeOp int

const (
	opAdd changeOp = iota
	opChange
	opRemove
)

// workingNode is the snapshot-local state of a node.
type workingNode struct {
	Kind  string
	ID    string
	Props map[string]any
}

// memRoot is a snapshot of a MemStore. Not safe for concurrent use.
type memRoot struct {
	store    *MemStore
	working  map[string]*workingNode
	baseRevs map[string]uint64
	byID     map[string]string
	dirty    map[string]changeOp
}

func (r *memRoot) Tree(path string) Node {
	return &memNode{root: r, path: normalizePath(path)}
}

func (r *memRoot) NodeByID(id string) Node {
	if path, ok := r.byID[id]; ok {
		return &memNode{root: r, path: path}
	}
	return nonexistentNode{}
}

// Refresh discards staged changes and re-bases onto the latest committed
// state.
func (r *memRoot) Refresh() {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	r.working = make(map[string]*workingNode)
	r.baseRevs = make(map[string]uint64)
	r.byID = make(map[string]string, len(s.byID))
	r.dirty = make(map[string]changeOp)

	s.nodes.Walk(func(path string, v any) bool {
		state := v.(*nodeState)
		r.working[path] = &workingNode{
			Kind:  state.Kind,
			ID:    state.ID,
			Props: cloneProps(state.Props),
		}
		r.baseRevs[path] = state.Rev
		return false
	})
	for id, path := range s.byID {
		r.byID[id] = path
	}
}

func (r *memRoot) HasPendingChanges() bool {
	return len(r.dirty) > 0
}

// Commit applies the staged changes atomically. The snapshot stays usable
// after a successful commit; after a Conflict the caller refreshes before
// continuing.
func (r *memRoot) Commit(marker Marker) (Outcome, error) {
	if len(r.dirty) == 0 {
		return Committed, nil
	}
	if marker == nil {
		marker = Marker{}
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failCommits > 0 {
		s.failCommits--
		return Fatal, ErrStorageFailure
	}
	if s.conflictCommits > 0 {
		s.conflictCommits--
		return Conflict, nil
	}

	// Stale snapshot detection, per touched path.
	for path, op := range r.dirty {
		cur, curOK := s.lookupLocked(path)
		baseRev, baseOK := r.baseRevs[path]

		switch op {
		case opAdd:
			if curOK {
				return Conflict, nil
			}
			// The parent must exist either in the store or earlier in
			// this same commit.
			parent := parentPath(path)
			if _, staged := r.working[parent]; !staged {
				return Conflict, nil
			}
			if _, inStore := s.lookupLocked(parent); !inStore {
				if op, dirty := r.dirty[parent]; !dirty || op == opRemove {
					return Conflict, nil
				}
			}
		case opChange, opRemove:
			if !curOK || !baseOK || cur.Rev != baseRev {
				return Conflict, nil
			}
		}
	}

	commitID := helper.GenerateCommitID()
	marker[MarkerCommitID] = commitID

	// Run the hook pipeline against before/after images.
	if s.hook != EmptyHook {
		before := s.viewLocked()
		after := r.afterView(before)
		if err := s.hook.ProcessCommit(before, after, &CommitInfo{ID: commitID, Marker: marker}); err != nil {
			return Fatal, fmt.Errorf("commit hook rejected commit: %w", err)
		}
	}

	s.rev++
	for path, op := range r.dirty {
		switch op {
		case opAdd, opChange:
			w := r.working[path]
			state := &nodeState{
				Kind:  w.Kind,
				ID:    w.ID,
				Props: cloneProps(w.Props),
				Rev:   s.rev,
			}
			s.nodes.Insert(path, state)
			s.byID[w.ID] = path
		case opRemove:
			if cur, ok := s.lookupLocked(path); ok {
				delete(s.byID, cur.ID)
			}
			s.nodes.Delete(path)
		}
		r.baseRevs[path] = s.rev
	}

	changed := len(r.dirty)
	r.dirty = make(map[string]changeOp)

	s.logger.Trace("commit applied",
		log.String("commit_id", commitID),
		log.Int("changed_paths", changed),
		log.Bool("internal", marker.IsInternal()))

	return Committed, nil
}

func (s *MemStore) lookupLocked(path string) (*nodeState, bool) {
	v, ok := s.nodes.Get(path)
	if !ok {
		return nil, false
	}
	return v.(*nodeState), true
}

// afterView applies the staged changes onto a copy of the before image.
func (r *memRoot) afterView(before View) View {
	after := make(View, len(before))
	for path, data := range before {
		after[path] = data
	}
	for path, op := range r.dirty {
		switch op {
		case opAdd, opChange:
			w := r.working[path]
			after[path] = NodeData{
				Path:  path,
				Kind:  w.Kind,
				ID:    w.ID,
				Props: cloneProps(w.Props),
			}
		case opRemove:
			delete(after, path)
		}
	}
	return after
}

// markDirty records a staged change, collapsing repeated operations on the
// same path.
func (r *memRoot) markDirty(path string, op changeOp) {
	prev, wasDirty := r.dirty[path]
	switch {
	case !wasDirty:
		r.dirty[path] = op
	case prev == opAdd && op == opChange:
		// still a fresh add
	case prev == opAdd && op == opRemove:
		delete(r.dirty, path)
	case prev == opRemove && op == opAdd:
		r.dirty[path] = opChange
	default:
		r.dirty[path] = op
	}
}

// memNode is a handle onto a node of a memRoot snapshot.
type memNode struct {
	root *memRoot
	path string
}

func (n *memNode) state() (*workingNode, bool) {
	w, ok := n.root.working[n.path]
	return w, ok
}

func (n *memNode) Exists() bool {
	_, ok := n.state()
	return ok
}

func (n *memNode) Path() string {
	return n.path
}

func (n *memNode) Name() string {
	if idx := strings.LastIndexByte(n.path, '/'); idx >= 0 {
		return n.path[idx+1:]
	}
	return n.path
}

func (n *memNode) Kind() string {
	if w, ok := n.state(); ok {
		return w.Kind
	}
	return ""
}

func (n *memNode) ID() string {
	if w, ok := n.state(); ok {
		return w.ID
	}
	return ""
}

func (n *memNode) Parent() Node {
	return &memNode{root: n.root, path: parentPath(n.path)}
}

func (n *memNode) Child(name string) Node {
	return &memNode{root: n.root, path: joinPath(n.path, name)}
}

func (n *memNode) AddChild(name, kind string) (Node, error) {
	if !n.Exists() {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchNode, n.path)
	}
	childPath := joinPath(n.path, name)
	if _, exists := n.root.working[childPath]; exists {
		return nil, fmt.Errorf("%w: %s", ErrNodeExists, childPath)
	}

	id, err := uuid.GenerateUUID()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	n.root.working[childPath] = &workingNode{
		Kind:  kind,
		ID:    id,
		Props: make(map[string]any),
	}
	n.root.byID[id] = childPath
	n.root.markDirty(childPath, opAdd)

	return &memNode{root: n.root, path: childPath}, nil
}

func (n *memNode) Remove() bool {
	if !n.Exists() {
		return false
	}
	// Remove the whole subtree from the snapshot.
	prefix := n.path + "/"
	for path, w := range n.root.working {
		if path == n.path || strings.HasPrefix(path, prefix) {
			delete(n.root.working, path)
			delete(n.root.byID, w.ID)
			n.root.markDirty(path, opRemove)
		}
	}
	return true
}

func (n *memNode) SetProperty(name string, value any) {
	w, ok := n.state()
	if !ok {
		return
	}
	w.Props[name] = value
	n.root.markDirty(n.path, opChange)
}

func (n *memNode) Property(name string) (any, bool) {
	w, ok := n.state()
	if !ok {
		return nil, false
	}
	v, ok := w.Props[name]
	return v, ok
}

func (n *memNode) Properties() map[string]any {
	w, ok := n.state()
	if !ok {
		return nil
	}
	out := make(map[string]any, len(w.Props))
	for k, v := range w.Props {
		out[k] = v
	}
	return out
}

func (n *memNode) childPaths(limit int) []string {
	var paths []string
	for path := range n.root.working {
		if isDirectChild(n.path, path) {
			paths = append(paths, path)
			if limit > 0 && len(paths) >= limit {
				break
			}
		}
	}
	sort.Strings(paths)
	return paths
}

func (n *memNode) Children() []Node {
	paths := n.childPaths(0)
	children := make([]Node, 0, len(paths))
	for _, path := range paths {
		children = append(children, &memNode{root: n.root, path: path})
	}
	return children
}

func (n *memNode) ChildrenCount(limit int) int {
	return len(n.childPaths(limit))
}

// nonexistentNode is a handle for an unknown stable identifier.
type nonexistentNode struct{}

func (nonexistentNode) Exists() bool      { return false }
func (nonexistentNode) Path() string      { return "" }
func (nonexistentNode) Name() string      { return "" }
func (nonexistentNode) Kind() string      { return "" }
func (nonexistentNode) ID() string        { return "" }
func (nonexistentNode) Parent() Node      { return nonexistentNode{} }
func (nonexistentNode) Child(string) Node { return nonexistentNode{} }
func (nonexistentNode) AddChild(string, string) (Node, error) {
	return nil, ErrNoSuchNode
}
func (nonexistentNode) Remove() bool                { return false }
func (nonexistentNode) SetProperty(string, any)     {}
func (nonexistentNode) Property(string) (any, bool) { return nil, false }
func (nonexistentNode) Properties() map[string]any  { return nil }
func (nonexistentNode) Children() []Node            { return nil }
func (nonexistentNode) ChildrenCount(int) int       { return 0 }

func normalizePath(path string) string {
	return strings.Trim(path, "/")
}

func parentPath(path string) string {
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		return path[:idx]
	}
	return ""
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}

func isDirectChild(parent, candidate string) bool {
	if candidate == "" || candidate == parent {
		return false
	}
	var rest string
	if parent == "" {
		rest = candidate
	} else {
		if !strings.HasPrefix(candidate, parent+"/") {
			return false
		}
		rest = candidate[len(parent)+1:]
	}
	return rest != "" && !strings.ContainsRune(rest, '/')
}
