package tree

import (
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	log "github.com/stephnangue/gatekeeper/logger"
)

func newTestStore(t *testing.T, hooks ...Hook) *MemStore {
	t.Helper()
	return NewMemStore(log.NewTestLogger(io.Discard), hooks...)
}

func mustCommit(t *testing.T, root Root) {
	t.Helper()
	outcome, err := root.Commit(nil)
	require.NoError(t, err)
	require.Equal(t, Committed, outcome)
}

func TestSnapshotIsolation(t *testing.T) {
	store := newTestStore(t)
	writer := store.NewRoot()
	reader := store.NewRoot()

	_, err := writer.Tree("").AddChild("a", "sys:folder")
	require.NoError(t, err)

	// Staged changes are private to the writer's snapshot.
	assert.False(t, reader.Tree("a").Exists())
	mustCommit(t, writer)

	// Still invisible to the old snapshot until it refreshes.
	assert.False(t, reader.Tree("a").Exists())
	reader.Refresh()
	assert.True(t, reader.Tree("a").Exists())

	assert.True(t, store.NewRoot().Tree("a").Exists())
}

func TestCommitConflictOnConcurrentChange(t *testing.T) {
	store := newTestStore(t)
	setup := store.NewRoot()
	_, err := setup.Tree("").AddChild("a", "sys:folder")
	require.NoError(t, err)
	mustCommit(t, setup)

	r1 := store.NewRoot()
	r2 := store.NewRoot()

	r1.Tree("a").SetProperty("owner", "r1")
	r2.Tree("a").SetProperty("owner", "r2")

	mustCommit(t, r1)

	outcome, err := r2.Commit(nil)
	require.NoError(t, err)
	assert.Equal(t, Conflict, outcome)

	// After refreshing, the same change goes through.
	r2.Refresh()
	r2.Tree("a").SetProperty("owner", "r2")
	mustCommit(t, r2)

	v, ok := store.NewRoot().Tree("a").Property("owner")
	require.True(t, ok)
	assert.Equal(t, "r2", v)
}

func TestCommitConflictOnConcurrentAdd(t *testing.T) {
	store := newTestStore(t)
	r1 := store.NewRoot()
	r2 := store.NewRoot()

	_, err := r1.Tree("").AddChild("x", "sys:folder")
	require.NoError(t, err)
	_, err = r2.Tree("").AddChild("x", "sys:folder")
	require.NoError(t, err)

	mustCommit(t, r1)

	outcome, err := r2.Commit(nil)
	require.NoError(t, err)
	assert.Equal(t, Conflict, outcome)
}

func TestSiblingAddsDoNotConflict(t *testing.T) {
	store := newTestStore(t)
	r1 := store.NewRoot()
	r2 := store.NewRoot()

	_, err := r1.Tree("").AddChild("x", "sys:folder")
	require.NoError(t, err)
	_, err = r2.Tree("").AddChild("y", "sys:folder")
	require.NoError(t, err)

	mustCommit(t, r1)
	mustCommit(t, r2)

	root := store.NewRoot()
	assert.True(t, root.Tree("x").Exists())
	assert.True(t, root.Tree("y").Exists())
}

func TestCommitConflictOnRemovedNode(t *testing.T) {
	store := newTestStore(t)
	setup := store.NewRoot()
	_, err := setup.Tree("").AddChild("a", "sys:folder")
	require.NoError(t, err)
	mustCommit(t, setup)

	r1 := store.NewRoot()
	r2 := store.NewRoot()

	require.True(t, r1.Tree("a").Remove())
	mustCommit(t, r1)

	r2.Tree("a").SetProperty("owner", "r2")
	outcome, err := r2.Commit(nil)
	require.NoError(t, err)
	assert.Equal(t, Conflict, outcome)
}

func TestAddUnderStagedParent(t *testing.T) {
	store := newTestStore(t)
	root := store.NewRoot()

	parent, err := root.Tree("").AddChild("p", "sys:folder")
	require.NoError(t, err)
	_, err = parent.AddChild("c", "sys:folder")
	require.NoError(t, err)
	mustCommit(t, root)

	fresh := store.NewRoot()
	assert.True(t, fresh.Tree("p").Exists())
	assert.True(t, fresh.Tree("p/c").Exists())
}

func TestAddChildErrors(t *testing.T) {
	store := newTestStore(t)
	root := store.NewRoot()

	_, err := root.Tree("missing").AddChild("c", "sys:folder")
	assert.ErrorIs(t, err, ErrNoSuchNode)

	_, err = root.Tree("").AddChild("dup", "sys:folder")
	require.NoError(t, err)
	_, err = root.Tree("").AddChild("dup", "sys:folder")
	assert.ErrorIs(t, err, ErrNodeExists)
}

func TestNodeByID(t *testing.T) {
	store := newTestStore(t)
	root := store.NewRoot()

	node, err := root.Tree("").AddChild("a", "sys:folder")
	require.NoError(t, err)
	id := node.ID()
	require.NotEmpty(t, id)
	mustCommit(t, root)

	fresh := store.NewRoot()
	found := fresh.NodeByID(id)
	require.True(t, found.Exists())
	assert.Equal(t, "a", found.Path())
	assert.Equal(t, "a", found.Name())
	assert.Equal(t, "sys:folder", found.Kind())

	assert.False(t, fresh.NodeByID("no-such-id").Exists())
}

func TestRemoveSubtree(t *testing.T) {
	store := newTestStore(t)
	root := store.NewRoot()

	a, err := root.Tree("").AddChild("a", "sys:folder")
	require.NoError(t, err)
	b, err := a.AddChild("b", "sys:folder")
	require.NoError(t, err)
	_, err = b.AddChild("c", "sys:folder")
	require.NoError(t, err)
	mustCommit(t, root)

	worker := store.NewRoot()
	childID := worker.Tree("a/b").ID()
	require.True(t, worker.Tree("a").Remove())
	mustCommit(t, worker)

	fresh := store.NewRoot()
	assert.False(t, fresh.Tree("a").Exists())
	assert.False(t, fresh.Tree("a/b").Exists())
	assert.False(t, fresh.Tree("a/b/c").Exists())
	assert.False(t, fresh.NodeByID(childID).Exists())

	assert.False(t, fresh.Tree("a").Remove())
}

func TestChildren(t *testing.T) {
	store := newTestStore(t)
	root := store.NewRoot()

	parent, err := root.Tree("").AddChild("p", "sys:folder")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err := parent.AddChild(fmt.Sprintf("c%d", i), "sys:folder")
		require.NoError(t, err)
	}
	_, err = root.Tree("p/c0").AddChild("grandchild", "sys:folder")
	require.NoError(t, err)

	children := parent.Children()
	require.Len(t, children, 5)
	assert.Equal(t, "c0", children[0].Name())
	assert.Equal(t, "c4", children[4].Name())

	assert.Equal(t, 5, parent.ChildrenCount(0))
	assert.Equal(t, 3, parent.ChildrenCount(3))
	assert.Equal(t, 5, parent.ChildrenCount(100))
}

func TestRefreshDiscardsStagedChanges(t *testing.T) {
	store := newTestStore(t)
	root := store.NewRoot()

	_, err := root.Tree("").AddChild("staged", "sys:folder")
	require.NoError(t, err)
	require.True(t, root.HasPendingChanges())

	root.Refresh()
	assert.False(t, root.HasPendingChanges())
	assert.False(t, root.Tree("staged").Exists())
}

func TestHasPendingChanges(t *testing.T) {
	store := newTestStore(t)
	root := store.NewRoot()

	assert.False(t, root.HasPendingChanges())
	root.Tree("").SetProperty("touched", true)
	assert.True(t, root.HasPendingChanges())
	mustCommit(t, root)
	assert.False(t, root.HasPendingChanges())
}

func TestCommitWithoutChanges(t *testing.T) {
	store := newTestStore(t)
	outcome, err := store.NewRoot().Commit(nil)
	require.NoError(t, err)
	assert.Equal(t, Committed, outcome)
}

func TestFailCommits(t *testing.T) {
	store := newTestStore(t)
	root := store.NewRoot()
	root.Tree("").SetProperty("touched", true)

	store.FailCommits(1)
	outcome, err := root.Commit(nil)
	assert.Equal(t, Fatal, outcome)
	assert.ErrorIs(t, err, ErrStorageFailure)

	// The fault is transient: the same commit succeeds afterwards.
	mustCommit(t, root)
}

func TestConflictCommits(t *testing.T) {
	store := newTestStore(t)
	root := store.NewRoot()
	root.Tree("").SetProperty("touched", true)

	store.ConflictCommits(1)
	outcome, err := root.Commit(nil)
	require.NoError(t, err)
	assert.Equal(t, Conflict, outcome)

	root.Refresh()
	root.Tree("").SetProperty("touched", true)
	mustCommit(t, root)
}

func TestGetOrAddChild(t *testing.T) {
	store := newTestStore(t)
	root := store.NewRoot()

	first, err := GetOrAddChild(root.Tree(""), "shared", "sys:folder")
	require.NoError(t, err)
	mustCommit(t, root)

	again, err := GetOrAddChild(root.Tree(""), "shared", "sys:folder")
	require.NoError(t, err)
	assert.Equal(t, first.Path(), again.Path())
	assert.False(t, root.HasPendingChanges())
}

func TestProperties(t *testing.T) {
	store := newTestStore(t)
	root := store.NewRoot()

	node, err := root.Tree("").AddChild("n", "sys:folder")
	require.NoError(t, err)
	node.SetProperty("name", "value")
	node.SetProperty("count", int64(42))
	mustCommit(t, root)

	fresh := store.NewRoot().Tree("n")
	v, ok := fresh.Property("name")
	require.True(t, ok)
	assert.Equal(t, "value", v)
	v, ok = fresh.Property("count")
	require.True(t, ok)
	assert.Equal(t, int64(42), v)
	_, ok = fresh.Property("missing")
	assert.False(t, ok)

	// Properties hands out a copy.
	props := fresh.Properties()
	props["name"] = "mutated"
	v, _ = fresh.Property("name")
	assert.Equal(t, "value", v)
}

func TestPathNormalization(t *testing.T) {
	store := newTestStore(t)
	root := store.NewRoot()

	a, err := root.Tree("").AddChild("a", "sys:folder")
	require.NoError(t, err)
	_, err = a.AddChild("b", "sys:folder")
	require.NoError(t, err)

	node := root.Tree("/a/b/")
	assert.True(t, node.Exists())
	assert.Equal(t, "a/b", node.Path())
	assert.Equal(t, "b", node.Name())
	assert.Equal(t, "a", node.Parent().Path())
}

func TestNonexistentNodeHandles(t *testing.T) {
	store := newTestStore(t)
	root := store.NewRoot()

	node := root.NodeByID("unknown")
	assert.False(t, node.Exists())
	assert.False(t, node.Remove())
	assert.Nil(t, node.Properties())
	assert.Zero(t, node.ChildrenCount(10))
	_, err := node.AddChild("c", "sys:folder")
	assert.ErrorIs(t, err, ErrNoSuchNode)
}
