package tree

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCompositeHook(t *testing.T) {
	assert.Equal(t, EmptyHook, NewCompositeHook())

	single := HookFunc(func(before, after View, info *CommitInfo) error { return nil })
	assert.NotNil(t, NewCompositeHook(single))

	require.NoError(t, EmptyHook.ProcessCommit(nil, nil, nil))
}

func TestCompositeHookChainsStates(t *testing.T) {
	before := View{"": NodeData{Path: ""}}
	after := View{"": NodeData{Path: ""}, "a": NodeData{Path: "a"}}

	var firstBefore, secondBefore View
	composite := NewCompositeHook(
		HookFunc(func(b, a View, info *CommitInfo) error {
			firstBefore = b
			return nil
		}),
		HookFunc(func(b, a View, info *CommitInfo) error {
			secondBefore = b
			return nil
		}),
	)

	require.NoError(t, composite.ProcessCommit(before, after, &CommitInfo{ID: "c1"}))

	// The second hook sees the first hook's output state as its input.
	assert.Len(t, firstBefore, 1)
	assert.Len(t, secondBefore, 2)
}

func TestCompositeHookStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	var secondRan bool

	composite := NewCompositeHook(
		HookFunc(func(b, a View, info *CommitInfo) error { return boom }),
		HookFunc(func(b, a View, info *CommitInfo) error {
			secondRan = true
			return nil
		}),
	)

	assert.ErrorIs(t, composite.ProcessCommit(nil, nil, nil), boom)
	assert.False(t, secondRan)
}

func TestHookSeesCommitDelta(t *testing.T) {
	var gotBefore, gotAfter View
	var gotInfo *CommitInfo

	store := newTestStore(t, HookFunc(func(before, after View, info *CommitInfo) error {
		gotBefore = before
		gotAfter = after
		gotInfo = info
		return nil
	}))

	root := store.NewRoot()
	node, err := root.Tree("").AddChild("a", "sys:folder")
	require.NoError(t, err)
	node.SetProperty("name", "value")
	mustCommit(t, root)

	require.NotNil(t, gotInfo)
	assert.NotEmpty(t, gotInfo.ID)
	assert.Equal(t, gotInfo.ID, gotInfo.Marker[MarkerCommitID])
	assert.False(t, gotInfo.Marker.IsInternal())

	_, existedBefore := gotBefore["a"]
	assert.False(t, existedBefore)
	added, existsAfter := gotAfter["a"]
	require.True(t, existsAfter)
	assert.Equal(t, "sys:folder", added.Kind)
	assert.Equal(t, "value", added.Props["name"])

	// Removal shows up as absence in the after state.
	require.True(t, root.Tree("a").Remove())
	mustCommit(t, root)
	_, existsAfter = gotAfter["a"]
	assert.False(t, existsAfter)
}

func TestHookErrorAbortsCommit(t *testing.T) {
	boom := errors.New("rejected")
	store := newTestStore(t, HookFunc(func(before, after View, info *CommitInfo) error {
		return boom
	}))

	root := store.NewRoot()
	_, err := root.Tree("").AddChild("a", "sys:folder")
	require.NoError(t, err)

	outcome, err := root.Commit(nil)
	assert.Equal(t, Fatal, outcome)
	assert.ErrorIs(t, err, boom)

	assert.False(t, store.NewRoot().Tree("a").Exists())
}

func TestInternalMarker(t *testing.T) {
	var internalSeen []bool
	store := newTestStore(t, HookFunc(func(before, after View, info *CommitInfo) error {
		internalSeen = append(internalSeen, info.Marker.IsInternal())
		return nil
	}))

	root := store.NewRoot()
	_, err := root.Tree("").AddChild("a", "sys:folder")
	require.NoError(t, err)
	mustCommit(t, root)

	root.Tree("a").SetProperty("touched", true)
	outcome, err := root.Commit(InternalMarker())
	require.NoError(t, err)
	require.Equal(t, Committed, outcome)

	assert.Equal(t, []bool{false, true}, internalSeen)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "committed", Committed.String())
	assert.Equal(t, "conflict", Conflict.String())
	assert.Equal(t, "fatal", Fatal.String())
	assert.Equal(t, "unknown", Outcome(99).String())
}
