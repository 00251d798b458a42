package logger

import (
	"bytes"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdapterWithBuffer() (hclog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	log := NewTestLogger(&buf)
	return NewHCLogAdapter(log), &buf
}

func TestHCLogAdapter_Levels(t *testing.T) {
	adapter, buf := newAdapterWithBuffer()

	adapter.Info("info message", "key", "value")
	assert.Contains(t, buf.String(), "info message")
	assert.Contains(t, buf.String(), `"key":"value"`)

	buf.Reset()
	adapter.Error("error message")
	assert.Contains(t, buf.String(), `"level":"error"`)
}

func TestHCLogAdapter_Named(t *testing.T) {
	adapter, buf := newAdapterWithBuffer()

	named := adapter.Named("tree")
	require.Equal(t, "tree", named.Name())

	nested := named.Named("inmem")
	assert.Equal(t, "tree.inmem", nested.Name())

	named.Info("hello")
	assert.Contains(t, buf.String(), `"module":"tree"`)
}

func TestHCLogAdapter_With(t *testing.T) {
	adapter, buf := newAdapterWithBuffer()

	child := adapter.With("identity_id", "alice")
	child.Info("issued")

	assert.Contains(t, buf.String(), `"identity_id":"alice"`)
	assert.Len(t, child.ImpliedArgs(), 2)
}

func TestHCLogAdapter_StandardLogger(t *testing.T) {
	adapter, buf := newAdapterWithBuffer()

	std := adapter.StandardLogger(nil)
	std.Println("via stdlib")

	assert.Contains(t, buf.String(), "via stdlib")
}

func TestHCLogAdapter_LevelChecks(t *testing.T) {
	adapter, _ := newAdapterWithBuffer()

	assert.True(t, adapter.IsTrace())
	assert.True(t, adapter.IsError())
	assert.Equal(t, hclog.Trace, adapter.GetLevel())
}
