package ids

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterner_AssignsDenseIDsInFirstSeenOrder(t *testing.T) {
	in := NewInterner()

	a := in.Intern("stop-a")
	b := in.Intern("stop-b")
	aAgain := in.Intern("stop-a")

	assert.Equal(t, int32(0), a)
	assert.Equal(t, int32(1), b)
	assert.Equal(t, a, aAgain)
	assert.Equal(t, 2, in.Len())
}

func TestInterner_Lookup(t *testing.T) {
	in := NewInterner()
	in.Intern("stop-a")

	id, ok := in.Lookup("stop-a")
	require.True(t, ok)
	assert.Equal(t, int32(0), id)

	_, ok = in.Lookup("unknown")
	assert.False(t, ok)
}

func TestInterner_StringRoundTrips(t *testing.T) {
	in := NewInterner()
	id := in.Intern("stop-a")

	assert.Equal(t, "stop-a", in.String(id))
}

func TestInterner_Keys(t *testing.T) {
	in := NewInterner()
	in.Intern("stop-a")
	in.Intern("stop-b")

	assert.Equal(t, []string{"stop-a", "stop-b"}, in.Keys())
}
