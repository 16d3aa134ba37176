package path

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/origadmin/mapgen/internal/descriptor"
)

func stringType() *descriptor.TypeDescriptor {
	return &descriptor.TypeDescriptor{Name: "string", Kind: descriptor.Scalar}
}

func TestEntry_PopToAbsence(t *testing.T) {
	typ := stringType()
	read := &descriptor.Accessor{Name: "c", Caps: descriptor.CanRead, Type: typ}
	entry := ForTargetReference([]string{"a", "b", "c"}, read, nil, typ, nil)

	require.Equal(t, 3, entry.Len())
	assert.Equal(t, "a.b.c", entry.FullName())
	assert.Equal(t, "c", entry.Name())

	first := entry.Pop()
	require.NotNil(t, first)
	assert.Equal(t, []string{"b", "c"}, first.Names())
	assert.Equal(t, "b.c", first.FullName())

	second := first.Pop()
	require.NotNil(t, second)
	assert.Equal(t, []string{"c"}, second.Names())

	// Popping the single-segment entry yields absence: the base case.
	assert.Nil(t, second.Pop())

	// Popped entries share the leaf metadata.
	assert.Same(t, typ, second.Type())
	assert.Same(t, read, second.ReadAccessor())

	// The original entry is untouched.
	assert.Equal(t, "a.b.c", entry.FullName())
}

func TestEntry_EqualityIgnoresAccessorIdentity(t *testing.T) {
	typ := stringType()
	a := ForTargetReference([]string{"address", "city"},
		&descriptor.Accessor{Name: "city", Caps: descriptor.CanRead, Type: typ},
		&descriptor.Accessor{Name: "city", Caps: descriptor.CanWrite, Type: typ}, typ, nil)
	b := ForTargetReference([]string{"address", "city"},
		nil,
		&descriptor.Accessor{Name: "city", Style: descriptor.MethodStyle, Caps: descriptor.CanWrite, Type: typ}, typ, nil)

	assert.True(t, a.Equal(b))
	assert.True(t, b.Equal(a))
	assert.Equal(t, a.FullName(), b.FullName())

	c := ForSourceReference("city", nil, nil, typ)
	assert.False(t, a.Equal(c))
}

func TestEntry_SourceReferenceShape(t *testing.T) {
	typ := stringType()
	read := &descriptor.Accessor{Name: "City", Caps: descriptor.CanRead, Type: typ}
	checker := &descriptor.Accessor{Name: "City", Caps: descriptor.CanCheckPresence}

	e := ForSourceReference("City", read, checker, typ)
	assert.Equal(t, 1, e.Len())
	assert.Same(t, read, e.ReadAccessor())
	assert.Same(t, checker, e.PresenceChecker())
	assert.Nil(t, e.WriteAccessor())
	assert.Nil(t, e.Pop())
}
