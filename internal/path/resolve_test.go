package path

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/origadmin/mapgen/internal/descriptor"
)

// builderTable is a minimal BuilderResolver for tests.
type builderTable map[string]*descriptor.BuilderDescriptor

func (bt builderTable) BuilderFor(t *descriptor.TypeDescriptor) (*descriptor.BuilderDescriptor, bool) {
	b, ok := bt[t.FQN()]
	return b, ok
}

func aggregate(name string, fields ...*descriptor.Accessor) *descriptor.TypeDescriptor {
	return &descriptor.TypeDescriptor{
		Name:       name,
		ImportPath: "example.com/app",
		Kind:       descriptor.Aggregate,
		Accessors:  fields,
	}
}

func field(name string, typ *descriptor.TypeDescriptor) *descriptor.Accessor {
	return &descriptor.Accessor{
		Name:       name,
		Style:      descriptor.FieldStyle,
		Caps:       descriptor.CanRead | descriptor.CanWrite,
		Type:       typ,
		MemberName: name,
	}
}

// personFixture builds Person{Address Address}, Address{City string}.
func personFixture() (person, address *descriptor.TypeDescriptor) {
	city := stringType()
	address = aggregate("Address", field("City", city))
	person = aggregate("Person", field("Address", address))
	return person, address
}

func TestResolveTarget_NestedChain(t *testing.T) {
	person, address := personFixture()

	ref, err := ResolveTarget(person, "Address.City", nil, false)
	require.NoError(t, err)
	require.Len(t, ref.Entries(), 2)

	first := ref.Entries()[0]
	assert.Equal(t, "Address", first.FullName())
	assert.Same(t, address, first.Type())

	leaf := ref.Leaf()
	assert.Equal(t, "Address.City", leaf.FullName())
	require.NotNil(t, leaf.WriteAccessor())
	assert.Same(t, address.WriteAccessor("City"), leaf.WriteAccessor())
	assert.Equal(t, "string", leaf.Type().Name)
}

func TestResolveTarget_LeafPopsToAbsence(t *testing.T) {
	c := aggregate("C", field("Value", stringType()))
	b := aggregate("B", field("C", c))
	a := aggregate("A", field("B", b))

	ref, err := ResolveTarget(a, "B.C.Value", nil, false)
	require.NoError(t, err)

	leaf := ref.Leaf()
	require.Equal(t, []string{"B", "C", "Value"}, leaf.Names())

	pop1 := leaf.Pop()
	require.NotNil(t, pop1)
	assert.Equal(t, []string{"C", "Value"}, pop1.Names())
	pop2 := pop1.Pop()
	require.NotNil(t, pop2)
	assert.Equal(t, []string{"Value"}, pop2.Names())
	assert.Nil(t, pop2.Pop())
}

func TestResolveTarget_NoAccessor(t *testing.T) {
	person, _ := personFixture()

	_, err := ResolveTarget(person, "Address.Street", nil, false)
	var noAcc *NoAccessorError
	require.ErrorAs(t, err, &noAcc)
	assert.Equal(t, "Street", noAcc.Segment)
	assert.Equal(t, "Address.Street", noAcc.FullName)
	assert.Equal(t, TargetRole, noAcc.Role)
}

func TestResolveSource_PresenceChecker(t *testing.T) {
	city := stringType()
	address := aggregate("Address",
		&descriptor.Accessor{Name: "City", Style: descriptor.MethodStyle, Caps: descriptor.CanRead, Type: city, MemberName: "GetCity"},
		&descriptor.Accessor{Name: "City", Style: descriptor.MethodStyle, Caps: descriptor.CanCheckPresence, MemberName: "HasCity"},
	)
	person := aggregate("Person", field("Address", address))

	ref, err := ResolveSource(person, "Address.City")
	require.NoError(t, err)

	leaf := ref.Leaf()
	require.NotNil(t, leaf.PresenceChecker())
	assert.Equal(t, "HasCity", leaf.PresenceChecker().MemberName)
	assert.Nil(t, leaf.WriteAccessor())
}

func TestResolveSource_WriteOnlyIsNotReadable(t *testing.T) {
	secret := aggregate("Secret",
		&descriptor.Accessor{Name: "Token", Caps: descriptor.CanWrite, Type: stringType()},
	)

	_, err := ResolveSource(secret, "Token")
	var noAcc *NoAccessorError
	require.ErrorAs(t, err, &noAcc)
	assert.Equal(t, SourceRole, noAcc.Role)
}

func TestResolveTarget_BuilderMutator(t *testing.T) {
	city := stringType()
	// Address is immutable: read accessors only.
	address := aggregate("Address",
		&descriptor.Accessor{Name: "City", Style: descriptor.MethodStyle, Caps: descriptor.CanRead, Type: city, MemberName: "GetCity"},
	)
	building := aggregate("AddressBuilder",
		&descriptor.Accessor{Name: "City", Style: descriptor.MethodStyle, Caps: descriptor.CanWrite, Type: city, MemberName: "SetCity"},
	)
	builder := &descriptor.BuilderDescriptor{
		BuildingType:   building,
		BuiltType:      address,
		CreationFunc:   "NewAddressBuilder",
		FinalizeMethod: "Build",
	}
	person := aggregate("Person", field("Address", address))
	builders := builderTable{address.FQN(): builder}

	ref, err := ResolveTarget(person, "Address.City", builders, false)
	require.NoError(t, err)

	leaf := ref.Leaf()
	require.NotNil(t, leaf.WriteAccessor())
	assert.Equal(t, "SetCity", leaf.WriteAccessor().MemberName)
	require.NotNil(t, leaf.Builder())
	assert.Same(t, builder, leaf.Builder())
}

func TestResolveTarget_PreferBuilderOverDirectWrite(t *testing.T) {
	city := stringType()
	// Address is directly mutable and also follows the builder convention.
	address := aggregate("Address", field("City", city))
	building := aggregate("AddressBuilder",
		&descriptor.Accessor{Name: "City", Style: descriptor.MethodStyle, Caps: descriptor.CanWrite, Type: city, MemberName: "SetCity"},
	)
	builder := &descriptor.BuilderDescriptor{BuildingType: building, BuiltType: address, FinalizeMethod: "Build"}
	builders := builderTable{address.FQN(): builder}

	direct, err := ResolveTarget(address, "City", builders, false)
	require.NoError(t, err)
	assert.Same(t, address.WriteAccessor("City"), direct.Leaf().WriteAccessor())
	assert.Same(t, builder, direct.Leaf().Builder())

	viaBuilder, err := ResolveTarget(address, "City", builders, true)
	require.NoError(t, err)
	assert.Equal(t, "SetCity", viaBuilder.Leaf().WriteAccessor().MemberName)
}

func TestResolveTarget_IncompleteTypeDefers(t *testing.T) {
	draft := &descriptor.TypeDescriptor{
		Name:       "Draft",
		ImportPath: "example.com/app",
		Kind:       descriptor.Aggregate,
		Incomplete: true,
	}
	person := aggregate("Person", field("Draft", draft))

	_, err := ResolveTarget(person, "Draft.Title", nil, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, descriptor.ErrIncompleteType))
}

func TestCache_InterchangeableByDottedName(t *testing.T) {
	person, _ := personFixture()
	cache := NewCache()

	ref, err := ResolveTarget(person, "Address.City", nil, false)
	require.NoError(t, err)
	cache.Put(ref)

	got, ok := cache.Get(person, "Address.City", TargetRole)
	require.True(t, ok)
	assert.Same(t, ref, got)

	// Role participates in identity: the source resolution is distinct.
	_, ok = cache.Get(person, "Address.City", SourceRole)
	assert.False(t, ok)
	assert.Equal(t, 1, cache.Len())
}
