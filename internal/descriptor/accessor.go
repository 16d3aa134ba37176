package descriptor

// Capability is the set of operations an accessor supports on its member.
type Capability uint8

const (
	CanRead Capability = 1 << iota
	CanWrite
	CanCheckPresence
)

// AccessorStyle distinguishes direct field access from method dispatch.
type AccessorStyle int

const (
	FieldStyle AccessorStyle = iota
	MethodStyle
)

func (s AccessorStyle) String() string {
	if s == MethodStyle {
		return "method"
	}
	return "field"
}

// Accessor is a capability marker for one named member of a type. The host
// provider synthesizes accessors when it builds a descriptor: exported struct
// fields become field-style read/write accessors, Get*/Set*/Has* methods
// become method-style ones. An accessor is owned by exactly one path segment
// once resolution attaches it.
type Accessor struct {
	Name  string
	Style AccessorStyle
	Caps  Capability
	Type  *TypeDescriptor // value type read or written through this accessor

	// MemberName is the host-side member backing the accessor, e.g. the
	// method name "SetCity" for the writable property "City".
	MemberName string
}

// Can reports whether the accessor supports every capability in c.
func (a *Accessor) Can(c Capability) bool {
	return a != nil && a.Caps&c == c
}
