// Package path models dotted property references such as "address.city" as
// decomposable chains of named segments, each with a resolved accessor, type
// and construction-strategy metadata.
package path

import (
	"strings"

	"github.com/origadmin/mapgen/internal/descriptor"
)

// Entry is one resolved property reference. It is identified purely by its
// ordered, non-empty sequence of name segments: two entries with identical
// dotted names are interchangeable regardless of how they were derived, which
// is what makes resolved paths safe to memoize. Accessor and type metadata
// ride along but never participate in identity.
//
// An Entry is immutable. Pop derives a new entry for the tail of the name
// sequence by advancing an offset into the shared backing slice; no segment
// data is copied.
type Entry struct {
	names  []string // shared backing, never mutated
	offset int      // first segment of this entry within names

	readAccessor    *descriptor.Accessor
	writeAccessor   *descriptor.Accessor // target role, exclusive with presenceChecker
	presenceChecker *descriptor.Accessor // source role
	typ             *descriptor.TypeDescriptor
	builder         *descriptor.BuilderDescriptor
}

// ForTargetReference creates an entry for a target-role property reference.
func ForTargetReference(names []string, read, write *descriptor.Accessor,
	typ *descriptor.TypeDescriptor, builder *descriptor.BuilderDescriptor) *Entry {
	return &Entry{
		names:         names,
		readAccessor:  read,
		writeAccessor: write,
		typ:           typ,
		builder:       builder,
	}
}

// ForSourceReference creates a single-segment entry for a source-role
// property reference.
func ForSourceReference(name string, read, presenceChecker *descriptor.Accessor,
	typ *descriptor.TypeDescriptor) *Entry {
	return &Entry{
		names:           []string{name},
		readAccessor:    read,
		presenceChecker: presenceChecker,
		typ:             typ,
	}
}

// Name returns the last segment, the property the entry's accessors attach to.
func (e *Entry) Name() string {
	return e.names[len(e.names)-1]
}

// Names returns the entry's segment sequence. Callers must not mutate it.
func (e *Entry) Names() []string {
	return e.names[e.offset:]
}

// FullName returns the dotted form of the segment sequence. It is the
// entry's identity: Equal and map keying are defined over it alone.
func (e *Entry) FullName() string {
	return strings.Join(e.Names(), ".")
}

// Len returns the number of segments.
func (e *Entry) Len() int {
	return len(e.names) - e.offset
}

// Pop removes the head segment, yielding a new entry that shares the
// remaining segments and all metadata. Popping a single-segment entry yields
// nil; that absence is the base case for recursive path walks.
func (e *Entry) Pop() *Entry {
	if e.Len() <= 1 {
		return nil
	}
	popped := *e
	popped.offset++
	return &popped
}

// Equal reports whether both entries have the same segment sequence.
// Accessor identity is deliberately ignored.
func (e *Entry) Equal(other *Entry) bool {
	if e == nil || other == nil {
		return e == other
	}
	return e.FullName() == other.FullName()
}

// ReadAccessor returns the read accessor of the leaf property.
func (e *Entry) ReadAccessor() *descriptor.Accessor { return e.readAccessor }

// WriteAccessor returns the write accessor for target-role entries.
func (e *Entry) WriteAccessor() *descriptor.Accessor { return e.writeAccessor }

// PresenceChecker returns the presence checker for source-role entries.
func (e *Entry) PresenceChecker() *descriptor.Accessor { return e.presenceChecker }

// Type returns the resolved type of the leaf property.
func (e *Entry) Type() *descriptor.TypeDescriptor { return e.typ }

// Builder returns the construction strategy recorded for the leaf property's
// type, or nil when the type is constructed directly.
func (e *Entry) Builder() *descriptor.BuilderDescriptor { return e.builder }

func (e *Entry) String() string {
	return e.typ.String() + " " + e.FullName()
}
