package path

import (
	"fmt"
	"strings"

	"github.com/origadmin/mapgen/internal/descriptor"
)

// Role tells the resolver which accessor capability a reference needs.
type Role int

const (
	// SourceRole references are read: each segment needs a read-capable
	// accessor, the leaf may additionally carry a presence checker.
	SourceRole Role = iota
	// TargetRole references are written: each segment needs a write-capable
	// accessor, either on the owning type or on its builder.
	TargetRole
)

func (r Role) String() string {
	if r == TargetRole {
		return "target"
	}
	return "source"
}

// BuilderResolver looks up the construction strategy for a type. The host
// provider satisfies it; tests substitute a fake.
type BuilderResolver interface {
	BuilderFor(t *descriptor.TypeDescriptor) (*descriptor.BuilderDescriptor, bool)
}

// NoAccessorError reports a segment that does not resolve against its owning
// type. It is not fatal to the pipeline: the caller applies the configured
// unmapped-property policy to it.
type NoAccessorError struct {
	Root     *descriptor.TypeDescriptor
	Segment  string
	FullName string
	Role     Role
}

func (e *NoAccessorError) Error() string {
	return fmt.Sprintf("no %s accessor for segment %q of %q on %s",
		e.Role, e.Segment, e.FullName, e.Root)
}

// Reference is a fully resolved dotted property reference: one entry per
// segment, each entry's name sequence being the cumulative path down to that
// segment. The last entry is the leaf the actual copy accessor attaches to.
type Reference struct {
	root    *descriptor.TypeDescriptor
	role    Role
	entries []*Entry
}

// Root returns the type the first segment was resolved against.
func (r *Reference) Root() *descriptor.TypeDescriptor { return r.root }

// Role returns the reference's resolution role.
func (r *Reference) Role() Role { return r.role }

// Entries returns one entry per segment, root to leaf.
func (r *Reference) Entries() []*Entry { return r.entries }

// Leaf returns the terminal entry.
func (r *Reference) Leaf() *Entry { return r.entries[len(r.entries)-1] }

// FullName returns the dotted name of the whole reference.
func (r *Reference) FullName() string { return r.Leaf().FullName() }

func (r *Reference) String() string {
	return fmt.Sprintf("%s reference %s on %s", r.role, r.FullName(), r.root)
}

// ResolveTarget resolves a dotted target reference against root. Each
// segment must expose a write-capable accessor on its owning type or, when
// the owning type follows the builder convention, on the builder's
// intermediate type; in the latter case the builder descriptor is recorded on
// the segment's entry so generated code constructs through it. preferBuilder
// routes writes through the builder even when the type is directly mutable.
func ResolveTarget(root *descriptor.TypeDescriptor, dotted string, builders BuilderResolver, preferBuilder bool) (*Reference, error) {
	return resolve(root, dotted, TargetRole, builders, preferBuilder)
}

// ResolveSource resolves a dotted source reference against root, requiring
// read-capable accessors per segment.
func ResolveSource(root *descriptor.TypeDescriptor, dotted string) (*Reference, error) {
	return resolve(root, dotted, SourceRole, nil, false)
}

func resolve(root *descriptor.TypeDescriptor, dotted string, role Role, builders BuilderResolver, preferBuilder bool) (*Reference, error) {
	names := strings.Split(dotted, ".")
	if dotted == "" || len(names) == 0 {
		return nil, fmt.Errorf("empty property reference on %s", root)
	}

	// Walk the unresolved entry head-first: the head segment resolves
	// against the current owner, the popped remainder recurses on the type
	// the head produced. Popping a single segment yields nil, terminating
	// the walk at the leaf.
	ref := &Reference{root: root, role: role, entries: make([]*Entry, 0, len(names))}
	owner := root
	for pending := (&Entry{names: names}); pending != nil; pending = pending.Pop() {
		if owner == nil {
			return nil, &NoAccessorError{Root: root, Segment: pending.Names()[0], FullName: dotted, Role: role}
		}
		if owner.Incomplete {
			return nil, fmt.Errorf("resolving %q on %s: %w", dotted, owner, descriptor.ErrIncompleteType)
		}

		segment := pending.Names()[0]
		depth := len(names) - pending.Len() + 1
		entry, err := resolveSegment(root, owner, names[:depth], segment, dotted, role, builders, preferBuilder)
		if err != nil {
			return nil, err
		}
		ref.entries = append(ref.entries, entry)
		owner = entry.Type()
	}
	return ref, nil
}

// resolveSegment resolves one name against its owning type and produces the
// cumulative entry for it.
func resolveSegment(root, owner *descriptor.TypeDescriptor, names []string,
	segment, dotted string, role Role, builders BuilderResolver, preferBuilder bool) (*Entry, error) {

	read := owner.ReadAccessor(segment)

	switch role {
	case TargetRole:
		write := owner.WriteAccessor(segment)
		var builder *descriptor.BuilderDescriptor
		if builders != nil {
			if b, ok := builders.BuilderFor(owner); ok {
				builder = b
				if b.BuildingType != nil && (write == nil || preferBuilder) {
					// Immutable types mutate through their builder; mutable
					// ones do too when the builder strategy is configured.
					if bw := b.BuildingType.WriteAccessor(segment); bw != nil {
						write = bw
					}
				}
			}
		}
		if write == nil {
			return nil, &NoAccessorError{Root: root, Segment: segment, FullName: dotted, Role: role}
		}
		if write.Type != nil && write.Type.Incomplete {
			return nil, fmt.Errorf("resolving %q on %s: %w", dotted, owner, descriptor.ErrIncompleteType)
		}
		return &Entry{
			names:         names,
			readAccessor:  read,
			writeAccessor: write,
			typ:           write.Type,
			builder:       builder,
		}, nil

	default:
		if read == nil {
			return nil, &NoAccessorError{Root: root, Segment: segment, FullName: dotted, Role: role}
		}
		if read.Type != nil && read.Type.Incomplete {
			return nil, fmt.Errorf("resolving %q on %s: %w", dotted, owner, descriptor.ErrIncompleteType)
		}
		return &Entry{
			names:           names,
			readAccessor:    read,
			presenceChecker: owner.PresenceChecker(segment),
			typ:             read.Type,
		}, nil
	}
}
