// Package descriptor holds the semantic type model the generator works on.
// Descriptors are capability-based wrappers over the host's type information:
// they carry identity, kind and member accessors, but no host-specific
// handles, so any conforming host provider can produce them.
package descriptor

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a descriptor for mapping decisions.
type Kind int

const (
	Unknown Kind = iota
	Scalar
	Aggregate // struct-like types with named members
	Collection
	Map
	Pointer
	Interface
	Func
)

func (k Kind) String() string {
	switch k {
	case Scalar:
		return "Scalar"
	case Aggregate:
		return "Aggregate"
	case Collection:
		return "Collection"
	case Map:
		return "Map"
	case Pointer:
		return "Pointer"
	case Interface:
		return "Interface"
	case Func:
		return "Func"
	default:
		return "Unknown"
	}
}

// ErrIncompleteType marks a descriptor whose member hierarchy is not yet
// known to the host, typically because a referenced type is generated in a
// later compilation round. Callers that hit it should defer, not fail.
var ErrIncompleteType = errors.New("type hierarchy not yet complete")

// TypeDescriptor is the semantic identity of a type. Instances are immutable
// after the host provider finishes constructing them and are interned per
// qualified name for the lifetime of the compilation; a deferral re-resolve
// replaces the interned snapshot wholesale instead of mutating it.
type TypeDescriptor struct {
	Name       string
	ImportPath string
	Kind       Kind
	Elem       *TypeDescriptor // element type for Collection, Map and Pointer
	Key        *TypeDescriptor // key type for Map
	TypeParams []*TypeDescriptor
	Accessors  []*Accessor

	// Incomplete is set when the host could not see the full member
	// hierarchy. Such a descriptor must not be used for property matching.
	Incomplete bool
}

// FQN returns the fully qualified name, or the bare name for builtins.
func (t *TypeDescriptor) FQN() string {
	if t == nil {
		return ""
	}
	if t.ImportPath == "" {
		return t.Name
	}
	return t.ImportPath + "." + t.Name
}

// PackageName returns the last element of the import path.
func (t *TypeDescriptor) PackageName() string {
	if t == nil || t.ImportPath == "" {
		return ""
	}
	parts := strings.Split(t.ImportPath, "/")
	return parts[len(parts)-1]
}

// IsNamed reports whether the descriptor identifies a declared type rather
// than an anonymous composite or builtin.
func (t *TypeDescriptor) IsNamed() bool {
	return t != nil && t.Name != "" && t.ImportPath != ""
}

func (t *TypeDescriptor) String() string {
	if t == nil {
		return "nil"
	}
	switch t.Kind {
	case Pointer:
		if t.Name == "" {
			return "*" + t.Elem.String()
		}
	case Collection:
		if t.Name == "" {
			return "[]" + t.Elem.String()
		}
	case Map:
		if t.Name == "" {
			return fmt.Sprintf("map[%s]%s", t.Key.String(), t.Elem.String())
		}
	}
	return t.FQN()
}

// AccessorByName returns the member accessor for name, matching exactly
// first and case-insensitively as a fallback.
func (t *TypeDescriptor) AccessorByName(name string) *Accessor {
	if t == nil {
		return nil
	}
	for _, a := range t.Accessors {
		if a.Name == name {
			return a
		}
	}
	for _, a := range t.Accessors {
		if strings.EqualFold(a.Name, name) {
			return a
		}
	}
	return nil
}

// ReadAccessor returns the read-capable accessor for name, if any.
func (t *TypeDescriptor) ReadAccessor(name string) *Accessor {
	return t.accessorWith(name, CanRead)
}

// WriteAccessor returns the write-capable accessor for name, if any.
func (t *TypeDescriptor) WriteAccessor(name string) *Accessor {
	return t.accessorWith(name, CanWrite)
}

// PresenceChecker returns the presence-check accessor for name, if any.
func (t *TypeDescriptor) PresenceChecker(name string) *Accessor {
	return t.accessorWith(name, CanCheckPresence)
}

func (t *TypeDescriptor) accessorWith(name string, cap Capability) *Accessor {
	if t == nil {
		return nil
	}
	var fold *Accessor
	for _, a := range t.Accessors {
		if !a.Can(cap) {
			continue
		}
		if a.Name == name {
			return a
		}
		if fold == nil && strings.EqualFold(a.Name, name) {
			fold = a
		}
	}
	return fold
}
