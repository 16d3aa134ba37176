// Package host abstracts the build toolchain's type-information surface
// behind a small capability interface. The generation core only ever talks to
// a Provider, so any conforming host is swappable: production uses the
// go/packages-backed provider, tests use the in-memory Fake.
package host

import (
	"context"
	"errors"
	"go/token"

	"github.com/origadmin/mapgen/internal/descriptor"
)

// ErrUnknownDeclaration is returned when a declaration identity cannot be
// resolved by the provider.
var ErrUnknownDeclaration = errors.New("unknown mapper declaration")

// Provider is the capability object handed to the core each round. All
// methods are synchronous queries against the host's type information;
// callers serialize access externally.
type Provider interface {
	// DeclarationByName resolves a declaration identity to a fresh
	// snapshot. Resumed deferrals go through here so a stale, possibly
	// erroneous earlier snapshot is never reused.
	DeclarationByName(ctx context.Context, name string) (*Declaration, error)

	// ResolveByQualifiedName resolves a type identity to its descriptor.
	// Descriptors are interned; the same identity yields the same snapshot
	// until Refresh discards it.
	ResolveByQualifiedName(ctx context.Context, fqn string) (*descriptor.TypeDescriptor, error)

	// ListAccessors lists the member accessors of a descriptor.
	ListAccessors(t *descriptor.TypeDescriptor) []*descriptor.Accessor

	// IsAnnotatedWith reports whether the named declaration carries the
	// given directive key.
	IsAnnotatedWith(name string, directive string) bool

	// BuilderFor returns the builder convention descriptor for a type, if
	// the type is built through a mutable intermediate.
	BuilderFor(t *descriptor.TypeDescriptor) (*descriptor.BuilderDescriptor, bool)

	// Refresh discards the interned snapshot for a type identity so the
	// next resolve observes the host's current state.
	Refresh(fqn string)
}

// Declaration is one user-authored mapper declaration: a directive-annotated
// interface whose methods describe the desired conversions. Identity is the
// qualified name; everything else is a snapshot that deferral re-fetches.
type Declaration struct {
	// Name is the stable qualified identity, "import/path.TypeName".
	Name string
	Pos  token.Position
	// Incomplete is set when the declaration references types whose
	// hierarchies the host has not completed yet.
	Incomplete bool
	Methods    []*Method
}

// Method is one mapping method of a declaration.
type Method struct {
	Name       string
	Pos        token.Position
	Params     []*descriptor.TypeDescriptor
	Results    []*descriptor.TypeDescriptor
	Directives []Directive
}

// Directive is one parsed mapping instruction attached to a declaration or
// one of its methods, e.g. map, ignore or constant.
type Directive struct {
	Key  string
	Args map[string]string
	Raw  string
	Pos  token.Position
}

// Arg returns a directive argument value and whether it was present.
func (d Directive) Arg(name string) (string, bool) {
	v, ok := d.Args[name]
	return v, ok
}
