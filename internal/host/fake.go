package host

import (
	"context"
	"fmt"

	"github.com/origadmin/mapgen/internal/descriptor"
)

// Fake is an in-memory Provider for tests. Types and declarations are
// registered up front; completing a type between rounds simulates a host that
// generates the type in a later round. DeclarationByName materializes a fresh
// snapshot on every call, resolving method signatures against the current
// type table, which mirrors the re-fetch-by-identity contract.
type Fake struct {
	types    map[string]*descriptor.TypeDescriptor
	decls    map[string]*fakeDecl
	builders map[string]*descriptor.BuilderDescriptor
}

type fakeDecl struct {
	name    string
	methods []FakeMethod
	keys    map[string]bool
}

// FakeMethod declares one mapping method by type identity; the fake resolves
// the identities to descriptors at fetch time.
type FakeMethod struct {
	Name       string
	Source     string // source type FQN
	Target     string // target type FQN
	Directives []Directive
}

// NewFake creates an empty fake provider.
func NewFake() *Fake {
	return &Fake{
		types:    make(map[string]*descriptor.TypeDescriptor),
		decls:    make(map[string]*fakeDecl),
		builders: make(map[string]*descriptor.BuilderDescriptor),
	}
}

// AddType registers a descriptor under its FQN.
func (f *Fake) AddType(t *descriptor.TypeDescriptor) *Fake {
	f.types[t.FQN()] = t
	return f
}

// AddIncompleteType registers a named type whose hierarchy is not yet known.
func (f *Fake) AddIncompleteType(importPath, name string) *Fake {
	f.types[importPath+"."+name] = &descriptor.TypeDescriptor{
		Name:       name,
		ImportPath: importPath,
		Kind:       descriptor.Aggregate,
		Incomplete: true,
	}
	return f
}

// CompleteType replaces a previously incomplete type with its full
// descriptor, as if a later round had generated it.
func (f *Fake) CompleteType(t *descriptor.TypeDescriptor) *Fake {
	f.types[t.FQN()] = t
	return f
}

// AddBuilder registers a builder convention for its built type.
func (f *Fake) AddBuilder(b *descriptor.BuilderDescriptor) *Fake {
	f.builders[b.BuiltType.FQN()] = b
	return f
}

// AddDeclaration registers a mapper declaration with its methods.
func (f *Fake) AddDeclaration(name string, methods ...FakeMethod) *Fake {
	keys := map[string]bool{"mapper": true}
	for _, m := range methods {
		for _, d := range m.Directives {
			keys[d.Key] = true
		}
	}
	f.decls[name] = &fakeDecl{name: name, methods: methods, keys: keys}
	return f
}

// DeclarationByName implements Provider.
func (f *Fake) DeclarationByName(_ context.Context, name string) (*Declaration, error) {
	d, ok := f.decls[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDeclaration, name)
	}
	decl := &Declaration{Name: d.name}
	for _, m := range d.methods {
		src := f.lookup(m.Source)
		tgt := f.lookup(m.Target)
		if src.Incomplete || tgt.Incomplete {
			decl.Incomplete = true
		}
		decl.Methods = append(decl.Methods, &Method{
			Name:       m.Name,
			Params:     []*descriptor.TypeDescriptor{src},
			Results:    []*descriptor.TypeDescriptor{tgt},
			Directives: m.Directives,
		})
	}
	return decl, nil
}

func (f *Fake) lookup(fqn string) *descriptor.TypeDescriptor {
	if t, ok := f.types[fqn]; ok {
		return t
	}
	// The identity is known by name only; treat it as a forward declaration.
	t := &descriptor.TypeDescriptor{Name: fqn, Kind: descriptor.Unknown, Incomplete: true}
	return t
}

// ResolveByQualifiedName implements Provider.
func (f *Fake) ResolveByQualifiedName(_ context.Context, fqn string) (*descriptor.TypeDescriptor, error) {
	if t, ok := f.types[fqn]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("type %q not known to host", fqn)
}

// ListAccessors implements Provider.
func (f *Fake) ListAccessors(t *descriptor.TypeDescriptor) []*descriptor.Accessor {
	if t == nil {
		return nil
	}
	return t.Accessors
}

// IsAnnotatedWith implements Provider.
func (f *Fake) IsAnnotatedWith(name, directive string) bool {
	d, ok := f.decls[name]
	return ok && d.keys[directive]
}

// BuilderFor implements Provider.
func (f *Fake) BuilderFor(t *descriptor.TypeDescriptor) (*descriptor.BuilderDescriptor, bool) {
	b, ok := f.builders[t.FQN()]
	return b, ok
}

// Refresh implements Provider. The fake resolves against its live type table
// on every call, so there is no snapshot to discard.
func (f *Fake) Refresh(string) {}
