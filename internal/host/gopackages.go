package host

import (
	"context"
	"fmt"
	goast "go/ast"
	"go/token"
	gotypes "go/types"
	"log/slog"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/origadmin/mapgen/internal/descriptor"
)

// DirectivePrefix marks mapgen instructions in source comments.
const DirectivePrefix = "//go:mapgen:"

// GoPackages is the production Provider backed by golang.org/x/tools
// go/packages. It loads the declaration package once, scans it for mapper
// directives and serves descriptor snapshots interned per qualified name.
type GoPackages struct {
	pkgs []*packages.Package

	interned map[string]*descriptor.TypeDescriptor
	byType   map[gotypes.Type]*descriptor.TypeDescriptor
	decls    map[string]*declSite
}

type declSite struct {
	name       string
	pkg        *packages.Package
	obj        gotypes.Object
	pos        token.Position
	directives map[string]bool
	methodDirs map[string][]Directive
}

// LoadGoPackages loads the directive package rooted at dir and scans it for
// mapper declarations. Type errors in the loaded packages are tolerated:
// types the generator will produce in later rounds are expected to be
// unresolved on the first load.
func LoadGoPackages(ctx context.Context, dir string, patterns ...string) (*GoPackages, error) {
	cfg := &packages.Config{
		Context: ctx,
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedSyntax |
			packages.NeedImports | packages.NeedDeps | packages.NeedTypes | packages.NeedTypesInfo,
		Dir: dir,
	}
	if len(patterns) == 0 {
		patterns = []string{"."}
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("loading declaration packages: %w", err)
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("no packages found in %s", dir)
	}
	for _, pkg := range pkgs {
		if len(pkg.Errors) > 0 {
			slog.Debug("package loaded with type errors, types may complete in a later round",
				"pkg", pkg.PkgPath, "errors", len(pkg.Errors))
		}
	}

	p := &GoPackages{
		pkgs:     pkgs,
		interned: make(map[string]*descriptor.TypeDescriptor),
		byType:   make(map[gotypes.Type]*descriptor.TypeDescriptor),
		decls:    make(map[string]*declSite),
	}
	p.scanDirectives()
	return p, nil
}

// DiscoverMappers returns the qualified identities of all declarations
// annotated with the mapper directive, for the round coordinator to process.
func (p *GoPackages) DiscoverMappers() []string {
	names := make([]string, 0, len(p.decls))
	for name := range p.decls {
		names = append(names, name)
	}
	return names
}

// scanDirectives walks all syntax trees once, collecting mapper-annotated
// interface declarations and the directives on their methods.
func (p *GoPackages) scanDirectives() {
	for _, pkg := range p.pkgs {
		for _, file := range pkg.Syntax {
			for _, decl := range file.Decls {
				genDecl, ok := decl.(*goast.GenDecl)
				if ok && genDecl.Tok == token.TYPE {
					p.scanTypeDecl(pkg, genDecl)
				}
			}
		}
	}
}

func (p *GoPackages) scanTypeDecl(pkg *packages.Package, decl *goast.GenDecl) {
	directives := directiveLines(decl.Doc)
	if len(directives) == 0 {
		return
	}
	keys := make(map[string]bool)
	for _, d := range directives {
		keys[d.Key] = true
	}
	if !keys["mapper"] {
		return
	}
	for _, spec := range decl.Specs {
		typeSpec, ok := spec.(*goast.TypeSpec)
		if !ok {
			continue
		}
		ifaceType, ok := typeSpec.Type.(*goast.InterfaceType)
		if !ok {
			slog.Warn("mapper directive on non-interface type, skipping",
				"type", typeSpec.Name.Name, "pkg", pkg.PkgPath)
			continue
		}

		site := &declSite{
			name:       pkg.PkgPath + "." + typeSpec.Name.Name,
			pkg:        pkg,
			obj:        pkg.Types.Scope().Lookup(typeSpec.Name.Name),
			pos:        pkg.Fset.Position(typeSpec.Pos()),
			directives: keys,
			methodDirs: make(map[string][]Directive),
		}
		for _, field := range ifaceType.Methods.List {
			dirs := directiveLines(field.Doc)
			for _, name := range field.Names {
				if len(dirs) > 0 {
					site.methodDirs[name.Name] = dirs
				}
			}
		}
		p.decls[site.name] = site
		slog.Debug("discovered mapper declaration", "name", site.name, "pos", site.pos)
	}
}

// directiveLines parses every mapgen directive in a comment group.
func directiveLines(doc *goast.CommentGroup) []Directive {
	if doc == nil {
		return nil
	}
	var out []Directive
	for _, comment := range doc.List {
		if d, ok := parseDirective(comment.Text); ok {
			out = append(out, d)
		}
	}
	return out
}

// parseDirective parses one directive line of the form
// //go:mapgen:key or //go:mapgen:key="a=b,c=d".
func parseDirective(line string) (Directive, bool) {
	if !strings.HasPrefix(line, DirectivePrefix) {
		return Directive{}, false
	}
	rest := strings.TrimPrefix(line, DirectivePrefix)
	key, value, hasValue := strings.Cut(rest, "=")
	d := Directive{Key: strings.TrimSpace(key), Raw: line, Args: make(map[string]string)}
	if !hasValue {
		return d, d.Key != ""
	}
	value = strings.Trim(strings.TrimSpace(value), `"`)
	for _, pair := range strings.Split(value, ",") {
		argKey, argValue, ok := strings.Cut(pair, "=")
		if !ok {
			// Bare values like ignore="Password" keep the value under "value".
			argKey, argValue = "value", pair
		}
		d.Args[strings.TrimSpace(argKey)] = strings.TrimSpace(argValue)
	}
	return d, d.Key != ""
}

// DeclarationByName implements Provider. Every call re-reads the method set
// from the loaded type information, so a resumed deferral gets a fresh
// snapshot rather than the possibly erroneous one from an earlier round.
func (p *GoPackages) DeclarationByName(_ context.Context, name string) (*Declaration, error) {
	site, ok := p.decls[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDeclaration, name)
	}
	if site.obj == nil {
		return nil, fmt.Errorf("%w: %s has no type object", ErrUnknownDeclaration, name)
	}
	iface, ok := site.obj.Type().Underlying().(*gotypes.Interface)
	if !ok {
		return nil, fmt.Errorf("declaration %s is not an interface", name)
	}

	decl := &Declaration{Name: name, Pos: site.pos}
	for i := 0; i < iface.NumExplicitMethods(); i++ {
		fn := iface.ExplicitMethod(i)
		sig := fn.Type().(*gotypes.Signature)
		m := &Method{
			Name:       fn.Name(),
			Pos:        site.pkg.Fset.Position(fn.Pos()),
			Directives: site.methodDirs[fn.Name()],
		}
		for j := 0; j < sig.Params().Len(); j++ {
			m.Params = append(m.Params, p.resolveType(sig.Params().At(j).Type()))
		}
		for j := 0; j < sig.Results().Len(); j++ {
			m.Results = append(m.Results, p.resolveType(sig.Results().At(j).Type()))
		}
		for _, t := range m.Params {
			decl.Incomplete = decl.Incomplete || t.Incomplete
		}
		for _, t := range m.Results {
			decl.Incomplete = decl.Incomplete || t.Incomplete
		}
		decl.Methods = append(decl.Methods, m)
	}
	return decl, nil
}

// ResolveByQualifiedName implements Provider.
func (p *GoPackages) ResolveByQualifiedName(_ context.Context, fqn string) (*descriptor.TypeDescriptor, error) {
	if t, ok := p.interned[fqn]; ok {
		return t, nil
	}
	lastDot := strings.LastIndex(fqn, ".")
	if lastDot == -1 {
		return nil, fmt.Errorf("invalid qualified name %q, want import/path.Name", fqn)
	}
	pkgPath, typeName := fqn[:lastDot], fqn[lastDot+1:]
	for _, pkg := range p.allPackages() {
		if pkg.PkgPath != pkgPath || pkg.Types == nil {
			continue
		}
		obj := pkg.Types.Scope().Lookup(typeName)
		if obj == nil {
			continue
		}
		return p.resolveType(obj.Type()), nil
	}
	return nil, fmt.Errorf("type %q not found in loaded packages", fqn)
}

// allPackages returns the loaded packages plus their direct imports.
func (p *GoPackages) allPackages() []*packages.Package {
	seen := make(map[string]bool, len(p.pkgs))
	var out []*packages.Package
	var walk func(pkg *packages.Package)
	walk = func(pkg *packages.Package) {
		if seen[pkg.PkgPath] {
			return
		}
		seen[pkg.PkgPath] = true
		out = append(out, pkg)
		for _, imp := range pkg.Imports {
			walk(imp)
		}
	}
	for _, pkg := range p.pkgs {
		walk(pkg)
	}
	return out
}

// ListAccessors implements Provider.
func (p *GoPackages) ListAccessors(t *descriptor.TypeDescriptor) []*descriptor.Accessor {
	if t == nil {
		return nil
	}
	return t.Accessors
}

// IsAnnotatedWith implements Provider.
func (p *GoPackages) IsAnnotatedWith(name, directive string) bool {
	site, ok := p.decls[name]
	return ok && site.directives[directive]
}

// BuilderFor implements Provider. A type follows the builder convention when
// its package declares a <Name>Builder type with a Build method returning the
// built type; a New<Name>Builder function, when present, is the creation
// function.
func (p *GoPackages) BuilderFor(t *descriptor.TypeDescriptor) (*descriptor.BuilderDescriptor, bool) {
	if t == nil || !t.IsNamed() {
		return nil, false
	}
	for _, pkg := range p.allPackages() {
		if pkg.PkgPath != t.ImportPath || pkg.Types == nil {
			continue
		}
		scope := pkg.Types.Scope()
		obj := scope.Lookup(t.Name + "Builder")
		if obj == nil {
			return nil, false
		}
		named, ok := obj.Type().(*gotypes.Named)
		if !ok || !p.hasFinalizer(named, t.Name) {
			return nil, false
		}
		b := &descriptor.BuilderDescriptor{
			BuildingType:   p.resolveType(named),
			BuiltType:      t,
			FinalizeMethod: "Build",
		}
		if scope.Lookup("New"+t.Name+"Builder") != nil {
			b.CreationFunc = "New" + t.Name + "Builder"
		}
		return b, true
	}
	return nil, false
}

func (p *GoPackages) hasFinalizer(builder *gotypes.Named, builtName string) bool {
	for i := 0; i < builder.NumMethods(); i++ {
		fn := builder.Method(i)
		if fn.Name() != "Build" {
			continue
		}
		sig := fn.Type().(*gotypes.Signature)
		if sig.Results().Len() != 1 {
			return false
		}
		named, ok := sig.Results().At(0).Type().(*gotypes.Named)
		return ok && named.Obj().Name() == builtName
	}
	return false
}

// Refresh implements Provider.
func (p *GoPackages) Refresh(fqn string) {
	if t, ok := p.interned[fqn]; ok {
		delete(p.interned, fqn)
		for goType, cached := range p.byType {
			if cached == t {
				delete(p.byType, goType)
			}
		}
	}
}

// resolveType maps a go/types type onto the descriptor model. Descriptors
// are cached by type identity before recursing so self-referential types
// terminate.
func (p *GoPackages) resolveType(typ gotypes.Type) *descriptor.TypeDescriptor {
	if typ == nil {
		return nil
	}
	if cached, ok := p.byType[typ]; ok {
		return cached
	}

	info := &descriptor.TypeDescriptor{}
	p.byType[typ] = info

	switch t := typ.(type) {
	case *gotypes.Basic:
		info.Name = t.Name()
		info.Kind = descriptor.Scalar
		if t.Kind() == gotypes.Invalid {
			info.Kind = descriptor.Unknown
			info.Incomplete = true
		}
	case *gotypes.Alias:
		return p.resolveNamed(info, t.Obj(), gotypes.Unalias(t))
	case *gotypes.Named:
		return p.resolveNamed(info, t.Obj(), t.Underlying())
	case *gotypes.Pointer:
		info.Kind = descriptor.Pointer
		info.Elem = p.resolveType(t.Elem())
		info.Incomplete = info.Elem != nil && info.Elem.Incomplete
	case *gotypes.Slice:
		info.Kind = descriptor.Collection
		info.Elem = p.resolveType(t.Elem())
	case *gotypes.Array:
		info.Kind = descriptor.Collection
		info.Elem = p.resolveType(t.Elem())
	case *gotypes.Map:
		info.Kind = descriptor.Map
		info.Key = p.resolveType(t.Key())
		info.Elem = p.resolveType(t.Elem())
	case *gotypes.Interface:
		info.Kind = descriptor.Interface
	case *gotypes.Signature:
		info.Kind = descriptor.Func
	case *gotypes.Struct:
		info.Kind = descriptor.Aggregate
		p.fillStructAccessors(info, t)
	default:
		info.Kind = descriptor.Unknown
		info.Name = t.String()
	}
	return info
}

// resolveNamed fills a descriptor for a declared type: identity from the
// type name object, structure and accessors from the underlying type, method
// accessors from the declared method set.
func (p *GoPackages) resolveNamed(info *descriptor.TypeDescriptor, obj *gotypes.TypeName, underlying gotypes.Type) *descriptor.TypeDescriptor {
	info.Name = obj.Name()
	if obj.Pkg() != nil {
		info.ImportPath = obj.Pkg().Path()
	}
	if existing, ok := p.interned[info.FQN()]; ok {
		p.byType[obj.Type()] = existing
		return existing
	}
	p.interned[info.FQN()] = info

	if named, ok := obj.Type().(*gotypes.Named); ok {
		if tp := named.TypeParams(); tp != nil {
			for i := 0; i < tp.Len(); i++ {
				info.TypeParams = append(info.TypeParams, p.resolveType(tp.At(i)))
			}
		}
		p.fillMethodAccessors(info, named)
	}

	switch u := underlying.(type) {
	case *gotypes.Struct:
		info.Kind = descriptor.Aggregate
		p.fillStructAccessors(info, u)
	case *gotypes.Basic:
		info.Kind = descriptor.Scalar
		if u.Kind() == gotypes.Invalid {
			info.Kind = descriptor.Unknown
			info.Incomplete = true
		}
	case *gotypes.Slice:
		info.Kind = descriptor.Collection
		info.Elem = p.resolveType(u.Elem())
	case *gotypes.Array:
		info.Kind = descriptor.Collection
		info.Elem = p.resolveType(u.Elem())
	case *gotypes.Map:
		info.Kind = descriptor.Map
		info.Key = p.resolveType(u.Key())
		info.Elem = p.resolveType(u.Elem())
	case *gotypes.Pointer:
		info.Kind = descriptor.Pointer
		info.Elem = p.resolveType(u.Elem())
	case *gotypes.Interface:
		info.Kind = descriptor.Interface
	case *gotypes.Signature:
		info.Kind = descriptor.Func
	default:
		info.Kind = descriptor.Unknown
		info.Incomplete = true
	}
	return info
}

// fillStructAccessors synthesizes field-style accessors for the exported
// fields of a struct. A field whose type did not resolve marks the whole
// descriptor incomplete: its hierarchy is expected to appear in a later
// round.
func (p *GoPackages) fillStructAccessors(info *descriptor.TypeDescriptor, s *gotypes.Struct) {
	for i := 0; i < s.NumFields(); i++ {
		f := s.Field(i)
		if f.Embedded() {
			embedded := p.resolveType(f.Type())
			if embedded != nil {
				info.Accessors = append(info.Accessors, embedded.Accessors...)
				info.Incomplete = info.Incomplete || embedded.Incomplete
			}
			continue
		}
		if !f.Exported() {
			continue
		}
		fieldType := p.resolveType(f.Type())
		if fieldType != nil && fieldType.Incomplete {
			info.Incomplete = true
		}
		info.Accessors = append(info.Accessors, &descriptor.Accessor{
			Name:       f.Name(),
			Style:      descriptor.FieldStyle,
			Caps:       descriptor.CanRead | descriptor.CanWrite,
			Type:       fieldType,
			MemberName: f.Name(),
		})
	}
}

// fillMethodAccessors synthesizes method-style accessors from the
// Get<X>/Set<X>/Has<X> methods of a named type.
func (p *GoPackages) fillMethodAccessors(info *descriptor.TypeDescriptor, named *gotypes.Named) {
	for i := 0; i < named.NumMethods(); i++ {
		fn := named.Method(i)
		if !fn.Exported() {
			continue
		}
		sig := fn.Type().(*gotypes.Signature)
		name := fn.Name()
		switch {
		case strings.HasPrefix(name, "Get") && len(name) > 3 && sig.Params().Len() == 0 && sig.Results().Len() == 1:
			info.Accessors = append(info.Accessors, &descriptor.Accessor{
				Name:       name[3:],
				Style:      descriptor.MethodStyle,
				Caps:       descriptor.CanRead,
				Type:       p.resolveType(sig.Results().At(0).Type()),
				MemberName: name,
			})
		case strings.HasPrefix(name, "Set") && len(name) > 3 && sig.Params().Len() == 1:
			info.Accessors = append(info.Accessors, &descriptor.Accessor{
				Name:       name[3:],
				Style:      descriptor.MethodStyle,
				Caps:       descriptor.CanWrite,
				Type:       p.resolveType(sig.Params().At(0).Type()),
				MemberName: name,
			})
		case strings.HasPrefix(name, "Has") && len(name) > 3 && sig.Params().Len() == 0 && sig.Results().Len() == 1:
			if basic, ok := sig.Results().At(0).Type().(*gotypes.Basic); ok && basic.Kind() == gotypes.Bool {
				info.Accessors = append(info.Accessors, &descriptor.Accessor{
					Name:       name[3:],
					Style:      descriptor.MethodStyle,
					Caps:       descriptor.CanCheckPresence,
					Type:       p.resolveType(sig.Results().At(0).Type()),
					MemberName: name,
				})
			}
		}
	}
}
