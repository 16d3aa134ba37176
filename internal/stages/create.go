package stages

import (
	"errors"
	"fmt"
	"sort"

	"github.com/origadmin/mapgen/internal/config"
	"github.com/origadmin/mapgen/internal/descriptor"
	"github.com/origadmin/mapgen/internal/diag"
	"github.com/origadmin/mapgen/internal/host"
	"github.com/origadmin/mapgen/internal/model"
	"github.com/origadmin/mapgen/internal/path"
	"github.com/origadmin/mapgen/internal/pipeline"
)

// MapperCreation fills the mapper model with property mappings: explicit
// directives first, then implicit name matching for the remaining target
// properties, with the unmapped-target policy applied to leftovers.
type MapperCreation struct{}

func (MapperCreation) Name() string  { return "mapper-creation" }
func (MapperCreation) Priority() int { return PriorityMapperCreation }

// Process implements pipeline.Stage.
func (MapperCreation) Process(pctx *pipeline.Context, decl *host.Declaration, m any) (any, error) {
	mapper, ok := m.(*model.Mapper)
	if !ok {
		return nil, fmt.Errorf("mapper-creation expects the extraction model, got %T", m)
	}

	for i, method := range mapper.Methods {
		if err := mapMethod(pctx, decl, decl.Methods[i], method); err != nil {
			return nil, err
		}
	}
	return mapper, nil
}

func mapMethod(pctx *pipeline.Context, decl *host.Declaration, hm *host.Method, method *model.MappingMethod) error {
	source := deref(method.Source)
	target := deref(method.Target)
	if source.Incomplete || target.Incomplete {
		return pipeline.Deferf(decl.Name, descriptor.ErrIncompleteType)
	}
	loc := diag.Location{Declaration: decl.Name, Pos: method.Pos}
	if len(targetProperties(pctx, target)) == 0 {
		return pipeline.Configf(loc,
			"target type %s of method %s has no writable properties", target, method.Name)
	}

	ignored := make(map[string]bool)
	explicit := make(map[string]string)  // target dotted name -> source dotted name
	constants := make(map[string]string) // target dotted name -> literal

	for _, d := range hm.Directives {
		dloc := diag.Location{Declaration: decl.Name, Directive: d.Key, Value: d.Raw, Pos: d.Pos}
		switch d.Key {
		case "map":
			tgt, haveTarget := d.Arg("target")
			src, haveSource := d.Arg("source")
			if !haveTarget || !haveSource {
				return pipeline.Configf(dloc, "map directive needs both target and source")
			}
			explicit[tgt] = src
		case "ignore":
			name, haveName := d.Arg("value")
			if !haveName {
				if name, haveName = d.Arg("target"); !haveName {
					return pipeline.Configf(dloc, "ignore directive needs a target property name")
				}
			}
			ignored[name] = true
		case "constant":
			tgt, haveTarget := d.Arg("target")
			value, haveValue := d.Arg("value")
			if !haveTarget || !haveValue {
				return pipeline.Configf(dloc, "constant directive needs both target and value")
			}
			constants[tgt] = value
		default:
			return pipeline.Configf(dloc, "unknown mapping directive %q", d.Key)
		}
	}

	mapped := make(map[string]bool)

	// Explicit mappings first: a bad dotted path here is a configuration
	// error at the directive, not an unmapped-property condition. Sorted so
	// the emitted model is stable across runs.
	for _, tgtName := range sortedKeys(explicit) {
		srcName := explicit[tgtName]
		dloc := diag.Location{Declaration: decl.Name, Directive: "map", Value: tgtName, Pos: method.Pos}
		tgtRef, err := resolveTarget(pctx, target, tgtName)
		if err != nil {
			return explicitResolutionError(decl, dloc, err)
		}
		srcRef, err := resolveSource(pctx, source, srcName)
		if err != nil {
			return explicitResolutionError(decl, dloc, err)
		}
		method.Mappings = append(method.Mappings, &model.PropertyMapping{Target: tgtRef, Source: srcRef})
		mapped[tgtRef.Entries()[0].Name()] = true
	}

	for _, tgtName := range sortedKeys(constants) {
		value := constants[tgtName]
		dloc := diag.Location{Declaration: decl.Name, Directive: "constant", Value: tgtName, Pos: method.Pos}
		tgtRef, err := resolveTarget(pctx, target, tgtName)
		if err != nil {
			return explicitResolutionError(decl, dloc, err)
		}
		method.Mappings = append(method.Mappings, &model.PropertyMapping{Target: tgtRef, Constant: value})
		mapped[tgtRef.Entries()[0].Name()] = true
	}

	// Implicit matching for the remaining writable target properties.
	for _, prop := range targetProperties(pctx, target) {
		if ignored[prop] || mapped[prop] {
			continue
		}
		srcRef, err := resolveSource(pctx, source, prop)
		if err != nil {
			var noAcc *path.NoAccessorError
			if errors.As(err, &noAcc) {
				if err := applyUnmappedPolicy(pctx, loc, method.Name, prop, target); err != nil {
					return err
				}
				continue
			}
			if pipeline.IsDefer(err) {
				return pipeline.Deferf(decl.Name, err)
			}
			return err
		}
		tgtRef, err := resolveTarget(pctx, target, prop)
		if err != nil {
			if pipeline.IsDefer(err) {
				return pipeline.Deferf(decl.Name, err)
			}
			return err
		}
		method.Mappings = append(method.Mappings, &model.PropertyMapping{Target: tgtRef, Source: srcRef})
	}
	return nil
}

// targetProperties lists the writable property names of the target type,
// including those reachable only through its builder intermediate.
func targetProperties(pctx *pipeline.Context, target *descriptor.TypeDescriptor) []string {
	seen := make(map[string]bool)
	var props []string
	add := func(accessors []*descriptor.Accessor) {
		for _, a := range accessors {
			if a.Can(descriptor.CanWrite) && !seen[a.Name] {
				seen[a.Name] = true
				props = append(props, a.Name)
			}
		}
	}
	add(pctx.Provider.ListAccessors(target))
	if b, ok := pctx.Provider.BuilderFor(target); ok && b.BuildingType != nil {
		add(pctx.Provider.ListAccessors(b.BuildingType))
	}
	return props
}

func applyUnmappedPolicy(pctx *pipeline.Context, loc diag.Location, method, prop string, target *descriptor.TypeDescriptor) error {
	switch pctx.Options.UnmappedTargetPolicy {
	case config.PolicyIgnore:
		return nil
	case config.PolicyError:
		return pipeline.Configf(loc,
			"unmapped target property %q of %s in method %s", prop, target, method)
	default:
		diag.Warnf(pctx.Reporter, loc,
			"unmapped target property %q of %s in method %s", prop, target, method)
		return nil
	}
}

// explicitResolutionError classifies a resolution failure on an explicitly
// configured path: incomplete types defer, everything else is a directive
// configuration error.
func explicitResolutionError(decl *host.Declaration, loc diag.Location, err error) error {
	if pipeline.IsDefer(err) {
		return pipeline.Deferf(decl.Name, err)
	}
	var noAcc *path.NoAccessorError
	if errors.As(err, &noAcc) {
		return pipeline.Configf(loc, "%s", noAcc.Error())
	}
	return err
}

func resolveTarget(pctx *pipeline.Context, root *descriptor.TypeDescriptor, dotted string) (*path.Reference, error) {
	if ref, ok := pctx.Round.Paths.Get(root, dotted, path.TargetRole); ok {
		return ref, nil
	}
	ref, err := path.ResolveTarget(root, dotted, pctx.Provider,
		pctx.Options.DefaultConstruction == "builder")
	if err != nil {
		return nil, err
	}
	pctx.Round.Paths.Put(ref)
	return ref, nil
}

func resolveSource(pctx *pipeline.Context, root *descriptor.TypeDescriptor, dotted string) (*path.Reference, error) {
	if ref, ok := pctx.Round.Paths.Get(root, dotted, path.SourceRole); ok {
		return ref, nil
	}
	ref, err := path.ResolveSource(root, dotted)
	if err != nil {
		return nil, err
	}
	pctx.Round.Paths.Put(ref)
	return ref, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func deref(t *descriptor.TypeDescriptor) *descriptor.TypeDescriptor {
	for t != nil && t.Kind == descriptor.Pointer && t.Elem != nil {
		t = t.Elem
	}
	return t
}
