// Package stages holds the concrete pipeline stages: method-signature
// extraction, mapper model creation and the emission handoff, in ascending
// priority order.
package stages

import (
	"strings"

	"github.com/origadmin/mapgen/internal/descriptor"
	"github.com/origadmin/mapgen/internal/diag"
	"github.com/origadmin/mapgen/internal/host"
	"github.com/origadmin/mapgen/internal/model"
	"github.com/origadmin/mapgen/internal/pipeline"
)

// Stage priorities. Distinct by construction; the registry enforces it.
const (
	PriorityMethodExtraction = 1
	PriorityMapperCreation   = 5
	PriorityEmissionHandoff  = 1000
)

// MethodExtraction validates the declaration's method signatures and builds
// the initial mapper model skeleton. It runs first.
type MethodExtraction struct{}

func (MethodExtraction) Name() string  { return "method-extraction" }
func (MethodExtraction) Priority() int { return PriorityMethodExtraction }

// Process implements pipeline.Stage.
func (MethodExtraction) Process(pctx *pipeline.Context, decl *host.Declaration, _ any) (any, error) {
	if decl.Incomplete {
		return nil, pipeline.Deferf(decl.Name, descriptor.ErrIncompleteType)
	}
	if len(decl.Methods) == 0 {
		return nil, pipeline.Configf(diag.Location{Declaration: decl.Name, Pos: decl.Pos},
			"mapper declaration has no mapping methods")
	}

	mapper := &model.Mapper{
		Declaration: decl.Name,
		Name:        implementationName(decl.Name),
		Pos:         decl.Pos,
	}
	pctx.Round.Reserve(mapper.Name)

	for _, m := range decl.Methods {
		loc := diag.Location{Declaration: decl.Name, Pos: m.Pos}
		var source, target *descriptor.TypeDescriptor
		var returnsError, updatesTarget bool

		switch len(m.Params) {
		case 1:
			source = m.Params[0]
			switch len(m.Results) {
			case 1:
			case 2:
				if m.Results[1].Name != "error" {
					return nil, pipeline.Configf(loc,
						"mapping method %s second result must be error, got %s", m.Name, m.Results[1])
				}
				returnsError = true
			default:
				return nil, pipeline.Configf(loc,
					"mapping method %s must return the target value, optionally with an error", m.Name)
			}
			target = m.Results[0]
		case 2:
			// Update style: the second parameter is the existing target value
			// the mapping writes into.
			source, target = m.Params[0], m.Params[1]
			updatesTarget = true
			switch len(m.Results) {
			case 0:
			case 1:
				if m.Results[0].Name != "error" {
					return nil, pipeline.Configf(loc,
						"update method %s may only return error, got %s", m.Name, m.Results[0])
				}
				returnsError = true
			default:
				return nil, pipeline.Configf(loc,
					"update method %s may only return error", m.Name)
			}
		default:
			return nil, pipeline.Configf(loc,
				"mapping method %s must take a source parameter, optionally with a target to update, got %d parameters",
				m.Name, len(m.Params))
		}

		if source.Incomplete || target.Incomplete {
			return nil, pipeline.Deferf(decl.Name, descriptor.ErrIncompleteType)
		}

		mapper.Methods = append(mapper.Methods, &model.MappingMethod{
			Name:          m.Name,
			Pos:           m.Pos,
			Source:        source,
			Target:        target,
			ReturnsError:  returnsError,
			UpdatesTarget: updatesTarget,
		})
	}
	return mapper, nil
}

// implementationName derives the reserved artifact identifier from the
// declaration's qualified name.
func implementationName(qualified string) string {
	name := qualified
	if idx := strings.LastIndex(name, "."); idx != -1 {
		name = name[idx+1:]
	}
	return name + "Impl"
}
