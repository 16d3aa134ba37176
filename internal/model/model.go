// Package model is the generation model the pipeline builds up: one Mapper
// per declaration, holding the fully resolved mapping methods the emission
// engine renders into source text.
package model

import (
	"go/token"

	"github.com/origadmin/mapgen/internal/descriptor"
	"github.com/origadmin/mapgen/internal/path"
)

// Mapper is the completed generation model for one declaration.
type Mapper struct {
	// Declaration is the qualified identity of the originating declaration.
	Declaration string
	// Name is the implementation identifier reserved for the artifact.
	Name    string
	Pos     token.Position
	Methods []*MappingMethod
}

// MappingMethod is one resolved conversion method.
type MappingMethod struct {
	Name   string
	Pos    token.Position
	Source *descriptor.TypeDescriptor
	Target *descriptor.TypeDescriptor
	// ReturnsError is set when the method signature carries a trailing
	// error result.
	ReturnsError bool
	// UpdatesTarget is set for update-style methods, which write into a
	// caller-provided target instead of returning a fresh one.
	UpdatesTarget bool
	Mappings      []*PropertyMapping
}

// PropertyMapping copies one source value, or a constant, into one target
// property.
type PropertyMapping struct {
	// Target is the resolved target reference; its leaf carries the write
	// accessor and any builder metadata.
	Target *path.Reference
	// Source is the resolved source reference; nil when Constant is set.
	Source *path.Reference
	// Constant is a literal value mapped into the target.
	Constant string
}
