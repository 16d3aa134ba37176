// Package emit is the boundary to the source-text emission engine. The
// pipeline's final stage hands one completed generation model per successful
// declaration to an Emitter; rendering itself is outside the core.
package emit

import (
	"context"
	"log/slog"

	"github.com/davecgh/go-spew/spew"

	"github.com/origadmin/mapgen/internal/model"
)

// Emitter receives completed generation models.
type Emitter interface {
	Emit(ctx context.Context, mapper *model.Mapper) error
}

// Collector retains emitted models in order, for the CLI summary and for
// tests asserting on round output.
type Collector struct {
	Verbose bool
	Mappers []*model.Mapper
}

// Emit implements Emitter.
func (c *Collector) Emit(_ context.Context, mapper *model.Mapper) error {
	c.Mappers = append(c.Mappers, mapper)
	if c.Verbose {
		slog.Debug("model emitted", "decl", mapper.Declaration, "dump", spew.Sdump(mapper))
	} else {
		slog.Debug("model emitted", "decl", mapper.Declaration, "methods", len(mapper.Methods))
	}
	return nil
}

// ByDeclaration returns the emitted model for a declaration identity, if any.
func (c *Collector) ByDeclaration(name string) *model.Mapper {
	for _, m := range c.Mappers {
		if m.Declaration == name {
			return m
		}
	}
	return nil
}
