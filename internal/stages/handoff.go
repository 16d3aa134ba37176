package stages

import (
	"fmt"

	"github.com/origadmin/mapgen/internal/emit"
	"github.com/origadmin/mapgen/internal/host"
	"github.com/origadmin/mapgen/internal/model"
	"github.com/origadmin/mapgen/internal/pipeline"
)

// EmissionHandoff hands the completed model to the emission engine. It runs
// last; an emission failure is an internal error, never a deferral.
type EmissionHandoff struct {
	Emitter emit.Emitter
}

func (EmissionHandoff) Name() string  { return "emission-handoff" }
func (EmissionHandoff) Priority() int { return PriorityEmissionHandoff }

// Process implements pipeline.Stage.
func (s EmissionHandoff) Process(pctx *pipeline.Context, decl *host.Declaration, m any) (any, error) {
	mapper, ok := m.(*model.Mapper)
	if !ok {
		return nil, fmt.Errorf("emission-handoff expects a completed mapper model, got %T", m)
	}
	if err := s.Emitter.Emit(pctx.Ctx, mapper); err != nil {
		return nil, fmt.Errorf("emitting model for %s: %w", decl.Name, err)
	}
	return mapper, nil
}
