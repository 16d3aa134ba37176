// Package pipeline runs an ordered sequence of transformation stages over
// each mapper declaration, threading one evolving generation model through
// them. Stages are registered statically with distinct integer priorities;
// method extraction runs first, code-emission handoff last.
package pipeline

import (
	"fmt"
	"log/slog"
	"sort"

	pkgerrors "github.com/pkg/errors"

	"github.com/origadmin/mapgen/internal/host"
)

// Stage is one transformation pass over the generation model. A stage
// receives the model produced by its predecessor (nil for the first stage)
// and may return it unchanged.
type Stage interface {
	Name() string
	Priority() int
	Process(pctx *Context, decl *host.Declaration, model any) (any, error)
}

// Registry is the static, ordered list of pipeline stages. Duplicate
// priorities are rejected at registration so stage order is never left to
// chance.
type Registry struct {
	stages     []Stage
	byPriority map[int]string
}

// NewRegistry creates an empty stage registry.
func NewRegistry() *Registry {
	return &Registry{byPriority: make(map[int]string)}
}

// Register adds a stage, rejecting a priority that is already taken.
func (r *Registry) Register(s Stage) error {
	if prev, taken := r.byPriority[s.Priority()]; taken {
		return fmt.Errorf("stage %s: priority %d already registered by %s", s.Name(), s.Priority(), prev)
	}
	r.byPriority[s.Priority()] = s.Name()
	r.stages = append(r.stages, s)
	sort.SliceStable(r.stages, func(i, j int) bool {
		return r.stages[i].Priority() < r.stages[j].Priority()
	})
	return nil
}

// MustRegister is Register for static wiring, panicking on a duplicate
// priority since that is a programming error.
func (r *Registry) MustRegister(stages ...Stage) *Registry {
	for _, s := range stages {
		if err := r.Register(s); err != nil {
			panic(err)
		}
	}
	return r
}

// Stages returns the registered stages sorted ascending by priority.
func (r *Registry) Stages() []Stage {
	out := make([]Stage, len(r.stages))
	copy(out, r.stages)
	return out
}

// Run threads the evolving model through every stage for one declaration.
// It stops at the first failing stage: defer-kind and configuration errors
// propagate to the coordinator for their distinct handling, anything else is
// wrapped as an internal failure with its stack preserved. A panicking stage
// is recovered into an internal failure as well.
func (r *Registry) Run(pctx *Context, decl *host.Declaration) (model any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			model = nil
			err = pkgerrors.Errorf("panic while processing %s: %v", decl.Name, rec)
		}
	}()

	for _, stage := range r.stages {
		slog.Debug("running pipeline stage", "stage", stage.Name(), "priority", stage.Priority(), "decl", decl.Name)
		model, err = stage.Process(pctx, decl, model)
		if err != nil {
			if IsDefer(err) {
				return nil, err
			}
			if _, ok := AsConfigError(err); ok {
				return nil, err
			}
			return nil, pkgerrors.WithStack(fmt.Errorf("stage %s failed on %s: %w", stage.Name(), decl.Name, err))
		}
	}
	return model, nil
}
