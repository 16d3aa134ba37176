package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/origadmin/mapgen/internal/config"
	"github.com/origadmin/mapgen/internal/descriptor"
	"github.com/origadmin/mapgen/internal/diag"
	"github.com/origadmin/mapgen/internal/host"
)

// stubStage is a configurable test stage.
type stubStage struct {
	name     string
	priority int
	process  func(pctx *Context, decl *host.Declaration, model any) (any, error)
}

func (s stubStage) Name() string  { return s.name }
func (s stubStage) Priority() int { return s.priority }
func (s stubStage) Process(pctx *Context, decl *host.Declaration, model any) (any, error) {
	if s.process == nil {
		return model, nil
	}
	return s.process(pctx, decl, model)
}

func testContext() *Context {
	return NewContext(context.Background(), NewRoundContext(), config.Default(), &diag.Collector{}, host.NewFake())
}

func TestRegistry_SortsByPriority(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(stubStage{name: "emit", priority: 1000}))
	require.NoError(t, r.Register(stubStage{name: "extract", priority: 1}))
	require.NoError(t, r.Register(stubStage{name: "create", priority: 5}))

	var names []string
	for _, s := range r.Stages() {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{"extract", "create", "emit"}, names)
}

func TestRegistry_RejectsDuplicatePriority(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(stubStage{name: "first", priority: 5}))

	err := r.Register(stubStage{name: "second", priority: 5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "priority 5")
	assert.Contains(t, err.Error(), "first")
	assert.Len(t, r.Stages(), 1)

	assert.Panics(t, func() {
		NewRegistry().MustRegister(
			stubStage{name: "a", priority: 1},
			stubStage{name: "b", priority: 1},
		)
	})
}

func TestRun_ThreadsModelThroughStages(t *testing.T) {
	r := NewRegistry().MustRegister(
		stubStage{name: "init", priority: 1, process: func(_ *Context, _ *host.Declaration, model any) (any, error) {
			if model != nil {
				return nil, fmt.Errorf("first stage expects no model, got %v", model)
			}
			return []string{"init"}, nil
		}},
		stubStage{name: "passthrough", priority: 2},
		stubStage{name: "append", priority: 3, process: func(_ *Context, _ *host.Declaration, model any) (any, error) {
			return append(model.([]string), "append"), nil
		}},
	)

	model, err := r.Run(testContext(), &host.Declaration{Name: "app.Mapper"})
	require.NoError(t, err)
	assert.Equal(t, []string{"init", "append"}, model)
}

func TestRun_ConfigErrorShortCircuits(t *testing.T) {
	var ran []string
	loc := diag.Location{Declaration: "app.Mapper", Directive: "map", Value: "Nope"}
	r := NewRegistry().MustRegister(
		stubStage{name: "bad", priority: 1, process: func(_ *Context, _ *host.Declaration, model any) (any, error) {
			ran = append(ran, "bad")
			return nil, Configf(loc, "no such target property")
		}},
		stubStage{name: "after", priority: 2, process: func(_ *Context, _ *host.Declaration, model any) (any, error) {
			ran = append(ran, "after")
			return model, nil
		}},
	)

	model, err := r.Run(testContext(), &host.Declaration{Name: "app.Mapper"})
	assert.Nil(t, model)
	ce, ok := AsConfigError(err)
	require.True(t, ok)
	assert.Equal(t, loc, ce.Loc)
	assert.Equal(t, []string{"bad"}, ran)
}

func TestRun_DeferPropagates(t *testing.T) {
	r := NewRegistry().MustRegister(
		stubStage{name: "defer", priority: 1, process: func(_ *Context, decl *host.Declaration, _ any) (any, error) {
			return nil, Deferf(decl.Name, descriptor.ErrIncompleteType)
		}},
		stubStage{name: "unreached", priority: 2, process: func(_ *Context, _ *host.Declaration, _ any) (any, error) {
			t.Fatal("stage after a deferral must not run")
			return nil, nil
		}},
	)

	_, err := r.Run(testContext(), &host.Declaration{Name: "app.Mapper"})
	assert.True(t, IsDefer(err))
	assert.True(t, errors.Is(err, descriptor.ErrIncompleteType))
}

func TestRun_WrapsInternalFailuresWithStack(t *testing.T) {
	r := NewRegistry().MustRegister(
		stubStage{name: "boom", priority: 1, process: func(_ *Context, _ *host.Declaration, _ any) (any, error) {
			return nil, errors.New("index out of range")
		}},
	)

	_, err := r.Run(testContext(), &host.Declaration{Name: "app.Mapper"})
	require.Error(t, err)
	assert.False(t, IsDefer(err))
	_, isConfig := AsConfigError(err)
	assert.False(t, isConfig)

	flattened := diag.FlattenStack(err)
	assert.Contains(t, flattened, "index out of range")
	assert.NotContains(t, flattened, "\n")
}

func TestRun_RecoversPanicAsInternalFailure(t *testing.T) {
	r := NewRegistry().MustRegister(
		stubStage{name: "panics", priority: 1, process: func(_ *Context, _ *host.Declaration, _ any) (any, error) {
			panic("nil map write")
		}},
	)

	model, err := r.Run(testContext(), &host.Declaration{Name: "app.Mapper"})
	assert.Nil(t, model)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nil map write")
	assert.False(t, IsDefer(err))
}

func TestIsDefer_KindClassification(t *testing.T) {
	assert.True(t, IsDefer(Deferf("app.Mapper", errors.New("draft not ready"))))
	assert.True(t, IsDefer(fmt.Errorf("resolving: %w", descriptor.ErrIncompleteType)))
	assert.False(t, IsDefer(errors.New("plain failure")))
	assert.False(t, IsDefer(Configf(diag.Location{}, "bad directive")))
}

func TestRoundContext_Reserve(t *testing.T) {
	rc := NewRoundContext()
	assert.True(t, rc.Reserve("PersonMapperImpl"))
	assert.False(t, rc.Reserve("PersonMapperImpl"))
	assert.True(t, rc.Reserve("OrderMapperImpl"))
}
