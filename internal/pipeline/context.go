package pipeline

import (
	"context"

	"github.com/origadmin/mapgen/internal/config"
	"github.com/origadmin/mapgen/internal/diag"
	"github.com/origadmin/mapgen/internal/host"
	"github.com/origadmin/mapgen/internal/path"
)

// RoundContext holds caches scoped to exactly one compilation round. It must
// not leak across round boundaries: a later round may re-resolve the same
// nominal type to a structurally different descriptor, which would make any
// carried-over cache entry wrong.
type RoundContext struct {
	// Paths memoizes resolved property references within the round.
	Paths *path.Cache
	// ReservedNames are identifiers generated artifacts must not collide
	// with, accumulated as declarations in the round claim them.
	ReservedNames map[string]struct{}
}

// NewRoundContext creates the caches for one round.
func NewRoundContext() *RoundContext {
	return &RoundContext{
		Paths:         path.NewCache(),
		ReservedNames: make(map[string]struct{}),
	}
}

// Reserve claims an identifier for the remainder of the round and reports
// whether it was free.
func (rc *RoundContext) Reserve(name string) bool {
	if _, taken := rc.ReservedNames[name]; taken {
		return false
	}
	rc.ReservedNames[name] = struct{}{}
	return true
}

// Context is the per-declaration processing context threaded through every
// stage. Each declaration gets a fresh one so stage-local state never bleeds
// between declarations.
type Context struct {
	Ctx      context.Context
	Round    *RoundContext
	Options  *config.Options
	Reporter diag.Reporter
	Provider host.Provider
}

// NewContext derives a per-declaration context from the round's shared state.
func NewContext(ctx context.Context, round *RoundContext, opts *config.Options,
	reporter diag.Reporter, provider host.Provider) *Context {
	return &Context{
		Ctx:      ctx,
		Round:    round,
		Options:  opts,
		Reporter: reporter,
		Provider: provider,
	}
}
