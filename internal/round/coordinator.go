// Package round drives the processing pipeline across compilation rounds.
// Declarations whose referenced types are not yet fully known are deferred
// and retried with fresh snapshots in later rounds; the terminal round
// abandons whatever is still deferred to the host's own diagnostics.
package round

import (
	"context"
	"log/slog"
	"sort"

	"github.com/origadmin/mapgen/internal/config"
	"github.com/origadmin/mapgen/internal/diag"
	"github.com/origadmin/mapgen/internal/host"
	"github.com/origadmin/mapgen/internal/pipeline"
)

// Coordinator owns the cross-round deferred set and runs the pipeline once
// per declaration per round. It is strictly round-synchronous: the host must
// serialize RunRound calls, there is no internal locking.
type Coordinator struct {
	provider host.Provider
	registry *pipeline.Registry
	opts     *config.Options
	reporter diag.Reporter

	// deferred holds declaration identities carried over between rounds.
	// Lifecycle: empty at construction, drained and cleared at every round
	// start, refilled during the round, discarded after the terminal round.
	deferred map[string]struct{}
}

// New creates a coordinator. The options are resolved once by the caller and
// shared by reference across all rounds.
func New(provider host.Provider, registry *pipeline.Registry, opts *config.Options, reporter diag.Reporter) *Coordinator {
	return &Coordinator{
		provider: provider,
		registry: registry,
		opts:     opts,
		reporter: reporter,
		deferred: make(map[string]struct{}),
	}
}

// DeferredCount returns the number of declarations waiting for a later
// round.
func (c *Coordinator) DeferredCount() int { return len(c.deferred) }

// Deferred returns the deferred declaration identities, sorted for stable
// reporting.
func (c *Coordinator) Deferred() []string {
	out := make([]string, 0, len(c.deferred))
	for name := range c.deferred {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// RunRound processes one compilation round: the declarations deferred from
// earlier rounds, re-resolved to fresh snapshots, unioned with the newly
// discovered ones. On the terminal round nothing is processed; leftover
// deferrals are dropped silently since the host's own diagnostics cover the
// types that never materialized.
//
// Within a round, declaration order is deliberately unordered: no
// declaration may depend on another finishing in the same round. Cross-
// declaration dependencies are the host's deferred compilation's problem,
// not the coordinator's.
func (c *Coordinator) RunRound(ctx context.Context, newlyDiscovered []string, finalRound bool) {
	if finalRound {
		if len(c.deferred) > 0 && c.opts.Verbose {
			slog.Debug("terminal round, abandoning deferred declarations", "count", len(c.deferred))
		}
		c.deferred = make(map[string]struct{})
		return
	}

	work := c.drainDeferred()
	for _, name := range newlyDiscovered {
		work[name] = struct{}{}
	}

	roundCtx := pipeline.NewRoundContext()
	for name := range work {
		if !c.processDeclaration(ctx, roundCtx, name) {
			// Internal failure: abandon the remainder of the round.
			// Declarations already completed stay committed.
			return
		}
	}
}

// drainDeferred empties the deferred set and returns its identities as this
// round's starting work set. Snapshots are not carried over: each identity
// is re-resolved by processDeclaration, since the earlier snapshot may
// reference erroneous type elements.
func (c *Coordinator) drainDeferred() map[string]struct{} {
	work := make(map[string]struct{}, len(c.deferred))
	for name := range c.deferred {
		c.provider.Refresh(name)
		work[name] = struct{}{}
	}
	c.deferred = make(map[string]struct{})
	return work
}

// processDeclaration runs the pipeline for one declaration in a fresh
// per-declaration context. It returns false only on an internal failure,
// which aborts the round: such a failure signals a defect in the pipeline
// itself, not in the user's declarations.
func (c *Coordinator) processDeclaration(ctx context.Context, roundCtx *pipeline.RoundContext, name string) bool {
	decl, err := c.provider.DeclarationByName(ctx, name)
	if err != nil {
		// The host cannot see the identity right now; keep waiting, the
		// terminal round discards it if it never appears.
		slog.Debug("declaration not resolvable this round, deferring", "decl", name, "error", err)
		c.deferred[name] = struct{}{}
		return true
	}

	pctx := pipeline.NewContext(ctx, roundCtx, c.opts, c.reporter, c.provider)
	_, err = c.registry.Run(pctx, decl)
	switch {
	case err == nil:
		return true

	case pipeline.IsDefer(err):
		if c.opts.Verbose {
			diag.Notef(c.reporter, diag.Location{Declaration: name, Pos: decl.Pos},
				"referenced types not available yet, deferring declaration")
		}
		c.deferred[name] = struct{}{}
		return true

	default:
		if ce, ok := pipeline.AsConfigError(err); ok {
			// A configuration defect does not benefit from retry.
			c.reporter.Report(diag.Error, ce.Loc, ce.Msg)
			return true
		}
		diag.Errorf(c.reporter, diag.Location{Declaration: name, Pos: decl.Pos},
			"internal error in the mapping generator: %s", diag.FlattenStack(err))
		return false
	}
}
