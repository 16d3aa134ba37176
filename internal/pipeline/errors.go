package pipeline

import (
	"errors"
	"fmt"

	"github.com/origadmin/mapgen/internal/descriptor"
	"github.com/origadmin/mapgen/internal/diag"
)

// DeferError signals that a declaration referenced a type whose hierarchy is
// not yet known. The coordinator moves the declaration to the deferred set
// and retries it in a later round instead of reporting a diagnostic.
type DeferError struct {
	Decl string
	Err  error
}

func (e *DeferError) Error() string {
	return fmt.Sprintf("deferring %s: %v", e.Decl, e.Err)
}

func (e *DeferError) Unwrap() error { return e.Err }

// Deferf wraps err as a defer-kind failure for decl.
func Deferf(decl string, err error) error {
	return &DeferError{Decl: decl, Err: err}
}

// IsDefer reports whether err is a defer-kind failure, either wrapped
// explicitly or carrying an incomplete-type cause.
func IsDefer(err error) bool {
	var de *DeferError
	return errors.As(err, &de) || errors.Is(err, descriptor.ErrIncompleteType)
}

// ConfigError is a user-facing mapping-configuration error at a known source
// location. It is reported immediately and never retried: a configuration
// defect does not benefit from another round.
type ConfigError struct {
	Loc diag.Location
	Msg string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Loc, e.Msg)
}

// Configf creates a ConfigError with a formatted message.
func Configf(loc diag.Location, format string, args ...any) *ConfigError {
	return &ConfigError{Loc: loc, Msg: fmt.Sprintf(format, args...)}
}

// AsConfigError extracts a ConfigError from err's chain.
func AsConfigError(err error) (*ConfigError, bool) {
	var ce *ConfigError
	ok := errors.As(err, &ce)
	return ce, ok
}
