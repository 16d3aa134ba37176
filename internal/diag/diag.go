// Package diag carries diagnostics from the generation core back to the
// host. Every diagnostic is attached to the most precise source location
// known: the declaration, the directive on it, or the directive value.
package diag

import (
	"fmt"
	"go/token"
	"log/slog"
	"strings"
)

// Severity grades a diagnostic.
type Severity int

const (
	Note Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "note"
	}
}

// Location pins a diagnostic to a declaration and, when known, an exact
// position inside it.
type Location struct {
	Declaration string // qualified identity of the declaration
	Directive   string // directive text, when the diagnostic concerns one
	Value       string // offending directive value, when known
	Pos         token.Position
}

func (l Location) String() string {
	var sb strings.Builder
	if l.Pos.IsValid() {
		sb.WriteString(l.Pos.String())
		sb.WriteString(": ")
	}
	sb.WriteString(l.Declaration)
	if l.Directive != "" {
		sb.WriteString(" [")
		sb.WriteString(l.Directive)
		if l.Value != "" {
			sb.WriteString("=")
			sb.WriteString(l.Value)
		}
		sb.WriteString("]")
	}
	return sb.String()
}

// Reporter receives diagnostics. Implementations must be safe to call for
// the whole compilation; the core never retains a diagnostic after reporting.
type Reporter interface {
	Report(sev Severity, loc Location, msg string)
}

// Errorf reports a formatted error diagnostic.
func Errorf(r Reporter, loc Location, format string, args ...any) {
	r.Report(Error, loc, fmt.Sprintf(format, args...))
}

// Warnf reports a formatted warning diagnostic.
func Warnf(r Reporter, loc Location, format string, args ...any) {
	r.Report(Warning, loc, fmt.Sprintf(format, args...))
}

// Notef reports a formatted note diagnostic.
func Notef(r Reporter, loc Location, format string, args ...any) {
	r.Report(Note, loc, fmt.Sprintf(format, args...))
}

// SlogReporter forwards diagnostics to the default structured logger.
type SlogReporter struct{}

// Report implements Reporter.
func (SlogReporter) Report(sev Severity, loc Location, msg string) {
	switch sev {
	case Error:
		slog.Error(msg, "location", loc.String())
	case Warning:
		slog.Warn(msg, "location", loc.String())
	default:
		slog.Info(msg, "location", loc.String())
	}
}

// Collector records diagnostics for inspection, mainly in tests.
type Collector struct {
	Diagnostics []Diagnostic
}

// Diagnostic is one recorded report.
type Diagnostic struct {
	Severity Severity
	Location Location
	Message  string
}

// Report implements Reporter.
func (c *Collector) Report(sev Severity, loc Location, msg string) {
	c.Diagnostics = append(c.Diagnostics, Diagnostic{Severity: sev, Location: loc, Message: msg})
}

// BySeverity returns the recorded diagnostics of the given severity.
func (c *Collector) BySeverity(sev Severity) []Diagnostic {
	var out []Diagnostic
	for _, d := range c.Diagnostics {
		if d.Severity == sev {
			out = append(out, d)
		}
	}
	return out
}
