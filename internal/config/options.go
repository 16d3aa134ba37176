// Package config resolves generator options once at initialization. The
// resulting Options value is passed by reference into every round and never
// mutated afterwards.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Application constants
const (
	Application = "mapgen"
	Description = "Generate type-to-type conversion code from mapper declarations"
	WebSite     = "https://github.com/origadmin/mapgen"
	UI          = "mapgen"
)

// Policy is the reporting policy applied to target properties without a
// resolvable source counterpart.
type Policy int

const (
	PolicyIgnore Policy = iota
	PolicyWarn
	PolicyError
)

func (p Policy) String() string {
	switch p {
	case PolicyIgnore:
		return "ignore"
	case PolicyError:
		return "error"
	default:
		return "warn"
	}
}

// ParsePolicy parses an unmapped-target policy name.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ignore":
		return PolicyIgnore, nil
	case "", "warn":
		return PolicyWarn, nil
	case "error":
		return PolicyError, nil
	default:
		return PolicyWarn, fmt.Errorf("unknown unmapped-target policy %q (want ignore, warn or error)", s)
	}
}

// Options are the generator settings consumed by the round coordinator and
// the pipeline stages.
type Options struct {
	// UnmappedTargetPolicy governs target properties with no source match.
	UnmappedTargetPolicy Policy
	// DefaultConstruction names the construction strategy used when a type
	// supports both direct mutation and a builder ("direct" or "builder").
	DefaultConstruction string
	// Verbose enables note-level diagnostics such as deferral traces.
	Verbose bool
}

// Default returns the options used when nothing is configured.
func Default() *Options {
	return &Options{
		UnmappedTargetPolicy: PolicyWarn,
		DefaultConstruction:  "direct",
	}
}

// Load resolves options from the environment (MAPGEN_* variables) and an
// optional config file. Explicit file settings win over environment values.
func Load(file string) (*Options, error) {
	v := viper.New()
	v.SetEnvPrefix("mapgen")
	v.AutomaticEnv()
	v.SetDefault("unmapped_target_policy", PolicyWarn.String())
	v.SetDefault("default_construction", "direct")
	v.SetDefault("verbose", false)

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", file, err)
		}
	}

	policy, err := ParsePolicy(v.GetString("unmapped_target_policy"))
	if err != nil {
		return nil, err
	}

	construction := v.GetString("default_construction")
	switch construction {
	case "direct", "builder":
	default:
		return nil, fmt.Errorf("unknown default construction strategy %q (want direct or builder)", construction)
	}

	return &Options{
		UnmappedTargetPolicy: policy,
		DefaultConstruction:  construction,
		Verbose:              v.GetBool("verbose"),
	}, nil
}
