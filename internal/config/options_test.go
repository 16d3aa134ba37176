package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePolicy(t *testing.T) {
	cases := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"ignore", PolicyIgnore, false},
		{"warn", PolicyWarn, false},
		{"error", PolicyError, false},
		{"", PolicyWarn, false},
		{"  Error ", PolicyError, false},
		{"strict", PolicyWarn, true},
	}
	for _, tc := range cases {
		got, err := ParsePolicy(tc.in)
		if tc.wantErr {
			assert.Error(t, err, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestPolicyString(t *testing.T) {
	assert.Equal(t, "ignore", PolicyIgnore.String())
	assert.Equal(t, "warn", PolicyWarn.String())
	assert.Equal(t, "error", PolicyError.String())
}

func TestDefault(t *testing.T) {
	opts := Default()
	assert.Equal(t, PolicyWarn, opts.UnmappedTargetPolicy)
	assert.Equal(t, "direct", opts.DefaultConstruction)
	assert.False(t, opts.Verbose)
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	opts, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, PolicyWarn, opts.UnmappedTargetPolicy)
	assert.Equal(t, "direct", opts.DefaultConstruction)
}

func TestLoad_FileOverrides(t *testing.T) {
	file := filepath.Join(t.TempDir(), "mapgen.yaml")
	content := "unmapped_target_policy: error\ndefault_construction: builder\nverbose: true\n"
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))

	opts, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, PolicyError, opts.UnmappedTargetPolicy)
	assert.Equal(t, "builder", opts.DefaultConstruction)
	assert.True(t, opts.Verbose)
}

func TestLoad_RejectsBadValues(t *testing.T) {
	dir := t.TempDir()

	badPolicy := filepath.Join(dir, "policy.yaml")
	require.NoError(t, os.WriteFile(badPolicy, []byte("unmapped_target_policy: strict\n"), 0o600))
	_, err := Load(badPolicy)
	assert.ErrorContains(t, err, "unknown unmapped-target policy")

	badConstruction := filepath.Join(dir, "construction.yaml")
	require.NoError(t, os.WriteFile(badConstruction, []byte("default_construction: factory\n"), 0o600))
	_, err = Load(badConstruction)
	assert.ErrorContains(t, err, "construction strategy")

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "reading config file")
}
