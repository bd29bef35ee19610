package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("full flag set", func(t *testing.T) {
		var out bytes.Buffer
		cfg, exit, err := Parse([]string{
			"-rules", "rules.hcl",
			"-format", "hcl",
			"-module", "M1",
			"-focus", "M1O1A2",
			"-objectives", "M1O1, M1O2",
			"-strict",
			"-log-format", "json",
			"-log-level", "debug",
		}, &out)
		require.NoError(t, err)
		require.False(t, exit)
		require.NotNil(t, cfg)

		assert.Equal(t, "rules.hcl", cfg.RulesPath)
		assert.Equal(t, "M1", cfg.Module)
		assert.Equal(t, "M1O1A2", cfg.Focus)
		assert.Equal(t, []string{"M1O1", "M1O2"}, cfg.Objectives)
		assert.True(t, cfg.Strict)
		assert.Equal(t, "json", cfg.LogFormat)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("positional rules path", func(t *testing.T) {
		var out bytes.Buffer
		cfg, exit, err := Parse([]string{"-module", "M1", "rules.yaml"}, &out)
		require.NoError(t, err)
		require.False(t, exit)
		assert.Equal(t, "rules.yaml", cfg.RulesPath)
	})

	t.Run("defaults", func(t *testing.T) {
		var out bytes.Buffer
		cfg, _, err := Parse([]string{"-module", "M1", "rules.hcl"}, &out)
		require.NoError(t, err)
		assert.Equal(t, "hcl", cfg.Format)
		assert.Equal(t, "text", cfg.LogFormat)
		assert.Equal(t, "warn", cfg.LogLevel)
		assert.False(t, cfg.Strict)
		assert.Empty(t, cfg.Objectives)
	})

	t.Run("no rules path prints usage and exits cleanly", func(t *testing.T) {
		var out bytes.Buffer
		cfg, exit, err := Parse([]string{"-module", "M1"}, &out)
		require.NoError(t, err)
		assert.True(t, exit)
		assert.Nil(t, cfg)
		assert.Contains(t, out.String(), "Usage:")
	})

	t.Run("missing module is a usage error", func(t *testing.T) {
		var out bytes.Buffer
		_, _, err := Parse([]string{"rules.hcl"}, &out)
		require.Error(t, err)
		var exitErr *ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 2, exitErr.Code)
	})

	t.Run("invalid enum values", func(t *testing.T) {
		testCases := [][]string{
			{"-module", "M1", "-format", "toml", "rules.hcl"},
			{"-module", "M1", "-log-format", "xml", "rules.hcl"},
			{"-module", "M1", "-log-level", "verbose", "rules.hcl"},
		}
		for _, args := range testCases {
			var out bytes.Buffer
			_, _, err := Parse(args, &out)
			assert.Error(t, err, strings.Join(args, " "))
		}
	})

	t.Run("help flag exits cleanly", func(t *testing.T) {
		var out bytes.Buffer
		cfg, exit, err := Parse([]string{"-h"}, &out)
		require.NoError(t, err)
		assert.True(t, exit)
		assert.Nil(t, cfg)
	})
}
