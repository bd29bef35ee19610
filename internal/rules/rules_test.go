package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/unlockgraph/internal/diag"
	"github.com/vk/unlockgraph/internal/payload"
	"github.com/vk/unlockgraph/internal/unit"
)

func TestParseRequirement(t *testing.T) {
	testCases := []struct {
		name  string
		token string
		want  Requirement
	}{
		{
			name:  "bare code carries no threshold",
			token: "M1O1A1",
			want:  Requirement{SourceCode: "M1O1A1", Raw: "M1O1A1"},
		},
		{
			name:  "success-rate suffix scales the percentage into [0,1]",
			token: "M1O1A1@75%",
			want: Requirement{
				SourceCode: "M1O1A1",
				Threshold:  &unit.Threshold{Metric: unit.MetricSuccessRate, Value: 0.75},
				Raw:        "M1O1A1@75%",
			},
		},
		{
			name:  "level suffix keeps the integer value",
			token: "M2O1A3#4",
			want: Requirement{
				SourceCode: "M2O1A3",
				Threshold:  &unit.Threshold{Metric: unit.MetricLevel, Value: 4},
				Raw:        "M2O1A3#4",
			},
		},
		{
			name:  "boundary percentages are accepted",
			token: "M1@100%",
			want: Requirement{
				SourceCode: "M1",
				Threshold:  &unit.Threshold{Metric: unit.MetricSuccessRate, Value: 1},
				Raw:        "M1@100%",
			},
		},
		{
			name:  "surrounding whitespace is trimmed",
			token: "  M1O1A1@50% ",
			want: Requirement{
				SourceCode: "M1O1A1",
				Threshold:  &unit.Threshold{Metric: unit.MetricSuccessRate, Value: 0.5},
				Raw:        "M1O1A1@50%",
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseRequirement(tc.token)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseRequirementRejectsMalformedTokens(t *testing.T) {
	testCases := []struct {
		name  string
		token string
	}{
		{name: "empty token", token: "   "},
		{name: "mixed threshold markers", token: "M1O1A1@50%#3"},
		{name: "missing percent sign", token: "M1O1A1@50"},
		{name: "non-numeric percentage", token: "M1O1A1@abc%"},
		{name: "percentage above range", token: "M1O1A1@120%"},
		{name: "negative percentage", token: "M1O1A1@-5%"},
		{name: "fractional level", token: "M1O1A1#2.5"},
		{name: "negative level", token: "M1O1A1#-1"},
		{name: "threshold without code", token: "@50%"},
		{name: "whitespace inside code", token: "M1 O1A1"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseRequirement(tc.token)
			assert.Error(t, err)
		})
	}
}

func TestParseUnitRules(t *testing.T) {
	t.Run("splits activation and deactivation into separate specs", func(t *testing.T) {
		specs, diags, err := ParseUnitRules("M1O1A2", payload.UnitRules{
			Activation:   []string{"M1O1A1@80%"},
			Deactivation: []string{"M1O2A1"},
		}, Lenient)
		require.NoError(t, err)
		assert.Empty(t, diags)
		require.Len(t, specs, 2)

		assert.Equal(t, unit.EdgeActivation, specs[0].Direction)
		require.Len(t, specs[0].Requirements, 1)
		assert.Equal(t, "M1O1A1", specs[0].Requirements[0].SourceCode)

		assert.Equal(t, unit.EdgeDeactivation, specs[1].Direction)
		require.Len(t, specs[1].Requirements, 1)
		assert.Equal(t, "M1O2A1", specs[1].Requirements[0].SourceCode)
	})

	t.Run("empty rule lists with the open flag still produce a spec", func(t *testing.T) {
		specs, diags, err := ParseUnitRules("M1O1A1", payload.UnitRules{InitiallyOpen: true}, Lenient)
		require.NoError(t, err)
		assert.Empty(t, diags)
		require.Len(t, specs, 1)
		assert.True(t, specs[0].InitiallyOpen)
		assert.Empty(t, specs[0].Requirements)
	})

	t.Run("empty rule lists without the flag produce nothing", func(t *testing.T) {
		specs, diags, err := ParseUnitRules("M1O1A1", payload.UnitRules{}, Lenient)
		require.NoError(t, err)
		assert.Empty(t, diags)
		assert.Empty(t, specs)
	})

	t.Run("lenient mode drops the bad token and keeps the rest", func(t *testing.T) {
		specs, diags, err := ParseUnitRules("M1O1A3", payload.UnitRules{
			Activation: []string{"M1O1A1@bad%", "M1O1A2"},
		}, Lenient)
		require.NoError(t, err)
		require.Len(t, diags, 1)
		assert.Equal(t, diag.CodeTokenParse, diags[0].Code)
		assert.Equal(t, "M1O1A3", diags[0].Subject)

		require.Len(t, specs, 1)
		require.Len(t, specs[0].Requirements, 1)
		assert.Equal(t, "M1O1A2", specs[0].Requirements[0].SourceCode)
	})

	t.Run("strict mode aborts on the first bad token", func(t *testing.T) {
		_, _, err := ParseUnitRules("M1O1A3", payload.UnitRules{
			Activation: []string{"M1O1A1@bad%", "M1O1A2"},
		}, Strict)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "M1O1A3")
	})

	t.Run("empty target code is rejected", func(t *testing.T) {
		_, _, err := ParseUnitRules("  ", payload.UnitRules{}, Lenient)
		assert.Error(t, err)
	})
}

func TestParseModule(t *testing.T) {
	mod := &payload.Module{
		Code: "M1",
		Units: map[string]payload.UnitRules{
			"M1O1A2": {Activation: []string{"M1O1A1"}},
			"M1O1A1": {InitiallyOpen: true},
			"M1O1A3": {Activation: []string{"M1O1A2@60%"}},
		},
	}

	specs, diags, err := ParseModule(mod, Lenient)
	require.NoError(t, err)
	assert.Empty(t, diags)
	require.Len(t, specs, 3)

	// Targets come out in lexicographic order regardless of map iteration.
	assert.Equal(t, "M1O1A1", specs[0].TargetCode)
	assert.Equal(t, "M1O1A2", specs[1].TargetCode)
	assert.Equal(t, "M1O1A3", specs[2].TargetCode)
}

func TestParseModuleStrictFailure(t *testing.T) {
	mod := &payload.Module{
		Code: "M2",
		Units: map[string]payload.UnitRules{
			"M2O1A1": {Activation: []string{"broken@token"}},
		},
	}

	_, _, err := ParseModule(mod, Strict)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "module M2")
}
