package codes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolverResolve(t *testing.T) {
	r := NewResolver(map[string][]string{
		"M1O1A1": {"z-id", "a-id"},
		"M1O1":   {"o1-id"},
		"empty":  {""},
	}, nil)

	t.Run("sorts candidates for a deterministic tie-break", func(t *testing.T) {
		assert.Equal(t, []string{"a-id", "z-id"}, r.Resolve("M1O1A1"))
	})

	t.Run("unknown code yields an empty candidate list", func(t *testing.T) {
		assert.Empty(t, r.Resolve("M9O9A9"))
	})

	t.Run("blank entries are discarded", func(t *testing.T) {
		assert.Empty(t, r.Resolve("empty"))
	})
}

func TestResolverCodesFor(t *testing.T) {
	r := NewResolver(nil, map[string][]string{
		"a1-id": {"M1O1A1", "M1"},
	})

	assert.Equal(t, []string{"M1", "M1O1A1"}, r.CodesFor("a1-id"))
	assert.Empty(t, r.CodesFor("unknown-id"))
}

func TestResolverPreferredCode(t *testing.T) {
	r := NewResolver(nil, map[string][]string{
		"a1-id":  {"M1", "M1O1", "M1O1A1"},
		"odd-id": {"zz", "aa"},
	})

	require.Equal(t, "M1O1A1", r.PreferredCode("a1-id"), "activity codes outrank objective and module codes")
	assert.Equal(t, "aa", r.PreferredCode("odd-id"), "unclassified codes fall back to lexicographic order")
	assert.Equal(t, "", r.PreferredCode("missing"))
}
