package tokens

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestResolve_SubstitutesKnownTokens(t *testing.T) {
	result := Resolve("A photo of [FIRSTNAME]", map[string]string{"FIRSTNAME": "Sam"})

	assert.Equal(t, "A photo of Sam", result.ResolvedContent)
	assert.Equal(t, []string{"FIRSTNAME"}, result.ResolvedTokens)
	assert.Empty(t, result.MissingTokens)
	assert.Empty(t, result.InvalidTokens)
	assert.Empty(t, result.Warnings)
}

func TestResolve_MissingAndInvalid(t *testing.T) {
	result := Resolve("Hello [FIRSTNAME] from [COMPANY]", map[string]string{"FIRSTNAME": ""})

	assert.Equal(t, "Hello  from [COMPANY]", result.ResolvedContent)
	assert.Equal(t, []string{"FIRSTNAME"}, result.MissingTokens)
	assert.Equal(t, []string{"COMPANY"}, result.InvalidTokens)
	assert.Len(t, result.Warnings, 2)
}

func TestResolve_UnknownKeyLeavesMarkerLiterally(t *testing.T) {
	result := Resolve("Meet [NICKNAME]!", map[string]string{"FIRSTNAME": "Sam"})

	assert.Equal(t, "Meet [NICKNAME]!", result.ResolvedContent)
	assert.Equal(t, []string{"NICKNAME"}, result.InvalidTokens)
	assert.Empty(t, result.ResolvedTokens)
}

func TestResolve_NoMarkersRoundTrips(t *testing.T) {
	content := "A plain prompt with no placeholders."
	result := Resolve(content, map[string]string{"FIRSTNAME": "Sam"})

	assert.Equal(t, content, result.ResolvedContent)
	assert.Empty(t, result.ResolvedTokens)
	assert.Empty(t, result.MissingTokens)
	assert.Empty(t, result.InvalidTokens)
	assert.Empty(t, result.Warnings)
}

func TestResolve_Deterministic(t *testing.T) {
	content := "Dear [FIRSTNAME] [LASTNAME], greetings from [COMPANY] in [CITY]."
	tokens := map[string]string{
		"FIRSTNAME": "Sam",
		"LASTNAME":  "",
		"CITY":      "Oslo",
	}

	first := Resolve(content, tokens)
	for i := 0; i < 10; i++ {
		again := Resolve(content, tokens)
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("resolution not deterministic (-first +again):\n%s", diff)
		}
	}
}

func TestResolve_DoesNotMutateInputs(t *testing.T) {
	tokens := map[string]string{"FIRSTNAME": "Sam"}
	Resolve("[FIRSTNAME] [FIRSTNAME]", tokens)

	assert.Equal(t, map[string]string{"FIRSTNAME": "Sam"}, tokens)
}

func TestResolve_RepeatedMarkerRecordedOnce(t *testing.T) {
	result := Resolve("[FIRSTNAME] and [FIRSTNAME] again", map[string]string{"FIRSTNAME": "Sam"})

	assert.Equal(t, "Sam and Sam again", result.ResolvedContent)
	assert.Equal(t, []string{"FIRSTNAME"}, result.ResolvedTokens)
}

func TestResolve_WhitespaceValueSubstitutedVerbatim(t *testing.T) {
	result := Resolve("a[FIRSTNAME]b", map[string]string{"FIRSTNAME": "  "})

	assert.Equal(t, "a  b", result.ResolvedContent)
	assert.Equal(t, []string{"FIRSTNAME"}, result.ResolvedTokens)
	assert.Empty(t, result.MissingTokens)
	assert.Empty(t, result.Warnings)
}

func TestResolve_KeysAreCaseSensitive(t *testing.T) {
	result := Resolve("[firstname]", map[string]string{"FIRSTNAME": "Sam"})

	assert.Equal(t, "[firstname]", result.ResolvedContent)
	assert.Equal(t, []string{"firstname"}, result.InvalidTokens)
}

func TestKeys(t *testing.T) {
	t.Run("order of first appearance, deduplicated", func(t *testing.T) {
		keys := Keys("[B] then [A] then [B]")
		assert.Equal(t, []string{"B", "A"}, keys)
	})

	t.Run("no markers", func(t *testing.T) {
		assert.Empty(t, Keys("nothing here"))
	})
}
