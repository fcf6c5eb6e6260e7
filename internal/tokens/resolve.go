// Package tokens implements the personalization token engine: pure template
// resolution against a key/value map, and a store that owns the live map and
// debounces persistence of edits.
package tokens

import (
	"fmt"
	"regexp"
)

// markerPattern matches placeholder markers like [FIRSTNAME]. Keys are
// case-sensitive identifiers starting with a letter.
var markerPattern = regexp.MustCompile(`\[([A-Za-z][A-Za-z0-9_]*)\]`)

// ResolutionResult is the diagnostic output of one resolution pass. Produced
// fresh on every call and never mutated afterward.
type ResolutionResult struct {
	ResolvedContent string
	ResolvedTokens  []string // keys substituted with a non-empty value
	MissingTokens   []string // keys present in the map but empty
	InvalidTokens   []string // keys not present in the map; marker left as-is
	Warnings        []string
}

// Resolve expands every [KEY] marker in content against the supplied token
// map. Unknown keys are left literally in the output; known-but-empty keys
// substitute an empty string. Resolve is pure: same inputs, same output, no
// side effects on content or tokens.
func Resolve(content string, tokens map[string]string) ResolutionResult {
	result := ResolutionResult{}

	seen := make(map[string]bool)
	result.ResolvedContent = markerPattern.ReplaceAllStringFunc(content, func(marker string) string {
		key := marker[1 : len(marker)-1]

		value, ok := tokens[key]
		if !ok {
			if !seen["invalid:"+key] {
				seen["invalid:"+key] = true
				result.InvalidTokens = append(result.InvalidTokens, key)
				result.Warnings = append(result.Warnings, fmt.Sprintf("unknown token %q; marker left unresolved", key))
			}
			return marker
		}
		// Only a true empty counts as missing; whitespace is a value the
		// owner chose and is substituted verbatim.
		if value == "" {
			if !seen["missing:"+key] {
				seen["missing:"+key] = true
				result.MissingTokens = append(result.MissingTokens, key)
				result.Warnings = append(result.Warnings, fmt.Sprintf("token %q has no value; substituted empty string", key))
			}
			return ""
		}
		if !seen["resolved:"+key] {
			seen["resolved:"+key] = true
			result.ResolvedTokens = append(result.ResolvedTokens, key)
		}
		return value
	})

	return result
}

// Keys returns the distinct marker keys referenced by content, in order of
// first appearance, without consulting any token map.
func Keys(content string) []string {
	var keys []string
	seen := make(map[string]bool)
	for _, m := range markerPattern.FindAllStringSubmatch(content, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			keys = append(keys, m[1])
		}
	}
	return keys
}
