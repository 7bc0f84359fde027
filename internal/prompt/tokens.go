// Package prompt holds the placeholder machinery: token extraction, variable
// bindings, readiness and the prompt matrix expansion.
package prompt

import (
	"regexp"
	"strings"
)

// Marker prefixes every placeholder token in a prompt.
const Marker = "$"

// tokenPattern matches a $name whose $ is at the start of input or follows a
// non-word character. RE2 has no lookbehind, so the guard char is consumed
// and the name is read from the capture group. Consuming it never swallows
// the next token because a name run always ends before a non-word char.
var tokenPattern = regexp.MustCompile(`(?:^|\W)\$(\w+)`)

// ExtractTokens returns every token in prompt, once per occurrence, left to right.
// "word$inside" yields nothing; "a $b" yields "$b".
func ExtractTokens(prompt string) []string {
	matches := tokenPattern.FindAllStringSubmatchIndex(prompt, -1)
	tokens := make([]string, 0, len(matches))
	for _, m := range matches {
		tokens = append(tokens, Marker+prompt[m[2]:m[3]])
	}
	return tokens
}

// TokenNames returns the distinct token names (without the marker) in first-seen order.
func TokenNames(prompt string) []string {
	return distinctNames(ExtractTokens(prompt))
}

func distinctNames(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	names := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		name := strings.TrimPrefix(tok, Marker)
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}
