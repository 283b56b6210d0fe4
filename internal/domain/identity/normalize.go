package identity

import "strings"

var honorifics = map[string]bool{
	"dr": true, "mr": true, "mrs": true, "ms": true,
	"shri": true, "smt": true, "miss": true,
}

// NormalizeName canonicalizes a name for comparison: lowercase, single spaced,
// with a leading honorific and a trailing "kumari" dropped when other words
// remain.
func NormalizeName(name string) string {
	tokens := strings.Fields(strings.ToLower(name))

	if len(tokens) > 1 && honorifics[strings.TrimSuffix(tokens[0], ".")] {
		tokens = tokens[1:]
	}
	if len(tokens) > 1 && tokens[len(tokens)-1] == "kumari" {
		tokens = tokens[:len(tokens)-1]
	}

	return strings.Join(tokens, " ")
}
