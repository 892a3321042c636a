// Package env expands ${env.NAME} references in configuration documents so
// secrets and per-deployment values stay out of checked-in YAML.
package env

import (
	"os"
	"strings"
	"unicode"
)

const prefix = "${env."

// Lookup resolves a variable name.
type Lookup func(name string) (string, bool)

// Expand replaces ${env.NAME} and ${env.NAME:-fallback} with the process
// environment. Unset variables without a fallback expand to "".
func Expand(text string) string {
	return ExpandWith(text, os.LookupEnv)
}

// ExpandWith is Expand with a custom lookup. Malformed references are kept
// literally.
func ExpandWith(text string, lookup Lookup) string {
	if !strings.Contains(text, prefix) {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	for {
		idx := strings.Index(text, prefix)
		if idx < 0 {
			b.WriteString(text)
			return b.String()
		}
		b.WriteString(text[:idx])
		rest := text[idx+len(prefix):]
		end := strings.IndexByte(rest, '}')
		if end < 0 {
			b.WriteString(text[idx:])
			return b.String()
		}
		name, fallback, hasFallback := strings.Cut(rest[:end], ":-")
		if !isName(name) {
			b.WriteString(prefix)
			text = rest
			continue
		}
		value, ok := lookup(name)
		if !ok && hasFallback {
			value = fallback
		}
		b.WriteString(value)
		text = rest[end+1:]
	}
}

func isName(name string) bool {
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return true
}
