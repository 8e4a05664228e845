// Package detect implements the recurring charge detection engine: a pure,
// synchronous computation that turns a snapshot of raw expense transactions
// and already-tracked subscriptions into a ranked list of untracked
// recurring-charge candidates.
package detect

import "strings"

// noiseTokens are whole words stripped from descriptions before grouping.
// Payment processors prepend/append these freely, so they carry no merchant
// signal.
var noiseTokens = map[string]bool{
	"payment":      true,
	"purchase":     true,
	"pos":          true,
	"debit":        true,
	"credit":       true,
	"card":         true,
	"online":       true,
	"recurring":    true,
	"subscription": true,
	"bill":         true,
	"transfer":     true,
}

// Normalize reduces a raw transaction description to its grouping key:
// lowercase, non-alphabetic runes replaced by spaces, noise tokens removed,
// whitespace collapsed. An empty result means the description is not
// groupable; callers drop it. Total over any input string.
func Normalize(description string) string {
	lowered := strings.ToLower(description)

	// Replace everything outside a-z with a space so merchant codes and
	// reference numbers split cleanly into tokens.
	mapped := strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' {
			return r
		}
		return ' '
	}, lowered)

	fields := strings.Fields(mapped)
	kept := fields[:0]
	for _, f := range fields {
		if !noiseTokens[f] {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, " ")
}

// TitleCase capitalizes each whitespace-delimited token of a normalized key,
// producing the display name for a detected candidate.
func TitleCase(key string) string {
	fields := strings.Fields(key)
	for i, f := range fields {
		fields[i] = strings.ToUpper(f[:1]) + f[1:]
	}
	return strings.Join(fields, " ")
}
