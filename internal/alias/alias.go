// Package alias expands user-supplied search shorthand into the canonical
// terms the query engine matches against. The dictionary content is
// configuration; only the expansion contract matters to callers.
package alias

import "strings"

// Expander maps shorthand tokens to one or more canonical replacement terms.
// Table keys are lowercase; lookups fold input before matching.
type Expander struct {
	table map[string][]string
}

// New builds an Expander over the given synonym table. Keys are folded to
// lowercase; nil yields an expander that maps every term to itself.
func New(table map[string][]string) *Expander {
	folded := make(map[string][]string, len(table))
	for k, v := range table {
		folded[strings.ToLower(k)] = v
	}
	return &Expander{table: folded}
}

// Default returns an Expander over the built-in shorthand table for common
// rarity, condition, and finish abbreviations.
func Default() *Expander {
	return New(map[string][]string{
		"mint":    {"pristine"},
		"nm":      {"pristine"},
		"dmg":     {"damaged"},
		"leg":     {"legendary"},
		"fa":      {"full art"},
		"fullart": {"full art"},
		"alt":     {"alternate art"},
		"promo":   {"promotional"},
	})
}

// Expand maps each term to its configured replacements, or to itself when no
// entry exists. Outputs keep encounter order and may contain duplicates; the
// query engine treats the result as an unordered requirement set, so neither
// property affects matching. Pure: the input slice is never modified.
func (e *Expander) Expand(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		folded := strings.ToLower(t)
		if syns, ok := e.table[folded]; ok && len(syns) > 0 {
			out = append(out, syns...)
			continue
		}
		out = append(out, folded)
	}
	return out
}
