package catalog

import (
	"sort"
	"strconv"
	"strings"

	"mcpbinder/internal/alias"
)

// Options is the parsed form of a browse query.
type Options struct {
	// Include terms must all match an item (AND across terms, OR across
	// fields). Terms are folded lowercase.
	Include []string
	// Exclude terms each remove matching items (OR across terms and fields).
	Exclude []string
	// OwnerRef is the first @mention in the query, without the @. Empty means
	// the caller browses their own collection.
	OwnerRef string
	// Page is the requested 1-based page. Always >= 1 after parsing.
	Page int
	// Duplicates restricts results to cards whose artwork appears more than
	// once in the filtered set.
	Duplicates bool
}

// dupeWords is the vocabulary that switches a query into duplicate-only mode.
var dupeWords = map[string]struct{}{
	"dupe":       {},
	"dupes":      {},
	"dups":       {},
	"duplicates": {},
}

// ParseOptions classifies raw query tokens. Per token, first match wins:
// owner mention (@name), page selector (page:N, p:N, #N), duplicate keyword,
// negated term (-term), include term. Only the first mention is kept; later
// mentions are consumed and ignored. The last page selector wins and clamps
// to 1; a selector whose number does not parse falls through as an include
// term. A bare "-" is dropped. Parsing is total: any token slice yields
// usable Options.
func ParseOptions(tokens []string) Options {
	opts := Options{Page: 1}
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if strings.HasPrefix(tok, "@") && len(tok) > 1 {
			if opts.OwnerRef == "" {
				opts.OwnerRef = tok[1:]
			}
			continue
		}
		if n, ok := parsePageToken(tok); ok {
			opts.Page = n
			continue
		}
		folded := strings.ToLower(tok)
		if _, ok := dupeWords[folded]; ok {
			opts.Duplicates = true
			continue
		}
		if strings.HasPrefix(folded, "-") {
			if term := folded[1:]; term != "" {
				opts.Exclude = append(opts.Exclude, term)
			}
			continue
		}
		opts.Include = append(opts.Include, folded)
	}
	return opts
}

func parsePageToken(tok string) (int, bool) {
	lower := strings.ToLower(tok)
	var num string
	switch {
	case strings.HasPrefix(lower, "page:"):
		num = lower[len("page:"):]
	case strings.HasPrefix(lower, "p:"):
		num = lower[len("p:"):]
	case strings.HasPrefix(lower, "#"):
		num = lower[1:]
	default:
		return 0, false
	}
	n, err := strconv.Atoi(num)
	if err != nil {
		return 0, false
	}
	if n < 1 {
		n = 1
	}
	return n, true
}

// Validate drops items missing required fields or carrying enum values
// outside the closed rarity/condition sets. The input slice is not modified.
func Validate(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if it.Valid() {
			out = append(out, it)
		}
	}
	return out
}

// FilterInclude keeps items matching every term. A term matches when it is a
// case-insensitive substring of any of name, group, rarity, condition, or
// code. No terms means no filtering.
func FilterInclude(items []Item, terms []string) []Item {
	if len(terms) == 0 {
		return items
	}
	folded := foldTerms(terms)
	out := make([]Item, 0, len(items))
	for _, it := range items {
		fields := it.searchFields()
		keep := true
		for _, term := range folded {
			if !matchesAny(fields, term) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, it)
		}
	}
	return out
}

// FilterExclude removes items matching any term, with the same per-term
// matching rule as FilterInclude.
func FilterExclude(items []Item, terms []string) []Item {
	if len(terms) == 0 {
		return items
	}
	folded := foldTerms(terms)
	out := make([]Item, 0, len(items))
	for _, it := range items {
		fields := it.searchFields()
		hit := false
		for _, term := range folded {
			if matchesAny(fields, term) {
				hit = true
				break
			}
		}
		if !hit {
			out = append(out, it)
		}
	}
	return out
}

// FilterDuplicates keeps items whose ImageKey occurs at least twice within
// the given set. Multiplicity is counted over this set, not the full
// collection, so exclusions applied earlier can break up a duplicate pair.
// Items with an empty ImageKey are never duplicates.
func FilterDuplicates(items []Item) []Item {
	counts := make(map[string]int, len(items))
	for _, it := range items {
		if it.ImageKey != "" {
			counts[it.ImageKey]++
		}
	}
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if it.ImageKey != "" && counts[it.ImageKey] >= 2 {
			out = append(out, it)
		}
	}
	return out
}

// Sort orders items by rarity tier descending, then condition grade best
// first, then group and name case-insensitively ascending. The sort is
// stable and returns a new slice.
func Sort(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		return itemLess(out[i], out[j])
	})
	return out
}

func itemLess(a, b Item) bool {
	if ar, br := a.Rarity.rank(), b.Rarity.rank(); ar != br {
		return ar > br
	}
	if ac, bc := a.Condition.rank(), b.Condition.rank(); ac != bc {
		return ac < bc
	}
	if ag, bg := strings.ToLower(a.Group), strings.ToLower(b.Group); ag != bg {
		return ag < bg
	}
	return strings.ToLower(a.Name) < strings.ToLower(b.Name)
}

// Search runs the full pipeline: validate, expand and apply include terms,
// expand and apply exclude terms, optionally restrict to duplicates, sort.
// The same items and options always produce the same result. A nil expander
// applies terms as written.
func Search(items []Item, opts Options, exp *alias.Expander) []Item {
	out := Validate(items)
	include, exclude := opts.Include, opts.Exclude
	if exp != nil {
		include = exp.Expand(include)
		exclude = exp.Expand(exclude)
	}
	out = FilterInclude(out, include)
	out = FilterExclude(out, exclude)
	if opts.Duplicates {
		out = FilterDuplicates(out)
	}
	return Sort(out)
}

func foldTerms(terms []string) []string {
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = strings.ToLower(t)
	}
	return out
}

func matchesAny(fields [5]string, term string) bool {
	for _, f := range fields {
		if strings.Contains(f, term) {
			return true
		}
	}
	return false
}
