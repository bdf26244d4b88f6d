// Package compose fills a parsed template with placeholder values.
//
// A pass rewrites every paragraph that contains at least one placeholder into a
// single run styled like the paragraph's first non-empty run, centers every
// table cell vertically, and finally prunes pricing rows that were left empty.
// Paragraphs without placeholders are never touched.
package compose

import (
	"sort"
	"strings"
)

// Placeholders maps full tokens ("<<NAME>>") to their replacement text.
type Placeholders map[string]string

// Key wraps name in the placeholder delimiters.
func Key(name string) string {
	return "<<" + name + ">>"
}

// Merge combines maps left to right; later maps win on key collision.
func Merge(maps ...Placeholders) Placeholders {
	n := 0
	for _, m := range maps {
		n += len(m)
	}
	out := make(Placeholders, n)
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

// Replacer substitutes every placeholder in one simultaneous pass, so a value
// produced for one key is never re-scanned for another key. At any position
// the longest matching key wins.
type Replacer struct {
	r    *strings.Replacer
	keys []string
}

func NewReplacer(p Placeholders) *Replacer {
	keys := make([]string, 0, len(p))
	for k := range p {
		if k == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, k, p[k])
	}
	return &Replacer{r: strings.NewReplacer(pairs...), keys: keys}
}

// Replace returns s with every placeholder substituted.
func (r *Replacer) Replace(s string) string {
	if len(r.keys) == 0 {
		return s
	}
	return r.r.Replace(s)
}

// Len reports how many placeholders the replacer knows.
func (r *Replacer) Len() int {
	return len(r.keys)
}
