// Package stationindex implements token search over station names:
// an inverted index from folded tokens to station ids, per the
// original spec's §4.D. A query token matches only a whole name
// token; prefixes and substrings of tokens are not matched.
//
// "More forgiving with umlauts" was an open TODO carried over from the
// original (non-Go) implementation this system is descended from;
// here it's resolved by running every name through golang.org/x/text's
// Unicode normalization and diacritic-stripping transform before
// tokenizing, so "Münchner Freiheit" and "munchner freiheit" hit the
// same tokens.
package stationindex

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"transitradar.dev/radar/ids"
	"transitradar.dev/radar/index"
)

// DefaultLimit is the default number of ranked matches returned by
// Search, per the original spec's §4.D ("up to K (default 10)").
const DefaultLimit = 10

type entry struct {
	station ids.StationID
	name    string
	tokens  []string
}

// Index is an inverted token index over station names. Build once
// from a ScheduleIndex snapshot; safe for concurrent read-only Search
// calls.
type Index struct {
	entries  []entry
	postings map[string][]int // token -> indexes into entries
}

var foldTransform = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases s and strips combining diacritical marks, the
// minimum contract the original spec's §4.D and §9 call for.
func Fold(s string) string {
	folded, _, err := transform.String(foldTransform, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return folded
}

func tokenize(s string) []string {
	fields := strings.FieldsFunc(Fold(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return fields
}

// Build constructs a station name index from every station in idx.
func Build(idx *index.ScheduleIndex) *Index {
	si := &Index{postings: map[string][]int{}}

	for _, station := range idx.Stations() {
		e := entry{
			station: station.ID,
			name:    station.Name,
			tokens:  tokenize(station.Name),
		}
		pos := len(si.entries)
		si.entries = append(si.entries, e)

		seen := map[string]bool{}
		for _, tok := range e.tokens {
			if seen[tok] {
				continue
			}
			seen[tok] = true
			si.postings[tok] = append(si.postings[tok], pos)
		}
	}

	return si
}

// Match is one ranked result of Search.
type Match struct {
	Station ids.StationID
	Name    string
}

// Search tokenizes query the same way station names were tokenized,
// finds stations matching the intersection of all query tokens, and
// ranks them by (a) number of tokens matched exactly against the full
// station name, (b) name length ascending, (c) lexicographically,
// per the original spec's §4.D. limit <= 0 uses DefaultLimit.
func (si *Index) Search(query string, limit int) []Match {
	if limit <= 0 {
		limit = DefaultLimit
	}

	queryTokens := tokenize(query)
	if len(queryTokens) == 0 {
		return nil
	}

	var candidates []int
	for i, tok := range queryTokens {
		matches := si.postings[tok]
		if i == 0 {
			candidates = append(candidates, matches...)
			continue
		}
		candidates = intersect(candidates, matches)
	}
	candidates = dedupeInts(candidates)

	queryTokenSet := map[string]bool{}
	for _, t := range queryTokens {
		queryTokenSet[t] = true
	}

	type scored struct {
		entry      entry
		exactCount int
	}
	results := make([]scored, 0, len(candidates))
	for _, idx := range candidates {
		e := si.entries[idx]
		exact := 0
		for _, t := range e.tokens {
			if queryTokenSet[t] {
				exact++
			}
		}
		results = append(results, scored{entry: e, exactCount: exact})
	}

	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.exactCount != b.exactCount {
			return a.exactCount > b.exactCount
		}
		if len(a.entry.name) != len(b.entry.name) {
			return len(a.entry.name) < len(b.entry.name)
		}
		return a.entry.name < b.entry.name
	})

	if len(results) > limit {
		results = results[:limit]
	}

	out := make([]Match, len(results))
	for i, r := range results {
		out[i] = Match{Station: r.entry.station, Name: r.entry.name}
	}
	return out
}

func intersect(a, b []int) []int {
	set := map[int]bool{}
	for _, x := range b {
		set[x] = true
	}
	var out []int
	for _, x := range a {
		if set[x] {
			out = append(out, x)
		}
	}
	return out
}

func dedupeInts(xs []int) []int {
	seen := map[int]bool{}
	out := xs[:0]
	for _, x := range xs {
		if seen[x] {
			continue
		}
		seen[x] = true
		out = append(out, x)
	}
	return out
}
