package collection

import "sort"

// dedupeStrings removes exact (case-sensitive) duplicates, keeping the
// first occurrence's position.
func dedupeStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// majorityString returns the most frequent value, ties broken
// alphabetically. Empty strings are ignored as candidates unless every
// value is empty.
func majorityString(values []string) string {
	counts := make(map[string]int)
	for _, v := range values {
		if v == "" {
			continue
		}
		counts[v]++
	}
	if len(counts) == 0 {
		return ""
	}
	candidates := make([]string, 0, len(counts))
	for v := range counts {
		candidates = append(candidates, v)
	}
	sort.Strings(candidates)
	best := candidates[0]
	for _, c := range candidates[1:] {
		if counts[c] > counts[best] {
			best = c
		}
	}
	return best
}

// majorityInt returns the most frequent non-nil value, ties broken by the
// smallest value. Returns nil if every input is nil.
func majorityInt(values []*int) *int {
	counts := make(map[int]int)
	for _, v := range values {
		if v != nil {
			counts[*v]++
		}
	}
	if len(counts) == 0 {
		return nil
	}
	keys := make([]int, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	best := keys[0]
	for _, k := range keys[1:] {
		if counts[k] > counts[best] {
			best = k
		}
	}
	return &best
}

// unionStrings returns the sorted, deduplicated union of a set of
// per-song string lists, used for directory-level artist aggregates.
func unionStrings(lists [][]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range lists {
		for _, v := range list {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	sort.Strings(out)
	return out
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
