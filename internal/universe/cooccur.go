package universe

import "sort"

// nodePair is an unordered pair of node IDs with a <= b
type nodePair struct {
	a, b string
}

func makePair(a, b string) nodePair {
	if a > b {
		a, b = b, a
	}
	return nodePair{a: a, b: b}
}

// sharedTagPairs computes, for every pair of question nodes sharing at
// least one tag, the number of tags they share. tagIndex maps each
// deduplicated tag to the sorted IDs of the nodes carrying it.
func sharedTagPairs(tagIndex map[string][]string) map[nodePair]int {
	pairs := make(map[nodePair]int)
	for _, ids := range tagIndex {
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				pairs[makePair(ids[i], ids[j])]++
			}
		}
	}
	return pairs
}

// sortedPairs returns the pairs of a weight map in deterministic order
func sortedPairs(weights map[nodePair]int) []nodePair {
	pairs := make([]nodePair, 0, len(weights))
	for p := range weights {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].a != pairs[j].a {
			return pairs[i].a < pairs[j].a
		}
		return pairs[i].b < pairs[j].b
	})
	return pairs
}
