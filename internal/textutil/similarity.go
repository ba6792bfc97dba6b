// Package textutil holds the similarity primitives shared by candidate
// scoring and any other fuzzy matching in the importer.
package textutil

import (
	"github.com/xrash/smetrics"
)

// MatchThreshold is the similarity two names or tokens must exceed to count
// as the same thing.
const MatchThreshold = 0.70

// Similarity returns 1 - (edit distance / length of the longer string),
// both counted in characters. Identical strings score 1; an empty operand
// scores 0.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	ra, rb := []rune(a), []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	return 1 - float64(distance(ra, rb))/float64(longest)
}

// distance is the Levenshtein distance over runes. smetrics compares bytes,
// so each distinct rune is first mapped onto a single byte; inputs with
// more than 256 distinct runes use the rune table directly.
func distance(a, b []rune) int {
	alphabet := make(map[rune]byte)
	encode := func(rs []rune) ([]byte, bool) {
		out := make([]byte, len(rs))
		for i, r := range rs {
			c, ok := alphabet[r]
			if !ok {
				if len(alphabet) == 256 {
					return nil, false
				}
				c = byte(len(alphabet))
				alphabet[r] = c
			}
			out[i] = c
		}
		return out, true
	}

	ea, okA := encode(a)
	eb, okB := encode(b)
	if okA && okB {
		return smetrics.WagnerFischer(string(ea), string(eb), 1, 1, 1)
	}
	return runeDistance(a, b)
}

func runeDistance(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// Similar reports whether a and b are more alike than threshold.
func Similar(a, b string, threshold float64) bool {
	return Similarity(a, b) > threshold
}

// CountSimilarPairs counts every (x, y) pair from left and right whose
// similarity exceeds threshold. A name matching two entries counts twice.
func CountSimilarPairs(left, right []string, threshold float64) int {
	count := 0
	for _, x := range left {
		for _, y := range right {
			if Similar(x, y, threshold) {
				count++
			}
		}
	}
	return count
}

// CountSharedTokens counts the distinct tokens of left that have at least
// one similar token in right.
func CountSharedTokens(left, right []string, threshold float64) int {
	seen := make(map[string]struct{}, len(left))
	count := 0
	for _, x := range left {
		if _, dup := seen[x]; dup {
			continue
		}
		seen[x] = struct{}{}
		for _, y := range right {
			if Similar(x, y, threshold) {
				count++
				break
			}
		}
	}
	return count
}
