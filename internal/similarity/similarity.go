// internal/similarity/similarity.go
//
// Fuzzy guess evaluation for the Taboo game.
// Responsibilities:
//   - Levenshtein edit distance (unit cost insert/delete/substitute).
//   - Normalised similarity ratio in [0,1].
//   - The acceptance policy: a guess wins when its ratio is strictly above Threshold.
//
// Notes:
//   - Comparison is case-insensitive; lengths are counted in runes, not bytes.

package similarity

import "strings"

// Threshold is the acceptance cutoff. A ratio of exactly 0.8 is a miss.
const Threshold = 0.8

// IsMatch reports whether guess is close enough to word to count as correct.
func IsMatch(guess, word string) bool {
	return Ratio(guess, word) > Threshold
}

// Ratio returns 1 - distance/maxLen for the lowercased inputs.
// Two empty strings are identical and yield 1.
func Ratio(a, b string) float64 {
	ra := []rune(strings.ToLower(a))
	rb := []rune(strings.ToLower(b))

	longest := max(len(ra), len(rb))
	if longest == 0 {
		return 1
	}
	return 1 - float64(distance(ra, rb))/float64(longest)
}

// Distance returns the Levenshtein distance between the lowercased inputs.
func Distance(a, b string) int {
	return distance([]rune(strings.ToLower(a)), []rune(strings.ToLower(b)))
}

// distance is the two-row dynamic programming formulation.
func distance(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

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
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
