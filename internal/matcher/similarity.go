package matcher

import (
	"fmt"

	"github.com/agnivade/levenshtein"
	"github.com/xrash/smetrics"
)

// Similarity scores how alike two names are, from 0 (nothing in common) to 1 (identical).
// Implementations must be deterministic.
type Similarity interface {
	Name() Algorithm
	Score(candidate, target string) float64
}

// NewSimilarity returns the strategy registered under algorithm
func NewSimilarity(algorithm Algorithm) (Similarity, error) {
	switch algorithm {
	case AlgorithmGestalt, "":
		return GestaltSimilarity{}, nil
	case AlgorithmLevenshtein:
		return LevenshteinSimilarity{}, nil
	case AlgorithmJaroWinkler:
		return DefaultJaroWinkler(), nil
	default:
		return nil, fmt.Errorf("unknown similarity algorithm: %q", algorithm)
	}
}

// GestaltSimilarity implements Ratcliff/Obershelp matching over runes.
// The longest common block is found first (earliest in candidate, then in target,
// on ties), then the same search recurses on the unmatched text to its left and right.
type GestaltSimilarity struct{}

// Name returns the algorithm name
func (GestaltSimilarity) Name() Algorithm {
	return AlgorithmGestalt
}

// Score returns 2*M/T. Two empty names score 1.
func (GestaltSimilarity) Score(candidate, target string) float64 {
	a := []rune(candidate)
	b := []rune(target)
	total := len(a) + len(b)
	if total == 0 {
		return 1.0
	}
	return 2.0 * float64(matchingCharacters(a, b)) / float64(total)
}

// matchingCharacters sums the sizes of all matching blocks between a and b
func matchingCharacters(a, b []rune) int {
	b2j := make(map[rune][]int, len(b))
	for j, r := range b {
		b2j[r] = append(b2j[r], j)
	}

	type span struct{ alo, ahi, blo, bhi int }
	queue := []span{{0, len(a), 0, len(b)}}
	matched := 0

	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		i, j, k := longestMatch(a, b2j, s.alo, s.ahi, s.blo, s.bhi)
		if k == 0 {
			continue
		}
		matched += k
		if s.alo < i && s.blo < j {
			queue = append(queue, span{s.alo, i, s.blo, j})
		}
		if i+k < s.ahi && j+k < s.bhi {
			queue = append(queue, span{i + k, s.ahi, j + k, s.bhi})
		}
	}

	return matched
}

// longestMatch finds the longest block a[i:i+k] == b[j:j+k] inside the given bounds
func longestMatch(a []rune, b2j map[rune][]int, alo, ahi, blo, bhi int) (int, int, int) {
	besti, bestj, bestsize := alo, blo, 0
	j2len := map[int]int{}

	for i := alo; i < ahi; i++ {
		newj2len := map[int]int{}
		for _, j := range b2j[a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			newj2len[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		j2len = newj2len
	}

	return besti, bestj, bestsize
}

// LevenshteinSimilarity normalizes the rune edit distance by the longer name
type LevenshteinSimilarity struct{}

// Name returns the algorithm name
func (LevenshteinSimilarity) Name() Algorithm {
	return AlgorithmLevenshtein
}

// Score returns 1 - distance/max(len). Two empty names score 1.
func (LevenshteinSimilarity) Score(candidate, target string) float64 {
	longest := len([]rune(candidate))
	if n := len([]rune(target)); n > longest {
		longest = n
	}
	if longest == 0 {
		return 1.0
	}
	distance := levenshtein.ComputeDistance(candidate, target)
	return 1.0 - float64(distance)/float64(longest)
}

// JaroWinklerSimilarity wraps smetrics.JaroWinkler
type JaroWinklerSimilarity struct {
	BoostThreshold float64
	PrefixSize     int
}

// DefaultJaroWinkler uses the customary 0.7 boost threshold and 4-character prefix
func DefaultJaroWinkler() JaroWinklerSimilarity {
	return JaroWinklerSimilarity{BoostThreshold: 0.7, PrefixSize: 4}
}

// Name returns the algorithm name
func (JaroWinklerSimilarity) Name() Algorithm {
	return AlgorithmJaroWinkler
}

// Score returns the Jaro-Winkler similarity. Two empty names score 1, one empty name 0.
func (s JaroWinklerSimilarity) Score(candidate, target string) float64 {
	switch {
	case candidate == "" && target == "":
		return 1.0
	case candidate == "" || target == "":
		return 0.0
	case candidate == target:
		return 1.0
	}
	return smetrics.JaroWinkler(candidate, target, s.BoostThreshold, s.PrefixSize)
}
