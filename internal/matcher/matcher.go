package matcher

import (
	"fmt"
	"sort"
)

// MatchType represents how close a suggested name is to the target
type MatchType int

const (
	// MatchExact means the names are identical for the similarity in use
	MatchExact MatchType = iota
	// MatchClose means the names differ by a typo or two
	MatchClose
	// MatchFuzzy means the candidate only just clears the threshold
	MatchFuzzy
)

// closeScore separates close matches from fuzzy ones
const closeScore = 0.85

// String returns the string representation of MatchType
func (mt MatchType) String() string {
	switch mt {
	case MatchExact:
		return "Exact"
	case MatchClose:
		return "Close"
	case MatchFuzzy:
		return "Fuzzy"
	default:
		return "Unknown"
	}
}

// MatchResult is one candidate that cleared the threshold
type MatchResult struct {
	Name      string    `json:"name"`
	Index     int       `json:"index"`
	Score     float64   `json:"score"`
	MatchType MatchType `json:"match_type"`
}

// NameMatcher ranks candidate names against a target name.
// Names are expected to be normalized by the caller.
type NameMatcher struct {
	config     *MatchingConfig
	similarity Similarity
}

// NewNameMatcher creates a matcher using the similarity named in config
func NewNameMatcher(config *MatchingConfig) (*NameMatcher, error) {
	if config == nil {
		config = DefaultMatchingConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid matching configuration: %w", err)
	}

	similarity, err := NewSimilarity(config.Algorithm)
	if err != nil {
		return nil, err
	}

	return &NameMatcher{config: config.Clone(), similarity: similarity}, nil
}

// NewNameMatcherWithSimilarity creates a matcher with an explicit strategy,
// ignoring config.Algorithm.
func NewNameMatcherWithSimilarity(config *MatchingConfig, similarity Similarity) *NameMatcher {
	if config == nil {
		config = DefaultMatchingConfig()
	}
	if similarity == nil {
		similarity = GestaltSimilarity{}
	}
	return &NameMatcher{config: config.Clone(), similarity: similarity}
}

// Rank scores every distinct candidate against target and returns those scoring
// at least the threshold, highest first. Equal scores keep input order.
// Repeated candidates are scored once, at their first position.
func (nm *NameMatcher) Rank(target string, candidates []string) []MatchResult {
	seen := make(map[string]bool, len(candidates))
	var results []MatchResult

	for i, candidate := range candidates {
		if seen[candidate] {
			continue
		}
		seen[candidate] = true

		score := nm.similarity.Score(candidate, target)
		if score < nm.config.Threshold {
			continue
		}
		results = append(results, MatchResult{
			Name:      candidate,
			Index:     i,
			Score:     score,
			MatchType: nm.determineMatchType(score),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results
}

// Suggest returns at most MaxSuggestions candidate names, best first.
// The result is empty when no candidate clears the threshold.
func (nm *NameMatcher) Suggest(target string, candidates []string) []string {
	ranked := nm.Rank(target, candidates)
	if len(ranked) > nm.config.MaxSuggestions {
		ranked = ranked[:nm.config.MaxSuggestions]
	}

	names := make([]string, 0, len(ranked))
	for _, r := range ranked {
		names = append(names, r.Name)
	}
	return names
}

// BestMatch returns the single highest-ranked candidate, if any clears the threshold
func (nm *NameMatcher) BestMatch(target string, candidates []string) (string, bool) {
	ranked := nm.Rank(target, candidates)
	if len(ranked) == 0 {
		return "", false
	}
	return ranked[0].Name, true
}

func (nm *NameMatcher) determineMatchType(score float64) MatchType {
	switch {
	case score >= 1.0:
		return MatchExact
	case score >= closeScore:
		return MatchClose
	default:
		return MatchFuzzy
	}
}

// Similarity returns the strategy in use
func (nm *NameMatcher) Similarity() Similarity {
	return nm.similarity
}

// GetConfiguration returns a copy of the current configuration
func (nm *NameMatcher) GetConfiguration() *MatchingConfig {
	return nm.config.Clone()
}
