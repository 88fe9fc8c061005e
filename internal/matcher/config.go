// Package matcher provides approximate person-name matching with ranked suggestions.
//
// Names coming from the scheduling portal and from the practice-management system
// are typed by different people and rarely agree byte for byte. The matcher scores
// every candidate against a target with a pluggable Similarity, keeps those at or
// above a threshold and ranks them by descending score, breaking ties by the order
// the candidates were given in.
//
// Example usage:
//
//	config := matcher.DefaultMatchingConfig()
//	m, err := matcher.NewNameMatcher(config)
//	suggestions := m.Suggest("vitali stepanenco", names)
//	best, ok := m.BestMatch("vitali stepanenco", names)
package matcher

import (
	"fmt"
	"strings"
)

// Algorithm names a similarity strategy
type Algorithm string

const (
	// AlgorithmGestalt is Ratcliff/Obershelp pattern matching: 2*M/T where M is the
	// number of characters in matching blocks and T the total length of both names.
	AlgorithmGestalt Algorithm = "gestalt"

	// AlgorithmLevenshtein is 1 - distance/max(len(a), len(b)).
	AlgorithmLevenshtein Algorithm = "levenshtein"

	// AlgorithmJaroWinkler favours names sharing a common prefix.
	AlgorithmJaroWinkler Algorithm = "jaro_winkler"
)

// String returns the string representation of Algorithm
func (a Algorithm) String() string {
	return string(a)
}

const (
	// DefaultThreshold is the minimum similarity for a candidate to be suggested
	DefaultThreshold = 0.5
	// DefaultMaxSuggestions caps the number of suggested names
	DefaultMaxSuggestions = 3
)

// MatchingConfig holds the parameters of name matching.
// Suggestions shown to clinic staff depend on all three values.
type MatchingConfig struct {
	Algorithm      Algorithm `json:"algorithm" mapstructure:"algorithm"`
	Threshold      float64   `json:"threshold" mapstructure:"threshold"`
	MaxSuggestions int       `json:"max_suggestions" mapstructure:"max_suggestions"`
}

// DefaultMatchingConfig returns the configuration used by the daily checks
func DefaultMatchingConfig() *MatchingConfig {
	return &MatchingConfig{
		Algorithm:      AlgorithmGestalt,
		Threshold:      DefaultThreshold,
		MaxSuggestions: DefaultMaxSuggestions,
	}
}

// StrictMatchingConfig returns a configuration that only pairs near-identical names
func StrictMatchingConfig() *MatchingConfig {
	return &MatchingConfig{
		Algorithm:      AlgorithmGestalt,
		Threshold:      0.85,
		MaxSuggestions: 1,
	}
}

// RelaxedMatchingConfig returns a configuration for exploring badly typed names
func RelaxedMatchingConfig() *MatchingConfig {
	return &MatchingConfig{
		Algorithm:      AlgorithmJaroWinkler,
		Threshold:      0.4,
		MaxSuggestions: 5,
	}
}

// PresetMatchingConfig returns the named configuration: default, strict or relaxed
func PresetMatchingConfig(name string) (*MatchingConfig, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "default":
		return DefaultMatchingConfig(), nil
	case "strict":
		return StrictMatchingConfig(), nil
	case "relaxed":
		return RelaxedMatchingConfig(), nil
	default:
		return nil, fmt.Errorf("unknown matching preset: %q", name)
	}
}

// Validate checks if the matching configuration is valid
func (mc *MatchingConfig) Validate() error {
	if _, err := NewSimilarity(mc.Algorithm); err != nil {
		return err
	}

	if mc.Threshold < 0.0 || mc.Threshold > 1.0 {
		return fmt.Errorf("threshold must be between 0.0 and 1.0: %f", mc.Threshold)
	}

	if mc.MaxSuggestions <= 0 {
		return fmt.Errorf("max suggestions must be positive: %d", mc.MaxSuggestions)
	}

	return nil
}

// Clone creates a copy of the matching configuration
func (mc *MatchingConfig) Clone() *MatchingConfig {
	if mc == nil {
		return nil
	}
	clone := *mc
	return &clone
}

// String returns a human-readable description of the configuration
func (mc *MatchingConfig) String() string {
	return fmt.Sprintf("MatchingConfig{Algorithm: %s, Threshold: %.2f, MaxSuggestions: %d}",
		mc.Algorithm, mc.Threshold, mc.MaxSuggestions)
}
