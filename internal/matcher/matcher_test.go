package matcher

import (
	"math"
	"reflect"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-4
}

// fixedSimilarity scores candidates from a lookup table
type fixedSimilarity map[string]float64

func (fixedSimilarity) Name() Algorithm { return "fixed" }

func (f fixedSimilarity) Score(candidate, _ string) float64 { return f[candidate] }

func TestGestaltSimilarity_Score(t *testing.T) {
	tests := []struct {
		candidate string
		target    string
		expected  float64
	}{
		{"vitali stepanenko", "vitali stepanenco", 0.9412},
		{"antón kolesnik", "vitali stepanenco", 0.2581},
		{"vitali stepanenko", "zzz unrelated", 0.2},
		{"antón kolesnik", "zzz unrelated", 0.2222},
		{"vitali stepanenko", "vitalii stepanenko", 0.9714},
		{"antón kolesnik", "anton kolesnik", 0.9286},
		{"vitali stepanenko", "anton kolesnik", 0.3226},
		{"vitali stepanenko", "vitali", 0.5217},
		{"antón kolesnik", "vitali", 0.3},
		{"vitali stepanenko", "vitali stepanenko 2", 0.9444},
		{"vitalii stepanenko", "vitali stepanenko 2", 0.9189},
		{"larisa karimova", "vitali stepanenko 2", 0.1765},
		{"kitten", "sitting", 0.6154},
		{"abcd", "bcde", 0.75},
		{"abc", "", 0.0},
		{"", "", 1.0},
		{"same", "same", 1.0},
	}

	sim := GestaltSimilarity{}
	for _, tt := range tests {
		t.Run(tt.candidate+"/"+tt.target, func(t *testing.T) {
			got := sim.Score(tt.candidate, tt.target)
			if !almostEqual(got, tt.expected) {
				t.Errorf("Score(%q, %q) = %.4f, want %.4f", tt.candidate, tt.target, got, tt.expected)
			}
		})
	}
}

func TestLevenshteinSimilarity_Score(t *testing.T) {
	tests := []struct {
		candidate string
		target    string
		expected  float64
	}{
		{"kitten", "sitting", 1.0 - 3.0/7.0},
		{"antón", "anton", 0.8},
		{"", "", 1.0},
		{"abc", "", 0.0},
		{"same", "same", 1.0},
	}

	sim := LevenshteinSimilarity{}
	for _, tt := range tests {
		if got := sim.Score(tt.candidate, tt.target); !almostEqual(got, tt.expected) {
			t.Errorf("Score(%q, %q) = %.4f, want %.4f", tt.candidate, tt.target, got, tt.expected)
		}
	}
}

func TestJaroWinklerSimilarity_Score(t *testing.T) {
	sim := DefaultJaroWinkler()

	if got := sim.Score("", ""); got != 1.0 {
		t.Errorf("Score(empty, empty) = %v, want 1", got)
	}
	if got := sim.Score("abc", ""); got != 0.0 {
		t.Errorf("Score(abc, empty) = %v, want 0", got)
	}
	if got := sim.Score("vitali stepanenko", "vitali stepanenko"); got != 1.0 {
		t.Errorf("identical names should score 1, got %v", got)
	}

	near := sim.Score("vitali stepanenko", "vitali stepanenco")
	far := sim.Score("antón kolesnik", "vitali stepanenco")
	if near <= far {
		t.Errorf("expected typo variant (%v) to score above unrelated name (%v)", near, far)
	}
	if near < DefaultThreshold || near > 1.0 {
		t.Errorf("typo variant score out of range: %v", near)
	}
}

func TestNewSimilarity(t *testing.T) {
	tests := []struct {
		algorithm Algorithm
		expected  Algorithm
		wantError bool
	}{
		{AlgorithmGestalt, AlgorithmGestalt, false},
		{"", AlgorithmGestalt, false},
		{AlgorithmLevenshtein, AlgorithmLevenshtein, false},
		{AlgorithmJaroWinkler, AlgorithmJaroWinkler, false},
		{"soundex", "", true},
	}

	for _, tt := range tests {
		sim, err := NewSimilarity(tt.algorithm)
		if (err != nil) != tt.wantError {
			t.Errorf("NewSimilarity(%q) error = %v, wantError %v", tt.algorithm, err, tt.wantError)
			continue
		}
		if err == nil && sim.Name() != tt.expected {
			t.Errorf("NewSimilarity(%q).Name() = %q, want %q", tt.algorithm, sim.Name(), tt.expected)
		}
	}
}

func TestMatchingConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		config    *MatchingConfig
		wantError bool
	}{
		{"default", DefaultMatchingConfig(), false},
		{"strict", StrictMatchingConfig(), false},
		{"relaxed", RelaxedMatchingConfig(), false},
		{"threshold above 1", &MatchingConfig{Algorithm: AlgorithmGestalt, Threshold: 1.5, MaxSuggestions: 3}, true},
		{"negative threshold", &MatchingConfig{Algorithm: AlgorithmGestalt, Threshold: -0.1, MaxSuggestions: 3}, true},
		{"zero suggestions", &MatchingConfig{Algorithm: AlgorithmGestalt, Threshold: 0.5, MaxSuggestions: 0}, true},
		{"unknown algorithm", &MatchingConfig{Algorithm: "soundex", Threshold: 0.5, MaxSuggestions: 3}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestPresetMatchingConfig(t *testing.T) {
	tests := []struct {
		name      string
		algorithm Algorithm
		threshold float64
		wantError bool
	}{
		{"", AlgorithmGestalt, DefaultThreshold, false},
		{"default", AlgorithmGestalt, DefaultThreshold, false},
		{"Strict", AlgorithmGestalt, 0.85, false},
		{" relaxed ", AlgorithmJaroWinkler, 0.4, false},
		{"fuzzy", "", 0, true},
	}

	for _, tt := range tests {
		got, err := PresetMatchingConfig(tt.name)
		if (err != nil) != tt.wantError {
			t.Errorf("PresetMatchingConfig(%q) error = %v, wantError %v", tt.name, err, tt.wantError)
			continue
		}
		if tt.wantError {
			continue
		}
		if got.Algorithm != tt.algorithm || got.Threshold != tt.threshold {
			t.Errorf("PresetMatchingConfig(%q) = %s, want %s at %.2f", tt.name, got, tt.algorithm, tt.threshold)
		}
	}
}

func TestDefaultMatchingConfigConstants(t *testing.T) {
	config := DefaultMatchingConfig()
	if config.Threshold != 0.5 {
		t.Errorf("default threshold = %v, want 0.5", config.Threshold)
	}
	if config.MaxSuggestions != 3 {
		t.Errorf("default max suggestions = %d, want 3", config.MaxSuggestions)
	}
	if config.Algorithm != AlgorithmGestalt {
		t.Errorf("default algorithm = %s, want gestalt", config.Algorithm)
	}

	clone := config.Clone()
	clone.Threshold = 0.9
	if config.Threshold != 0.5 {
		t.Error("Clone should not share state with the original")
	}
}

func TestNameMatcher_BestMatch(t *testing.T) {
	m, err := NewNameMatcher(nil)
	if err != nil {
		t.Fatalf("NewNameMatcher() error = %v", err)
	}
	candidates := []string{"vitali stepanenko", "antón kolesnik"}

	tests := []struct {
		target   string
		expected string
		found    bool
	}{
		{"vitali stepanenco", "vitali stepanenko", true},
		{"zzz unrelated", "", false},
		{"anton kolesnik", "antón kolesnik", true},
		{"vitali", "vitali stepanenko", true},
		{"bulany vadym", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			got, ok := m.BestMatch(tt.target, candidates)
			if ok != tt.found || got != tt.expected {
				t.Errorf("BestMatch(%q) = (%q, %v), want (%q, %v)", tt.target, got, ok, tt.expected, tt.found)
			}
		})
	}

	if _, ok := m.BestMatch("vitali", nil); ok {
		t.Error("BestMatch with no candidates should find nothing")
	}
}

func TestNameMatcher_Suggest(t *testing.T) {
	m, _ := NewNameMatcher(DefaultMatchingConfig())
	candidates := []string{"vitali stepanenko", "vitalii stepanenko", "bulany vadym", "larisa karimova"}

	got := m.Suggest("vitali stepanenko 2", candidates)
	want := []string{"vitali stepanenko", "vitalii stepanenko"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Suggest() = %v, want %v", got, want)
	}

	if got := m.Suggest("zzz unrelated", candidates); len(got) != 0 {
		t.Errorf("Suggest(unrelated) = %v, want empty", got)
	}
}

func TestNameMatcher_SuggestCapAndTies(t *testing.T) {
	sim := fixedSimilarity{"a": 0.6, "b": 0.9, "c": 0.6, "d": 0.6, "e": 0.4}
	m := NewNameMatcherWithSimilarity(DefaultMatchingConfig(), sim)

	got := m.Suggest("x", []string{"a", "b", "c", "d", "e"})
	want := []string{"b", "a", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Suggest() = %v, want %v", got, want)
	}

	ranked := m.Rank("x", []string{"e", "d", "c", "a", "b"})
	order := make([]string, 0, len(ranked))
	for _, r := range ranked {
		order = append(order, r.Name)
	}
	if !reflect.DeepEqual(order, []string{"b", "d", "c", "a"}) {
		t.Errorf("Rank() order = %v, want [b d c a]", order)
	}
}

func TestNameMatcher_ThresholdIsInclusive(t *testing.T) {
	sim := fixedSimilarity{"edge": 0.5, "below": 0.4999}
	m := NewNameMatcherWithSimilarity(DefaultMatchingConfig(), sim)

	got := m.Suggest("x", []string{"below", "edge"})
	if !reflect.DeepEqual(got, []string{"edge"}) {
		t.Errorf("Suggest() = %v, want [edge]", got)
	}
}

func TestNameMatcher_DuplicateCandidates(t *testing.T) {
	m, _ := NewNameMatcher(nil)

	got := m.Suggest("vitalii stepanenko", []string{"vitalii stepanenko", "vitali stepanenko", "vitalii stepanenko"})
	want := []string{"vitalii stepanenko", "vitali stepanenko"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Suggest() = %v, want %v", got, want)
	}
}

func TestNameMatcher_MatchTypes(t *testing.T) {
	sim := fixedSimilarity{"exact": 1.0, "close": 0.9, "fuzzy": 0.6}
	m := NewNameMatcherWithSimilarity(nil, sim)

	ranked := m.Rank("x", []string{"fuzzy", "close", "exact"})
	if len(ranked) != 3 {
		t.Fatalf("expected 3 results, got %d", len(ranked))
	}
	expected := []MatchType{MatchExact, MatchClose, MatchFuzzy}
	for i, r := range ranked {
		if r.MatchType != expected[i] {
			t.Errorf("ranked[%d].MatchType = %s, want %s", i, r.MatchType, expected[i])
		}
	}
	if ranked[2].Index != 0 {
		t.Errorf("fuzzy index = %d, want 0", ranked[2].Index)
	}
}

func TestNewNameMatcher_InvalidConfig(t *testing.T) {
	if _, err := NewNameMatcher(&MatchingConfig{Algorithm: "soundex", Threshold: 0.5, MaxSuggestions: 3}); err == nil {
		t.Error("expected error for unknown algorithm")
	}
}

func TestNameMatcher_AlgorithmSelection(t *testing.T) {
	config := DefaultMatchingConfig()
	config.Algorithm = AlgorithmLevenshtein
	m, err := NewNameMatcher(config)
	if err != nil {
		t.Fatalf("NewNameMatcher() error = %v", err)
	}
	if m.Similarity().Name() != AlgorithmLevenshtein {
		t.Errorf("Similarity().Name() = %s, want levenshtein", m.Similarity().Name())
	}

	got, ok := m.BestMatch("vitali stepanenco", []string{"vitali stepanenko", "antón kolesnik"})
	if !ok || got != "vitali stepanenko" {
		t.Errorf("BestMatch() = (%q, %v), want vitali stepanenko", got, ok)
	}
}

func BenchmarkGestaltSimilarity_Score(b *testing.B) {
	sim := GestaltSimilarity{}
	for i := 0; i < b.N; i++ {
		sim.Score("macarena remohi martínez-medina", "macarena remohi martinez medina")
	}
}
