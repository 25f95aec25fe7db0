package analysis

import (
	"fmt"
	"math"
	"time"

	"github.com/ZanzyTHEbar/karma-compass/internal/catalog"
)

const (
	maxConfidence      = 95
	maxSeparationBonus = 20
	defaultTrustWeight = 1.0
)

// DefaultTrustWeights returns the per belief system multipliers applied when
// merging. Unlisted systems count at 1.0.
func DefaultTrustWeights() map[string]float64 {
	return map[string]float64{
		"psychology": 1.2,
		"chakras":    1.1,
		"astrology":  1.0,
		"numerology": 0.9,
		"tarot":      0.8,
	}
}

// Config holds the tunable tables of the analyzer.
type Config struct {
	TrustWeights map[string]float64
	ScaleRules   map[string]ScaleRule
	GiftPhrases  map[string]string
	// Now supplies the reference time for age-based recommendations.
	Now func() time.Time
}

// DefaultConfig returns the reference tables and the wall clock.
func DefaultConfig() Config {
	return Config{
		TrustWeights: DefaultTrustWeights(),
		ScaleRules:   DefaultScaleRules(),
		GiftPhrases:  DefaultGiftPhrases(),
		Now:          time.Now,
	}
}

// Analyzer merges per belief system scores into one classification. It holds
// no mutable state and is safe for concurrent use.
type Analyzer struct {
	catalog      *catalog.Catalog
	scorer       *Scorer
	trustWeights map[string]float64
	giftPhrases  map[string]string
	now          func() time.Time
}

// NewAnalyzer creates an analyzer. Nil tables in cfg fall back to the defaults.
func NewAnalyzer(cat *catalog.Catalog, cfg Config) *Analyzer {
	if cfg.TrustWeights == nil {
		cfg.TrustWeights = DefaultTrustWeights()
	}
	if cfg.GiftPhrases == nil {
		cfg.GiftPhrases = DefaultGiftPhrases()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Analyzer{
		catalog:      cat,
		scorer:       NewScorer(cat, cfg.ScaleRules),
		trustWeights: copyWeights(cfg.TrustWeights),
		giftPhrases:  copyPhrases(cfg.GiftPhrases),
		now:          cfg.Now,
	}
}

// Catalog returns the catalog the analyzer reads from.
func (a *Analyzer) Catalog() *catalog.Catalog {
	return a.catalog
}

// TrustWeight is the merge multiplier for a belief system.
func (a *Analyzer) TrustWeight(system string) float64 {
	if w, ok := a.trustWeights[system]; ok {
		return w
	}
	return defaultTrustWeight
}

// Analyze scores every selected belief system, merges the trust-weighted
// vectors and builds the result. Unknown systems become warnings; systems
// without answers are skipped. It fails with ErrNoQualifyingResult when no
// system yields a top karma type.
func (a *Analyzer) Analyze(systems []string, answers SystemAnswers, profile Profile) (AnalysisResult, error) {
	order := a.catalog.KarmaTypeIDs()
	total := NewScoreVector(order)

	var (
		selected []string
		warnings []Warning
		insights []Insight
		tops     []string
	)
	seen := make(map[string]bool, len(systems))

	for _, system := range systems {
		if seen[system] {
			continue
		}
		seen[system] = true

		q, ok := a.catalog.Questionnaire(system)
		if !ok {
			warnings = append(warnings, Warning{
				Code:         WarningUnknownBeliefSystem,
				BeliefSystem: system,
				Message:      fmt.Sprintf("belief system %q has no questionnaire and was skipped", system),
			})
			continue
		}
		selected = append(selected, system)

		systemAnswers := answers[system]
		if len(systemAnswers) == 0 {
			continue
		}

		scores, insight := a.scorer.Score(q, systemAnswers, profile)
		total.AddScaled(scores, a.TrustWeight(system), order)
		insights = append(insights, insight)
		if insight.TopType != "" {
			tops = append(tops, insight.TopType)
		}
	}

	ranking := total.Ranked(order)
	if len(tops) == 0 || len(ranking) == 0 || ranking[0].Score <= 0 {
		return AnalysisResult{}, newNoQualifyingResultError(systems, warnings)
	}

	primary, _ := a.catalog.KarmaType(ranking[0].ID)
	var secondary *catalog.KarmaType
	secondScore := 0.0
	if len(ranking) > 1 {
		secondScore = ranking[1].Score
		if secondScore > 0 {
			kt, _ := a.catalog.KarmaType(ranking[1].ID)
			secondary = &kt
		}
	}

	result := AnalysisResult{
		Primary:    primary,
		Secondary:  secondary,
		Confidence: Confidence(ranking[0].Score, secondScore, total.Total(order)),
		Insights:   insights,
		Scores:     total,
		Ranking:    ranking,
		Warnings:   warnings,
	}

	note := ""
	if consistency, ok := Consistency(tops); ok {
		result.Consistency = &consistency
		note = consistencyNote(consistency)
	}

	var gifts []string
	for _, system := range selected {
		if phrase, ok := a.giftPhrases[system]; ok && phrase != "" {
			gifts = append(gifts, phrase)
		}
	}

	result.Analysis = mergeNarrative(narrativeInput{
		primary:     primary,
		secondary:   secondary,
		note:        note,
		ageLine:     ageRecommendation(profile, a.now()),
		giftPhrases: gifts,
	})

	return result, nil
}

// Confidence = min(95, 100·primary/total + min(20, 2·(primary−secondary))),
// rounded. A zero total gives no base confidence.
func Confidence(primary, secondary, total float64) int {
	base := 0.0
	if total > 0 {
		base = 100 * primary / total
	}
	bonus := math.Min(maxSeparationBonus, 2*(primary-secondary))
	return int(math.Round(clip(base+bonus, 0, maxConfidence)))
}

// Consistency is the mean pairwise agreement between per-system top types:
// 1.0 for a matching pair, 0.5 otherwise. It needs at least two systems.
func Consistency(tops []string) (float64, bool) {
	if len(tops) < 2 {
		return 0, false
	}
	sum, pairs := 0.0, 0
	for i := 0; i < len(tops); i++ {
		for j := i + 1; j < len(tops); j++ {
			if tops[i] == tops[j] {
				sum += 1.0
			} else {
				sum += 0.5
			}
			pairs++
		}
	}
	return sum / float64(pairs), true
}

func copyWeights(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyPhrases(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
