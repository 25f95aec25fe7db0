package analysis

import (
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/karma-compass/internal/catalog"
)

const (
	maxStrengths       = 6
	maxChallenges      = 4
	maxRecommendations = 8
)

const (
	agreementNote     = "All of your belief systems agree on one path; trust this direction"
	multifacetedNote  = "Your belief systems reveal a multifaceted nature; explore each side of it"
	agreementAbove    = 0.8
	multifacetedBelow = 0.5
)

// DefaultGiftPhrases are appended to the spiritual gift for each selected system.
func DefaultGiftPhrases() map[string]string {
	return map[string]string{
		"astrology":  "through understanding cosmic cycles",
		"psychology": "through deep self-awareness",
		"chakras":    "through balancing your energy centers",
		"numerology": "through the hidden language of numbers",
		"tarot":      "through intuitive symbolic insight",
	}
}

type narrativeInput struct {
	primary     catalog.KarmaType
	secondary   *catalog.KarmaType
	note        string
	ageLine     string
	giftPhrases []string
}

func mergeNarrative(in narrativeInput) DetailedAnalysis {
	strengths := append([]string(nil), in.primary.Traits...)
	challenges := append([]string(nil), in.primary.Challenges...)
	recommendations := append([]string(nil), in.primary.Recommendations...)
	lifeLesson := in.primary.LifeLesson

	if in.secondary != nil {
		for _, trait := range in.secondary.Traits {
			if !containsFold(strengths, trait) {
				strengths = append(strengths, trait+" (secondary)")
			}
		}
		challenges = append(challenges, fmt.Sprintf("Balancing your %s nature with your %s side",
			shortName(in.primary), shortName(*in.secondary)))
		lifeLesson = fmt.Sprintf("%s, supported by the energy of %s", lifeLesson, in.secondary.Name)
	}

	if in.ageLine != "" {
		recommendations = append(recommendations, in.ageLine)
	}
	if in.note != "" {
		recommendations = append(recommendations, in.note)
	}

	gift := in.primary.SpiritualGift
	if len(in.giftPhrases) > 0 {
		gift = gift + " " + strings.Join(in.giftPhrases, ", ")
	}

	return DetailedAnalysis{
		Strengths:       truncate(strengths, maxStrengths),
		Challenges:      truncate(challenges, maxChallenges),
		LifeLesson:      lifeLesson,
		SpiritualGift:   gift,
		Recommendations: truncate(recommendations, maxRecommendations),
	}
}

// consistencyNote maps a consistency score to its recommendation line, if any.
func consistencyNote(consistency float64) string {
	switch {
	case consistency > agreementAbove:
		return agreementNote
	case consistency < multifacetedBelow:
		return multifacetedNote
	default:
		return ""
	}
}

// containsFold reports whether s overlaps any entry, ignoring case.
func containsFold(list []string, s string) bool {
	needle := strings.ToLower(s)
	for _, item := range list {
		hay := strings.ToLower(item)
		if strings.Contains(hay, needle) || strings.Contains(needle, hay) {
			return true
		}
	}
	return false
}

func shortName(kt catalog.KarmaType) string {
	return strings.ToLower(strings.TrimPrefix(kt.Name, "The "))
}

func truncate(list []string, max int) []string {
	if len(list) > max {
		return list[:max]
	}
	return list
}
