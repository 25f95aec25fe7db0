package analysis

import (
	"fmt"

	"github.com/ZanzyTHEbar/karma-compass/internal/catalog"
)

type insightKey struct {
	system string
	karma  string
}

type insightTable struct {
	interpretations map[insightKey]string
	guidance        map[insightKey][]string
	generic         []string
}

func (t *insightTable) interpretation(q catalog.Questionnaire, kt catalog.KarmaType) string {
	if text, ok := t.interpretations[insightKey{q.BeliefSystem, kt.ID}]; ok {
		return text
	}
	return fmt.Sprintf("Your %s profile points toward the path of %s.", q.Name, kt.Name)
}

func (t *insightTable) unclear(q catalog.Questionnaire) string {
	return fmt.Sprintf("Your %s answers do not point toward a single path yet.", q.Name)
}

func (t *insightTable) guidanceFor(system, karma string) []string {
	if g, ok := t.guidance[insightKey{system, karma}]; ok {
		return append([]string(nil), g...)
	}
	return t.genericGuidance()
}

func (t *insightTable) genericGuidance() []string {
	return append([]string(nil), t.generic...)
}

func defaultInsights() *insightTable {
	return &insightTable{
		interpretations: map[insightKey]string{
			{"astrology", "leader"}:       "Your chart is dominated by fiery, solar energy: you are here to initiate and to lead by example.",
			{"astrology", "helper"}:       "Lunar and Venusian influences shape a chart devoted to nurturing and partnership.",
			{"astrology", "seeker"}:       "Jupiter's expansive pull marks you as a traveller of both the world and the spirit.",
			{"astrology", "protector"}:    "Earth signs anchor your chart, giving you steadiness others can build on.",
			{"psychology", "helper"}:      "Your responses show high empathy and a strong orientation toward other people's wellbeing.",
			{"psychology", "leader"}:      "You show a strong need for agency and a comfort with responsibility and control.",
			{"psychology", "independent"}: "You value autonomy highly and recharge best on your own terms.",
			{"psychology", "sage"}:        "Knowledge and understanding rank among your deepest motivations.",
			{"chakras", "healer"}:         "Your heart center radiates outward; you naturally channel restorative energy.",
			{"chakras", "sage"}:           "An open crown chakra connects you to insight beyond the everyday.",
			{"chakras", "creator"}:        "Your sacral center is vibrant, fuelling creativity and sensual expression.",
			{"numerology", "leader"}:      "Your numbers carry the vibration of initiation and mastery: 1, 8 and 22.",
			{"numerology", "seeker"}:      "The 7 in your numbers calls you toward study, introspection and hidden truths.",
			{"tarot", "sage"}:             "The Hermit's lantern guides you: solitude is where your wisdom ripens.",
			{"tarot", "creator"}:          "The Empress blesses you with fertile imagination and a gift for bringing ideas to life.",
			{"tarot", "leader"}:           "The Emperor's structure and authority run through your reading.",
		},
		guidance: map[insightKey][]string{
			{"astrology", "leader"}: {
				"Start new projects around the new moon",
				"Watch for impatience when Mars is retrograde",
			},
			{"psychology", "helper"}: {
				"Notice when helping turns into people-pleasing",
				"Practice stating one need of your own each day",
			},
			{"psychology", "leader"}: {
				"Delegate one decision you would normally keep",
				"Ask for feedback on how your decisions land",
			},
			{"chakras", "healer"}: {
				"Ground yourself through the root chakra after healing work",
				"Use breathwork to clear absorbed emotions",
			},
			{"numerology", "seeker"}: {
				"Keep a journal of recurring numbers and what they coincide with",
				"Set aside a seventh day for rest and reflection",
			},
			{"tarot", "sage"}: {
				"Draw a single card each morning as a reflection prompt",
				"Share one insight from your readings with someone you trust",
			},
		},
		generic: []string{
			"Reflect regularly on what your answers reveal about you",
			"Choose one practice from this tradition and try it for a month",
			"Revisit this reading after a period of change",
		},
	}
}
