package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/karma-compass/internal/catalog"
)

// newTestCatalog pairs the reference karma types with hand-written questionnaires.
func newTestCatalog(t testing.TB, questionnaires ...catalog.Questionnaire) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New(catalog.MustLoad().KarmaTypes(), questionnaires)
	require.NoError(t, err)
	return c
}

func choiceQuestionnaire(system string, weight int, karma string) catalog.Questionnaire {
	return catalog.Questionnaire{
		ID:            system + "-test",
		BeliefSystem:  system,
		Name:          system,
		ScoringMethod: catalog.ScoringWeighted,
		Questions: []catalog.Question{{
			ID:     "q1",
			Type:   catalog.QuestionChoice,
			Text:   "Pick one",
			Weight: weight,
			Options: []catalog.Option{
				{ID: "yes", Text: "Yes", KarmaType: karma},
				{ID: "neutral", Text: "Neutral"},
			},
		}},
	}
}

func priorityQuestionnaire(options ...catalog.Option) catalog.Questionnaire {
	return catalog.Questionnaire{
		ID:            "priority-test",
		BeliefSystem:  "psychology",
		Name:          "Psychology",
		ScoringMethod: catalog.ScoringWeighted,
		Questions: []catalog.Question{{
			ID:      "rank",
			Type:    catalog.QuestionPriority,
			Text:    "Rank these",
			Weight:  1,
			Options: options,
		}},
	}
}

func scaleQuestionnaire(category string, weight int) catalog.Questionnaire {
	return catalog.Questionnaire{
		ID:            "scale-test",
		BeliefSystem:  "psychology",
		Name:          "Psychology",
		ScoringMethod: catalog.ScoringWeighted,
		Questions: []catalog.Question{{
			ID:       "scale",
			Type:     catalog.QuestionScale,
			Text:     "How much",
			Weight:   weight,
			Category: category,
		}},
	}
}

func TestScorer_ChoiceAddsWeight(t *testing.T) {
	q := choiceQuestionnaire("astrology", 3, "leader")
	c := newTestCatalog(t, q)
	scorer := NewScorer(c, nil)

	tests := []struct {
		name     string
		answers  Answers
		expected float64
	}{
		{name: "tagged option adds the question weight", answers: Answers{"q1": OptionAnswer("yes")}, expected: 3},
		{name: "untagged option adds nothing", answers: Answers{"q1": OptionAnswer("neutral")}, expected: 0},
		{name: "unknown option is ignored", answers: Answers{"q1": OptionAnswer("maybe")}, expected: 0},
		{name: "ranking given to a choice question is ignored", answers: Answers{"q1": RankingAnswer("yes")}, expected: 0},
		{name: "missing answer is skipped", answers: Answers{}, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scores, _ := scorer.Score(q, tt.answers, Profile{})
			assert.Equal(t, tt.expected, scores["leader"])
		})
	}
}

func TestScorer_ScaleRules(t *testing.T) {
	tests := []struct {
		name     string
		category string
		response float64
		expected map[string]float64
	}{
		{name: "high empathy", category: "empathy", response: 9, expected: map[string]float64{"helper": 4, "healer": 2}},
		{name: "empathy at eight", category: "empathy", response: 8, expected: map[string]float64{"helper": 4, "healer": 2}},
		{name: "moderate empathy", category: "empathy", response: 7, expected: map[string]float64{"helper": 2}},
		{name: "empathy at six", category: "empathy", response: 6, expected: map[string]float64{"helper": 2}},
		{name: "empathy middle band", category: "empathy", response: 5, expected: map[string]float64{}},
		{name: "low empathy", category: "empathy", response: 3, expected: map[string]float64{"independent": 2}},
		{name: "high control", category: "control", response: 8, expected: map[string]float64{"leader": 4, "protector": 2}},
		{name: "control middle band", category: "control", response: 6, expected: map[string]float64{}},
		{name: "low control", category: "control", response: 1, expected: map[string]float64{"seeker": 2, "independent": 2}},
		{name: "response above range is clamped to ten", category: "control", response: 42, expected: map[string]float64{"leader": 4, "protector": 2}},
		{name: "response below range is clamped to one", category: "empathy", response: -7, expected: map[string]float64{"independent": 2}},
		{name: "fractional response is rounded", category: "empathy", response: 7.6, expected: map[string]float64{"helper": 4, "healer": 2}},
		{name: "unknown category is a no-op", category: "serenity", response: 10, expected: map[string]float64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := scaleQuestionnaire(tt.category, 2)
			scorer := NewScorer(newTestCatalog(t, q), nil)

			scores, _ := scorer.Score(q, Answers{"scale": ScaleAnswer(tt.response)}, Profile{})

			for id, score := range scores {
				assert.Equal(t, tt.expected[id], score, "karma type %s", id)
			}
		})
	}
}

func TestScorer_CustomScaleRule(t *testing.T) {
	q := scaleQuestionnaire("creativity", 1)
	rules := DefaultScaleRules()
	rules["creativity"] = func(r int, w float64, scores ScoreVector) {
		if r >= 7 {
			scores.Add("creator", 3*w)
		}
	}
	scorer := NewScorer(newTestCatalog(t, q), rules)

	scores, insight := scorer.Score(q, Answers{"scale": ScaleAnswer(7)}, Profile{})

	assert.Equal(t, 3.0, scores["creator"])
	assert.Equal(t, "creator", insight.TopType)
}

func TestScorer_PriorityPartialRanking(t *testing.T) {
	q := priorityQuestionnaire(
		catalog.Option{ID: "p1", Text: "P1", KarmaType: "helper"},
		catalog.Option{ID: "p2", Text: "P2", KarmaType: "leader"},
		catalog.Option{ID: "p3", Text: "P3", KarmaType: "creator"},
	)
	scorer := NewScorer(newTestCatalog(t, q), nil)

	scores, insight := scorer.Score(q, Answers{"rank": RankingAnswer("p2", "p1")}, Profile{})

	assert.Equal(t, 32.0, scores["leader"])
	assert.Equal(t, 16.0, scores["helper"])
	assert.Equal(t, 0.0, scores["creator"])
	assert.Equal(t, "leader", insight.TopType)
}

func TestScorer_PriorityDecay(t *testing.T) {
	q := priorityQuestionnaire(
		catalog.Option{ID: "a", Text: "A", KarmaType: "leader"},
		catalog.Option{ID: "b", Text: "B", KarmaType: "helper"},
		catalog.Option{ID: "c", Text: "C", KarmaType: "healer"},
		catalog.Option{ID: "d", Text: "D", KarmaType: "creator"},
		catalog.Option{ID: "e", Text: "E", KarmaType: "seeker"},
	)
	scorer := NewScorer(newTestCatalog(t, q), nil)

	scores, _ := scorer.Score(q, Answers{"rank": RankingAnswer("a", "b", "c", "d", "e")}, Profile{})

	assert.Equal(t, []float64{32, 16, 8, 4, 2},
		[]float64{scores["leader"], scores["helper"], scores["healer"], scores["creator"], scores["seeker"]})
	assert.Equal(t, 16.0, scores["leader"]/scores["seeker"])
}

func TestScorer_PriorityIgnoresOddInput(t *testing.T) {
	q := priorityQuestionnaire(
		catalog.Option{ID: "a", Text: "A", KarmaType: "leader"},
		catalog.Option{ID: "b", Text: "B", KarmaType: "helper"},
	)
	scorer := NewScorer(newTestCatalog(t, q), nil)

	tests := []struct {
		name     string
		answer   Answer
		expected map[string]float64
	}{
		{
			name:     "duplicates count once",
			answer:   RankingAnswer("a", "a", "b"),
			expected: map[string]float64{"leader": 32, "helper": 16},
		},
		{
			name:     "unknown ids are dropped before positions are assigned",
			answer:   RankingAnswer("zzz", "b", "a"),
			expected: map[string]float64{"helper": 32, "leader": 16},
		},
		{
			name:     "list longer than the options is truncated",
			answer:   RankingAnswer("b", "a", "b", "a", "b", "a", "b"),
			expected: map[string]float64{"helper": 32, "leader": 16},
		},
		{
			name:     "single id counts as a one-element ranking",
			answer:   OptionAnswer("b"),
			expected: map[string]float64{"helper": 32},
		},
		{
			name:     "scale answer is ignored",
			answer:   ScaleAnswer(3.5),
			expected: map[string]float64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scores, _ := scorer.Score(q, Answers{"rank": tt.answer}, Profile{})
			assert.Equal(t, tt.expected["leader"], scores["leader"])
			assert.Equal(t, tt.expected["helper"], scores["helper"])
		})
	}
}

func TestScorer_WeightMonotonicity(t *testing.T) {
	previous := -1.0
	for weight := 1; weight <= 6; weight++ {
		q := choiceQuestionnaire("astrology", weight, "sage")
		scorer := NewScorer(newTestCatalog(t, q), nil)

		scores, _ := scorer.Score(q, Answers{"q1": OptionAnswer("yes")}, Profile{})

		assert.GreaterOrEqual(t, scores["sage"], previous, "weight %d", weight)
		previous = scores["sage"]
	}
}

func TestScorer_Insight(t *testing.T) {
	c := catalog.MustLoad()
	scorer := NewScorer(c, nil)

	t.Run("uses the specific interpretation when one exists", func(t *testing.T) {
		q, _ := c.Questionnaire("tarot")
		_, insight := scorer.Score(q, Answers{"tarot-major": OptionAnswer("hermit")}, Profile{})

		assert.Equal(t, "sage", insight.TopType)
		assert.Contains(t, insight.Interpretation, "Hermit")
		assert.Len(t, insight.Guidance, 2)
	})

	t.Run("falls back to the generic template", func(t *testing.T) {
		q, _ := c.Questionnaire("tarot")
		_, insight := scorer.Score(q, Answers{"tarot-major": OptionAnswer("chariot")}, Profile{})

		assert.Equal(t, "independent", insight.TopType)
		assert.Equal(t, "Your Tarot profile points toward the path of The Independent.", insight.Interpretation)
		assert.Len(t, insight.Guidance, 3)
	})

	t.Run("top type follows the heaviest answer", func(t *testing.T) {
		q, _ := c.Questionnaire("tarot")
		_, insight := scorer.Score(q, Answers{
			"tarot-spread": OptionAnswer("comfort"), // helper +1
			"tarot-major":  OptionAnswer("fool"),    // seeker +2
			"tarot-suits":  OptionAnswer("x"),       // unknown, ignored
		}, Profile{})
		assert.Equal(t, "seeker", insight.TopType)

		_, insight = scorer.Score(q, Answers{
			"tarot-spread": OptionAnswer("teach"),  // sage +1
			"tarot-major":  OptionAnswer("lovers"), // helper +2
		}, Profile{})
		assert.Equal(t, "helper", insight.TopType)
	})

	t.Run("zero vector reports no clear signal", func(t *testing.T) {
		q, _ := c.Questionnaire("psychology")
		_, insight := scorer.Score(q, Answers{"psy-empathy": ScaleAnswer(5)}, Profile{})

		assert.Empty(t, insight.TopType)
		assert.Contains(t, insight.Interpretation, "do not point toward a single path")
		assert.Len(t, insight.Guidance, 3)
	})
}

func TestScorer_CatalogTieBreak(t *testing.T) {
	q := catalog.Questionnaire{
		ID:            "tie",
		BeliefSystem:  "astrology",
		Name:          "Astrology",
		ScoringMethod: catalog.ScoringWeighted,
		Questions: []catalog.Question{
			{ID: "q1", Type: catalog.QuestionChoice, Text: "One", Options: []catalog.Option{{ID: "s", Text: "S", KarmaType: "sage"}}},
			{ID: "q2", Type: catalog.QuestionChoice, Text: "Two", Options: []catalog.Option{{ID: "h", Text: "H", KarmaType: "helper"}}},
		},
	}
	scorer := NewScorer(newTestCatalog(t, q), nil)

	_, insight := scorer.Score(q, Answers{"q1": OptionAnswer("s"), "q2": OptionAnswer("h")}, Profile{})

	// helper is declared before sage
	assert.Equal(t, "helper", insight.TopType)
}

func TestPriorityWeight(t *testing.T) {
	tests := []struct {
		index    int
		expected float64
	}{
		{index: -1, expected: 32},
		{index: 0, expected: 32},
		{index: 1, expected: 16},
		{index: 2, expected: 8},
		{index: 3, expected: 4},
		{index: 4, expected: 2},
		{index: 5, expected: 1},
		{index: 9, expected: 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, PriorityWeight(tt.index), "index %d", tt.index)
	}
}
