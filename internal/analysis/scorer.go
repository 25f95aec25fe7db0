package analysis

import (
	"github.com/ZanzyTHEbar/karma-compass/internal/catalog"
)

// ScaleRule turns one clamped 1-10 response into karma type contributions.
type ScaleRule func(response int, weight float64, scores ScoreVector)

// DefaultScaleRules returns the reference rules keyed by scale category.
// Responses outside the handled bands contribute nothing.
func DefaultScaleRules() map[string]ScaleRule {
	return map[string]ScaleRule{
		"empathy": func(r int, w float64, scores ScoreVector) {
			switch {
			case r >= 8:
				scores.Add("helper", 2*w)
				scores.Add("healer", w)
			case r >= 6:
				scores.Add("helper", w)
			case r <= 3:
				scores.Add("independent", w)
			}
		},
		"control": func(r int, w float64, scores ScoreVector) {
			switch {
			case r >= 8:
				scores.Add("leader", 2*w)
				scores.Add("protector", w)
			case r <= 3:
				scores.Add("seeker", w)
				scores.Add("independent", w)
			}
		},
	}
}

// Scorer scores one questionnaire at a time.
type Scorer struct {
	catalog    *catalog.Catalog
	scaleRules map[string]ScaleRule
	insights   *insightTable
}

// NewScorer creates a scorer. A nil rule map means DefaultScaleRules.
func NewScorer(cat *catalog.Catalog, scaleRules map[string]ScaleRule) *Scorer {
	if scaleRules == nil {
		scaleRules = DefaultScaleRules()
	}
	return &Scorer{
		catalog:    cat,
		scaleRules: scaleRules,
		insights:   defaultInsights(),
	}
}

// Score builds the score vector and insight for one belief system.
// Unanswered questions are skipped and answers of the wrong shape are ignored.
// The reference rule set does not read the profile.
func (s *Scorer) Score(q catalog.Questionnaire, answers Answers, _ Profile) (ScoreVector, Insight) {
	order := s.catalog.KarmaTypeIDs()
	scores := NewScoreVector(order)

	for _, question := range q.Questions {
		answer, ok := answers[question.ID]
		if !ok {
			continue
		}
		s.scoreQuestion(question, answer, scores)
	}

	return scores, s.insight(q, scores, order)
}

func (s *Scorer) scoreQuestion(question catalog.Question, answer Answer, scores ScoreVector) {
	weight := float64(question.EffectiveWeight())

	switch question.Type {
	case catalog.QuestionChoice, catalog.QuestionScenario:
		opt, ok := selectedOption(question, answer)
		if ok && opt.KarmaType != "" {
			scores.Add(opt.KarmaType, weight)
		}

	case catalog.QuestionScale:
		response, ok := scaleResponse(answer)
		if !ok {
			return
		}
		if rule, ok := s.scaleRules[question.Category]; ok {
			rule(response, weight, scores)
		}

	case catalog.QuestionPriority:
		ids, ok := answer.RankingIDs()
		if !ok {
			return
		}
		for index, opt := range normalizeRanking(question, ids) {
			if opt.KarmaType != "" {
				scores.Add(opt.KarmaType, weight*PriorityWeight(index))
			}
		}
	}
}

func (s *Scorer) insight(q catalog.Questionnaire, scores ScoreVector, order []string) Insight {
	insight := Insight{
		BeliefSystem: q.BeliefSystem,
		Name:         q.Name,
		Scores:       scores,
	}

	top, ok := scores.Top(order)
	if !ok {
		insight.Interpretation = s.insights.unclear(q)
		insight.Guidance = s.insights.genericGuidance()
		return insight
	}

	kt, _ := s.catalog.KarmaType(top.ID)
	insight.TopType = top.ID
	insight.Interpretation = s.insights.interpretation(q, kt)
	insight.Guidance = s.insights.guidanceFor(q.BeliefSystem, kt.ID)
	return insight
}
