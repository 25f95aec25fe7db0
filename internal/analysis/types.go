package analysis

import (
	"sort"

	"github.com/ZanzyTHEbar/karma-compass/internal/catalog"
)

// Answers maps question id to the user's raw answer.
type Answers map[string]Answer

// SystemAnswers maps belief system id to the answers for its questionnaire.
type SystemAnswers map[string]Answers

// ScoreVector accumulates score per karma type id.
type ScoreVector map[string]float64

// NewScoreVector returns a vector with every id present at zero.
func NewScoreVector(ids []string) ScoreVector {
	v := make(ScoreVector, len(ids))
	for _, id := range ids {
		v[id] = 0
	}
	return v
}

func (v ScoreVector) Add(id string, amount float64) {
	v[id] += amount
}

// AddScaled adds other×factor for the ids in order. Ids outside order are ignored.
func (v ScoreVector) AddScaled(other ScoreVector, factor float64, order []string) {
	for _, id := range order {
		if s, ok := other[id]; ok {
			v[id] += s * factor
		}
	}
}

// Total sums the vector in the given order so the result is reproducible.
func (v ScoreVector) Total(order []string) float64 {
	total := 0.0
	for _, id := range order {
		total += v[id]
	}
	return total
}

// RankedType is one entry of a ranked score vector.
type RankedType struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Ranked sorts the ids in order by descending score; ties keep their order.
func (v ScoreVector) Ranked(order []string) []RankedType {
	out := make([]RankedType, 0, len(order))
	for _, id := range order {
		out = append(out, RankedType{ID: id, Score: v[id]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// Top returns the highest positive entry, if any.
func (v ScoreVector) Top(order []string) (RankedType, bool) {
	ranked := v.Ranked(order)
	if len(ranked) == 0 || ranked[0].Score <= 0 {
		return RankedType{}, false
	}
	return ranked[0], true
}

// Insight is the narrative produced for one belief system.
type Insight struct {
	BeliefSystem   string      `json:"beliefSystem"`
	Name           string      `json:"name"`
	TopType        string      `json:"topType,omitempty"`
	Interpretation string      `json:"interpretation"`
	Guidance       []string    `json:"guidance"`
	Scores         ScoreVector `json:"scores"`
}

// DetailedAnalysis is the merged narrative for the primary (and secondary) type.
type DetailedAnalysis struct {
	Strengths       []string `json:"strengths"`
	Challenges      []string `json:"challenges"`
	LifeLesson      string   `json:"lifeLesson"`
	SpiritualGift   string   `json:"spiritualGift"`
	Recommendations []string `json:"recommendations"`
}

// WarningCode classifies non-fatal analysis problems.
type WarningCode string

// WarningUnknownBeliefSystem marks a selected belief system with no questionnaire.
const WarningUnknownBeliefSystem WarningCode = "unknown_belief_system"

// Warning is a non-fatal condition surfaced alongside a result.
type Warning struct {
	Code         WarningCode `json:"code"`
	BeliefSystem string      `json:"beliefSystem,omitempty"`
	Message      string      `json:"message"`
}

// AnalysisResult is the full output of one analysis. It shares no memory
// with the catalog or the analyzer.
type AnalysisResult struct {
	Primary     catalog.KarmaType  `json:"primary"`
	Secondary   *catalog.KarmaType `json:"secondary,omitempty"`
	Confidence  int                `json:"confidence"`
	Analysis    DetailedAnalysis   `json:"detailedAnalysis"`
	Insights    []Insight          `json:"beliefSystemInsights"`
	Scores      ScoreVector        `json:"scores"`
	Ranking     []RankedType       `json:"ranking"`
	Consistency *float64           `json:"consistency,omitempty"`
	Warnings    []Warning          `json:"warnings,omitempty"`
}
