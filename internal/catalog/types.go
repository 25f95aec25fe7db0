package catalog

// Element is the elemental tag carried by every karma type.
type Element string

const (
	ElementFire  Element = "fire"
	ElementEarth Element = "earth"
	ElementAir   Element = "air"
	ElementWater Element = "water"
)

// QuestionType selects how an answer to a question is interpreted.
type QuestionType string

const (
	QuestionChoice   QuestionType = "choice"
	QuestionScenario QuestionType = "scenario"
	QuestionScale    QuestionType = "scale"
	QuestionPriority QuestionType = "priority"
)

// ScoringMethod is informational; it does not change how answers are aggregated.
type ScoringMethod string

const (
	ScoringWeighted    ScoringMethod = "weighted"
	ScoringCategorical ScoringMethod = "categorical"
	ScoringIntuitive   ScoringMethod = "intuitive"
)

// Scale questions always use a 1-10 domain.
const (
	ScaleMin = 1
	ScaleMax = 10
)

// KarmaType is one archetype class the analyzer can classify a user into.
type KarmaType struct {
	ID              string   `json:"id" yaml:"id" validate:"required"`
	Name            string   `json:"name" yaml:"name" validate:"required"`
	Description     string   `json:"description" yaml:"description" validate:"required"`
	Traits          []string `json:"traits" yaml:"traits" validate:"required,min=1,dive,required"`
	Challenges      []string `json:"challenges" yaml:"challenges" validate:"required,min=1,dive,required"`
	LifeLesson      string   `json:"lifeLesson" yaml:"lifeLesson" validate:"required"`
	SpiritualGift   string   `json:"spiritualGift" yaml:"spiritualGift" validate:"required"`
	Recommendations []string `json:"recommendations" yaml:"recommendations" validate:"required,min=1,dive,required"`
	CompatibleTypes []string `json:"compatibleTypes" yaml:"compatibleTypes" validate:"dive,required"`
	Element         Element  `json:"element" yaml:"element" validate:"required,oneof=fire earth air water"`
	Chakra          string   `json:"chakra" yaml:"chakra" validate:"required"`
	Color           string   `json:"color" yaml:"color" validate:"required,hexcolor"`
}

// Clone returns a copy that shares no slices with the receiver.
func (k KarmaType) Clone() KarmaType {
	k.Traits = append([]string(nil), k.Traits...)
	k.Challenges = append([]string(nil), k.Challenges...)
	k.Recommendations = append([]string(nil), k.Recommendations...)
	k.CompatibleTypes = append([]string(nil), k.CompatibleTypes...)
	return k
}

// Option is a selectable answer. KarmaType is empty for neutral options.
type Option struct {
	ID        string `json:"id" yaml:"id" validate:"required"`
	Text      string `json:"text" yaml:"text" validate:"required"`
	KarmaType string `json:"karmaType,omitempty" yaml:"karmaType,omitempty"`
}

// Question is a single questionnaire item.
type Question struct {
	ID       string       `json:"id" yaml:"id" validate:"required"`
	Type     QuestionType `json:"type" yaml:"type" validate:"required,oneof=choice scenario scale priority"`
	Text     string       `json:"text" yaml:"text" validate:"required"`
	Weight   int          `json:"weight" yaml:"weight" validate:"gte=0"`
	Category string       `json:"category,omitempty" yaml:"category,omitempty" validate:"required_if=Type scale"`
	Options  []Option     `json:"options,omitempty" yaml:"options,omitempty" validate:"required_unless=Type scale,dive"`
}

// EffectiveWeight is the scoring multiplier; unset weights count as 1.
func (q Question) EffectiveWeight() int {
	if q.Weight <= 0 {
		return 1
	}
	return q.Weight
}

// Option looks up an option by id.
func (q Question) Option(id string) (Option, bool) {
	for _, o := range q.Options {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}

// Questionnaire holds the questions for one belief system.
type Questionnaire struct {
	ID            string            `json:"id" yaml:"id" validate:"required"`
	BeliefSystem  string            `json:"beliefSystem" yaml:"beliefSystem" validate:"required"`
	Name          string            `json:"name" yaml:"name" validate:"required"`
	ScoringMethod ScoringMethod     `json:"scoringMethod" yaml:"scoringMethod" validate:"required,oneof=weighted categorical intuitive"`
	Questions     []Question        `json:"questions" yaml:"questions" validate:"required,min=1,dive"`
	ResultMapping map[string]string `json:"resultMapping,omitempty" yaml:"resultMapping,omitempty"`
}
