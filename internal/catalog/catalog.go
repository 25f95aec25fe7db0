// Package catalog holds the immutable karma type and questionnaire registries.
//
// A Catalog is built once (normally from the embedded YAML data) and then
// shared by reference. Nothing in this package mutates a Catalog after Load
// returns, so a single instance is safe for concurrent readers.
package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report yaml field names so errors point at the data file, not the Go struct.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Catalog is a read-only registry of karma types and questionnaires.
type Catalog struct {
	karmaTypes     []KarmaType
	karmaIndex     map[string]int
	questionnaires []Questionnaire
	systemIndex    map[string]int
}

// Load parses and validates catalog documents. Both documents are YAML lists.
func Load(karmaTypesDoc, questionnairesDoc []byte) (*Catalog, error) {
	var karmaTypes []KarmaType
	if err := decodeStrict(karmaTypesDoc, &karmaTypes); err != nil {
		return nil, fmt.Errorf("failed to decode karma types: %w", err)
	}

	var questionnaires []Questionnaire
	if err := decodeStrict(questionnairesDoc, &questionnaires); err != nil {
		return nil, fmt.Errorf("failed to decode questionnaires: %w", err)
	}

	return New(karmaTypes, questionnaires)
}

// LoadEmbedded loads the reference catalogs compiled into the binary.
func LoadEmbedded() (*Catalog, error) {
	return Load(karmaTypesYAML, questionnairesYAML)
}

// MustLoad is LoadEmbedded for process start-up; it panics on invalid data.
func MustLoad() *Catalog {
	c, err := LoadEmbedded()
	if err != nil {
		panic(fmt.Sprintf("catalog: %v", err))
	}
	return c
}

// New builds a catalog from already-decoded records. The slices are copied.
func New(karmaTypes []KarmaType, questionnaires []Questionnaire) (*Catalog, error) {
	c := &Catalog{
		karmaTypes:     make([]KarmaType, 0, len(karmaTypes)),
		karmaIndex:     make(map[string]int, len(karmaTypes)),
		questionnaires: make([]Questionnaire, 0, len(questionnaires)),
		systemIndex:    make(map[string]int, len(questionnaires)),
	}

	for _, kt := range karmaTypes {
		c.karmaIndex[kt.ID] = len(c.karmaTypes)
		c.karmaTypes = append(c.karmaTypes, kt.Clone())
	}
	for _, q := range questionnaires {
		c.systemIndex[q.BeliefSystem] = len(c.questionnaires)
		c.questionnaires = append(c.questionnaires, cloneQuestionnaire(q))
	}

	if err := Validate(karmaTypes, questionnaires); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate runs the field checks and the cross-reference completeness check:
// unique ids, and every compatible type, option karma type and result mapping
// entry must resolve to a declared karma type. All problems are reported.
func Validate(karmaTypes []KarmaType, questionnaires []Questionnaire) error {
	var errs []error

	if len(karmaTypes) == 0 {
		errs = append(errs, errors.New("catalog declares no karma types"))
	}

	known := make(map[string]bool, len(karmaTypes))
	for i, kt := range karmaTypes {
		if err := validate.Struct(kt); err != nil {
			errs = append(errs, fmt.Errorf("karma type %d (%q): %w", i, kt.ID, err))
		}
		if known[kt.ID] {
			errs = append(errs, fmt.Errorf("duplicate karma type id %q", kt.ID))
		}
		known[kt.ID] = true
	}

	for _, kt := range karmaTypes {
		for _, ref := range kt.CompatibleTypes {
			if !known[ref] {
				errs = append(errs, fmt.Errorf("karma type %q: compatible type %q is not declared", kt.ID, ref))
			}
		}
	}

	systems := make(map[string]bool, len(questionnaires))
	for _, q := range questionnaires {
		if err := validate.Struct(q); err != nil {
			errs = append(errs, fmt.Errorf("questionnaire %q: %w", q.ID, err))
		}
		if systems[q.BeliefSystem] {
			errs = append(errs, fmt.Errorf("duplicate questionnaire for belief system %q", q.BeliefSystem))
		}
		systems[q.BeliefSystem] = true
		errs = append(errs, checkQuestions(q, known)...)

		for label, ref := range q.ResultMapping {
			if !known[ref] {
				errs = append(errs, fmt.Errorf("questionnaire %q: result mapping %q -> %q is not a declared karma type", q.ID, label, ref))
			}
		}
	}

	return errors.Join(errs...)
}

func checkQuestions(q Questionnaire, known map[string]bool) []error {
	var errs []error
	seen := make(map[string]bool, len(q.Questions))
	for _, question := range q.Questions {
		if seen[question.ID] {
			errs = append(errs, fmt.Errorf("questionnaire %q: duplicate question id %q", q.ID, question.ID))
		}
		seen[question.ID] = true

		if question.Type != QuestionScale && len(question.Options) == 0 {
			errs = append(errs, fmt.Errorf("questionnaire %q: question %q has no options", q.ID, question.ID))
		}

		optionIDs := make(map[string]bool, len(question.Options))
		for _, opt := range question.Options {
			if optionIDs[opt.ID] {
				errs = append(errs, fmt.Errorf("questionnaire %q: question %q repeats option %q", q.ID, question.ID, opt.ID))
			}
			optionIDs[opt.ID] = true
			if opt.KarmaType != "" && !known[opt.KarmaType] {
				errs = append(errs, fmt.Errorf("questionnaire %q: question %q option %q references unknown karma type %q",
					q.ID, question.ID, opt.ID, opt.KarmaType))
			}
		}
	}
	return errs
}

// KarmaTypes returns every karma type in declaration order.
func (c *Catalog) KarmaTypes() []KarmaType {
	out := make([]KarmaType, len(c.karmaTypes))
	for i, kt := range c.karmaTypes {
		out[i] = kt.Clone()
	}
	return out
}

// KarmaTypeIDs returns karma type ids in declaration order.
func (c *Catalog) KarmaTypeIDs() []string {
	ids := make([]string, len(c.karmaTypes))
	for i, kt := range c.karmaTypes {
		ids[i] = kt.ID
	}
	return ids
}

// KarmaType looks up a karma type by id.
func (c *Catalog) KarmaType(id string) (KarmaType, bool) {
	i, ok := c.karmaIndex[id]
	if !ok {
		return KarmaType{}, false
	}
	return c.karmaTypes[i].Clone(), true
}

// Rank is the declaration position of a karma type, used for tie-breaking.
// Unknown ids sort after every declared type.
func (c *Catalog) Rank(id string) int {
	if i, ok := c.karmaIndex[id]; ok {
		return i
	}
	return len(c.karmaTypes)
}

// Questionnaire returns the questionnaire registered for a belief system.
// The result shares its question slices with the catalog; treat it as read-only.
func (c *Catalog) Questionnaire(beliefSystem string) (Questionnaire, bool) {
	i, ok := c.systemIndex[beliefSystem]
	if !ok {
		return Questionnaire{}, false
	}
	return c.questionnaires[i], true
}

// Questionnaires returns every questionnaire in declaration order.
func (c *Catalog) Questionnaires() []Questionnaire {
	out := make([]Questionnaire, len(c.questionnaires))
	for i, q := range c.questionnaires {
		out[i] = cloneQuestionnaire(q)
	}
	return out
}

// BeliefSystems lists the belief systems that have a questionnaire.
func (c *Catalog) BeliefSystems() []string {
	out := make([]string, len(c.questionnaires))
	for i, q := range c.questionnaires {
		out[i] = q.BeliefSystem
	}
	return out
}

func cloneQuestionnaire(q Questionnaire) Questionnaire {
	questions := make([]Question, len(q.Questions))
	for i, question := range q.Questions {
		question.Options = append([]Option(nil), question.Options...)
		questions[i] = question
	}
	q.Questions = questions

	if q.ResultMapping != nil {
		mapping := make(map[string]string, len(q.ResultMapping))
		for k, v := range q.ResultMapping {
			mapping[k] = v
		}
		q.ResultMapping = mapping
	}
	return q
}

func decodeStrict(doc []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(doc))
	dec.KnownFields(true)
	return dec.Decode(out)
}
