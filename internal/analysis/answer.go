package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// AnswerKind is the shape of a raw answer.
type AnswerKind uint8

const (
	AnswerNone    AnswerKind = iota
	AnswerOption             // a single option id (choice, scenario)
	AnswerScale              // a number, nominally 1-10 (scale)
	AnswerRanking            // ordered option ids (priority)
)

// Answer is a raw answer whose shape depends on the question type. In JSON
// and YAML it is written bare: "opt-id", 7 or ["a", "b"].
type Answer struct {
	kind    AnswerKind
	option  string
	scale   float64
	ranking []string
}

func OptionAnswer(id string) Answer {
	return Answer{kind: AnswerOption, option: id}
}

func ScaleAnswer(value float64) Answer {
	return Answer{kind: AnswerScale, scale: value}
}

func RankingAnswer(ids ...string) Answer {
	return Answer{kind: AnswerRanking, ranking: append([]string(nil), ids...)}
}

func (a Answer) Kind() AnswerKind { return a.kind }

// OptionID reads the answer as a single option id. Whole numbers are
// accepted too, so an unquoted `7` still selects option "7".
func (a Answer) OptionID() (string, bool) {
	switch a.kind {
	case AnswerOption:
		return a.option, a.option != ""
	case AnswerScale:
		if a.scale == math.Trunc(a.scale) && !math.IsInf(a.scale, 0) {
			return strconv.FormatInt(int64(a.scale), 10), true
		}
	}
	return "", false
}

// ScaleValue reads the answer as a number. Numeric strings are accepted.
func (a Answer) ScaleValue() (float64, bool) {
	switch a.kind {
	case AnswerScale:
		return a.scale, !math.IsNaN(a.scale)
	case AnswerOption:
		v, err := strconv.ParseFloat(strings.TrimSpace(a.option), 64)
		if err != nil || math.IsNaN(v) {
			return 0, false
		}
		return v, true
	}
	return 0, false
}

// RankingIDs reads the answer as an ordered list. A single option id is a
// one-element ranking.
func (a Answer) RankingIDs() ([]string, bool) {
	switch a.kind {
	case AnswerRanking:
		return a.ranking, len(a.ranking) > 0
	case AnswerOption:
		if a.option != "" {
			return []string{a.option}, true
		}
	}
	return nil, false
}

func (a Answer) MarshalJSON() ([]byte, error) {
	switch a.kind {
	case AnswerOption:
		return json.Marshal(a.option)
	case AnswerScale:
		return json.Marshal(a.scale)
	case AnswerRanking:
		return json.Marshal(a.ranking)
	default:
		return []byte("null"), nil
	}
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = Answer{}
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = OptionAnswer(s)
	case '[':
		var items []any
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*a = RankingAnswer(stringItems(items)...)
	case '{', 't', 'f':
		return fmt.Errorf("unsupported answer value %s", data)
	default:
		var v float64
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*a = ScaleAnswer(v)
	}
	return nil
}

func (a Answer) MarshalYAML() (any, error) {
	switch a.kind {
	case AnswerOption:
		return a.option, nil
	case AnswerScale:
		return a.scale, nil
	case AnswerRanking:
		return a.ranking, nil
	default:
		return nil, nil
	}
}

func (a *Answer) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		switch node.Tag {
		case "!!null":
			*a = Answer{}
		case "!!int", "!!float":
			var v float64
			if err := node.Decode(&v); err != nil {
				return err
			}
			*a = ScaleAnswer(v)
		default:
			*a = OptionAnswer(node.Value)
		}
	case yaml.SequenceNode:
		var items []any
		if err := node.Decode(&items); err != nil {
			return err
		}
		*a = RankingAnswer(stringItems(items)...)
	default:
		return fmt.Errorf("line %d: unsupported answer value", node.Line)
	}
	return nil
}

// stringItems keeps string and whole-number items; anything else is dropped.
func stringItems(items []any) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case string:
			out = append(out, v)
		case float64:
			if v == math.Trunc(v) {
				out = append(out, strconv.FormatInt(int64(v), 10))
			}
		case int:
			out = append(out, strconv.Itoa(v))
		}
	}
	return out
}
