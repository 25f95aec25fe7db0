package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const dateLayout = "2006-01-02"

// Age-band thresholds for the profile recommendation line.
const (
	youngAdultAge = 30
	elderAge      = 50
)

// Profile is the basic user data supplied with an analysis.
type Profile struct {
	Name      string `json:"name,omitempty" yaml:"name,omitempty"`
	BirthDate *Date  `json:"birthDate,omitempty" yaml:"birthDate,omitempty"`
}

// Date is a calendar date written as YYYY-MM-DD (RFC 3339 timestamps are accepted).
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) *Date {
	return &Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return Date{Time: t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string { return d.Format(dateLayout) }

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalYAML() (any, error) {
	return d.String(), nil
}

func (d *Date) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := ParseDate(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = parsed
	return nil
}

// AgeAt returns whole years lived at the given moment, or false without a birth date.
func (p Profile) AgeAt(now time.Time) (int, bool) {
	if p.BirthDate == nil || p.BirthDate.IsZero() {
		return 0, false
	}
	birth := p.BirthDate.UTC()
	now = now.UTC()

	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	if age < 0 {
		return 0, false
	}
	return age, true
}

// ageRecommendation is the extra line for younger and older users; 30-50 gets none.
func ageRecommendation(p Profile, now time.Time) string {
	age, ok := p.AgeAt(now)
	if !ok {
		return ""
	}
	switch {
	case age < youngAdultAge:
		return "Use these years to experiment freely with different practices and paths"
	case age > elderAge:
		return "Draw on your accumulated life experience to guide and mentor others"
	default:
		return ""
	}
}
