package analysis

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestProfile_AgeAt(t *testing.T) {
	tests := []struct {
		name     string
		birth    *Date
		expected int
		ok       bool
	}{
		{name: "birthday already passed", birth: NewDate(2000, time.January, 1), expected: 26, ok: true},
		{name: "day before birthday", birth: NewDate(1996, time.October, 19), expected: 29, ok: true},
		{name: "on birthday", birth: NewDate(1996, time.October, 18), expected: 30, ok: true},
		{name: "born in the future", birth: NewDate(2030, time.January, 1)},
		{name: "missing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			age, ok := Profile{BirthDate: tt.birth}.AgeAt(fixedNow)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, age)
		})
	}
}

func TestProfile_Decode(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var p Profile
		require.NoError(t, json.Unmarshal([]byte(`{"name":"Ada","birthDate":"1990-03-03"}`), &p))
		assert.Equal(t, "Ada", p.Name)
		require.NotNil(t, p.BirthDate)
		assert.Equal(t, "1990-03-03", p.BirthDate.String())

		data, err := json.Marshal(p)
		require.NoError(t, err)
		assert.JSONEq(t, `{"name":"Ada","birthDate":"1990-03-03"}`, string(data))
	})

	t.Run("json rfc3339", func(t *testing.T) {
		var p Profile
		require.NoError(t, json.Unmarshal([]byte(`{"birthDate":"1990-03-03T10:00:00Z"}`), &p))
		assert.Equal(t, "1990-03-03", p.BirthDate.String())
	})

	t.Run("json invalid date", func(t *testing.T) {
		var p Profile
		assert.Error(t, json.Unmarshal([]byte(`{"birthDate":"03/03/1990"}`), &p))
	})

	t.Run("yaml", func(t *testing.T) {
		var p Profile
		require.NoError(t, yaml.Unmarshal([]byte("name: Ada\nbirthDate: 1990-03-03\n"), &p))
		require.NotNil(t, p.BirthDate)
		assert.Equal(t, "1990-03-03", p.BirthDate.String())
	})
}
