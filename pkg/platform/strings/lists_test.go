package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{name: "nil slice", input: nil, expected: nil},
		{name: "empty slice", input: []string{}, expected: []string{}},
		{name: "trims and dedupes", input: []string{"  foo ", "bar", "foo", "", "  "}, expected: []string{"foo", "bar"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrim(tt.input))
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, SplitList("   "))
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, SplitList(" 10.0.0.1, ,10.0.0.2,10.0.0.1"))
}

func TestParsePairs(t *testing.T) {
	got := ParsePairs("principal=102, POPULAR = 103,broken,=9,YOPAL=")
	assert.Equal(t, map[string]string{"PRINCIPAL": "102", "POPULAR": "103"}, got)
}
