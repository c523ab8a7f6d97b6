package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCategory(t *testing.T) {
	cases := []struct {
		input string
		want  Category
		ok    bool
	}{
		{"replace", CategoryReplace, true},
		{"REPLACE", CategoryReplace, true},
		{"  Augment  ", CategoryAugment, true},
		{"new_tasks", CategoryNewTasks, true},
		{"human_only", CategoryHumanOnly, true},
		{"new tasks", "", false},
		{"automation", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		got, ok := ParseCategory(tc.input)
		assert.Equal(t, tc.ok, ok, "input %q", tc.input)
		assert.Equal(t, tc.want, got, "input %q", tc.input)
	}
}

func TestValidCategory(t *testing.T) {
	assert.True(t, ValidCategory(CategoryNewTasks))
	assert.False(t, ValidCategory(Category("automation")))
}

func TestReliabilityValues(t *testing.T) {
	assert.Equal(t, 1.0, ReliabilityValue("A"))
	assert.Equal(t, 0.8, ReliabilityValue("b"))
	assert.Equal(t, 0.0, ReliabilityValue("F"))
	assert.Equal(t, 0.0, ReliabilityValue("Z"))
}

func TestCredibilityValues(t *testing.T) {
	assert.Equal(t, 1.0, CredibilityValue("1"))
	assert.Equal(t, 0.8, CredibilityValue(" 2 "))
	assert.Equal(t, 0.0, CredibilityValue("6"))
	assert.Equal(t, 0.0, CredibilityValue("9"))
}

func TestGradeValidation(t *testing.T) {
	assert.True(t, ValidReliabilityGrade("c"))
	assert.False(t, ValidReliabilityGrade("G"))
	assert.True(t, ValidCredibilityGrade("4"))
	assert.False(t, ValidCredibilityGrade("0"))
}

func TestScalesCoverAllGrades(t *testing.T) {
	assert.Len(t, ReliabilityScales, 6)
	assert.Len(t, CredibilityScales, 6)

	for _, scale := range ReliabilityScales {
		assert.True(t, ValidReliabilityGrade(scale.Grade))
	}
	for _, scale := range CredibilityScales {
		assert.True(t, ValidCredibilityGrade(scale.Grade))
	}
}

func TestCategoryByID(t *testing.T) {
	info, ok := CategoryByID(CategoryHumanOnly)
	assert.True(t, ok)
	assert.Equal(t, "Human Only", info.Name)

	_, ok = CategoryByID(Category("other"))
	assert.False(t, ok)
}
