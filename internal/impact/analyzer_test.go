package impact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ai-horizon/backend/internal/taxonomy"
)

func TestAnalyzeRoutineTaskIsReplace(t *testing.T) {
	analyzer := NewAnalyzer(DefaultPolicy())

	analysis, err := analyzer.Analyze(WorkRole{
		Name:  "Cyber Defense Analyst",
		Tasks: []string{"Conduct routine log review and reporting"},
	})
	require.NoError(t, err)

	replace := analysis.Categories[taxonomy.CategoryReplace]
	require.Len(t, replace, 1)
	assert.Equal(t, "Conduct routine log review and reporting", replace[0].Task)
	// "routine" and "log review" both match.
	assert.InDelta(t, 0.7, replace[0].Confidence, 1e-9)
	assert.Contains(t, replace[0].Rationale, "Cyber Defense Analyst")
}

func TestAnalyzeEveryTaskAssignedOnce(t *testing.T) {
	analyzer := NewAnalyzer(DefaultPolicy())

	tasks := []string{
		"Automate scheduled vulnerability scans",
		"Investigate and correlate intrusion alerts",
		"Develop AI governance procedures for model validation",
		"Negotiate legal agreements with stakeholders",
		"Prepare quarterly newsletters",
	}

	analysis, err := analyzer.Analyze(WorkRole{Name: "Security Engineer", Tasks: tasks})
	require.NoError(t, err)

	total := 0
	for _, category := range []taxonomy.Category{
		taxonomy.CategoryReplace,
		taxonomy.CategoryAugment,
		taxonomy.CategoryNewTasks,
		taxonomy.CategoryHumanOnly,
	} {
		assessments, ok := analysis.Categories[category]
		require.True(t, ok, "category %s missing from analysis", category)
		total += len(assessments)
	}
	assert.Equal(t, len(tasks), total)

	assert.Len(t, analysis.Categories[taxonomy.CategoryReplace], 1)
	assert.Len(t, analysis.Categories[taxonomy.CategoryNewTasks], 1)
	assert.Len(t, analysis.Categories[taxonomy.CategoryHumanOnly], 1)
}

func TestAnalyzeZeroMatchDefaultsToAugment(t *testing.T) {
	analyzer := NewAnalyzer(DefaultPolicy())

	analysis, err := analyzer.Analyze(WorkRole{
		Name:  "Security Engineer",
		Tasks: []string{"Prepare quarterly newsletters"},
	})
	require.NoError(t, err)

	augment := analysis.Categories[taxonomy.CategoryAugment]
	require.Len(t, augment, 1)
	assert.Equal(t, 0.5, augment[0].Confidence)
	assert.Contains(t, augment[0].Rationale, "No impact keywords matched")
}

func TestAnalyzeZeroMatchManagementTask(t *testing.T) {
	analyzer := NewAnalyzer(DefaultPolicy())

	analysis, err := analyzer.Analyze(WorkRole{
		Name:  "CISO",
		Tasks: []string{"Oversee the incident response program budget"},
	})
	require.NoError(t, err)

	humanOnly := analysis.Categories[taxonomy.CategoryHumanOnly]
	require.Len(t, humanOnly, 1)
	assert.Equal(t, 0.6, humanOnly[0].Confidence)
	assert.Contains(t, humanOnly[0].Rationale, "management language")
}

func TestAnalyzeConfidenceCapped(t *testing.T) {
	analyzer := NewAnalyzer(DefaultPolicy())

	analysis, err := analyzer.Analyze(WorkRole{
		Name:  "SOC Operator",
		Tasks: []string{"Automate routine scheduled bulk scan and patch jobs with scripted repetitive data entry"},
	})
	require.NoError(t, err)

	replace := analysis.Categories[taxonomy.CategoryReplace]
	require.Len(t, replace, 1)
	assert.Equal(t, maxConfidence, replace[0].Confidence)
}

func TestAnalyzeEmptyTasksIsError(t *testing.T) {
	analyzer := NewAnalyzer(DefaultPolicy())

	_, err := analyzer.Analyze(WorkRole{Name: "Empty Role", Tasks: []string{}})
	assert.Error(t, err)

	_, err = analyzer.Analyze(WorkRole{Name: "Nil Role"})
	assert.Error(t, err)
}

func TestAnalyzeCustomPolicy(t *testing.T) {
	policy := DefaultPolicy()
	policy.ZeroMatchCategory = taxonomy.CategoryHumanOnly
	policy.ZeroMatchConfidence = 0.3
	analyzer := NewAnalyzer(policy)

	analysis, err := analyzer.Analyze(WorkRole{
		Name:  "Security Engineer",
		Tasks: []string{"Prepare quarterly newsletters"},
	})
	require.NoError(t, err)

	humanOnly := analysis.Categories[taxonomy.CategoryHumanOnly]
	require.Len(t, humanOnly, 1)
	assert.Equal(t, 0.3, humanOnly[0].Confidence)
}

func TestAnalyzeCaseInsensitiveMatching(t *testing.T) {
	analyzer := NewAnalyzer(DefaultPolicy())

	analysis, err := analyzer.Analyze(WorkRole{
		Name:  "Analyst",
		Tasks: []string{"AUTOMATE ROUTINE REPORT GENERATION"},
	})
	require.NoError(t, err)

	assert.Len(t, analysis.Categories[taxonomy.CategoryReplace], 1)
}
