package taxonomy

import "strings"

// Category is one of the four AI workforce impact categories. The set is
// closed: anything else coming back from a model is coerced, never stored.
type Category string

const (
	CategoryReplace   Category = "replace"
	CategoryAugment   Category = "augment"
	CategoryNewTasks  Category = "new_tasks"
	CategoryHumanOnly Category = "human_only"
)

type CategoryInfo struct {
	ID          Category `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
}

type ReliabilityScale struct {
	Grade       string `json:"grade"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type CredibilityScale struct {
	Grade       string `json:"grade"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

var Categories = []CategoryInfo{
	{
		ID:          CategoryReplace,
		Name:        "Replace",
		Description: "AI fully automates the task; the human role is eliminated or reduced to oversight of exceptions.",
	},
	{
		ID:          CategoryAugment,
		Name:        "Augment",
		Description: "AI assists the human; the task remains human-led but AI improves speed, coverage, or quality.",
	},
	{
		ID:          CategoryNewTasks,
		Name:        "New Tasks",
		Description: "AI adoption creates work that did not previously exist, such as model governance, AI security testing, or MLOps.",
	},
	{
		ID:          CategoryHumanOnly,
		Name:        "Human Only",
		Description: "The task stays with humans because it requires judgment, accountability, ethics, or interpersonal trust.",
	},
}

// NID-style source reliability ladder, A (best) through F (unjudgeable).
var ReliabilityScales = []ReliabilityScale{
	{Grade: "A", Name: "Completely reliable", Description: "No doubt of authenticity, trustworthiness, or competency; history of complete reliability."},
	{Grade: "B", Name: "Usually reliable", Description: "Minor doubt about authenticity or competency; history of valid information most of the time."},
	{Grade: "C", Name: "Fairly reliable", Description: "Doubt about authenticity or competency but has provided valid information in the past."},
	{Grade: "D", Name: "Not usually reliable", Description: "Significant doubt about authenticity or competency but has provided valid information in the past."},
	{Grade: "E", Name: "Unreliable", Description: "Lacking in authenticity and competency; history of invalid information."},
	{Grade: "F", Name: "Cannot be judged", Description: "No basis exists for evaluating the reliability of the source."},
}

var CredibilityScales = []CredibilityScale{
	{Grade: "1", Name: "Confirmed", Description: "Confirmed by other independent sources; logical in itself; consistent with other information on the subject."},
	{Grade: "2", Name: "Probably true", Description: "Not confirmed; logical in itself; consistent with other information on the subject."},
	{Grade: "3", Name: "Possibly true", Description: "Not confirmed; reasonably logical in itself; agrees with some other information on the subject."},
	{Grade: "4", Name: "Doubtful", Description: "Not confirmed; possible but not logical; no other information on the subject."},
	{Grade: "5", Name: "Improbable", Description: "Not confirmed; not logical in itself; contradicted by other information on the subject."},
	{Grade: "6", Name: "Cannot be judged", Description: "No basis exists for evaluating the validity of the information."},
}

var reliabilityValues = map[string]float64{
	"A": 1.0,
	"B": 0.8,
	"C": 0.6,
	"D": 0.4,
	"E": 0.2,
	"F": 0.0,
}

var credibilityValues = map[string]float64{
	"1": 1.0,
	"2": 0.8,
	"3": 0.6,
	"4": 0.4,
	"5": 0.2,
	"6": 0.0,
}

// ParseCategory matches s against the closed category set, case
// insensitively. The second return reports whether s matched.
func ParseCategory(s string) (Category, bool) {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryReplace:
		return CategoryReplace, true
	case CategoryAugment:
		return CategoryAugment, true
	case CategoryNewTasks:
		return CategoryNewTasks, true
	case CategoryHumanOnly:
		return CategoryHumanOnly, true
	}
	return "", false
}

func ValidCategory(c Category) bool {
	_, ok := ParseCategory(string(c))
	return ok
}

// ReliabilityValue maps an A-F grade onto the fixed six-point linear
// scale. Unknown grades map to 0.0, the same as F.
func ReliabilityValue(grade string) float64 {
	return reliabilityValues[strings.ToUpper(strings.TrimSpace(grade))]
}

// CredibilityValue maps a 1-6 grade onto the fixed six-point linear
// scale. Unknown grades map to 0.0, the same as 6.
func CredibilityValue(grade string) float64 {
	return credibilityValues[strings.TrimSpace(grade)]
}

func ValidReliabilityGrade(grade string) bool {
	_, ok := reliabilityValues[strings.ToUpper(strings.TrimSpace(grade))]
	return ok
}

func ValidCredibilityGrade(grade string) bool {
	_, ok := credibilityValues[strings.TrimSpace(grade)]
	return ok
}

func CategoryByID(id Category) (CategoryInfo, bool) {
	for _, info := range Categories {
		if info.ID == id {
			return info, true
		}
	}
	return CategoryInfo{}, false
}
