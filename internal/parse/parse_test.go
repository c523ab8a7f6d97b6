package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringSpecExtract(t *testing.T) {
	text := "CATEGORY: replace\nCONFIDENCE: 0.9"

	assert.Equal(t, "replace", StringSpec{Label: "CATEGORY"}.Extract(text))
	assert.Equal(t, "fallback", StringSpec{Label: "MISSING", Default: "fallback"}.Extract(text))
}

func TestStringSpecCaseInsensitiveLabel(t *testing.T) {
	text := "category: augment"

	assert.Equal(t, "augment", StringSpec{Label: "CATEGORY"}.Extract(text))
}

func TestStringSpecEmptyValueYieldsDefault(t *testing.T) {
	spec := StringSpec{Label: "CATEGORY", Default: "none"}

	assert.Equal(t, "none", spec.Extract("CATEGORY:   \nother text"))
}

func TestFloatSpecExtract(t *testing.T) {
	spec := FloatSpec{Label: "CONFIDENCE", Default: 0.5, Min: 0, Max: 1}

	assert.Equal(t, 0.85, spec.Extract("CONFIDENCE: 0.85"))
	assert.Equal(t, 0.85, spec.Extract("CONFIDENCE: 0.85 (high)"))
	assert.Equal(t, 0.5, spec.Extract("no such field"))
	assert.Equal(t, 0.5, spec.Extract("CONFIDENCE: very high"))
}

func TestFloatSpecClamps(t *testing.T) {
	spec := FloatSpec{Label: "CONFIDENCE", Default: 0.5, Min: 0, Max: 1}

	assert.Equal(t, 1.0, spec.Extract("CONFIDENCE: 37.5"))
	assert.Equal(t, 0.0, spec.Extract("CONFIDENCE: -2"))
}

func TestListSpecExtract(t *testing.T) {
	text := `SUPPORTING_EVIDENCE:
- first quote
- second quote
-
RATIONALE: because`

	items := ListSpec{Label: "SUPPORTING_EVIDENCE"}.Extract(text)

	assert.Equal(t, []string{"first quote", "second quote"}, items)
}

func TestListSpecInlineFirstItem(t *testing.T) {
	text := "SUPPORTING_EVIDENCE: inline quote\n- another quote"

	items := ListSpec{Label: "SUPPORTING_EVIDENCE"}.Extract(text)

	assert.Equal(t, []string{"inline quote", "another quote"}, items)
}

func TestListSpecMissing(t *testing.T) {
	assert.Empty(t, ListSpec{Label: "SUPPORTING_EVIDENCE"}.Extract("nothing here"))
}

func TestBlocksSplitsNumberedSections(t *testing.T) {
	text := `CLASSIFICATION_1:
CATEGORY: replace

CLASSIFICATION_2:
CATEGORY: augment`

	blocks := Blocks(text, "CLASSIFICATION")

	assert.Len(t, blocks, 2)
	assert.Contains(t, blocks[0], "replace")
	assert.Contains(t, blocks[1], "augment")
}

func TestBlocksFallsBackToWholeText(t *testing.T) {
	text := "CATEGORY: new_tasks\nCONFIDENCE: 0.7"

	blocks := Blocks(text, "CLASSIFICATION")

	assert.Len(t, blocks, 1)
	assert.Equal(t, text, blocks[0])
}

func TestFreeTextSpansLines(t *testing.T) {
	text := `RATIONALE: the article argues
that SOC triage is fully automatable
CATEGORY: replace`

	got := FreeText(text, "RATIONALE", "none")

	assert.Equal(t, "the article argues that SOC triage is fully automatable", got)
}

func TestFreeTextDefault(t *testing.T) {
	assert.Equal(t, "none", FreeText("no rationale field", "RATIONALE", "none"))
	assert.Equal(t, "none", FreeText("RATIONALE:\nCATEGORY: replace", "RATIONALE", "none"))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-1, 0, 1))
	assert.Equal(t, 1.0, Clamp(2, 0, 1))
	assert.Equal(t, 0.5, Clamp(0.5, 0, 1))
}
