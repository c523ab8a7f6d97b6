// Package parse extracts labeled fields from semi-structured LLM output.
// Both the classifier and the source scorer build their parsing contracts
// from the specs here, so field behavior (defaults, clamping, block
// splitting) is testable without any model in the loop.
package parse

import (
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// StringSpec describes a single-line labeled field such as
// "CATEGORY: replace". Missing fields yield Default.
type StringSpec struct {
	Label   string
	Default string
}

// FloatSpec describes a numeric labeled field. The extracted value is
// always clamped to [Min, Max]; a missing or unparseable field yields
// Default (also clamped).
type FloatSpec struct {
	Label   string
	Default float64
	Min     float64
	Max     float64
}

// ListSpec describes a multi-line field terminated by the next labeled
// line. Bullet prefixes are stripped and blank lines dropped.
type ListSpec struct {
	Label string
}

var (
	patternMu    sync.Mutex
	patternCache = map[string]*regexp.Regexp{}

	labelLine = regexp.MustCompile(`^\s*[A-Z][A-Z0-9_ ]{2,}:`)
	numberRe  = regexp.MustCompile(`[-+]?\d*\.?\d+`)
	bulletRe  = regexp.MustCompile(`^[-*•]+\s*`)
)

func fieldPattern(label string) *regexp.Regexp {
	patternMu.Lock()
	defer patternMu.Unlock()

	if re, ok := patternCache[label]; ok {
		return re
	}
	re := regexp.MustCompile(`(?im)^\s*` + regexp.QuoteMeta(label) + `\s*:[ \t]*(.+)$`)
	patternCache[label] = re
	return re
}

// Extract returns the field value, or Default when the label is absent
// or its value is empty.
func (s StringSpec) Extract(text string) string {
	m := fieldPattern(s.Label).FindStringSubmatch(text)
	if m == nil {
		return s.Default
	}
	value := strings.TrimSpace(m[1])
	if value == "" {
		return s.Default
	}
	return value
}

// Found reports whether the label is present at all, regardless of value.
func (s StringSpec) Found(text string) bool {
	return fieldPattern(s.Label).MatchString(text)
}

// Extract returns the first number found in the field value, clamped to
// the spec range. Missing labels and non-numeric values yield Default.
func (s FloatSpec) Extract(text string) float64 {
	m := fieldPattern(s.Label).FindStringSubmatch(text)
	if m == nil {
		return Clamp(s.Default, s.Min, s.Max)
	}

	num := numberRe.FindString(m[1])
	if num == "" {
		return Clamp(s.Default, s.Min, s.Max)
	}

	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Clamp(s.Default, s.Min, s.Max)
	}
	return Clamp(v, s.Min, s.Max)
}

// Extract returns the lines belonging to the labeled field: anything on
// the label line itself plus following lines up to the next labeled line.
func (s ListSpec) Extract(text string) []string {
	lines := strings.Split(text, "\n")
	var items []string
	capture := false

	prefix := strings.ToUpper(s.Label) + ":"
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if !capture {
			if strings.HasPrefix(strings.ToUpper(trimmed), prefix) {
				capture = true
				rest := strings.TrimSpace(trimmed[len(prefix):])
				if item := cleanItem(rest); item != "" {
					items = append(items, item)
				}
			}
			continue
		}

		if labelLine.MatchString(line) {
			break
		}
		if item := cleanItem(trimmed); item != "" {
			items = append(items, item)
		}
	}

	return items
}

func cleanItem(line string) string {
	line = bulletRe.ReplaceAllString(strings.TrimSpace(line), "")
	return strings.TrimSpace(line)
}

// Blocks splits text into repeated labeled sections. A marker of
// "CLASSIFICATION" matches headers like "CLASSIFICATION_1:" or
// "CLASSIFICATION 2". When no header is found the whole text is returned
// as a single block, so single-answer responses still parse.
func Blocks(text, marker string) []string {
	re := regexp.MustCompile(`(?im)^\s*` + regexp.QuoteMeta(marker) + `[_ ]?\d*\s*:?\s*$|(?im)^\s*` + regexp.QuoteMeta(marker) + `[_ ]\d+\s*:`)
	locs := re.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return []string{text}
	}

	var blocks []string
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		block := strings.TrimSpace(text[loc[1]:end])
		if block != "" {
			blocks = append(blocks, block)
		}
	}

	if len(blocks) == 0 {
		return []string{text}
	}
	return blocks
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// FreeText returns the labeled value plus any continuation lines up to
// the next labeled line, for fields like RATIONALE that run to the end
// of a block. Missing or empty fields yield def.
func FreeText(text, label, def string) string {
	re := regexp.MustCompile(`(?im)^\s*` + regexp.QuoteMeta(label) + `\s*:[ \t]*(.*)$`)
	m := re.FindStringSubmatchIndex(text)
	if m == nil {
		return def
	}

	var kept []string
	if inline := strings.TrimSpace(text[m[2]:m[3]]); inline != "" {
		kept = append(kept, inline)
	}
	for _, line := range strings.Split(text[m[1]:], "\n") {
		if labelLine.MatchString(line) {
			break
		}
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}

	if len(kept) == 0 {
		return def
	}
	return strings.Join(kept, " ")
}
