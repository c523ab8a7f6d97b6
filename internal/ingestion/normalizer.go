// Package ingestion normalizes raw collected artifacts before they hit
// the classification and scoring engines: HTML is stripped to text,
// titles recovered, and source types inferred from the URL. The engines
// themselves never see markup.
package ingestion

import (
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/ai-horizon/backend/internal/storage/models"
	"github.com/ai-horizon/backend/pkg/logger"
	"github.com/ai-horizon/backend/pkg/utils"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize builds a clean Artifact from raw collected input. HTML
// content is reduced to visible text; an empty title is recovered from
// the markup; an empty source type is inferred from the URL.
func (n *Normalizer) Normalize(url, title, content, sourceType string) *models.Artifact {
	// NUL bytes break sqlite TEXT columns and never carry meaning here.
	title = strings.ReplaceAll(title, "\x00", "")
	content = strings.ReplaceAll(content, "\x00", "")

	cleaned := content
	if looksLikeHTML(content) {
		if text := cleanHTML(content); text != "" {
			if title == "" {
				title = extractTitle(content)
			}
			cleaned = text
		}
	} else {
		cleaned = strings.TrimSpace(whitespaceRe.ReplaceAllString(content, " "))
	}

	if title == "" {
		title = "Untitled"
	}
	if sourceType == "" {
		sourceType = detectSourceType(url)
	}

	now := time.Now()
	artifact := &models.Artifact{
		ID:          utils.HashString(url),
		URL:         url,
		Title:       title,
		Content:     cleaned,
		SourceType:  sourceType,
		CollectedAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	logger.Debug("Artifact normalized",
		zap.String("artifact_id", artifact.ID),
		zap.String("source_type", sourceType),
		zap.Int("content_length", len(cleaned)),
	)

	return artifact
}

func looksLikeHTML(content string) bool {
	lower := strings.ToLower(content)
	return strings.Contains(lower, "<html") ||
		strings.Contains(lower, "<body") ||
		strings.Contains(lower, "<div") ||
		strings.Contains(lower, "<p>")
}

func cleanHTML(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	doc.Find("script, style, nav, footer, header, aside").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	text := doc.Find("body").Text()
	if text == "" {
		text = doc.Text()
	}

	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

func extractTitle(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	title := doc.Find("title").First().Text()
	if title == "" {
		title = doc.Find("h1").First().Text()
	}

	return strings.TrimSpace(title)
}

func detectSourceType(url string) string {
	lowerURL := strings.ToLower(url)

	typeMap := map[string]string{
		"arxiv.org":   "academic",
		".gov":        "government",
		"nist.":       "government",
		"sans.org":    "industry",
		"gartner":     "industry",
		"youtube.com": "video",
		"podcast":     "podcast",
		"reddit.com":  "forum",
		"medium.com":  "blog",
		"substack":    "blog",
	}

	for key, sourceType := range typeMap {
		if strings.Contains(lowerURL, key) {
			return sourceType
		}
	}

	return "news"
}

// Excerpt returns a deterministic prefix of s bounded to maxChars runes,
// so repeated prompt builds over the same artifact are byte identical.
func Excerpt(s string, maxChars int) string {
	if maxChars <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars])
}
