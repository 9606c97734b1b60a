package work

import (
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

type label struct {
	prefix string
	key    string
	flat   *regexp.Regexp
}

func newLabel(prefix, key string) label {
	return label{
		prefix: prefix,
		key:    key,
		flat:   regexp.MustCompile(`(?i)` + regexp.QuoteMeta(prefix) + `\s*<[^>]*>([^<]+)</a>`),
	}
}

var labels = []label{
	newLabel("Fandoms:", KeyFandom),
	newLabel("Rating:", KeyRating),
	newLabel("Categories:", KeyCategory),
	newLabel("Warnings:", KeyWarnings),
	newLabel("Characters:", KeyCharacters),
	newLabel("Relationships:", KeyRelationships),
	newLabel("Additional Tags:", KeyAdditionalTags),
}

var summaryKeywords = []string{
	"words:",
	"chapters:",
	"language:",
	"fandoms:",
	"rating:",
	"warnings:",
	"categories:",
	"characters:",
	"relationships:",
	"additional tags:",
}

var (
	wordsRe       = regexp.MustCompile(`Words:\s*(\d+)`)
	chaptersRe    = regexp.MustCompile(`Chapters:\s*(\d+)`)
	languageRe    = regexp.MustCompile(`Language:\s*([^<\n]+)`)
	attributionRe = regexp.MustCompile(`(?i)^by\s+[^,\s]+[,\s]*`)
	tagRe         = regexp.MustCompile(`<[^>]+>`)
)

// Extract parses the description markup of a feed entry. Fields that cannot
// be found are left empty; Extract never fails.
func Extract(markup string) Fields {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return extractFlat(markup)
	}

	var fields Fields
	extractLabels(doc, &fields)

	// Labels that are not wrapped in list items are still picked up.
	present := fields.Map()
	flat := extractFlat(markup).Map()
	for _, l := range labels {
		if _, ok := present[l.key]; !ok {
			fields.set(l.key, flat[l.key])
		}
	}

	extractCounts(markup, &fields)
	fields.Summary = extractSummary(doc)

	return fields
}

func extractLabels(doc *goquery.Document, fields *Fields) {
	doc.Find("li").Each(func(_ int, li *goquery.Selection) {
		text := strings.TrimSpace(li.Text())

		for _, l := range labels {
			if !strings.HasPrefix(text, l.prefix) {
				continue
			}

			var values []string
			li.Find("a").Each(func(_ int, a *goquery.Selection) {
				if value := strings.TrimSpace(a.Text()); value != "" {
					values = append(values, value)
				}
			})
			if len(values) > 0 {
				fields.set(l.key, strings.Join(values, ", "))
			}
			return
		}
	})
}

func extractSummary(doc *goquery.Document) string {
	var parts []string
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		text := strings.TrimSpace(p.Text())
		if text == "" || containsKeyword(text) {
			return
		}
		parts = append(parts, text)
	})

	if len(parts) == 0 {
		return ""
	}

	if len(parts) > 1 && strings.HasPrefix(strings.ToLower(parts[0]), "by ") {
		return strings.Join(parts[1:], " ")
	}

	summary := strings.Join(parts, " ")
	if strings.HasPrefix(strings.ToLower(summary), "by ") {
		summary = strings.TrimSpace(attributionRe.ReplaceAllString(summary, ""))
	}
	return summary
}

func containsKeyword(text string) bool {
	lower := strings.ToLower(text)
	for _, keyword := range summaryKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// extractFlat runs the label patterns over the unescaped markup without
// building a document.
func extractFlat(markup string) Fields {
	clean := html.UnescapeString(markup)

	var fields Fields
	for _, l := range labels {
		var values []string
		for _, match := range l.flat.FindAllStringSubmatch(clean, -1) {
			if value := CleanText(match[1]); value != "" {
				values = append(values, value)
			}
		}
		if len(values) > 0 {
			fields.set(l.key, strings.Join(values, ", "))
		}
	}

	extractCounts(clean, &fields)
	return fields
}

func extractCounts(markup string, fields *Fields) {
	if match := wordsRe.FindStringSubmatch(markup); match != nil {
		fields.Words = match[1]
	}
	if match := chaptersRe.FindStringSubmatch(markup); match != nil {
		fields.Chapters = match[1]
	}
	if match := languageRe.FindStringSubmatch(markup); match != nil {
		fields.Language = CleanText(match[1])
	}
}

// CleanText strips markup tags, decodes entities and trims value.
func CleanText(value string) string {
	value = tagRe.ReplaceAllString(value, "")
	return strings.TrimSpace(html.UnescapeString(value))
}
