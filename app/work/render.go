package work

import (
	"html"
	"net/url"
	"strings"
	"unicode/utf8"
)

// MaxMessageLength is the Telegram limit for a single message.
const MaxMessageLength = 4096

const noWarnings = "No Archive Warnings Apply"

// Renderer formats a snapshot as Telegram HTML.
type Renderer struct {
	MirrorHost string
}

func NewRenderer(mirrorHost string) *Renderer {
	return &Renderer{MirrorHost: strings.TrimSpace(mirrorHost)}
}

func (r *Renderer) Run(s *Snapshot) string {
	tags := s.Fields.AdditionalTags
	summary := s.Fields.Summary

	msg := r.build(s, tags, summary)
	if fits(msg) {
		return msg
	}

	// The summary is shortened first; tags only when no summary fits.
	if summary != "" {
		if msg, ok := fit(summary, func(v string) string { return r.build(s, tags, v) }); ok {
			return msg
		}
		summary = ""
	}
	if tags != "" {
		if msg, ok := fit(tags, func(v string) string { return r.build(s, v, summary) }); ok {
			return msg
		}
		tags = ""
	}
	return r.build(s, tags, summary)
}

func fits(msg string) bool {
	return utf8.RuneCountInString(msg) <= MaxMessageLength
}

// fit finds the longest shortened value whose rendering fits. Lengths are
// measured on the rendered, escaped message.
func fit(value string, render func(string) string) (string, bool) {
	runes := []rune(value)

	best := ""
	lo, hi := 1, len(runes)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		if msg := render(shorten(runes, mid)); fits(msg) {
			best = msg
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return best, best != ""
}

func (r *Renderer) build(s *Snapshot, tags, summary string) string {
	var b strings.Builder

	if header := reasonHeader(s.ChangeReason); header != "" {
		b.WriteString("<i>" + header + "</i>\n")
	}
	b.WriteString(`<a href="` + html.EscapeString(r.rewriteLink(s.Link)) + `"><b>` + esc(s.Title) + "</b></a>\n")
	writeLine(&b, "Author", esc(s.Author))

	f := s.Fields
	writeLine(&b, "Fandom", esc(f.Fandom))
	writeLine(&b, "Rating", esc(f.Rating))
	writeLine(&b, "Category", esc(f.Category))
	if f.Warnings != noWarnings {
		writeLine(&b, "Warnings", esc(f.Warnings))
	}

	var cast []string
	if f.Relationships != "" {
		cast = append(cast, "<b>"+esc(f.Relationships)+"</b>")
	}
	if f.Characters != "" {
		cast = append(cast, esc(f.Characters))
	}
	writeLine(&b, "Relationships &amp; Characters", strings.Join(cast, ", "))

	writeLine(&b, "Words", esc(f.Words))
	writeLine(&b, "Chapters", esc(f.Chapters))
	writeLine(&b, "Language", esc(f.Language))
	writeLine(&b, "Tags", esc(tags))
	writeLine(&b, "Summary", esc(summary))

	return strings.TrimRight(b.String(), "\n")
}

func reasonHeader(reason ChangeReason) string {
	switch reason {
	case New:
		return "New work"
	case AuthorChanged:
		return "Authors updated"
	case ChapterChanged:
		return "New chapter"
	case Unchanged:
		return ""
	default:
		return ""
	}
}

func (r *Renderer) rewriteLink(link string) string {
	if r.MirrorHost == "" || link == "" {
		return link
	}
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return link
	}
	u.Host = r.MirrorHost
	return u.String()
}

func writeLine(b *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	b.WriteString("<b>" + name + ":</b> " + value + "\n")
}

func esc(value string) string {
	return html.EscapeString(strings.TrimSpace(value))
}

// shorten keeps the first n runes of value and marks the cut.
func shorten(runes []rune, n int) string {
	return strings.TrimSpace(string(runes[:n])) + "…"
}
