package work

import (
	"reflect"
	"testing"
)

const ao3Description = `<p>by <a href="https://archiveofourown.org/users/anna/pseuds/anna">anna</a></p>
<p>Two actors spend a winter on set &amp; learn to talk.</p>
<p>Words: 12345, Chapters: 4/10, Language: English</p>
<ul>
<li>Fandoms: <a class="tag" href="/tags/RPF">Russian Actor RPF</a>, <a class="tag" href="/tags/Film">Film</a></li>
<li>Rating: <a class="tag" href="/tags/Teen">Teen And Up Audiences</a></li>
<li>Warnings: <a class="tag" href="/tags/None">No Archive Warnings Apply</a></li>
<li>Categories: <a class="tag" href="/tags/MM">M/M</a></li>
<li>Characters: <a class="tag" href="/tags/A">Actor A</a>, <a class="tag" href="/tags/B">Actor B</a></li>
<li>Relationships: <a class="tag" href="/tags/AB">Actor A/Actor B</a></li>
<li>Additional Tags: <a class="tag" href="/tags/Fluff">Fluff</a>, <a class="tag" href="/tags/Angst">Angst &amp; Comfort</a></li>
</ul>`

func TestExtractFullDescription(t *testing.T) {
	fields := Extract(ao3Description)

	expected := Fields{
		Fandom:         "Russian Actor RPF, Film",
		Rating:         "Teen And Up Audiences",
		Category:       "M/M",
		Warnings:       "No Archive Warnings Apply",
		Characters:     "Actor A, Actor B",
		Relationships:  "Actor A/Actor B",
		AdditionalTags: "Fluff, Angst & Comfort",
		Words:          "12345",
		Chapters:       "4",
		Language:       "English",
		Summary:        "Two actors spend a winter on set & learn to talk.",
	}

	if !reflect.DeepEqual(fields, expected) {
		t.Errorf("Expected %+v, got %+v", expected, fields)
	}
}

func TestExtractMinimalFixture(t *testing.T) {
	markup := `<ul><li>Fandoms: <a>Foo</a></li><li>Rating: <a>Teen</a></li></ul><p>Words: 1200</p><p>Chapters: 3/10</p>`

	got := Extract(markup).Map()
	expected := map[string]string{
		KeyFandom:   "Foo",
		KeyRating:   "Teen",
		KeyWords:    "1200",
		KeyChapters: "3",
	}

	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}

func TestExtractLabelsOutsideListItems(t *testing.T) {
	markup := `Fandoms: <a>Foo</a> Rating: <a>Teen</a> Words: 1200 Chapters: 3/10`

	got := Extract(markup).Map()
	expected := map[string]string{
		KeyFandom:   "Foo",
		KeyRating:   "Teen",
		KeyWords:    "1200",
		KeyChapters: "3",
	}

	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}

func TestExtractOmitsMissingLabels(t *testing.T) {
	fields := Extract(`<ul><li>Fandoms: </li><li>Rating: <a>General</a></li></ul>`)

	if fields.Fandom != "" {
		t.Errorf("Expected no fandom for label without links, got: %q", fields.Fandom)
	}
	if _, ok := fields.Map()[KeyFandom]; ok {
		t.Error("Expected fandom key to be omitted")
	}
	if fields.Rating != "General" {
		t.Errorf("Expected rating 'General', got: %q", fields.Rating)
	}
}

func TestExtractSummaryAttribution(t *testing.T) {
	tests := []struct {
		name     string
		markup   string
		expected string
	}{
		{
			name:     "separate attribution paragraph",
			markup:   `<p>by <a>anna</a></p><p>The story.</p>`,
			expected: "The story.",
		},
		{
			name:     "inline attribution",
			markup:   `<p>by anna, The story.</p>`,
			expected: "The story.",
		},
		{
			name:     "no attribution",
			markup:   `<p>First.</p><p>Second.</p>`,
			expected: "First. Second.",
		},
		{
			name:     "metadata paragraphs skipped",
			markup:   `<p>Words: 10</p><p>Plot.</p>`,
			expected: "Plot.",
		},
		{
			name:     "empty",
			markup:   ``,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.markup).Summary
			if got != tt.expected {
				t.Errorf("Expected summary %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestExtractLanguageDecodesEntities(t *testing.T) {
	fields := Extract("<p>Language: Fran&ccedil;ais</p>")
	if fields.Language != "Français" {
		t.Errorf("Expected decoded language, got: %q", fields.Language)
	}
}

func TestExtractFlat(t *testing.T) {
	markup := `Fandoms: <a href="/a">Foo</a> Fandoms: <a href="/b">Bar</a> Rating: <a href="/r">Teen &amp; Up</a> Words: 99 Chapters: 2/2 Language: English`

	fields := extractFlat(markup)

	expected := Fields{
		Fandom:   "Foo, Bar",
		Rating:   "Teen & Up",
		Words:    "99",
		Chapters: "2",
		Language: "English",
	}
	if !reflect.DeepEqual(fields, expected) {
		t.Errorf("Expected %+v, got %+v", expected, fields)
	}
}

func TestExtractGarbageDoesNotPanic(t *testing.T) {
	inputs := []string{"", "<<<>>>", "<li>Fandoms:<a>", "plain text only", "<p>by </p>"}
	for _, input := range inputs {
		_ = Extract(input)
	}
}
