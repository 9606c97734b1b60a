package work

import (
	"strings"

	"golang.org/x/text/cases"
)

type LanguageFilter struct {
	allowed map[string]struct{}
}

func NewLanguageFilter(languages []string) *LanguageFilter {
	f := &LanguageFilter{allowed: make(map[string]struct{})}
	for _, lang := range languages {
		if lang = strings.TrimSpace(lang); lang != "" {
			f.allowed[fold(lang)] = struct{}{}
		}
	}
	return f
}

// Allow admits every language when the allow-list is empty, and entries
// that carry no language at all.
func (f *LanguageFilter) Allow(language string) bool {
	if f == nil || len(f.allowed) == 0 {
		return true
	}
	language = strings.TrimSpace(language)
	if language == "" {
		return true
	}
	_, ok := f.allowed[fold(language)]
	return ok
}

// Casers are stateful, so each call gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}
