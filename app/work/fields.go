package work

// Fields holds the optional attributes extracted from an entry description.
// An empty string means the attribute was not found.
type Fields struct {
	Fandom         string
	Rating         string
	Category       string
	Warnings       string
	Characters     string
	Relationships  string
	AdditionalTags string
	Words          string
	Chapters       string
	Language       string
	Summary        string
}

const (
	KeyFandom         = "fandom"
	KeyRating         = "rating"
	KeyCategory       = "category"
	KeyWarnings       = "warnings"
	KeyCharacters     = "characters"
	KeyRelationships  = "relationships"
	KeyAdditionalTags = "additional_tags"
	KeyWords          = "words"
	KeyChapters       = "chapters"
	KeyLanguage       = "language"
	KeySummary        = "summary"
)

func (f *Fields) pointers() map[string]*string {
	return map[string]*string{
		KeyFandom:         &f.Fandom,
		KeyRating:         &f.Rating,
		KeyCategory:       &f.Category,
		KeyWarnings:       &f.Warnings,
		KeyCharacters:     &f.Characters,
		KeyRelationships:  &f.Relationships,
		KeyAdditionalTags: &f.AdditionalTags,
		KeyWords:          &f.Words,
		KeyChapters:       &f.Chapters,
		KeyLanguage:       &f.Language,
		KeySummary:        &f.Summary,
	}
}

// Map returns the present fields keyed by their persisted names.
func (f Fields) Map() map[string]string {
	result := make(map[string]string)
	for key, value := range f.pointers() {
		if *value != "" {
			result[key] = *value
		}
	}
	return result
}

func (f *Fields) set(key, value string) {
	if ptr, ok := f.pointers()[key]; ok {
		*ptr = value
	}
}

func FieldsFromMap(values map[string]string) Fields {
	var f Fields
	for key, ptr := range f.pointers() {
		*ptr = values[key]
	}
	return f
}
