package feed

// Entry is one published item of a feed, as exposed by the transport layer.
// Dates are kept as the raw strings found in the feed.
type Entry struct {
	ID          string
	Link        string
	Title       string
	Author      string // Multiple authors joined with ", "
	Description string
	Updated     string
	Published   string
}

// Source is a configured feed to watch.
type Source struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

type sourceList struct {
	Feeds []Source `yaml:"feeds"`
}
