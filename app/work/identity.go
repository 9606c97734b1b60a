package work

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/lysyi3m/workwatch/app/feed"
)

var ErrNoWorkID = errors.New("no work id in entry")

const (
	entryDateLayout = "2006-01-02T15:04:05Z"
	DateLayout      = "2006-01-02"
)

var (
	entryIDRe = regexp.MustCompile(`Work/(\d+)`)
	linkIDRe  = regexp.MustCompile(`/works/(\d+)`)
)

type Identity struct {
	ID        string
	UpdatedAt string
	Published string
}

// Resolve derives the work id and normalized dates of an entry. When no
// date parses, UpdatedAt falls back to the date of now.
func Resolve(entry feed.Entry, now time.Time) (Identity, error) {
	id := ""
	if match := entryIDRe.FindStringSubmatch(entry.ID); match != nil {
		id = match[1]
	} else if match := linkIDRe.FindStringSubmatch(entry.Link); match != nil {
		id = match[1]
	}

	if id == "" {
		return Identity{}, fmt.Errorf("%w: id %q, link %q", ErrNoWorkID, entry.ID, entry.Link)
	}

	published := normalizeDate(entry.Published)

	updated := normalizeDate(entry.Updated)
	if updated == "" {
		updated = published
	}
	if updated == "" {
		updated = now.Format(DateLayout)
	}

	return Identity{
		ID:        id,
		UpdatedAt: updated,
		Published: published,
	}, nil
}

func normalizeDate(value string) string {
	if value == "" {
		return ""
	}
	parsed, err := time.Parse(entryDateLayout, value)
	if err != nil {
		return ""
	}
	return parsed.Format(DateLayout)
}
