package feed

import (
	"bytes"
	"cmp"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
)

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

func (p *Parser) Run(data []byte) ([]Entry, error) {
	feed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	entries := make([]Entry, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		entries = append(entries, p.normalizeItem(item))
	}

	return entries, nil
}

func (p *Parser) normalizeItem(item *gofeed.Item) Entry {
	return Entry{
		ID:          item.GUID,
		Link:        item.Link,
		Title:       item.Title,
		Author:      p.extractAuthors(item),
		Description: cmp.Or(item.Description, item.Content),
		Updated:     strings.TrimSpace(item.Updated),
		Published:   strings.TrimSpace(item.Published),
	}
}

func (p *Parser) extractAuthors(item *gofeed.Item) string {
	var authors []string

	if len(item.Authors) > 0 {
		for _, author := range item.Authors {
			if author == nil {
				continue
			}
			if name := strings.TrimSpace(cmp.Or(author.Name, author.Email)); name != "" {
				authors = append(authors, name)
			}
		}
	} else if item.Author != nil {
		if name := strings.TrimSpace(cmp.Or(item.Author.Name, item.Author.Email)); name != "" {
			authors = append(authors, name)
		}
	}

	return strings.Join(authors, ", ")
}
