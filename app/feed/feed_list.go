package feed

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFeedList reads a YAML file of the form
//
//	feeds:
//	  - name: Russian Actor RPF
//	    url: https://archiveofourown.org/tags/31415212/feed.atom
func LoadFeedList(path string) ([]Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var list sourceList
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	sources := make([]Source, 0, len(list.Feeds))
	for i, src := range list.Feeds {
		src.URL = strings.TrimSpace(src.URL)
		if src.URL == "" {
			return nil, fmt.Errorf("feed at index %d: URL is required", i)
		}
		if src.Name == "" {
			src.Name = src.URL
		}
		sources = append(sources, src)
	}

	return sources, nil
}
