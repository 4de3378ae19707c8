package seed

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// groupsFile is the YAML layout accepted by LoadGroupsFile:
//
//	groups:
//	  - title: Cats
//	    slug: cats
//	    description: Pictures of cats.
type groupsFile struct {
	Groups []BuiltInGroup `yaml:"groups"`
}

// ParseGroups decodes a groups document. Every entry needs a slug and a title.
func ParseGroups(data []byte) ([]BuiltInGroup, error) {
	var doc groupsFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse groups: %w", err)
	}
	seen := make(map[string]bool, len(doc.Groups))
	for i, g := range doc.Groups {
		g.Slug = strings.TrimSpace(g.Slug)
		g.Title = strings.TrimSpace(g.Title)
		if g.Slug == "" || g.Title == "" {
			return nil, fmt.Errorf("group #%d: slug and title are required", i+1)
		}
		if seen[g.Slug] {
			return nil, fmt.Errorf("group #%d: duplicate slug %q", i+1, g.Slug)
		}
		seen[g.Slug] = true
		doc.Groups[i] = g
	}
	return doc.Groups, nil
}

// LoadGroupsFile reads and parses a groups YAML file.
func LoadGroupsFile(path string) ([]BuiltInGroup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseGroups(data)
}
