package seed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGroups(t *testing.T) {
	groups, err := ParseGroups([]byte(`
groups:
  - title: " Cats "
    slug: cats
    description: Pictures of cats.
  - title: Dogs
    slug: dogs
`))
	require.NoError(t, err)
	assert.Equal(t, []BuiltInGroup{
		{Title: "Cats", Slug: "cats", Description: "Pictures of cats."},
		{Title: "Dogs", Slug: "dogs"},
	}, groups)
}

func TestParseGroups_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing slug", "groups:\n  - title: Cats\n"},
		{"missing title", "groups:\n  - slug: cats\n"},
		{"duplicate slug", "groups:\n  - {title: A, slug: a}\n  - {title: B, slug: a}\n"},
		{"not yaml", "groups: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseGroups([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadGroupsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "groups.yml")
	require.NoError(t, os.WriteFile(path, []byte("groups:\n  - {title: Cats, slug: cats}\n"), 0o600))

	groups, err := LoadGroupsFile(path)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "cats", groups[0].Slug)

	_, err = LoadGroupsFile(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
