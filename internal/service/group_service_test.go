package service

import (
	"context"
	"strings"
	"testing"

	"quill/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupService_CreateGroup(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name      string
		in        CreateGroupInput
		badFields []string
	}{
		{"valid", CreateGroupInput{Title: "Cats", Slug: "cats_and-dogs"}, nil},
		{"missing title", CreateGroupInput{Slug: "cats"}, []string{"title"}},
		{"slug with spaces", CreateGroupInput{Title: "Cats", Slug: "cats dogs"}, []string{"slug"}},
		{"title too long", CreateGroupInput{Title: strings.Repeat("t", 201), Slug: "t"}, []string{"title"}},
		{"everything wrong", CreateGroupInput{Slug: "!"}, []string{"title", "slug"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewGroupService(noopGroupRepo())
			g, err := svc.CreateGroup(ctx, tt.in)
			if tt.badFields == nil {
				require.NoError(t, err)
				assert.Equal(t, tt.in.Slug, g.Slug)
				return
			}
			appErr := assertValidationError(t, err)
			for _, f := range tt.badFields {
				assert.Contains(t, appErr.Fields, f)
			}
		})
	}
}

func TestGroupService_DuplicateSlug(t *testing.T) {
	t.Parallel()
	repo := noopGroupRepo()
	repo.createFn = func(_ context.Context, _ *models.Group) error {
		return models.NewFieldError("slug", "Group with this slug already exists.")
	}
	_, err := NewGroupService(repo).CreateGroup(context.Background(), CreateGroupInput{Title: "Cats", Slug: "cats"})
	appErr := assertValidationError(t, err)
	assert.Contains(t, appErr.Fields, "slug")
}

func TestGroupService_GetBySlug(t *testing.T) {
	t.Parallel()
	repo := noopGroupRepo()
	repo.getBySlugFn = func(_ context.Context, slug string) (*models.Group, error) {
		if slug == "cats" {
			return &models.Group{ID: 1, Slug: slug}, nil
		}
		return nil, models.NewNotFoundError("Group", slug)
	}
	svc := NewGroupService(repo)

	g, err := svc.GetBySlug(context.Background(), "cats")
	require.NoError(t, err)
	assert.Equal(t, uint(1), g.ID)

	_, err = svc.GetBySlug(context.Background(), "dogs")
	assertAppError(t, err, models.CodeNotFound)
}
