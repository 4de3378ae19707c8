package service

import (
	"context"
	"strings"

	"quill/internal/models"
	"quill/internal/repository"
	"quill/internal/validation"
)

type GroupService struct {
	groupRepo repository.GroupRepository
}

type CreateGroupInput struct {
	Title       string
	Slug        string
	Description string
}

func NewGroupService(groupRepo repository.GroupRepository) *GroupService {
	return &GroupService{groupRepo: groupRepo}
}

func (s *GroupService) GetBySlug(ctx context.Context, slug string) (*models.Group, error) {
	return s.groupRepo.GetBySlug(ctx, slug)
}

// CreateGroup adds a group to the catalog. Slugs are unique.
func (s *GroupService) CreateGroup(ctx context.Context, in CreateGroupInput) (*models.Group, error) {
	fields := map[string]string{}
	if err := validation.ValidateGroupTitle(in.Title); err != nil {
		fields["title"] = err.Error()
	}
	if err := validation.ValidateGroupSlug(in.Slug); err != nil {
		fields["slug"] = err.Error()
	}
	if len(fields) > 0 {
		return nil, models.NewFormError(fields)
	}

	group := &models.Group{
		Title:       strings.TrimSpace(in.Title),
		Slug:        in.Slug,
		Description: in.Description,
	}
	if err := s.groupRepo.Create(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

func (s *GroupService) ListGroups(ctx context.Context) ([]models.Group, error) {
	return s.groupRepo.List(ctx)
}
