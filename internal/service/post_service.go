// Package service implements the application's use cases on top of the
// repositories: posting, commenting, following, feeds and accounts.
package service

import (
	"context"
	"strings"

	"quill/internal/events"
	"quill/internal/models"
	"quill/internal/observability"
	"quill/internal/repository"
	"quill/internal/validation"
)

// imageStore is the part of ImageService the post workflow needs.
type imageStore interface {
	Store(ctx context.Context, in ImageUpload) (string, error)
	Remove(ctx context.Context, key string) error
	URLs(key string) (imageURL, thumbnailURL string)
}

type PostService struct {
	postRepo  repository.PostRepository
	groupRepo repository.GroupRepository
	images    imageStore
	events    events.Publisher
}

type CreatePostInput struct {
	AuthorID uint
	Text     string
	GroupID  *uint
	Image    *ImageUpload
}

// UpdatePostInput replaces the text and group of a post. A nil Image keeps
// the stored one; a nil GroupID clears the group.
type UpdatePostInput struct {
	EditorID uint
	PostID   uint
	Text     string
	GroupID  *uint
	Image    *ImageUpload
}

func NewPostService(
	postRepo repository.PostRepository,
	groupRepo repository.GroupRepository,
	images imageStore,
	publisher events.Publisher,
) *PostService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &PostService{
		postRepo:  postRepo,
		groupRepo: groupRepo,
		images:    images,
		events:    publisher,
	}
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if in.AuthorID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	group, err := s.validateForm(ctx, in.Text, in.GroupID)
	if err != nil {
		return nil, err
	}
	imageKey, err := s.storeImage(ctx, in.Image)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		Text:     in.Text,
		AuthorID: in.AuthorID,
		GroupID:  in.GroupID,
		Group:    group,
		Image:    imageKey,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		s.discardImage(ctx, imageKey)
		return nil, err
	}
	s.decorate(post)

	observability.ContentCreated.WithLabelValues("post").Inc()
	events.Emit(ctx, s.events, events.New(events.PostCreated, post.AuthorID, post.ID, map[string]any{
		"group_id": post.GroupID,
	}))
	return post, nil
}

// UpdatePost applies an edit by the post's author. Anyone else gets a
// FORBIDDEN error and the post is left untouched.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != in.EditorID {
		return nil, models.NewForbiddenError("Only the author can edit this post")
	}

	group, err := s.validateForm(ctx, in.Text, in.GroupID)
	if err != nil {
		return nil, err
	}
	imageKey, err := s.storeImage(ctx, in.Image)
	if err != nil {
		return nil, err
	}

	previousImage := post.Image
	post.Text = in.Text
	post.GroupID = in.GroupID
	post.Group = group
	if imageKey != "" {
		post.Image = imageKey
	}
	if err := s.postRepo.Update(ctx, post); err != nil {
		s.discardImage(ctx, imageKey)
		return nil, err
	}
	if imageKey != "" {
		s.discardImage(ctx, previousImage)
	}
	s.decorate(post)
	return post, nil
}

// GetPost returns a post with its author and group.
func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.decorate(post)
	return post, nil
}

// CountByAuthor is the number of posts a user has written.
func (s *PostService) CountByAuthor(ctx context.Context, authorID uint) (int64, error) {
	return s.postRepo.Count(ctx, repository.PostsByAuthor(authorID))
}

// validateForm checks text and group together so every invalid field is
// reported at once. It returns the selected group, if any.
func (s *PostService) validateForm(ctx context.Context, text string, groupID *uint) (*models.Group, error) {
	fields := map[string]string{}
	if err := validation.ValidatePostText(text); err != nil {
		fields["text"] = "This field is required."
	}

	var group *models.Group
	if groupID != nil {
		g, err := s.groupRepo.GetByID(ctx, *groupID)
		switch {
		case models.IsNotFound(err):
			fields["group"] = "Select a valid choice. That choice is not one of the available choices."
		case err != nil:
			return nil, err
		default:
			group = g
		}
	}

	if len(fields) > 0 {
		return nil, models.NewFormError(fields)
	}
	return group, nil
}

func (s *PostService) storeImage(ctx context.Context, upload *ImageUpload) (string, error) {
	if upload == nil || len(upload.Content) == 0 || s.images == nil {
		return "", nil
	}
	return s.images.Store(ctx, *upload)
}

func (s *PostService) discardImage(ctx context.Context, key string) {
	if key == "" || s.images == nil {
		return
	}
	_ = s.images.Remove(ctx, key)
}

func (s *PostService) decorate(post *models.Post) {
	decoratePosts(s.images, post)
}

// decoratePosts fills the image URLs of posts that carry an image.
func decoratePosts(images imageStore, posts ...*models.Post) {
	if images == nil {
		return
	}
	for _, p := range posts {
		if p == nil || strings.TrimSpace(p.Image) == "" {
			continue
		}
		p.ImageURL, p.ThumbnailURL = images.URLs(p.Image)
	}
}
