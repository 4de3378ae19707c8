package service

import (
	"context"

	"quill/internal/events"
	"quill/internal/models"
	"quill/internal/observability"
	"quill/internal/repository"
	"quill/internal/validation"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	events      events.Publisher
}

type AddCommentInput struct {
	PostID   uint
	AuthorID uint
	Text     string
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	publisher events.Publisher,
) *CommentService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		events:      publisher,
	}
}

// AddComment attaches a comment to an existing post.
func (s *CommentService) AddComment(ctx context.Context, in AddCommentInput) (*models.Comment, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if in.AuthorID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	if err := validation.ValidatePostText(in.Text); err != nil {
		return nil, models.NewFieldError("text", "This field is required.")
	}

	comment := &models.Comment{
		PostID:   post.ID,
		AuthorID: in.AuthorID,
		Text:     in.Text,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	observability.ContentCreated.WithLabelValues("comment").Inc()
	events.Emit(ctx, s.events, events.New(events.CommentCreated, in.AuthorID, comment.ID, map[string]any{
		"post_id":        post.ID,
		"post_author_id": post.AuthorID,
	}))
	return comment, nil
}

// ListForPost returns a post's comments, newest first.
func (s *CommentService) ListForPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	return s.commentRepo.ListByPost(ctx, postID)
}
