package repository

import (
	"context"

	"quill/internal/models"

	"gorm.io/gorm"
)

// PostFilter narrows a post listing. The zero value selects every post.
type PostFilter struct {
	GroupID  *uint
	AuthorID *uint
	// FollowerID keeps posts whose author is followed by this user.
	FollowerID *uint
}

// AllPosts selects every post.
func AllPosts() PostFilter { return PostFilter{} }

// PostsInGroup selects the posts tagged with a group.
func PostsInGroup(groupID uint) PostFilter { return PostFilter{GroupID: &groupID} }

// PostsByAuthor selects the posts written by one user.
func PostsByAuthor(authorID uint) PostFilter { return PostFilter{AuthorID: &authorID} }

// PostsFollowedBy selects the posts of every author the user follows.
func PostsFollowedBy(userID uint) PostFilter { return PostFilter{FollowerID: &userID} }

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	// Find returns one window of the filtered posts, newest first.
	Find(ctx context.Context, filter PostFilter, limit, offset int) ([]*models.Post, error)
	Count(ctx context.Context, filter PostFilter) (int64, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit("Author", "Group").Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Group").
		First(&post, id).Error
	if err != nil {
		return nil, notFoundOr(err, "Post", id)
	}
	return &post, nil
}

// Update writes the editable columns: text, group and image.
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	result := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", post.ID).
		Updates(map[string]interface{}{
			"text":     post.Text,
			"group_id": post.GroupID,
			"image":    post.Image,
		})
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Post", post.ID)
	}
	return nil
}

func (r *postRepository) Find(ctx context.Context, filter PostFilter, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.scoped(ctx, filter).
		Preload("Author").
		Preload("Group").
		Order("posts.pub_date DESC").
		Order("posts.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) Count(ctx context.Context, filter PostFilter) (int64, error) {
	var n int64
	if err := r.scoped(ctx, filter).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

func (r *postRepository) scoped(ctx context.Context, filter PostFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Post{})
	if filter.GroupID != nil {
		q = q.Where("posts.group_id = ?", *filter.GroupID)
	}
	if filter.AuthorID != nil {
		q = q.Where("posts.author_id = ?", *filter.AuthorID)
	}
	if filter.FollowerID != nil {
		followed := r.db.WithContext(ctx).Model(&models.Follow{}).
			Select("author_id").
			Where("user_id = ?", *filter.FollowerID)
		q = q.Where("posts.author_id IN (?)", followed)
	}
	return q
}
