package service

import (
	"context"

	"quill/internal/feed"
	"quill/internal/models"
	"quill/internal/observability"
	"quill/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// FeedService composes the paginated post listings.
type FeedService struct {
	postRepo   repository.PostRepository
	groupRepo  repository.GroupRepository
	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
	images     imageStore
	pageSize   int
}

// FeedPage is one page of posts and its pagination metadata.
type FeedPage struct {
	Posts []*models.Post `json:"posts"`
	Page  feed.Page      `json:"page_obj"`
}

type GroupPage struct {
	Group *models.Group `json:"group"`
	FeedPage
}

type ProfilePage struct {
	Author         *models.User `json:"author"`
	PostCount      int64        `json:"post_count"`
	FollowerCount  int64        `json:"follower_count"`
	FollowingCount int64        `json:"following_count"`
	Following      bool         `json:"following"`
	FeedPage
}

type FollowPage struct {
	Authors []models.User `json:"authors"`
	FeedPage
}

func NewFeedService(
	postRepo repository.PostRepository,
	groupRepo repository.GroupRepository,
	userRepo repository.UserRepository,
	followRepo repository.FollowRepository,
	images imageStore,
	pageSize int,
) *FeedService {
	if pageSize <= 0 {
		pageSize = feed.DefaultPageSize
	}
	return &FeedService{
		postRepo:   postRepo,
		groupRepo:  groupRepo,
		userRepo:   userRepo,
		followRepo: followRepo,
		images:     images,
		pageSize:   pageSize,
	}
}

// Index is the global feed.
func (s *FeedService) Index(ctx context.Context, page int) (*FeedPage, error) {
	return s.list(ctx, "index", repository.AllPosts(), page)
}

// Group is the feed of one group. Unknown slugs are NOT_FOUND.
func (s *FeedService) Group(ctx context.Context, slug string, page int) (*GroupPage, error) {
	group, err := s.groupRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	fp, err := s.list(ctx, "group", repository.PostsInGroup(group.ID), page)
	if err != nil {
		return nil, err
	}
	return &GroupPage{Group: group, FeedPage: *fp}, nil
}

// Profile is an author's feed with follow state for viewerID (0 when anonymous).
func (s *FeedService) Profile(ctx context.Context, username string, viewerID uint, page int) (*ProfilePage, error) {
	author, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	fp, err := s.list(ctx, "profile", repository.PostsByAuthor(author.ID), page)
	if err != nil {
		return nil, err
	}

	out := &ProfilePage{Author: author, PostCount: fp.Page.TotalItems, FeedPage: *fp}
	if out.FollowerCount, err = s.followRepo.CountFollowers(ctx, author.ID); err != nil {
		return nil, err
	}
	if out.FollowingCount, err = s.followRepo.CountFollowing(ctx, author.ID); err != nil {
		return nil, err
	}
	if viewerID != 0 && viewerID != author.ID {
		if out.Following, err = s.followRepo.Exists(ctx, viewerID, author.ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Follow is the feed of every author userID follows.
func (s *FeedService) Follow(ctx context.Context, userID uint, page int) (*FollowPage, error) {
	fp, err := s.list(ctx, "follow", repository.PostsFollowedBy(userID), page)
	if err != nil {
		return nil, err
	}
	authors, err := s.followRepo.ListAuthors(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &FollowPage{Authors: authors, FeedPage: *fp}, nil
}

func (s *FeedService) list(ctx context.Context, name string, filter repository.PostFilter, requested int) (fp *FeedPage, err error) {
	ctx, span := observability.StartSpan(ctx, "feed", name, attribute.Int("feed.requested_page", requested))
	defer func() { observability.EndSpan(span, err) }()

	total, err := s.postRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := feed.Paginate(total, requested, s.pageSize)

	posts := []*models.Post{}
	if total > 0 {
		if posts, err = s.postRepo.Find(ctx, filter, page.Limit(), page.Offset()); err != nil {
			return nil, err
		}
	}
	decoratePosts(s.images, posts...)
	return &FeedPage{Posts: posts, Page: page}, nil
}
