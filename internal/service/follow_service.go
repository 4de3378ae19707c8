package service

import (
	"context"

	"quill/internal/events"
	"quill/internal/models"
	"quill/internal/observability"
	"quill/internal/repository"
)

type FollowService struct {
	followRepo repository.FollowRepository
	events     events.Publisher
}

func NewFollowService(followRepo repository.FollowRepository, publisher events.Publisher) *FollowService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &FollowService{followRepo: followRepo, events: publisher}
}

// Follow subscribes userID to authorID. Following yourself is ignored and
// following twice leaves a single edge.
func (s *FollowService) Follow(ctx context.Context, userID, authorID uint) error {
	if userID == authorID {
		return nil
	}
	exists, err := s.followRepo.Exists(ctx, userID, authorID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if err := s.followRepo.Create(ctx, userID, authorID); err != nil {
		return err
	}
	observability.ContentCreated.WithLabelValues("follow").Inc()
	events.Emit(ctx, s.events, events.New(events.FollowCreated, userID, authorID, nil))
	return nil
}

// Unfollow removes the edge and reports whether there was one.
func (s *FollowService) Unfollow(ctx context.Context, userID, authorID uint) (bool, error) {
	removed, err := s.followRepo.Delete(ctx, userID, authorID)
	if err != nil {
		return false, err
	}
	if removed {
		events.Emit(ctx, s.events, events.New(events.FollowDeleted, userID, authorID, nil))
	}
	return removed, nil
}

// IsFollowing is false for anonymous viewers.
func (s *FollowService) IsFollowing(ctx context.Context, userID, authorID uint) (bool, error) {
	if userID == 0 || userID == authorID {
		return false, nil
	}
	return s.followRepo.Exists(ctx, userID, authorID)
}

func (s *FollowService) AuthorsFollowedBy(ctx context.Context, userID uint) ([]models.User, error) {
	return s.followRepo.ListAuthors(ctx, userID)
}

func (s *FollowService) FollowerCount(ctx context.Context, authorID uint) (int64, error) {
	return s.followRepo.CountFollowers(ctx, authorID)
}

func (s *FollowService) FollowingCount(ctx context.Context, userID uint) (int64, error) {
	return s.followRepo.CountFollowing(ctx, userID)
}
