package service

import (
	"context"
	"errors"
	"testing"

	"quill/internal/models"
	"quill/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn  func(context.Context, *models.Post) error
	getByIDFn func(context.Context, uint) (*models.Post, error)
	updateFn  func(context.Context, *models.Post) error
	findFn    func(context.Context, repository.PostFilter, int, int) ([]*models.Post, error)
	countFn   func(context.Context, repository.PostFilter) (int64, error)

	updateCalls int
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	s.updateCalls++
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) Find(ctx context.Context, f repository.PostFilter, limit, offset int) ([]*models.Post, error) {
	return s.findFn(ctx, f, limit, offset)
}
func (s *postRepoStub) Count(ctx context.Context, f repository.PostFilter) (int64, error) {
	return s.countFn(ctx, f)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn: func(_ context.Context, p *models.Post) error { p.ID = 1; return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Post, error) {
			return nil, models.NewNotFoundError("Post", id)
		},
		updateFn: func(_ context.Context, _ *models.Post) error { return nil },
		findFn: func(_ context.Context, _ repository.PostFilter, _, _ int) ([]*models.Post, error) {
			return nil, nil
		},
		countFn: func(_ context.Context, _ repository.PostFilter) (int64, error) { return 0, nil },
	}
}

// groupRepoStub is a stub for repository.GroupRepository.
type groupRepoStub struct {
	getBySlugFn func(context.Context, string) (*models.Group, error)
	getByIDFn   func(context.Context, uint) (*models.Group, error)
	createFn    func(context.Context, *models.Group) error
	listFn      func(context.Context) ([]models.Group, error)
}

func (s *groupRepoStub) GetBySlug(ctx context.Context, slug string) (*models.Group, error) {
	return s.getBySlugFn(ctx, slug)
}
func (s *groupRepoStub) GetByID(ctx context.Context, id uint) (*models.Group, error) {
	return s.getByIDFn(ctx, id)
}
func (s *groupRepoStub) Create(ctx context.Context, g *models.Group) error {
	return s.createFn(ctx, g)
}
func (s *groupRepoStub) List(ctx context.Context) ([]models.Group, error) {
	return s.listFn(ctx)
}

func noopGroupRepo() *groupRepoStub {
	return &groupRepoStub{
		getBySlugFn: func(_ context.Context, slug string) (*models.Group, error) {
			return nil, models.NewNotFoundError("Group", slug)
		},
		getByIDFn: func(_ context.Context, id uint) (*models.Group, error) {
			return nil, models.NewNotFoundError("Group", id)
		},
		createFn: func(_ context.Context, g *models.Group) error { g.ID = 1; return nil },
		listFn:   func(_ context.Context) ([]models.Group, error) { return nil, nil },
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn       func(context.Context, uint) (*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
	createFn        func(context.Context, *models.User) error
	listFn          func(context.Context, int, int) ([]models.User, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) Create(ctx context.Context, u *models.User) error {
	return s.createFn(ctx, u)
}
func (s *userRepoStub) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.listFn(ctx, limit, offset)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.User, error) {
			return nil, models.NewNotFoundError("User", id)
		},
		getByUsernameFn: func(_ context.Context, username string) (*models.User, error) {
			return nil, models.NewNotFoundError("User", username)
		},
		createFn: func(_ context.Context, u *models.User) error { u.ID = 1; return nil },
		listFn:   func(_ context.Context, _, _ int) ([]models.User, error) { return nil, nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn     func(context.Context, *models.Comment) error
	listByPostFn func(context.Context, uint) ([]*models.Comment, error)
}

func (s *commentRepoStub) Create(ctx context.Context, c *models.Comment) error {
	return s.createFn(ctx, c)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	return s.listByPostFn(ctx, postID)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:     func(_ context.Context, c *models.Comment) error { c.ID = 1; return nil },
		listByPostFn: func(_ context.Context, _ uint) ([]*models.Comment, error) { return nil, nil },
	}
}

// memFollowRepo is an in-memory repository.FollowRepository.
type memFollowRepo struct {
	edges   map[[2]uint]bool
	users   map[uint]models.User
	creates int
	err     error
}

func newMemFollowRepo() *memFollowRepo {
	return &memFollowRepo{edges: map[[2]uint]bool{}, users: map[uint]models.User{}}
}

func (r *memFollowRepo) Create(_ context.Context, userID, authorID uint) error {
	if r.err != nil {
		return r.err
	}
	r.creates++
	r.edges[[2]uint{userID, authorID}] = true
	return nil
}
func (r *memFollowRepo) Delete(_ context.Context, userID, authorID uint) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	k := [2]uint{userID, authorID}
	existed := r.edges[k]
	delete(r.edges, k)
	return existed, nil
}
func (r *memFollowRepo) Exists(_ context.Context, userID, authorID uint) (bool, error) {
	return r.edges[[2]uint{userID, authorID}], r.err
}
func (r *memFollowRepo) ListAuthors(_ context.Context, userID uint) ([]models.User, error) {
	var out []models.User
	for k := range r.edges {
		if k[0] == userID {
			out = append(out, r.users[k[1]])
		}
	}
	return out, r.err
}
func (r *memFollowRepo) CountFollowers(_ context.Context, authorID uint) (int64, error) {
	var n int64
	for k := range r.edges {
		if k[1] == authorID {
			n++
		}
	}
	return n, r.err
}
func (r *memFollowRepo) CountFollowing(_ context.Context, userID uint) (int64, error) {
	var n int64
	for k := range r.edges {
		if k[0] == userID {
			n++
		}
	}
	return n, r.err
}

// imageStoreStub records stored and removed keys.
type imageStoreStub struct {
	storeErr error
	stored   []string
	removed  []string
}

func (s *imageStoreStub) Store(_ context.Context, in ImageUpload) (string, error) {
	if s.storeErr != nil {
		return "", s.storeErr
	}
	key := "posts/" + in.Filename
	s.stored = append(s.stored, key)
	return key, nil
}
func (s *imageStoreStub) Remove(_ context.Context, key string) error {
	s.removed = append(s.removed, key)
	return nil
}
func (s *imageStoreStub) URLs(key string) (string, string) {
	return "/media/" + key, "/media/" + ThumbnailKey(key)
}

func assertAppError(t *testing.T, err error, code string) *models.AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
	return appErr
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) *models.AppError {
	t.Helper()
	return assertAppError(t, err, models.CodeValidation)
}

func uintPtr(v uint) *uint { return &v }
