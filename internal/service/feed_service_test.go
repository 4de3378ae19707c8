package service

import (
	"context"
	"fmt"
	"testing"

	"quill/internal/models"
	"quill/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// feedFixture backs the feed with in-memory posts, newest first.
type feedFixture struct {
	posts   []*models.Post
	follows *memFollowRepo
	users   map[string]*models.User
	groups  map[string]*models.Group
}

func newFeedFixture() *feedFixture {
	return &feedFixture{
		follows: newMemFollowRepo(),
		users:   map[string]*models.User{},
		groups:  map[string]*models.Group{},
	}
}

func (f *feedFixture) addUser(id uint, username string) *models.User {
	u := &models.User{ID: id, Username: username}
	f.users[username] = u
	f.follows.users[id] = *u
	return u
}

func (f *feedFixture) addPosts(n int, authorID uint, groupID *uint) {
	for i := 0; i < n; i++ {
		id := uint(len(f.posts) + 1)
		p := &models.Post{ID: id, AuthorID: authorID, GroupID: groupID, Text: fmt.Sprintf("post %d", id)}
		f.posts = append([]*models.Post{p}, f.posts...)
	}
}

func (f *feedFixture) matching(filter repository.PostFilter) []*models.Post {
	var out []*models.Post
	for _, p := range f.posts {
		if filter.GroupID != nil && (p.GroupID == nil || *p.GroupID != *filter.GroupID) {
			continue
		}
		if filter.AuthorID != nil && p.AuthorID != *filter.AuthorID {
			continue
		}
		if filter.FollowerID != nil && !f.follows.edges[[2]uint{*filter.FollowerID, p.AuthorID}] {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (f *feedFixture) service() *FeedService {
	posts := noopPostRepo()
	posts.countFn = func(_ context.Context, filter repository.PostFilter) (int64, error) {
		return int64(len(f.matching(filter))), nil
	}
	posts.findFn = func(_ context.Context, filter repository.PostFilter, limit, offset int) ([]*models.Post, error) {
		all := f.matching(filter)
		if offset >= len(all) {
			return nil, nil
		}
		end := offset + limit
		if end > len(all) {
			end = len(all)
		}
		return all[offset:end], nil
	}

	groups := noopGroupRepo()
	groups.getBySlugFn = func(_ context.Context, slug string) (*models.Group, error) {
		if g, ok := f.groups[slug]; ok {
			return g, nil
		}
		return nil, models.NewNotFoundError("Group", slug)
	}

	users := noopUserRepo()
	users.getByUsernameFn = func(_ context.Context, username string) (*models.User, error) {
		if u, ok := f.users[username]; ok {
			return u, nil
		}
		return nil, models.NewNotFoundError("User", username)
	}

	return NewFeedService(posts, groups, users, f.follows, &imageStoreStub{}, 10)
}

func TestFeedService_IndexPagination(t *testing.T) {
	t.Parallel()
	f := newFeedFixture()
	f.addPosts(13, 1, nil)
	svc := f.service()
	ctx := context.Background()

	first, err := svc.Index(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, first.Posts, 10)
	assert.Equal(t, "post 13", first.Posts[0].Text)
	assert.True(t, first.Page.HasNext)
	assert.Equal(t, 2, first.Page.TotalPages)

	second, err := svc.Index(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, second.Posts, 3)
	assert.False(t, second.Page.HasNext)

	beyond, err := svc.Index(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, beyond.Page.Number)
	assert.Equal(t, second.Posts, beyond.Posts)
}

func TestFeedService_EmptyIndex(t *testing.T) {
	t.Parallel()
	page, err := newFeedFixture().service().Index(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, page.Posts)
	assert.NotNil(t, page.Posts)
	assert.Equal(t, 1, page.Page.Number)
	assert.Equal(t, 1, page.Page.TotalPages)
}

func TestFeedService_Group(t *testing.T) {
	t.Parallel()
	f := newFeedFixture()
	cats := &models.Group{ID: 1, Slug: "cats"}
	f.groups["cats"] = cats
	f.groups["dogs"] = &models.Group{ID: 2, Slug: "dogs"}
	f.addPosts(2, 1, uintPtr(1))
	f.addPosts(1, 1, nil)
	svc := f.service()
	ctx := context.Background()

	gp, err := svc.Group(ctx, "cats", 1)
	require.NoError(t, err)
	assert.Equal(t, cats, gp.Group)
	assert.Len(t, gp.Posts, 2)

	empty, err := svc.Group(ctx, "dogs", 1)
	require.NoError(t, err)
	assert.Empty(t, empty.Posts)

	_, err = svc.Group(ctx, "birds", 1)
	assertAppError(t, err, models.CodeNotFound)
}

func TestFeedService_Profile(t *testing.T) {
	t.Parallel()
	f := newFeedFixture()
	f.addUser(1, "leo")
	f.addUser(2, "anna")
	f.addPosts(3, 1, nil)
	f.addPosts(1, 2, nil)
	f.follows.edges[[2]uint{2, 1}] = true
	svc := f.service()
	ctx := context.Background()

	p, err := svc.Profile(ctx, "leo", 2, 1)
	require.NoError(t, err)
	assert.Equal(t, "leo", p.Author.Username)
	assert.Equal(t, int64(3), p.PostCount)
	assert.Len(t, p.Posts, 3)
	assert.True(t, p.Following)
	assert.Equal(t, int64(1), p.FollowerCount)

	anon, err := svc.Profile(ctx, "leo", 0, 1)
	require.NoError(t, err)
	assert.False(t, anon.Following)

	self, err := svc.Profile(ctx, "leo", 1, 1)
	require.NoError(t, err)
	assert.False(t, self.Following)

	_, err = svc.Profile(ctx, "ghost", 0, 1)
	assertAppError(t, err, models.CodeNotFound)
}

func TestFeedService_FollowIsUnionOfFollowedAuthors(t *testing.T) {
	t.Parallel()
	f := newFeedFixture()
	f.addUser(1, "reader")
	f.addUser(2, "a")
	f.addUser(3, "b")
	f.addUser(4, "c")
	f.addPosts(2, 2, nil)
	f.addPosts(2, 3, nil)
	f.addPosts(5, 4, nil)
	f.follows.edges[[2]uint{1, 2}] = true
	f.follows.edges[[2]uint{1, 3}] = true
	svc := f.service()

	fp, err := svc.Follow(context.Background(), 1, 1)
	require.NoError(t, err)
	require.Len(t, fp.Posts, 4)
	for _, p := range fp.Posts {
		assert.Contains(t, []uint{2, 3}, p.AuthorID)
	}
	assert.Len(t, fp.Authors, 2)

	none, err := svc.Follow(context.Background(), 4, 1)
	require.NoError(t, err)
	assert.Empty(t, none.Posts)
}
