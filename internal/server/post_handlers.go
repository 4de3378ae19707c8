package server

import (
	"context"
	"encoding/json"

	"quill/internal/cache"
	"quill/internal/models"
	"quill/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Index handles GET / with the composed page cached for INDEX_CACHE_TTL.
// Writes do not invalidate the cache.
// @Summary Latest posts
// @Description All posts, newest first. Responses are cached per page and carry X-Cache.
// @Tags posts
// @Produce json
// @Param page query int false "Page number"
// @Success 200 {object} service.FeedPage
// @Header 200 {string} X-Cache "HIT or MISS"
// @Router / [get]
func (s *Server) Index(c *fiber.Ctx) error {
	page := pageParam(c)
	body, hit, err := cache.Aside(c.UserContext(), s.pageCache, cache.IndexPageKey(page), s.config.IndexCacheTTL(),
		func(ctx context.Context) ([]byte, error) {
			fp, err := s.feedService.Index(ctx, page)
			if err != nil {
				return nil, err
			}
			return json.Marshal(fp)
		})
	if err != nil {
		return err
	}

	if hit {
		c.Set("X-Cache", "HIT")
	} else {
		c.Set("X-Cache", "MISS")
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	return c.Send(body)
}

// GroupPosts handles GET /group/:slug/
// @Summary Group posts
// @Tags posts
// @Produce json
// @Param slug path string true "Group slug"
// @Param page query int false "Page number"
// @Success 200 {object} service.GroupPage
// @Failure 404 {object} models.ErrorResponse
// @Router /group/{slug}/ [get]
func (s *Server) GroupPosts(c *fiber.Ctx) error {
	gp, err := s.feedService.Group(c.UserContext(), c.Params("slug"), pageParam(c))
	if err != nil {
		return err
	}
	return c.JSON(gp)
}

// Profile handles GET /profile/:username/
// @Summary Author profile
// @Tags posts
// @Produce json
// @Param username path string true "Username"
// @Param page query int false "Page number"
// @Success 200 {object} service.ProfilePage
// @Failure 404 {object} models.ErrorResponse
// @Router /profile/{username}/ [get]
func (s *Server) Profile(c *fiber.Ctx) error {
	pp, err := s.feedService.Profile(c.UserContext(), c.Params("username"), viewerID(c), pageParam(c))
	if err != nil {
		return err
	}
	return c.JSON(pp)
}

type commentForm struct {
	Text string `json:"text"`
}

// PostDetail handles GET /posts/:id/
// @Summary Post with comments
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} object{post=models.Post,comments=[]models.Comment,post_count=int,is_author=bool}
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/ [get]
func (s *Server) PostDetail(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := parseID(c, "id", "Post")
	if err != nil {
		return err
	}

	post, err := s.postService.GetPost(ctx, id)
	if err != nil {
		return err
	}
	comments, err := s.commentService.ListForPost(ctx, post.ID)
	if err != nil {
		return err
	}
	postCount, err := s.postService.CountByAuthor(ctx, post.AuthorID)
	if err != nil {
		return err
	}
	if comments == nil {
		comments = []*models.Comment{}
	}

	return c.JSON(fiber.Map{
		"post":       post,
		"comments":   comments,
		"post_count": postCount,
		"form":       commentForm{},
		"is_author":  viewerID(c) == post.AuthorID,
	})
}

// postFormContext is what the create/edit form page renders.
func (s *Server) postFormContext(c *fiber.Ctx, form postForm, post *models.Post, errs map[string]string) (fiber.Map, error) {
	groups, err := s.groupService.ListGroups(c.UserContext())
	if err != nil {
		return nil, err
	}
	if groups == nil {
		groups = []models.Group{}
	}
	out := fiber.Map{
		"form":    form,
		"groups":  groups,
		"is_edit": post != nil,
	}
	if post != nil {
		out["post"] = post
	}
	if len(errs) > 0 {
		out["errors"] = errs
	}
	return out, nil
}

func (s *Server) renderPostForm(c *fiber.Ctx, status int, form postForm, post *models.Post, errs map[string]string) error {
	ctx, err := s.postFormContext(c, form, post, errs)
	if err != nil {
		return err
	}
	return c.Status(status).JSON(ctx)
}

// PostCreateForm handles GET /create/
func (s *Server) PostCreateForm(c *fiber.Ctx) error {
	return s.renderPostForm(c, fiber.StatusOK, postForm{}, nil, nil)
}

// PostCreate handles POST /create/ and redirects to the author's profile.
// @Summary Create post
// @Description Requires a session cookie.
// @Tags posts
// @Accept multipart/form-data
// @Produce json
// @Param text formData string true "Post text"
// @Param group formData int false "Group ID"
// @Param image formData file false "Image"
// @Success 302
// @Failure 400 {object} object{errors=map[string]string}
// @Router /create/ [post]
func (s *Server) PostCreate(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := viewerID(c)

	form, upload, errs, err := s.readPostForm(c)
	if err != nil {
		return err
	}
	if len(errs) > 0 {
		return s.renderPostForm(c, fiber.StatusBadRequest, form, nil, errs)
	}

	if _, err := s.postService.CreatePost(ctx, service.CreatePostInput{
		AuthorID: userID,
		Text:     form.Text,
		GroupID:  form.Group,
		Image:    upload,
	}); err != nil {
		if fields, ok := fieldErrors(err); ok {
			return s.renderPostForm(c, fiber.StatusBadRequest, form, nil, fields)
		}
		return err
	}

	author, err := s.authService.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	return c.Redirect(profilePath(author.Username), fiber.StatusFound)
}

// PostEditForm handles GET /posts/:id/edit/. Only the author sees the form.
func (s *Server) PostEditForm(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "Post")
	if err != nil {
		return err
	}
	post, err := s.postService.GetPost(c.UserContext(), id)
	if err != nil {
		return err
	}
	if post.AuthorID != viewerID(c) {
		return c.Redirect(postPath(post.ID), fiber.StatusFound)
	}
	return s.renderPostForm(c, fiber.StatusOK, postForm{Text: post.Text, Group: post.GroupID}, post, nil)
}

// PostEdit handles POST /posts/:id/edit/. A non-author is sent back to the
// post without any change.
// @Summary Edit post
// @Description Requires a session cookie. Only the author can change a post.
// @Tags posts
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Post ID"
// @Param text formData string true "Post text"
// @Param group formData int false "Group ID"
// @Param image formData file false "Image"
// @Success 302
// @Failure 400 {object} object{errors=map[string]string}
// @Router /posts/{id}/edit/ [post]
func (s *Server) PostEdit(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := parseID(c, "id", "Post")
	if err != nil {
		return err
	}

	form, upload, errs, err := s.readPostForm(c)
	if err != nil {
		return err
	}

	if len(errs) > 0 {
		post, err := s.postService.GetPost(ctx, id)
		if err != nil {
			return err
		}
		if post.AuthorID != viewerID(c) {
			return c.Redirect(postPath(id), fiber.StatusFound)
		}
		return s.renderPostForm(c, fiber.StatusBadRequest, form, post, errs)
	}

	_, err = s.postService.UpdatePost(ctx, service.UpdatePostInput{
		EditorID: viewerID(c),
		PostID:   id,
		Text:     form.Text,
		GroupID:  form.Group,
		Image:    upload,
	})
	switch {
	case err == nil, models.IsForbidden(err):
		return c.Redirect(postPath(id), fiber.StatusFound)
	case models.IsValidation(err):
		fields, _ := fieldErrors(err)
		post, getErr := s.postService.GetPost(ctx, id)
		if getErr != nil {
			return getErr
		}
		return s.renderPostForm(c, fiber.StatusBadRequest, form, post, fields)
	default:
		return err
	}
}

// AddComment handles POST /posts/:id/comment/. Invalid comments are dropped
// and the visitor is sent back to the post either way.
// @Summary Comment on a post
// @Description Requires a session cookie.
// @Tags comments
// @Accept x-www-form-urlencoded
// @Param id path int true "Post ID"
// @Param text formData string true "Comment text"
// @Success 302
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/comment/ [post]
func (s *Server) AddComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "Post")
	if err != nil {
		return err
	}
	_, err = s.commentService.AddComment(c.UserContext(), service.AddCommentInput{
		PostID:   id,
		AuthorID: viewerID(c),
		Text:     c.FormValue("text"),
	})
	if err != nil && !models.IsValidation(err) {
		return err
	}
	return c.Redirect(postPath(id), fiber.StatusFound)
}
