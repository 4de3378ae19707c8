package server

import (
	"github.com/gofiber/fiber/v2"
)

// FollowIndex handles GET /follow/
// @Summary Posts by followed authors
// @Description Requires a session cookie.
// @Tags follow
// @Produce json
// @Param page query int false "Page number"
// @Success 200 {object} service.FollowPage
// @Router /follow/ [get]
func (s *Server) FollowIndex(c *fiber.Ctx) error {
	fp, err := s.feedService.Follow(c.UserContext(), viewerID(c), pageParam(c))
	if err != nil {
		return err
	}
	return c.JSON(fp)
}

// ProfileFollow handles GET /profile/:username/follow/. Following yourself
// is ignored.
// @Summary Follow an author
// @Tags follow
// @Param username path string true "Username"
// @Success 302
// @Failure 404 {object} models.ErrorResponse
// @Router /profile/{username}/follow/ [get]
func (s *Server) ProfileFollow(c *fiber.Ctx) error {
	ctx := c.UserContext()
	author, err := s.authService.GetUserByUsername(ctx, c.Params("username"))
	if err != nil {
		return err
	}
	if err := s.followService.Follow(ctx, viewerID(c), author.ID); err != nil {
		return err
	}
	return c.Redirect(profilePath(author.Username), fiber.StatusFound)
}

// ProfileUnfollow handles GET /profile/:username/unfollow/. It is 404 when
// the viewer was not following the author.
// @Summary Unfollow an author
// @Tags follow
// @Param username path string true "Username"
// @Success 302
// @Failure 404 {object} models.ErrorResponse
// @Router /profile/{username}/unfollow/ [get]
func (s *Server) ProfileUnfollow(c *fiber.Ctx) error {
	ctx := c.UserContext()
	author, err := s.authService.GetUserByUsername(ctx, c.Params("username"))
	if err != nil {
		return err
	}
	removed, err := s.followService.Unfollow(ctx, viewerID(c), author.ID)
	if err != nil {
		return err
	}
	if !removed {
		return fiber.NewError(fiber.StatusNotFound, "Not following "+author.Username)
	}
	return c.Redirect(profilePath(author.Username), fiber.StatusFound)
}
