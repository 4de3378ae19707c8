package server

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"quill/internal/feed"
	"quill/internal/middleware"
	"quill/internal/models"
	"quill/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

// parseID extracts a route parameter as a positive uint. Anything else is
// treated as an unknown resource.
func parseID(c *fiber.Ctx, param, resource string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(param), 10, 32)
	if err != nil || id == 0 {
		return 0, models.NewNotFoundError(resource, c.Params(param))
	}
	return uint(id), nil
}

func pageParam(c *fiber.Ctx) int {
	return feed.ParsePageNumber(c.Query("page"))
}

func viewerID(c *fiber.Ctx) uint {
	id, _ := middleware.CurrentUserID(c)
	return id
}

func profilePath(username string) string {
	return "/profile/" + url.PathEscape(username) + "/"
}

func postPath(id uint) string {
	return fmt.Sprintf("/posts/%d/", id)
}

// safeNext keeps redirects on this site.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

// postForm is the submitted (or initial) state of the post form.
type postForm struct {
	Text  string `json:"text"`
	Group *uint  `json:"group"`
}

// readPostForm parses text, group and the optional image upload. An
// unparseable group is reported as a field error.
func (s *Server) readPostForm(c *fiber.Ctx) (postForm, *service.ImageUpload, map[string]string, error) {
	form := postForm{Text: c.FormValue("text")}
	fields := map[string]string{}

	if raw := strings.TrimSpace(c.FormValue("group")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || id == 0 {
			fields["group"] = "Select a valid choice. That choice is not one of the available choices."
		} else {
			gid := uint(id)
			form.Group = &gid
		}
	}

	upload, err := readUpload(c, "image")
	if err != nil {
		bad, ok := fieldErrors(err)
		if !ok {
			return form, nil, fields, err
		}
		for k, v := range bad {
			fields[k] = v
		}
	}
	return form, upload, fields, nil
}

func readUpload(c *fiber.Ctx, field string) (*service.ImageUpload, error) {
	contentType := strings.ToLower(string(c.Request().Header.ContentType()))
	if !strings.HasPrefix(contentType, fiber.MIMEMultipartForm) {
		return nil, nil
	}
	fh, err := c.FormFile(field)
	switch {
	case errors.Is(err, fasthttp.ErrMissingFile):
		return nil, nil
	case err != nil:
		return nil, models.NewFieldError(field, "The submitted data was not a file. Check the encoding type on the form.")
	case fh == nil:
		return nil, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	defer func() { _ = f.Close() }()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if len(content) == 0 {
		return nil, nil
	}
	return &service.ImageUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Content:     content,
	}, nil
}

// fieldErrors returns the per-field messages of a validation error.
func fieldErrors(err error) (map[string]string, bool) {
	var appErr *models.AppError
	if !errors.As(err, &appErr) || appErr.Code != models.CodeValidation {
		return nil, false
	}
	if len(appErr.Fields) > 0 {
		return appErr.Fields, true
	}
	return map[string]string{"__all__": appErr.Message}, true
}
