package server

import (
	"errors"
	"time"

	"quill/internal/middleware"
	"quill/internal/models"
	"quill/internal/service"

	"github.com/gofiber/fiber/v2"
)

type signupForm struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type loginForm struct {
	Username string `json:"username"`
	Next     string `json:"next"`
}

// SignupForm handles GET /auth/signup/
func (s *Server) SignupForm(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"form": signupForm{}})
}

// Signup handles POST /auth/signup/, signs the new user in and redirects home.
// @Summary User signup
// @Tags auth
// @Accept x-www-form-urlencoded
// @Produce json
// @Param username formData string true "Username"
// @Param email formData string true "Email"
// @Param password formData string true "Password"
// @Param first_name formData string false "First name"
// @Param last_name formData string false "Last name"
// @Success 302
// @Failure 400 {object} object{errors=map[string]string}
// @Failure 429 {object} models.ErrorResponse
// @Router /auth/signup/ [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	form := signupForm{
		Username:  c.FormValue("username"),
		Email:     c.FormValue("email"),
		FirstName: c.FormValue("first_name"),
		LastName:  c.FormValue("last_name"),
	}
	user, err := s.authService.Signup(c.UserContext(), service.SignupInput{
		Username:  form.Username,
		Email:     form.Email,
		Password:  c.FormValue("password"),
		FirstName: form.FirstName,
		LastName:  form.LastName,
	})
	if err != nil {
		if fields, ok := fieldErrors(err); ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"form": form, "errors": fields})
		}
		return err
	}

	if err := s.startSession(c, user.ID); err != nil {
		return err
	}
	return c.Redirect("/", fiber.StatusFound)
}

// LoginForm handles GET /auth/login/
func (s *Server) LoginForm(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"form": loginForm{Next: c.Query("next")}})
}

// Login handles POST /auth/login/ and redirects to next.
// @Summary User login
// @Tags auth
// @Accept x-www-form-urlencoded
// @Produce json
// @Param username formData string true "Username"
// @Param password formData string true "Password"
// @Param next formData string false "Redirect target"
// @Success 302
// @Failure 401 {object} object{errors=map[string]string}
// @Failure 429 {object} models.ErrorResponse
// @Router /auth/login/ [post]
func (s *Server) Login(c *fiber.Ctx) error {
	next := c.FormValue("next", c.Query("next"))
	form := loginForm{Username: c.FormValue("username"), Next: next}

	user, err := s.authService.Login(c.UserContext(), form.Username, c.FormValue("password"))
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == models.CodeUnauthorized {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"form":   form,
				"errors": map[string]string{"__all__": appErr.Message},
			})
		}
		return err
	}

	if err := s.startSession(c, user.ID); err != nil {
		return err
	}
	return c.Redirect(safeNext(next), fiber.StatusFound)
}

// Logout handles GET /auth/logout/
// @Summary Logout
// @Tags auth
// @Success 302
// @Router /auth/logout/ [get]
func (s *Server) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Redirect("/", fiber.StatusFound)
}

func (s *Server) startSession(c *fiber.Ctx, userID uint) error {
	ttl := s.config.SessionTTL()
	token, err := middleware.SignSessionToken(userID, ttl)
	if err != nil {
		return models.NewInternalError(err)
	}
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return nil
}
