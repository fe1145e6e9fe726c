package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ErlanBelekov/charon/internal/domain"
	"github.com/ErlanBelekov/charon/internal/transport/http/middleware"
	"github.com/ErlanBelekov/charon/internal/usecase"
	"github.com/gin-gonic/gin"
)

// Flows holds one handler per auth operation, already configured with
// their redirect targets.
type Flows struct {
	Signin  usecase.HandlerFunc
	Signup  usecase.HandlerFunc
	Signout usecase.HandlerFunc
	Forgot  usecase.HandlerFunc
	Reset   usecase.HandlerFunc
}

// userFinder is the subset of AuthUsecase the handler needs.
// Defined here (point of use) so tests can inject a fake.
type userFinder interface {
	CurrentUser(ctx context.Context, userID string) (*domain.User, error)
}

type CookieOptions struct {
	Secure bool
	// Flash sets the charon_flash cookie after every outcome.
	Flash bool
}

type AuthHandler struct {
	flows    Flows
	users    userFinder
	sessions sessionIssuer
	cookies  CookieOptions
	logger   *slog.Logger
}

func NewAuthHandler(flows Flows, users userFinder, sessions sessionIssuer, cookies CookieOptions, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		flows:    flows,
		users:    users,
		sessions: sessions,
		cookies:  cookies,
		logger:   logger.With("component", "auth_handler"),
	}
}

// credentialsForm accepts both form posts and JSON bodies.
type credentialsForm struct {
	Username        string `form:"username" json:"username"`
	Email           string `form:"email" json:"email"`
	Password        string `form:"password" json:"password"`
	PasswordConfirm string `form:"passwordConfirm" json:"passwordConfirm"`
	ResetToken      string `form:"resetToken" json:"resetToken"`
}

// POST /signin
func (h *AuthHandler) Signin(c *gin.Context) { h.run(c, h.flows.Signin) }

// POST /signup
func (h *AuthHandler) Signup(c *gin.Context) { h.run(c, h.flows.Signup) }

// POST /signout
func (h *AuthHandler) Signout(c *gin.Context) { h.run(c, h.flows.Signout) }

// POST /forgot
func (h *AuthHandler) Forgot(c *gin.Context) { h.run(c, h.flows.Forgot) }

// POST /reset and POST /reset/:token
func (h *AuthHandler) Reset(c *gin.Context) { h.run(c, h.flows.Reset) }

// run answers every outcome with 303 See Other to its redirect target.
// A body that cannot be parsed is treated as empty input so the flow still
// produces its usual failure outcome.
func (h *AuthHandler) run(c *gin.Context, flow usecase.HandlerFunc) {
	var form credentialsForm
	if err := c.ShouldBind(&form); err != nil {
		h.logger.DebugContext(c.Request.Context(), "unparseable auth body", "error", err)
		form = credentialsForm{}
	}
	if form.ResetToken == "" {
		form.ResetToken = c.Param("token")
	}

	outcome := flow(c.Request.Context(), usecase.Request{
		Path:            c.Request.URL.Path,
		Username:        form.Username,
		Email:           form.Email,
		Password:        form.Password,
		PasswordConfirm: form.PasswordConfirm,
		ResetToken:      form.ResetToken,
		RemoteAddr:      c.ClientIP(),
		Session:         &cookieSession{c: c, sessions: h.sessions, secure: h.cookies.Secure},
	})

	if h.cookies.Flash {
		level := flashInfo
		if !outcome.Succeeded() {
			level = flashError
		}
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(FlashCookieName, level+":"+outcome.Message, 60, "/", "", h.cookies.Secure, true)
	}

	c.Redirect(http.StatusSeeOther, outcome.RedirectTarget)
}

type meResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Flash    string `json:"flash,omitempty"`
}

// GET /me
// Returns the signed-in user and consumes any pending flash message.
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.users.CurrentUser(c.Request.Context(), c.GetString(middleware.UserIDKey))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": errUserNotFound})
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "load current user", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	resp := meResponse{ID: user.ID, Username: user.Username, Email: user.Email}
	if flash, err := c.Cookie(FlashCookieName); err == nil && flash != "" {
		resp.Flash = flash
		c.SetCookie(FlashCookieName, "", -1, "/", "", h.cookies.Secure, true)
	}
	c.JSON(http.StatusOK, resp)
}
