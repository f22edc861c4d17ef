package http

import (
	"net/http"
	"path/filepath"
	"strings"

	"fanclub/pkg/apperr"
	"fanclub/pkg/middleware"
	"fanclub/pkg/respond"
	"fanclub/services/auth/internal/entity"
	"fanclub/services/auth/internal/usecase"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authUseCase   usecase.AuthUseCase
	cookieName    string
	secureCookies bool
}

func NewAuthHandler(authUseCase usecase.AuthUseCase, cookieName string, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		authUseCase:   authUseCase,
		cookieName:    cookieName,
		secureCookies: secureCookies,
	}
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"omitempty,oneof=viewer creator"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  *entity.User `json:"user"`
}

// Register godoc
// @Summary      Register a new user
// @Description  Register a viewer or creator account and start a session
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Registration data"
// @Success      201  {object}  respond.Envelope{data=AuthResponse}
// @Failure      400  {object}  respond.Envelope
// @Failure      409  {object}  respond.Envelope
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, apperr.Validation("%s", err.Error()))
		return
	}

	user, token, err := h.authUseCase.Register(c.Request.Context(), req.Email, req.Username, req.Password, entity.UserRole(req.Role))
	if err != nil {
		respond.Error(c, err)
		return
	}

	h.setSession(c, token)
	respond.Created(c, AuthResponse{Token: token, User: user})
}

// Login godoc
// @Summary      Login
// @Description  Authenticate and set the session cookie
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200  {object}  respond.Envelope{data=AuthResponse}
// @Failure      400  {object}  respond.Envelope
// @Failure      401  {object}  respond.Envelope
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, apperr.Validation("%s", err.Error()))
		return
	}

	user, token, err := h.authUseCase.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respond.Error(c, err)
		return
	}

	h.setSession(c, token)
	respond.OK(c, AuthResponse{Token: token, User: user})
}

// Logout godoc
// @Summary      Logout
// @Description  Revoke the current session and clear the cookie
// @Tags         auth
// @Produce      json
// @Success      200  {object}  respond.Envelope
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authUseCase.Logout(c.Request.Context(), c.GetString(middleware.ContextTokenKey)); err != nil {
		respond.Error(c, err)
		return
	}
	c.SetCookie(h.cookieName, "", -1, "/", "", h.secureCookies, true)
	respond.Message(c, "Logged out")
}

// Me godoc
// @Summary      Current user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  respond.Envelope{data=entity.User}
// @Failure      401  {object}  respond.Envelope
// @Router       /users/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.authUseCase.GetUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, user)
}

// GetUser godoc
// @Summary      Public profile
// @Tags         users
// @Produce      json
// @Param        id path string true "User ID"
// @Success      200  {object}  respond.Envelope{data=entity.User}
// @Failure      404  {object}  respond.Envelope
// @Router       /users/{id} [get]
func (h *AuthHandler) GetUser(c *gin.Context) {
	user, err := h.authUseCase.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	user.Email = ""
	respond.OK(c, user)
}

var avatarExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true}

// UploadAvatar godoc
// @Summary      Upload avatar
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        avatar formData file true "Avatar image file"
// @Success      200  {object}  respond.Envelope{data=entity.User}
// @Failure      400  {object}  respond.Envelope
// @Router       /users/me/avatar [post]
func (h *AuthHandler) UploadAvatar(c *gin.Context) {
	file, err := c.FormFile("avatar")
	if err != nil {
		respond.Error(c, apperr.Validation("avatar file is required"))
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !avatarExtensions[ext] {
		respond.Error(c, apperr.Validation("invalid image format, only jpg, jpeg, png, gif are allowed"))
		return
	}

	src, err := file.Open()
	if err != nil {
		respond.Error(c, apperr.Validation("failed to read avatar file"))
		return
	}
	defer src.Close()

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	user, err := h.authUseCase.UploadAvatar(c.Request.Context(), middleware.UserID(c), src, ext, contentType)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, user)
}

func (h *AuthHandler) setSession(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, token, int(h.authUseCase.SessionTTL().Seconds()), "/", "", h.secureCookies, true)
}
