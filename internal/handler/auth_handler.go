package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classroom-planner-api/internal/middleware"
	"github.com/noah-isme/classroom-planner-api/internal/models"
	appErrors "github.com/noah-isme/classroom-planner-api/pkg/errors"
	"github.com/noah-isme/classroom-planner-api/pkg/response"
)

type authService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
}

// AuthHandler signs classroom accounts in and reports who is signed in.
type AuthHandler struct {
	service authService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// Login godoc
// @Summary Authenticate a classroom account
// @Description Exchange email and password for a bearer token
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Invalid(err, "invalid login payload"))
		return
	}
	req.Email = strings.TrimSpace(req.Email)

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// Session describes the caller behind the bearer token.
type Session struct {
	Email     string          `json:"email"`
	Role      models.UserRole `json:"role"`
	CanEdit   bool            `json:"canEdit"`
	ExpiresAt *time.Time      `json:"expiresAt,omitempty"`
}

// Me godoc
// @Summary Current session
// @Description Observers get canEdit=false and should render the planner read-only
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.ClaimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	session := Session{Email: claims.Email, Role: claims.Role, CanEdit: claims.Role == models.RoleTeacher}
	if claims.ExpiresAt != nil {
		expires := claims.ExpiresAt.Time.UTC()
		session.ExpiresAt = &expires
	}
	response.JSON(c, http.StatusOK, session)
}
