package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/minato-edu/tutoring-api/internal/models"
	"github.com/minato-edu/tutoring-api/internal/service"
	appErrors "github.com/minato-edu/tutoring-api/pkg/errors"
	"github.com/minato-edu/tutoring-api/pkg/response"
)

// AuthHandler exposes authentication endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login godoc
// @Summary Authenticate an admin user
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Credentials"
// @Success 200 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	resp, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// Me godoc
// @Summary Return the authenticated user's claims
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	response.JSON(c, http.StatusOK, models.UserInfo{
		ID:       claims.UserID,
		Email:    claims.Email,
		FullName: claims.FullName,
		Role:     claims.Role,
	}, nil)
}
