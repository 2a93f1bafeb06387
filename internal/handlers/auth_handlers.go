package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"repairshop_backend/internal/services"
	"repairshop_backend/pkg/utils"
)

// AuthHandler holds the auth service.
type AuthHandler struct {
	authService services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(as services.AuthService) *AuthHandler {
	return &AuthHandler{authService: as}
}

// Login authenticates a staff member and issues tokens.
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
			"Invalid request payload.", err.Error()))
		return
	}
	resp, err := h.authService.LoginUser(req)
	if err != nil {
		respondServiceError(c, err, "Login: authService.LoginUser")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RefreshToken exchanges a refresh token for a new token pair.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req services.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
			"Invalid request payload.", err.Error()))
		return
	}
	resp, err := h.authService.RefreshAccessToken(req.RefreshToken)
	if err != nil {
		respondServiceError(c, err, "RefreshToken: authService.RefreshAccessToken")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Register creates a new staff account. Admin only.
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
			"Invalid request payload.", err.Error()))
		return
	}
	user, err := h.authService.RegisterUser(req)
	if err != nil {
		respondServiceError(c, err, "Register: authService.RegisterUser")
		return
	}
	c.JSON(http.StatusCreated, user)
}

// Profile returns the authenticated user's own record.
func (h *AuthHandler) Profile(c *gin.Context) {
	userID, ok := actingUserID(c)
	if !ok {
		return
	}
	user, err := h.authService.GetUserProfile(userID)
	if err != nil {
		respondServiceError(c, err, "Profile: authService.GetUserProfile")
		return
	}
	c.JSON(http.StatusOK, user)
}

// GetUsers lists all staff accounts. Admin only.
func (h *AuthHandler) GetUsers(c *gin.Context) {
	users, err := h.authService.GetUsers()
	if err != nil {
		respondServiceError(c, err, "GetUsers: authService.GetUsers")
		return
	}
	c.JSON(http.StatusOK, users)
}

// GetTechnicians lists active technicians for order assignment.
func (h *AuthHandler) GetTechnicians(c *gin.Context) {
	technicians, err := h.authService.GetTechnicians()
	if err != nil {
		respondServiceError(c, err, "GetTechnicians: authService.GetTechnicians")
		return
	}
	c.JSON(http.StatusOK, technicians)
}
