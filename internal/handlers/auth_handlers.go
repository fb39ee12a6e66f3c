package handlers

import (
	"net/http"
	"strings"
	"time"

	"opensox/internal/common"
	"opensox/internal/models"
	"opensox/internal/repositories"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// AuthHandlers exchanges an upstream-authenticated identity for an API
// token. The OAuth dance happens at the edge; this endpoint only mints
// the session the payment API understands.
type AuthHandlers struct {
	userRepo  repositories.UserRepository
	jwtSecret string
}

func NewAuthHandlers(userRepo repositories.UserRepository, jwtSecret string) *AuthHandlers {
	return &AuthHandlers{
		userRepo:  userRepo,
		jwtSecret: jwtSecret,
	}
}

// Login handles POST /v1/auth/login
func (h *AuthHandlers) Login(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		Email      string  `json:"email" validate:"required,email"`
		FirstName  *string `json:"first_name"`
		AuthMethod string  `json:"auth_method"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := common.ValidateRequiredString(req.Email, "email"); err != nil {
		return common.SendValidationError(c, "email", err.Error())
	}
	if req.AuthMethod == "" {
		req.AuthMethod = "google"
	}

	user := &models.User{
		ID:         uuid.New(),
		Email:      req.Email,
		FirstName:  req.FirstName,
		AuthMethod: req.AuthMethod,
	}
	if err := h.userRepo.UpsertByEmail(ctx, user); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": user.ID.String(),
		"iat": now.Unix(),
		"exp": now.Add(7 * 24 * time.Hour).Unix(),
	})

	signed, err := token.SignedString([]byte(h.jwtSecret))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to sign token")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"token": signed,
		"user": map[string]interface{}{
			"id":         user.ID,
			"email":      user.Email,
			"first_name": common.SafeString(user.FirstName),
		},
	})
}
