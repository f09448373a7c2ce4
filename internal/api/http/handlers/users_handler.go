package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civicpulse/internal/api/dto"
	"github.com/spec-kit/civicpulse/internal/auth"
	"github.com/spec-kit/civicpulse/internal/domain"
	"github.com/spec-kit/civicpulse/internal/service"
	apperrors "github.com/spec-kit/civicpulse/pkg/util"
)

// UsersHandler exposes auth, profile and engagement endpoints for citizens.
type UsersHandler struct {
	auth      *service.AuthService
	users     *service.UserService
	analytics *service.AnalyticsService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService, userService *service.UserService, analyticsService *service.AnalyticsService) *UsersHandler {
	return &UsersHandler{auth: authService, users: userService, analytics: analyticsService}
}

// Register handles POST /auth/users/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.UserRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return fiber.NewError(http.StatusBadRequest, "name, email, password required")
	}
	if req.WardNumber == "" || req.District == "" || req.State == "" {
		return fiber.NewError(http.StatusBadRequest, "ward_number, district, state required")
	}

	user, token, exp, err := h.auth.RegisterUser(c.Context(), service.UserRegistration{
		Name:          req.Name,
		Email:         req.Email,
		Password:      req.Password,
		AadhaarNumber: req.AadhaarNumber,
		PhoneNumber:   req.PhoneNumber,
		Address:       req.Address,
		WardNumber:    req.WardNumber,
		District:      req.District,
		State:         req.State,
	})
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"user": profileResponse(user),
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// Login handles POST /auth/users/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.UserLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "email and password required")
	}

	user, token, exp, err := h.auth.LoginUser(c.Context(), req.Email, req.Password)
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, err.Error())
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user": profileResponse(user),
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// GetProfile handles GET /users/me.
func (h *UsersHandler) GetProfile(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("citizen required")
	}
	user, err := h.users.GetProfile(c.Context(), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": profileResponse(user)})
}

// UpdateProfile handles PATCH /users/me.
func (h *UsersHandler) UpdateProfile(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("citizen required")
	}
	var req struct {
		Name            *string `json:"name"`
		PhoneNumber     *string `json:"phone_number"`
		Address         *string `json:"address"`
		ProfileImageURL *string `json:"profile_image_url"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, err := h.users.UpdateProfile(c.Context(), principal.User.ID, service.ProfileUpdate{
		Name:            req.Name,
		PhoneNumber:     req.PhoneNumber,
		Address:         req.Address,
		ProfileImageURL: req.ProfileImageURL,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": profileResponse(user)})
}

// ListActivity handles GET /users/me/activity.
func (h *UsersHandler) ListActivity(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("citizen required")
	}
	limit := parseInt(c.Query("limit"), 10)
	entries, err := h.users.ListActivity(c.Context(), principal.User.ID, limit)
	if err != nil {
		return err
	}
	items := make([]dto.ActivityResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.ActivityResponse{
			ID:           entry.ID,
			ActivityType: entry.ActivityType,
			ActivityData: entry.ActivityData,
			CreatedAt:    entry.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListBadges handles GET /users/me/badges.
func (h *UsersHandler) ListBadges(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("citizen required")
	}
	badges, err := h.users.ListBadges(c.Context(), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": badgeResponses(badges)})
}

// GetImpact handles GET /users/me/impact.
func (h *UsersHandler) GetImpact(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("citizen required")
	}
	impact, err := h.analytics.GetUserImpact(c.Context(), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ImpactResponse{
		IssuesReported: impact.IssuesReported,
		IssuesResolved: impact.IssuesResolved,
		VotesCast:      impact.VotesCast,
		ImpactScore:    impact.ImpactScore,
		Badges:         badgeResponses(impact.Badges),
	}})
}

// RequestPasswordReset handles POST /auth/password/reset/request.
func (h *UsersHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" {
		return apperrors.NewValidationError("email required", nil)
	}
	token, err := h.auth.RequestPasswordReset(c.Context(), req.Email)
	if err != nil {
		// do not leak whether the email exists
		return c.JSON(fiber.Map{"data": fiber.Map{"status": "accepted"}})
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"status":     "accepted",
		"expires_at": token.ExpiresAt,
	}})
}

// ConfirmPasswordReset handles POST /auth/password/reset/confirm.
func (h *UsersHandler) ConfirmPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Token == "" || req.NewPassword == "" {
		return apperrors.NewValidationError("token and new_password required", nil)
	}
	if err := h.auth.ConfirmPasswordReset(c.Context(), req.Token, req.NewPassword); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "password updated"}})
}

// ChangePassword handles POST /auth/password/change.
func (h *UsersHandler) ChangePassword(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.PasswordChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return apperrors.NewValidationError("current_password and new_password required", nil)
	}

	subject := service.AuthSubject{Type: principal.SubjectType}
	switch {
	case principal.User != nil:
		subject.ID = principal.User.ID
	case principal.Official != nil:
		subject.ID = principal.Official.ID
	default:
		return apperrors.NewUnauthorized("authentication required")
	}

	if err := h.auth.ChangePassword(c.Context(), subject, req.CurrentPassword, req.NewPassword); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "password updated"}})
}

func profileResponse(user *domain.User) dto.UserProfileResponse {
	return dto.UserProfileResponse{
		ID:              user.ID,
		Name:            user.Name,
		Email:           user.Email,
		PhoneNumber:     user.PhoneNumber,
		Address:         user.Address,
		WardNumber:      user.WardNumber,
		District:        user.District,
		State:           user.State,
		IsVerified:      user.IsVerified,
		ProfileImageURL: user.ProfileImageURL,
		CreatedAt:       user.CreatedAt,
	}
}

func badgeResponses(badges []domain.UserBadge) []dto.BadgeResponse {
	resp := make([]dto.BadgeResponse, 0, len(badges))
	for _, badge := range badges {
		resp = append(resp, dto.BadgeResponse{
			BadgeType:   badge.BadgeType,
			BadgeName:   badge.BadgeName,
			Description: badge.Description,
			EarnedAt:    badge.EarnedAt,
		})
	}
	return resp
}
