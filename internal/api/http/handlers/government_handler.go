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

// GovernmentHandler exposes endpoints for officials.
type GovernmentHandler struct {
	auth      *service.AuthService
	issues    *service.IssueService
	analytics *service.AnalyticsService
}

// NewGovernmentHandler constructs handler.
func NewGovernmentHandler(authService *service.AuthService, issueService *service.IssueService, analyticsService *service.AnalyticsService) *GovernmentHandler {
	return &GovernmentHandler{auth: authService, issues: issueService, analytics: analyticsService}
}

// Login handles POST /auth/government/login.
func (h *GovernmentHandler) Login(c *fiber.Ctx) error {
	var req dto.UserLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "email and password required")
	}

	official, token, exp, err := h.auth.LoginOfficial(c.Context(), req.Email, req.Password)
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, err.Error())
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"official": fiber.Map{
				"id":    official.ID,
				"name":  official.Name,
				"email": official.Email,
				"role":  official.Role,
			},
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// ListPriorityIssues GET /government/issues/priority.
func (h *GovernmentHandler) ListPriorityIssues(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Official == nil {
		return apperrors.NewUnauthorized("official required")
	}
	limit := parseInt(c.Query("limit"), 20)
	issues, err := h.issues.ListPriorityIssues(c.Context(), principal.Official, limit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueSummaries(issues)})
}

// UpdateStatus PATCH /government/issues/:id/status.
func (h *GovernmentHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Official == nil {
		return apperrors.NewUnauthorized("official required")
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	switch req.Status {
	case domain.IssueStatusUnderReview, domain.IssueStatusInProgress,
		domain.IssueStatusResolved, domain.IssueStatusClosed:
	default:
		return apperrors.NewValidationError("invalid status", map[string]any{"status": req.Status})
	}

	issue, err := h.issues.UpdateStatus(c.Context(), principal.Official, c.Params("id"), req.Status, req.Message)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueSummary(issue)})
}

// AssignIssue PATCH /government/issues/:id/assign.
func (h *GovernmentHandler) AssignIssue(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Official == nil {
		return apperrors.NewUnauthorized("official required")
	}
	var req dto.AssignIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.issues.AssignIssue(c.Context(), c.Params("id"), req.OfficialID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "assigned"}})
}

// GetDashboard GET /government/dashboard.
func (h *GovernmentHandler) GetDashboard(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Official == nil {
		return apperrors.NewUnauthorized("official required")
	}
	stats, err := h.analytics.GetDashboardStats(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}

// GetPublicDashboard GET /analytics/dashboard.
func (h *GovernmentHandler) GetPublicDashboard(c *fiber.Ctx) error {
	stats, err := h.analytics.GetDashboardStats(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}
