package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civicpulse/internal/api/dto"
	"github.com/spec-kit/civicpulse/internal/auth"
	"github.com/spec-kit/civicpulse/internal/service"
	apperrors "github.com/spec-kit/civicpulse/pkg/util"
)

// CommentsHandler manages the discussion thread endpoints.
type CommentsHandler struct {
	comments *service.CommentService
}

// NewCommentsHandler constructs handler.
func NewCommentsHandler(commentService *service.CommentService) *CommentsHandler {
	return &CommentsHandler{comments: commentService}
}

// AddComment POST /issues/:id/comments.
func (h *CommentsHandler) AddComment(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("citizen required")
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Content == "" {
		return apperrors.NewValidationError("content required", nil)
	}

	comment, err := h.comments.AddComment(c.Context(), principal.User.ID, c.Params("id"), req.Content, req.IsAnonymous)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": commentResponse(*comment)})
}

// ListComments GET /issues/:id/comments.
func (h *CommentsHandler) ListComments(c *fiber.Ctx) error {
	comments, err := h.comments.ListComments(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.CommentResponse, 0, len(comments))
	for _, comment := range comments {
		items = append(items, commentResponse(comment))
	}
	return c.JSON(fiber.Map{"data": items})
}

// DeleteComment DELETE /comments/:id.
func (h *CommentsHandler) DeleteComment(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("citizen required")
	}
	if err := h.comments.DeleteComment(c.Context(), principal.User.ID, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
