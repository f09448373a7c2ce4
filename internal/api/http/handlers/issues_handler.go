package handlers

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/spec-kit/civicpulse/internal/api/dto"
	"github.com/spec-kit/civicpulse/internal/auth"
	"github.com/spec-kit/civicpulse/internal/config"
	"github.com/spec-kit/civicpulse/internal/domain"
	"github.com/spec-kit/civicpulse/internal/repository"
	"github.com/spec-kit/civicpulse/internal/service"
	apperrors "github.com/spec-kit/civicpulse/pkg/util"
)

var allowedMediaExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
	".mp4":  {},
}

// IssuesHandler manages citizen-facing issue endpoints.
type IssuesHandler struct {
	issues *service.IssueService
	votes  *service.VoteService
	upload config.UploadConfig
}

// NewIssuesHandler constructs handler.
func NewIssuesHandler(issueService *service.IssueService, voteService *service.VoteService, upload config.UploadConfig) *IssuesHandler {
	return &IssuesHandler{issues: issueService, votes: voteService, upload: upload}
}

// CreateIssue POST /issues.
func (h *IssuesHandler) CreateIssue(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("citizen required")
	}
	var req dto.CreateIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Title == "" || req.Description == "" || req.Category == "" {
		return apperrors.NewValidationError("title, description, category required", nil)
	}

	input := service.IssueCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Severity:    req.Severity,
		Location:    req.Location,
		WardNumber:  req.WardNumber,
		District:    req.District,
		State:       req.State,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		IsAnonymous: req.IsAnonymous,
	}
	if input.WardNumber == "" {
		input.WardNumber = principal.User.WardNumber
	}
	if input.District == "" {
		input.District = principal.User.District
	}
	if input.State == "" {
		input.State = principal.User.State
	}
	input.MediaURLs = mediaURLsFromForm(c)

	issue, err := h.issues.CreateIssue(c.Context(), principal.User.ID, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": issueSummary(issue)})
}

// UploadMedia POST /issues/media. Accepts one multipart file, validates type
// and size, stores it under the upload dir and returns its URL.
func (h *IssuesHandler) UploadMedia(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("citizen required")
	}
	file, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationError("file required", nil)
	}
	if h.upload.MaxBytes > 0 && file.Size > h.upload.MaxBytes {
		return apperrors.NewValidationError("file too large", map[string]any{
			"max_bytes": h.upload.MaxBytes,
			"size":      file.Size,
		})
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if _, ok := allowedMediaExtensions[ext]; !ok {
		return apperrors.NewValidationError("unsupported media type", map[string]any{
			"extension": ext,
		})
	}

	name := uuid.NewString() + ext
	if err := c.SaveFile(file, filepath.Join(h.upload.Dir, name)); err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{
		"url": "/uploads/" + name,
	}})
}

// ListIssues GET /issues.
func (h *IssuesHandler) ListIssues(c *fiber.Ctx) error {
	filter := parseIssueQuery(c)
	issues, err := h.issues.ListIssues(c.Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueSummaries(issues)})
}

// ListHotIssues GET /issues/hot.
func (h *IssuesHandler) ListHotIssues(c *fiber.Ctx) error {
	limit := parseInt(c.Query("limit"), 10)
	issues, err := h.issues.ListHotIssues(c.Context(), limit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueSummaries(issues)})
}

// ListMyIssues GET /issues/mine.
func (h *IssuesHandler) ListMyIssues(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("citizen required")
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	issues, err := h.issues.ListUserIssues(c.Context(), principal.User.ID, pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueSummaries(issues)})
}

// GetIssue GET /issues/:id.
func (h *IssuesHandler) GetIssue(c *fiber.Ctx) error {
	details, err := h.issues.GetIssueDetails(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueDetail(details)})
}

// CastVote POST /issues/:id/vote.
func (h *IssuesHandler) CastVote(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("citizen required")
	}
	var req dto.CastVoteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	result, err := h.votes.CastVote(c.Context(), principal.User.ID, c.Params("id"), req.Rating)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.VoteResponse{
		Rating:            result.Vote.Rating,
		VoteCount:         result.Score.VoteCount,
		VitalityScore:     result.Score.VitalityScore,
		SupportPercentage: result.Score.SupportPercentage,
	}})
}

// GetMyVote GET /issues/:id/vote.
func (h *IssuesHandler) GetMyVote(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("citizen required")
	}
	vote, err := h.votes.GetMyVote(c.Context(), principal.User.ID, c.Params("id"))
	if err != nil {
		return err
	}
	if vote == nil {
		return c.JSON(fiber.Map{"data": nil})
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"rating": vote.Rating}})
}

// RemoveVote DELETE /issues/:id/vote.
func (h *IssuesHandler) RemoveVote(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("citizen required")
	}
	score, err := h.votes.RemoveVote(c.Context(), principal.User.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"vote_count":     score.VoteCount,
		"vitality_score": score.VitalityScore,
	}})
}

func mediaURLsFromForm(c *fiber.Ctx) []string {
	raw := c.Query("media_urls")
	if raw == "" {
		return nil
	}
	var urls []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			urls = append(urls, trimmed)
		}
	}
	return urls
}

func parseIssueQuery(c *fiber.Ctx) repository.IssueFilter {
	filter := repository.IssueFilter{}
	if category := c.Query("category"); category != "" {
		filter.Category = &category
	}
	if statusStr := c.Query("status"); statusStr != "" {
		status := domain.IssueStatus(statusStr)
		filter.Status = &status
	}
	if ward := c.Query("ward"); ward != "" {
		filter.WardNumber = &ward
	}
	if district := c.Query("district"); district != "" {
		filter.District = &district
	}
	if search := c.Query("search"); search != "" {
		filter.SearchTerm = &search
	}
	filter.SortBy = c.Query("sort_by", repository.SortByVitality)
	filter.SortAsc = c.Query("order") == "asc"

	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func issueSummary(issue *domain.Issue) dto.IssueSummary {
	return dto.IssueSummary{
		ID:                issue.ID,
		Title:             issue.Title,
		Category:          issue.Category,
		Severity:          issue.Severity,
		Status:            issue.Status,
		Location:          issue.Location,
		WardNumber:        issue.WardNumber,
		District:          issue.District,
		State:             issue.State,
		VitalityScore:     issue.VitalityScore,
		VoteCount:         issue.VoteCount,
		CommentCount:      issue.CommentCount,
		SupportPercentage: issue.SupportPercentage,
		EscalationTier:    issue.EscalationTier,
		CreatedAt:         issue.CreatedAt,
		UpdatedAt:         issue.UpdatedAt,
	}
}

func issueSummaries(issues []domain.Issue) []dto.IssueSummary {
	items := make([]dto.IssueSummary, 0, len(issues))
	for i := range issues {
		items = append(items, issueSummary(&issues[i]))
	}
	return items
}

func issueDetail(details *service.IssueDetails) dto.IssueDetailResponse {
	issue := details.Issue
	resp := dto.IssueDetailResponse{
		IssueSummary: issueSummary(issue),
		Description:  issue.Description,
		Latitude:     issue.Latitude,
		Longitude:    issue.Longitude,
		MediaURLs:    issue.MediaURLs,
		IsAnonymous:  issue.IsAnonymous,
		AssignedTo:   issue.AssignedTo,
		ResolvedAt:   issue.ResolvedAt,
	}
	if !issue.IsAnonymous {
		creator := issue.CreatedBy
		resp.CreatedBy = &creator
	}
	for _, comment := range details.Comments {
		resp.Comments = append(resp.Comments, commentResponse(comment))
	}
	for _, update := range details.StatusUpdates {
		resp.StatusUpdates = append(resp.StatusUpdates, dto.StatusUpdateResponse{
			ID:        update.ID,
			UserID:    update.UserID,
			Status:    update.Status,
			Message:   update.Message,
			CreatedAt: update.CreatedAt,
		})
	}
	return resp
}

func commentResponse(comment domain.Comment) dto.CommentResponse {
	resp := dto.CommentResponse{
		ID:          comment.ID,
		Content:     comment.Content,
		IsAnonymous: comment.IsAnonymous,
		CreatedAt:   comment.CreatedAt,
	}
	if !comment.IsAnonymous {
		author := comment.UserID
		resp.UserID = &author
	}
	return resp
}
