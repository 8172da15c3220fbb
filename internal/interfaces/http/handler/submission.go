package handler

import (
	appforms "github.com/formflow/backend/internal/application/forms"
	"github.com/formflow/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SubmissionHandler handles submission endpoints
type SubmissionHandler struct {
	BaseHandler
	service *appforms.SubmissionService
	logger  *zap.Logger
}

// NewSubmissionHandler creates a new SubmissionHandler
func NewSubmissionHandler(service *appforms.SubmissionService, logger *zap.Logger) *SubmissionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers submission routes
func (h *SubmissionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	submissions := rg.Group("/submissions")
	{
		submissions.POST("", h.Create)
		submissions.GET("", h.List)
		submissions.GET("/:id", h.Get)
		submissions.POST("/:id/complete", h.Complete)
		submissions.DELETE("/:id", h.Delete)
	}
}

// Create accepts a filled form. The submission is persisted before this
// returns; document generation and distribution continue in the
// background, so the response is 202.
func (h *SubmissionHandler) Create(c *gin.Context) {
	var req appforms.CreateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, 400, dto.ErrCodeInvalidJSON, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.service.CreateSubmission(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Accepted(c, resp)
}

// Get returns one submission including its distribution status
func (h *SubmissionHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	resp, err := h.service.GetSubmission(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// List returns all submissions
func (h *SubmissionHandler) List(c *gin.Context) {
	resp, err := h.service.ListSubmissions(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Complete transitions a submission to completed
func (h *SubmissionHandler) Complete(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	resp, err := h.service.CompleteSubmission(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Delete removes a submission
func (h *SubmissionHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteSubmission(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

func (h *SubmissionHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid submission ID")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		h.BadRequest(c, "Invalid submission ID")
		return uuid.Nil, false
	}
	return id, true
}
