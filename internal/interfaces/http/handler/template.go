package handler

import (
	"io"

	appforms "github.com/formflow/backend/internal/application/forms"
	"github.com/formflow/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TemplateHandler handles template endpoints
type TemplateHandler struct {
	BaseHandler
	service *appforms.TemplateService
	logger  *zap.Logger
}

// NewTemplateHandler creates a new TemplateHandler
func NewTemplateHandler(service *appforms.TemplateService, logger *zap.Logger) *TemplateHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemplateHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers template routes
func (h *TemplateHandler) RegisterRoutes(rg *gin.RouterGroup) {
	templates := rg.Group("/templates")
	{
		templates.POST("", h.Create)
		templates.GET("", h.List)
		templates.GET("/:id", h.Get)
		templates.POST("/:id/clone", h.Clone)
		templates.GET("/:id/validate", h.Validate)
		templates.DELETE("/:id", h.Delete)
	}
}

// Create uploads a new template. Text templates arrive as JSON; document
// templates arrive as multipart form data with the file under "file".
func (h *TemplateHandler) Create(c *gin.Context) {
	req, ok := h.bindCreateRequest(c)
	if !ok {
		return
	}

	resp, err := h.service.CreateTemplate(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

func (h *TemplateHandler) bindCreateRequest(c *gin.Context) (appforms.CreateTemplateRequest, bool) {
	var req appforms.CreateTemplateRequest

	if c.ContentType() != "multipart/form-data" {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.Error(c, 400, dto.ErrCodeInvalidJSON, "Invalid request body: "+err.Error())
			return req, false
		}
		return req, true
	}

	req.Name = c.PostForm("name")
	req.FormType = c.PostForm("formType")
	req.Body = c.PostForm("body")
	req.IsUniversal = c.PostForm("isUniversal") == "true"

	if file, err := c.FormFile("file"); err == nil {
		opened, err := file.Open()
		if err != nil {
			h.BadRequest(c, "Failed to read uploaded file")
			return req, false
		}
		defer opened.Close()

		payload, err := io.ReadAll(opened)
		if err != nil {
			h.BadRequest(c, "Failed to read uploaded file")
			return req, false
		}
		req.BinaryPayload = payload
		if req.Name == "" {
			req.Name = file.Filename
		}
	}

	if req.Name == "" || req.FormType == "" {
		h.BadRequest(c, "name and formType are required")
		return req, false
	}
	return req, true
}

// Get returns one template
func (h *TemplateHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	resp, err := h.service.GetTemplate(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// List returns all templates
func (h *TemplateHandler) List(c *gin.Context) {
	resp, err := h.service.ListTemplates(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Clone copies a template under a new name
func (h *TemplateHandler) Clone(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req appforms.CloneTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, 400, dto.ErrCodeInvalidJSON, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.service.CloneTemplate(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// Validate returns placeholder warnings for a template
func (h *TemplateHandler) Validate(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	resp, err := h.service.ValidateTemplate(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Delete removes a template
func (h *TemplateHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteTemplate(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

func (h *TemplateHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid template ID")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		h.BadRequest(c, "Invalid template ID")
		return uuid.Nil, false
	}
	return id, true
}
