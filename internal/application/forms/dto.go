package forms

import (
	"time"

	"github.com/formflow/backend/internal/domain/forms"
)

// CreateSubmissionRequest is the payload for submitting a filled form
type CreateSubmissionRequest struct {
	FormType    string          `json:"formType" binding:"required"`
	Title       string          `json:"title" binding:"required"`
	FieldData   map[string]any  `json:"fieldData"`
	FieldSchema []FieldDefInput `json:"fieldSchema,omitempty"`
}

// FieldDefInput is one field definition supplied with the submission
type FieldDefInput struct {
	Name     string   `json:"name" binding:"required"`
	Label    string   `json:"label,omitempty"`
	Type     string   `json:"type"`
	Required bool     `json:"required,omitempty"`
	Options  []string `json:"options,omitempty"`
}

// OutcomeResponse is one settled channel outcome
type OutcomeResponse struct {
	Channel     string    `json:"channel"`
	Status      string    `json:"status"`
	Detail      string    `json:"detail,omitempty"`
	CompletedAt time.Time `json:"completedAt"`
}

// SubmissionResponse is the API representation of a submission
type SubmissionResponse struct {
	ID                 string                     `json:"id"`
	FormType           string                     `json:"formType"`
	Title              string                     `json:"title"`
	FieldData          map[string]any             `json:"fieldData"`
	Status             string                     `json:"status"`
	DistributionStatus map[string]OutcomeResponse `json:"distributionStatus"`
	CreatedAt          time.Time                  `json:"createdAt"`
	UpdatedAt          time.Time                  `json:"updatedAt"`
}

func toSubmissionResponse(s *forms.Submission) *SubmissionResponse {
	status := make(map[string]OutcomeResponse, len(s.DistributionStatus))
	for channel, outcome := range s.DistributionStatus {
		status[string(channel)] = OutcomeResponse{
			Channel:     string(outcome.Channel),
			Status:      string(outcome.Status),
			Detail:      outcome.Detail,
			CompletedAt: outcome.CompletedAt,
		}
	}
	return &SubmissionResponse{
		ID:                 s.ID.String(),
		FormType:           s.FormType,
		Title:              s.Title,
		FieldData:          s.FieldData,
		Status:             string(s.Status),
		DistributionStatus: status,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}

// CreateTemplateRequest is the payload for uploading a template. Exactly
// one of Body and BinaryPayload must be set.
type CreateTemplateRequest struct {
	Name          string `json:"name" binding:"required"`
	FormType      string `json:"formType" binding:"required"`
	Body          string `json:"body,omitempty"`
	BinaryPayload []byte `json:"binaryPayload,omitempty"`
	IsUniversal   bool   `json:"isUniversal,omitempty"`
}

// CloneTemplateRequest is the payload for cloning a template under a new
// name
type CloneTemplateRequest struct {
	Name string `json:"name" binding:"required"`
}

// TemplateResponse is the API representation of a template. Binary
// payloads are not echoed back; HasBinaryPayload flags their presence.
type TemplateResponse struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	FormType         string    `json:"formType"`
	Body             string    `json:"body,omitempty"`
	HasBinaryPayload bool      `json:"hasBinaryPayload"`
	Placeholders     []string  `json:"placeholders"`
	IsUniversal      bool      `json:"isUniversal"`
	UsageCount       int       `json:"usageCount"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func toTemplateResponse(t *forms.Template) *TemplateResponse {
	return &TemplateResponse{
		ID:               t.ID.String(),
		Name:             t.Name,
		FormType:         t.FormType,
		Body:             t.Body,
		HasBinaryPayload: t.HasBinaryPayload(),
		Placeholders:     t.Placeholders,
		IsUniversal:      t.IsUniversal,
		UsageCount:       t.UsageCount,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

// ValidateTemplateResponse carries author-time placeholder warnings
type ValidateTemplateResponse struct {
	Valid    bool     `json:"valid"`
	Warnings []string `json:"warnings,omitempty"`
}
