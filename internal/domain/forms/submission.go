package forms

import (
	"strings"
	"time"

	"github.com/formflow/backend/internal/domain/shared"
)

// FieldDef is one field definition from the schema in effect at submit
// time. The snapshot is stored for audit and repeat use; it is never
// re-validated after submission.
type FieldDef struct {
	Name     string    `json:"name"`
	Label    string    `json:"label,omitempty"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required,omitempty"`
	Options  []string  `json:"options,omitempty"`
}

// DistributionOutcome is the settled result of one channel for one
// pipeline run. It is immutable after creation.
type DistributionOutcome struct {
	Channel     ChannelType   `json:"channel"`
	Status      OutcomeStatus `json:"status"`
	Detail      string        `json:"detail,omitempty"`
	CompletedAt time.Time     `json:"completedAt"`
}

// SucceededOutcome creates a succeeded outcome for a channel
func SucceededOutcome(channel ChannelType, detail string) DistributionOutcome {
	return DistributionOutcome{
		Channel:     channel,
		Status:      OutcomeSucceeded,
		Detail:      detail,
		CompletedAt: time.Now(),
	}
}

// FailedOutcome creates a failed outcome for a channel
func FailedOutcome(channel ChannelType, detail string) DistributionOutcome {
	return DistributionOutcome{
		Channel:     channel,
		Status:      OutcomeFailed,
		Detail:      detail,
		CompletedAt: time.Now(),
	}
}

// Submission is the aggregate root for one form submission and the
// correlation key for its whole pipeline run. It is exclusively owned by
// the submission service; collaborators read it but never mutate it.
type Submission struct {
	shared.BaseEntity
	FormType            string                              `json:"formType"`
	Title               string                              `json:"title"`
	FieldData           map[string]any                      `json:"fieldData"`
	FieldSchemaSnapshot []FieldDef                          `json:"fieldSchemaSnapshot,omitempty"`
	Status              SubmissionStatus                    `json:"status"`
	DistributionStatus  map[ChannelType]DistributionOutcome `json:"distributionStatus"`
}

// NewSubmission creates a submission in the submitted entry state with an
// empty distribution map (all channels implicitly pending).
func NewSubmission(formType, title string, fieldData map[string]any, schema []FieldDef) (*Submission, error) {
	formType = strings.TrimSpace(formType)
	if formType == "" {
		return nil, shared.NewValidationError("submission form type cannot be empty")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, shared.NewValidationError("submission title cannot be empty")
	}
	if fieldData == nil {
		fieldData = map[string]any{}
	}

	return &Submission{
		BaseEntity:          shared.NewBaseEntity(),
		FormType:            formType,
		Title:               title,
		FieldData:           fieldData,
		FieldSchemaSnapshot: schema,
		Status:              StatusSubmitted,
		DistributionStatus:  map[ChannelType]DistributionOutcome{},
	}, nil
}

// RecordOutcome merges one settled channel outcome. Each channel writes a
// disjoint key, so last-writer-wins per key is safe.
func (s *Submission) RecordOutcome(outcome DistributionOutcome) {
	if s.DistributionStatus == nil {
		s.DistributionStatus = map[ChannelType]DistributionOutcome{}
	}
	s.DistributionStatus[outcome.Channel] = outcome
	s.Touch()
}

// Complete transitions the submission to completed. This is an explicit
// administrative action; the pipeline never auto-completes a submission.
func (s *Submission) Complete() error {
	if !s.Status.CanTransitionTo(StatusCompleted) {
		return shared.NewDomainError("INVALID_STATE",
			"submission cannot be completed from status "+string(s.Status))
	}
	s.Status = StatusCompleted
	s.Touch()
	return nil
}

// StringField returns a top-level field as a trimmed string, or "" when
// absent or of another type.
func (s *Submission) StringField(name string) string {
	v, ok := s.FieldData[name]
	if !ok {
		return ""
	}
	str, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(str)
}

// StringListField returns a top-level field as a list of non-empty
// strings. A scalar string field is returned as a one-element list.
func (s *Submission) StringListField(name string) []string {
	v, ok := s.FieldData[name]
	if !ok {
		return nil
	}
	var out []string
	switch val := v.(type) {
	case string:
		if trimmed := strings.TrimSpace(val); trimmed != "" {
			out = append(out, trimmed)
		}
	case []any:
		for _, item := range val {
			if str, ok := item.(string); ok {
				if trimmed := strings.TrimSpace(str); trimmed != "" {
					out = append(out, trimmed)
				}
			}
		}
	case []string:
		for _, str := range val {
			if trimmed := strings.TrimSpace(str); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out
}
