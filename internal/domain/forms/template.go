package forms

import (
	"regexp"
	"strings"

	"github.com/formflow/backend/internal/domain/shared"
)

// placeholderPattern matches {{name}} tokens in template text. The inner
// group is permissive on purpose: malformed names are still extracted and
// flagged as warnings by ValidatePlaceholders rather than rejected.
var placeholderPattern = regexp.MustCompile(`\{\{\s*([^{}\s][^{}]*?)\s*\}\}`)

// placeholderNamePattern is the conforming shape for a placeholder name.
var placeholderNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// AllFormDataPlaceholder is the reserved aggregate placeholder. When
// present in a template body it is replaced with a label/value table of
// every top-level field.
const AllFormDataPlaceholder = "ALL_FORM_DATA"

// Template is an immutable document template. Exactly one of Body and
// BinaryPayload is present; Placeholders is derived from Body at upload
// time. Content never changes after creation: edits clone into a new
// Template.
type Template struct {
	shared.BaseEntity
	Name          string   `json:"name"`
	FormType      string   `json:"formType"`
	Body          string   `json:"body,omitempty"`
	BinaryPayload []byte   `json:"binaryPayload,omitempty"`
	Placeholders  []string `json:"placeholders"`
	IsUniversal   bool     `json:"isUniversal"`
	UsageCount    int      `json:"usageCount"`
}

// NewTemplate creates a template from uploaded content. Content is parsed
// immediately: placeholders are extracted from the body and the
// body/binary invariant is enforced.
func NewTemplate(name, formType, body string, binaryPayload []byte, isUniversal bool) (*Template, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError("template name cannot be empty")
	}
	formType = strings.TrimSpace(formType)
	if formType == "" {
		return nil, shared.NewValidationError("template form type cannot be empty")
	}

	hasBody := strings.TrimSpace(body) != ""
	hasBinary := len(binaryPayload) > 0
	if hasBody == hasBinary {
		return nil, shared.NewValidationError("template requires exactly one of body or binary payload")
	}

	return &Template{
		BaseEntity:    shared.NewBaseEntity(),
		Name:          name,
		FormType:      formType,
		Body:          body,
		BinaryPayload: binaryPayload,
		Placeholders:  ExtractPlaceholders(body),
		IsUniversal:   isUniversal || formType == FormTypeUniversal,
	}, nil
}

// Clone creates a new template with the same content under a new name.
// This is the only way to "edit" a template.
func (t *Template) Clone(name string) (*Template, error) {
	clone, err := NewTemplate(name, t.FormType, t.Body, t.BinaryPayload, t.IsUniversal)
	if err != nil {
		return nil, err
	}
	return clone, nil
}

// HasBinaryPayload reports whether this is a binary (editable-document)
// template rather than a plain text one.
func (t *Template) HasBinaryPayload() bool {
	return len(t.BinaryPayload) > 0
}

// AppliesTo reports whether the template can serve the given form type.
func (t *Template) AppliesTo(formType string) bool {
	return t.IsUniversal || t.FormType == formType
}

// RecordUsage bumps the usage counter kept for document-style templates.
func (t *Template) RecordUsage() {
	t.UsageCount++
	t.Touch()
}

// ValidatePlaceholders returns author-time warnings for placeholders that
// do not conform to the expected name shape. Non-conforming names are
// warnings, not hard errors; generation still substitutes them.
func (t *Template) ValidatePlaceholders() []string {
	var warnings []string
	for _, name := range t.Placeholders {
		if !placeholderNamePattern.MatchString(name) {
			warnings = append(warnings, "placeholder "+name+" does not match ^[A-Za-z][A-Za-z0-9_]*$")
		}
	}
	return warnings
}

// ExtractPlaceholders scans body text for {{name}} tokens and returns the
// distinct names in order of first appearance. Names are trimmed and
// case-sensitive.
func ExtractPlaceholders(body string) []string {
	matches := placeholderPattern.FindAllStringSubmatch(body, -1)
	seen := make(map[string]bool, len(matches))
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		name := strings.TrimSpace(m[1])
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// SelectTemplate applies the automatic distribution selection policy:
// the first template whose form type matches exactly, else the first
// universal template, else nil. A nil result is not an error: the caller
// skips distribution.
func SelectTemplate(templates []Template, formType string) *Template {
	for i := range templates {
		if templates[i].FormType == formType {
			return &templates[i]
		}
	}
	for i := range templates {
		if templates[i].IsUniversal {
			return &templates[i]
		}
	}
	return nil
}
