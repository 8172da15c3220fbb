package docgen

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/formflow/backend/internal/domain/forms"
	"github.com/formflow/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Pipeline stage names, in execution order
const (
	StageValidate    = "validate"
	StageNormalize   = "normalize"
	StageInterpolate = "interpolate"
	StageRender      = "render"
)

// Artifact is the deliverable produced by a pipeline run
type Artifact struct {
	// Data is the final byte blob handed to distribution channels
	Data []byte
	// ContentType of the blob
	ContentType string
	// FileName suggested for delivery
	FileName string
	// RenderDuration is how long the render stage took
	RenderDuration time.Duration
}

// IsEmpty reports whether the artifact carries no data
func (a *Artifact) IsEmpty() bool {
	return a == nil || len(a.Data) == 0
}

// Extension returns the file extension matching the artifact content type
func (a *Artifact) Extension() string {
	if strings.HasPrefix(a.ContentType, "application/pdf") {
		return ".pdf"
	}
	return ".txt"
}

// Pipeline converts an editable template plus submission data into the
// final artifact. Stages run in order; the first failing stage stops the
// run and its error is reported as a *shared.ConversionError naming the
// stage.
type Pipeline struct {
	engine   *Engine
	renderer ArtifactRenderer
	logger   *zap.Logger
}

// PipelineOption configures the pipeline
type PipelineOption func(*Pipeline)

// WithRenderer sets the artifact renderer. Without one the pipeline
// falls back to the placeholder renderer so downstream channels stay
// operational.
func WithRenderer(renderer ArtifactRenderer) PipelineOption {
	return func(p *Pipeline) {
		p.renderer = renderer
	}
}

// WithPipelineLogger sets the pipeline logger
func WithPipelineLogger(logger *zap.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// NewPipeline creates a conversion pipeline
func NewPipeline(engine *Engine, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		engine:   engine,
		renderer: NewFallbackRenderer(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Convert runs all stages for one submission against one template
func (p *Pipeline) Convert(ctx context.Context, template *forms.Template, submission *forms.Submission) (*Artifact, error) {
	// Stage 1: binary validation. Text-only templates skip this stage.
	if template.HasBinaryPayload() && !IsDocumentContainer(template.BinaryPayload) {
		return nil, shared.NewConversionError(StageValidate, "binary payload rejected",
			shared.NewValidationError("not a supported document container"))
	}

	// Stage 2: normalize to intermediate text.
	text := template.Body
	if template.HasBinaryPayload() {
		extracted, err := ExtractDocumentText(template.BinaryPayload)
		if err != nil {
			return nil, shared.NewConversionError(StageNormalize, "failed to extract document text", err)
		}
		text = extracted
	}

	// Stage 3: interpolate. The engine is total; missing values resolve
	// to empty strings, so an all-placeholder template over sparse data
	// legitimately yields an empty document and conversion proceeds.
	resolved := p.engine.Interpolate(text, submission.FieldData)

	// Stage 4: render the final artifact.
	result, err := p.renderer.Render(ctx, &RenderRequest{
		HTML:  wrapDocumentHTML(submission.Title, resolved),
		Title: submission.Title,
	})
	if err != nil {
		return nil, shared.NewConversionError(StageRender, "artifact rendering failed", err)
	}

	artifact := &Artifact{
		Data:           result.Data,
		ContentType:    result.ContentType,
		RenderDuration: result.RenderDuration,
	}
	artifact.FileName = submission.ID.String() + artifact.Extension()

	p.logger.Info("document converted",
		zap.String("submissionId", submission.ID.String()),
		zap.String("templateId", template.ID.String()),
		zap.Int("bytes", len(artifact.Data)),
		zap.Duration("renderDuration", artifact.RenderDuration))

	return artifact, nil
}

// wrapDocumentHTML wraps resolved text in a minimal printable HTML page
func wrapDocumentHTML(title, text string) string {
	var body strings.Builder
	for _, line := range strings.Split(text, "\n") {
		body.WriteString("<p>")
		body.WriteString(html.EscapeString(line))
		body.WriteString("</p>\n")
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>%s</title>
<style>body { font-family: sans-serif; font-size: 12px; }</style>
</head>
<body>
%s</body>
</html>`, html.EscapeString(title), body.String())
}
