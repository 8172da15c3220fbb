package docgen

import (
	"context"
	"fmt"
	"time"
)

// RenderRequest contains the parameters for rendering resolved text into
// the final artifact
type RenderRequest struct {
	// HTML content to render
	HTML string
	// Title for the document metadata
	Title string
	// Timeout overrides the default rendering timeout
	Timeout time.Duration
}

// RenderResult contains the output from artifact rendering
type RenderResult struct {
	// Data is the raw artifact content
	Data []byte
	// ContentType of the artifact
	ContentType string
	// RenderDuration is how long the rendering took
	RenderDuration time.Duration
}

// ArtifactRenderer defines the interface for producing the deliverable
// artifact from resolved document text
type ArtifactRenderer interface {
	// Render converts resolved HTML content to the final artifact
	Render(ctx context.Context, req *RenderRequest) (*RenderResult, error)
	// Close releases any resources held by the renderer
	Close() error
}

// RenderError represents an error during artifact rendering
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Error codes for rendering failures
const (
	ErrCodeRenderTimeout = "RENDER_TIMEOUT"
	ErrCodeRenderFailed  = "RENDER_FAILED"
	ErrCodeInvalidHTML   = "INVALID_HTML"
)

// NewRenderError creates a new RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// FallbackRenderer produces a clearly labeled plain-text placeholder
// artifact when no high-fidelity renderer is wired up. It keeps every
// downstream distribution channel operational.
type FallbackRenderer struct{}

// NewFallbackRenderer creates a placeholder artifact renderer
func NewFallbackRenderer() *FallbackRenderer {
	return &FallbackRenderer{}
}

// Render wraps the resolved content in a labeled plain-text payload
func (r *FallbackRenderer) Render(ctx context.Context, req *RenderRequest) (*RenderResult, error) {
	if req == nil || req.HTML == "" {
		return nil, NewRenderError(ErrCodeInvalidHTML, "render content is empty", nil)
	}

	start := time.Now()
	payload := fmt.Sprintf(
		"PLACEHOLDER ARTIFACT (no document renderer configured)\nTitle: %s\nGenerated: %s\n\n%s\n",
		req.Title, start.Format(time.RFC3339), req.HTML)

	return &RenderResult{
		Data:           []byte(payload),
		ContentType:    "text/plain; charset=utf-8",
		RenderDuration: time.Since(start),
	}, nil
}

// Close is a no-op for the fallback renderer
func (r *FallbackRenderer) Close() error { return nil }

// Ensure FallbackRenderer implements ArtifactRenderer
var _ ArtifactRenderer = (*FallbackRenderer)(nil)
