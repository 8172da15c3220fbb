// Package docgen implements the document generation half of the forms
// pipeline: interpolation of submission data into template text, the
// staged conversion pipeline (validate, normalize, interpolate, render)
// and the renderers that produce the final artifact.
package docgen
