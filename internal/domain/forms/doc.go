// Package forms contains the domain model for the forms pipeline:
// templates with derived placeholders, submissions with their
// distribution status, and the enums and selection policy shared by the
// application services.
package forms
