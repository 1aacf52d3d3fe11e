package domain

import (
	"regexp"
	"strings"
)

// TemplateID names one of the pre-authored resume templates, e.g. "modern".
type TemplateID string

const (
	TemplateModern    TemplateID = "modern"
	TemplateCreative  TemplateID = "creative"
	TemplateExecutive TemplateID = "executive"
)

var templateIDPattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// Valid reports whether the identifier is syntactically usable as a template
// file name. It says nothing about whether the template exists.
func (t TemplateID) Valid() bool { return templateIDPattern.MatchString(string(t)) }

// Normalize trims surrounding space and lower-cases the identifier, so
// "Executive" selects executive.html.
func (t TemplateID) Normalize() TemplateID {
	return TemplateID(strings.ToLower(strings.TrimSpace(string(t))))
}

// GeneratedDocument is the finished artifact handed back to the caller.
type GeneratedDocument struct {
	PDF      []byte
	Filename string
	// Enhanced is false when the AI rewrite was skipped and the original
	// content was rendered instead; EnhancementReason then says why.
	Enhanced          bool
	EnhancementReason string
}
