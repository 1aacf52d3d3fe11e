package domain

import (
	"time"

	"github.com/google/uuid"
)

// Stage is a state of the per-request generation state machine.
type Stage string

const (
	StageReceived  Stage = "received"
	StageEnhancing Stage = "enhancing"
	StageRendering Stage = "rendering"
	StageLaunching Stage = "launching"
	StageComposing Stage = "composing"
	StageDone      Stage = "done"
	StageFailed    Stage = "failed"
)

// GenerationRecord is the audit row written for every pipeline invocation.
// It never carries resume content.
type GenerationRecord struct {
	ID                uuid.UUID     `json:"id"`
	TemplateID        TemplateID    `json:"template_id"`
	Status            Stage         `json:"status"`
	FailedStage       Stage         `json:"failed_stage,omitempty"`
	ErrorKind         ErrorKind     `json:"error_kind,omitempty"`
	Enhanced          bool          `json:"enhanced"`
	EnhancementReason string        `json:"enhancement_reason,omitempty"`
	Bytes             int           `json:"bytes"`
	Duration          time.Duration `json:"duration"`
	CreatedAt         time.Time     `json:"created_at"`
}
