package ai

import (
	"context"
	"errors"
	"log/slog"

	"ai-resume-generator/internal/domain"
	"ai-resume-generator/internal/model"
)

// TextGenerator turns a prompt into free-form text.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Outcome says which content an Enhancement carries.
type Outcome int

const (
	// OutcomeOriginal: the input record is returned untouched.
	OutcomeOriginal Outcome = iota
	// OutcomeEnhanced: values were rewritten by the AI service.
	OutcomeEnhanced
)

func (o Outcome) String() string {
	if o == OutcomeEnhanced {
		return "enhanced"
	}
	return "original"
}

// FallbackReason explains an OutcomeOriginal.
type FallbackReason string

const (
	ReasonNone      FallbackReason = ""
	ReasonDisabled  FallbackReason = "disabled"
	ReasonTransport FallbackReason = "transport"
	ReasonNoJSON    FallbackReason = "no_json"
	ReasonParse     FallbackReason = "parse"
	ReasonNotObject FallbackReason = "not_object"
	ReasonShape     FallbackReason = "shape"
	ReasonSchema    FallbackReason = "schema"
	ReasonInternal  FallbackReason = "internal"
)

// Enhancement is the result of Enhance. It is never an error: a failed rewrite
// is an OutcomeOriginal carrying the input record and the reason.
type Enhancement struct {
	Record  domain.ResumeRecord
	Outcome Outcome
	Reason  FallbackReason
	// Err is the underlying diagnostic for logs; never shown to callers.
	Err error
}

// Enhanced reports whether Record holds AI-rewritten content.
func (e Enhancement) Enhanced() bool { return e.Outcome == OutcomeEnhanced }

// Enhancer rewrites resume prose through an external text generator.
type Enhancer struct {
	gen TextGenerator
	log *slog.Logger
}

// NewEnhancer returns an Enhancer. A nil generator disables enhancement.
func NewEnhancer(gen TextGenerator, log *slog.Logger) *Enhancer {
	if log == nil {
		log = slog.Default()
	}
	return &Enhancer{gen: gen, log: log}
}

// Enhance returns the rewritten record, or the input record itself when
// anything goes wrong. Internal bookkeeping fields never leave the process
// and are carried over unchanged into an enhanced record.
func (e *Enhancer) Enhance(ctx context.Context, record domain.ResumeRecord) Enhancement {
	if e.gen == nil {
		return e.fallback(record, ReasonDisabled, nil)
	}

	public, internal := record.StripInternal()
	// Round-trip so the shape comparison sees the same JSON types the
	// service will send back.
	sent, err := public.Clone()
	if err != nil {
		return e.fallback(record, ReasonInternal, err)
	}
	prompt, err := BuildRewritePrompt(sent)
	if err != nil {
		return e.fallback(record, ReasonInternal, err)
	}

	text, err := e.gen.Generate(ctx, prompt)
	if err != nil {
		return e.fallback(record, ReasonTransport, err)
	}

	out, err := ExtractJSONObject(text)
	switch {
	case errors.Is(err, ErrNoJSON):
		return e.fallback(record, ReasonNoJSON, err)
	case errors.Is(err, ErrNotObject):
		return e.fallback(record, ReasonNotObject, err)
	case err != nil:
		return e.fallback(record, ReasonParse, err)
	}

	if ok, path := domain.SameShape(map[string]interface{}(sent), out); !ok {
		return e.fallback(record, ReasonShape, errors.New("key structure changed at "+path))
	}
	if model.ValidateRecord(sent) == nil {
		if err := model.ValidateRecord(out); err != nil {
			return e.fallback(record, ReasonSchema, err)
		}
	}

	internal.Restore(out)
	e.log.Debug("ai: resume enhanced", "prompt_bytes", len(prompt), "response_bytes", len(text))
	return Enhancement{Record: domain.ResumeRecord(out), Outcome: OutcomeEnhanced}
}

func (e *Enhancer) fallback(record domain.ResumeRecord, reason FallbackReason, err error) Enhancement {
	if reason == ReasonDisabled {
		e.log.Info("ai: enhancement disabled, using original content")
	} else {
		e.log.Warn("ai: enhancement failed, using original content", "reason", string(reason), "error", err)
	}
	return Enhancement{Record: record, Outcome: OutcomeOriginal, Reason: reason, Err: err}
}
