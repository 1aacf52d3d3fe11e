package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ai-resume-generator/internal/domain"
	"ai-resume-generator/pkg/ai"
	"ai-resume-generator/pkg/infrastructure"
)

type Enhancer interface {
	Enhance(ctx context.Context, record domain.ResumeRecord) ai.Enhancement
}

type TemplateRenderer interface {
	Render(id domain.TemplateID, record domain.ResumeRecord) (string, error)
}

type BrowserLauncher interface {
	Launch(ctx context.Context) (infrastructure.Session, error)
}

type DocumentCompositor interface {
	Compose(ctx context.Context, s infrastructure.Session, markup string) ([]byte, error)
}

type GenerationsRepo interface {
	Save(ctx context.Context, g *domain.GenerationRecord) error
}

// Deps are the collaborators of a Pipeline. Repo and Logger are optional.
type Deps struct {
	Enhancer   Enhancer
	Renderer   TemplateRenderer
	Launcher   BrowserLauncher
	Compositor DocumentCompositor
	Repo       GenerationsRepo
	Logger     *slog.Logger
}

// Request is one document generation request.
type Request struct {
	TemplateID domain.TemplateID
	Record     domain.ResumeRecord
}

// Pipeline turns a resume record into a PDF: enhance, render, launch a
// dedicated browser, compose. Each call is independent; nothing is shared
// between calls except the read-only collaborators.
type Pipeline struct {
	deps Deps
	log  *slog.Logger
	now  func() time.Time
}

func NewPipeline(deps Deps) *Pipeline {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{deps: deps, log: log, now: time.Now}
}

// invocation carries the state of one Generate call.
type invocation struct {
	log    *slog.Logger
	stage  domain.Stage
	record domain.GenerationRecord
}

func (inv *invocation) enter(s domain.Stage) {
	inv.stage = s
	inv.log.Debug("pipeline: stage", "stage", string(s))
}

func (inv *invocation) fail(kind domain.ErrorKind, msg string, err error) *domain.GenerationError {
	gerr := domain.NewError(inv.stage, kind, msg, err)
	inv.record.FailedStage = inv.stage
	inv.record.ErrorKind = kind
	inv.stage = domain.StageFailed
	return gerr
}

// Generate runs the state machine for one request. Errors are always
// *domain.GenerationError.
func (p *Pipeline) Generate(ctx context.Context, req Request) (doc *domain.GeneratedDocument, err error) {
	start := p.now()
	req.TemplateID = req.TemplateID.Normalize()
	id := uuid.New()
	inv := &invocation{
		log:    p.log.With("request_id", id.String(), "template_id", string(req.TemplateID)),
		record: domain.GenerationRecord{ID: id, TemplateID: req.TemplateID, CreatedAt: start.UTC()},
	}
	inv.enter(domain.StageReceived)

	defer func() {
		inv.record.Duration = p.now().Sub(start)
		inv.record.Status = inv.stage
		if err != nil {
			inv.log.Error("pipeline: generation failed", "failed_stage", string(inv.record.FailedStage),
				"error_kind", string(inv.record.ErrorKind), "error", err)
		} else {
			inv.log.Info("pipeline: generation done", "bytes", inv.record.Bytes,
				"enhanced", inv.record.Enhanced, "duration", inv.record.Duration)
		}
		p.audit(ctx, inv)
	}()

	if req.Record.IsEmpty() {
		return nil, inv.fail(domain.KindMissingInput, "No resume data received", nil)
	}
	if req.TemplateID == "" {
		return nil, inv.fail(domain.KindMissingInput, "No template selected", nil)
	}
	if !req.TemplateID.Valid() {
		return nil, inv.fail(domain.KindInvalidTemplate, "Invalid template id", nil)
	}

	inv.enter(domain.StageEnhancing)
	enh := p.deps.Enhancer.Enhance(ctx, req.Record)
	inv.record.Enhanced = enh.Enhanced()
	inv.record.EnhancementReason = string(enh.Reason)

	inv.enter(domain.StageRendering)
	markup, rerr := p.deps.Renderer.Render(req.TemplateID, enh.Record)
	if rerr != nil {
		var gerr *domain.GenerationError
		if errors.As(rerr, &gerr) {
			return nil, inv.fail(gerr.Kind, gerr.Message, gerr.Err)
		}
		return nil, inv.fail(domain.KindRenderFailed, "Template rendering failed", rerr)
	}

	inv.enter(domain.StageLaunching)
	session, lerr := p.deps.Launcher.Launch(ctx)
	if lerr != nil {
		return nil, inv.fail(domain.KindBrowserUnavailable, "Browser could not be started", lerr)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			inv.log.Warn("pipeline: browser close failed", "error", cerr)
		}
	}()

	inv.enter(domain.StageComposing)
	pdf, cerr := p.deps.Compositor.Compose(ctx, session, markup)
	if cerr != nil {
		if errors.Is(cerr, infrastructure.ErrRenderTimeout) {
			return nil, inv.fail(domain.KindRenderTimeout, "Rendering timed out", cerr)
		}
		return nil, inv.fail(domain.KindRenderFailed, "PDF export failed", cerr)
	}

	inv.enter(domain.StageDone)
	inv.record.Bytes = len(pdf)
	return &domain.GeneratedDocument{
		PDF:               pdf,
		Filename:          req.Record.SuggestedFilename(),
		Enhanced:          enh.Enhanced(),
		EnhancementReason: string(enh.Reason),
	}, nil
}

// audit stores the record without letting a slow or failing database
// affect the response.
func (p *Pipeline) audit(ctx context.Context, inv *invocation) {
	if p.deps.Repo == nil {
		return
	}
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := p.deps.Repo.Save(actx, &inv.record); err != nil {
		inv.log.Warn("pipeline: audit save failed", "error", err)
	}
}
