package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"ai-resume-generator/internal/domain"
	"ai-resume-generator/internal/usecase"
)

// Generator produces a document for one request.
type Generator interface {
	Generate(ctx context.Context, req usecase.Request) (*domain.GeneratedDocument, error)
}

// TemplateLister reports the installed templates.
type TemplateLister interface {
	Templates() ([]domain.TemplateID, error)
}

const (
	HeaderEnhanced          = "X-AI-Enhanced"
	HeaderEnhancementReason = "X-AI-Enhancement-Reason"
)

type Handler struct {
	generator Generator
	templates TemplateLister
	// exposeErrors adds the diagnostic "error" field to failure bodies.
	exposeErrors bool
	log          *slog.Logger
}

func NewHandler(g Generator, t TemplateLister, exposeErrors bool, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{generator: g, templates: t, exposeErrors: exposeErrors, log: log}
}

// Register mounts the routes on app.
func (h *Handler) Register(app fiber.Router) {
	app.Post("/ai/generate-resume", h.GenerateResume)
	app.Get("/healthz", h.Health)
}

type generateReq struct {
	TemplateID string              `json:"templateId"`
	Template   string              `json:"template"`
	ResumeData domain.ResumeRecord `json:"resumeData"`
}

func (h *Handler) GenerateResume(c *fiber.Ctx) error {
	var req generateReq
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, domain.NewError(domain.StageReceived, domain.KindMissingInput, "invalid payload", err))
	}
	id := req.TemplateID
	if id == "" {
		id = req.Template
	}

	doc, err := h.generator.Generate(c.UserContext(), usecase.Request{
		TemplateID: domain.TemplateID(id),
		Record:     req.ResumeData,
	})
	if err != nil {
		return h.fail(c, err)
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", doc.Filename))
	c.Set(HeaderEnhanced, strconv.FormatBool(doc.Enhanced))
	if !doc.Enhanced && doc.EnhancementReason != "" {
		c.Set(HeaderEnhancementReason, doc.EnhancementReason)
	}
	return c.Status(fiber.StatusOK).Send(doc.PDF)
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	msg := "Resume generation failed"
	var gerr *domain.GenerationError
	if errors.As(err, &gerr) {
		status = gerr.HTTPStatus()
		msg = gerr.PublicMessage()
	} else {
		h.log.Error("http: unexpected error", "error", err)
	}

	body := fiber.Map{"message": msg}
	if h.exposeErrors {
		body["error"] = err.Error()
	}
	return c.Status(status).JSON(body)
}

func (h *Handler) Health(c *fiber.Ctx) error {
	ids, err := h.templates.Templates()
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "error": err.Error()})
	}
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, string(id))
	}
	return c.JSON(fiber.Map{"status": "ok", "templates": names})
}
