package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-resume-generator/internal/domain"
	"ai-resume-generator/internal/logging"
	"ai-resume-generator/internal/usecase"
)

type fakeGenerator struct {
	doc  *domain.GeneratedDocument
	err  error
	last usecase.Request
}

func (g *fakeGenerator) Generate(_ context.Context, req usecase.Request) (*domain.GeneratedDocument, error) {
	g.last = req
	return g.doc, g.err
}

type fakeTemplates struct {
	ids []domain.TemplateID
	err error
}

func (f fakeTemplates) Templates() ([]domain.TemplateID, error) { return f.ids, f.err }

func newApp(g Generator, expose bool) *fiber.App {
	app := fiber.New()
	NewHandler(g, fakeTemplates{ids: []domain.TemplateID{"creative", "executive", "modern"}}, expose, logging.Discard()).Register(app)
	return app
}

func post(t *testing.T, app *fiber.App, body string) (int, nethttp.Header, []byte) {
	t.Helper()
	req := httptest.NewRequest("POST", "/ai/generate-resume", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, resp.Header, b
}

func TestGenerateResume_Success(t *testing.T) {
	g := &fakeGenerator{doc: &domain.GeneratedDocument{
		PDF:      []byte("%PDF-1.7 body"),
		Filename: "Jane_Doe_Resume.pdf",
		Enhanced: true,
	}}
	app := newApp(g, false)

	status, headers, body := post(t, app, `{"templateId":"executive","resumeData":{"fullname":"Jane Doe","email":"jane@example.com","technicalSkills":["Go"]}}`)

	assert.Equal(t, 200, status)
	assert.Equal(t, "application/pdf", headers.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="Jane_Doe_Resume.pdf"`, headers.Get("Content-Disposition"))
	assert.Equal(t, "true", headers.Get(HeaderEnhanced))
	assert.Empty(t, headers.Get(HeaderEnhancementReason))
	assert.Equal(t, "%PDF-1.7 body", string(body))

	assert.Equal(t, domain.TemplateExecutive, g.last.TemplateID)
	assert.Equal(t, "Jane Doe", g.last.Record.FullName())
}

func TestGenerateResume_LegacyTemplateFieldAndFallbackHeader(t *testing.T) {
	g := &fakeGenerator{doc: &domain.GeneratedDocument{
		PDF:               []byte("%PDF-"),
		Filename:          "Resume.pdf",
		EnhancementReason: "transport",
	}}
	app := newApp(g, false)

	status, headers, _ := post(t, app, `{"template":"modern","resumeData":{"email":"a@b.c"}}`)

	assert.Equal(t, 200, status)
	assert.Equal(t, domain.TemplateModern, g.last.TemplateID)
	assert.Equal(t, "false", headers.Get(HeaderEnhanced))
	assert.Equal(t, "transport", headers.Get(HeaderEnhancementReason))
}

func TestGenerateResume_Errors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		expose  bool
		status  int
		message string
	}{
		{
			name:    "missing input",
			err:     domain.NewError(domain.StageReceived, domain.KindMissingInput, "No resume data received", nil),
			status:  400,
			message: "No resume data received",
		},
		{
			name:    "template not found",
			err:     domain.NewError(domain.StageRendering, domain.KindTemplateNotFound, `template "x" not found`, errors.New("stat templates/x.html: no such file")),
			expose:  true,
			status:  500,
			message: `template "x" not found`,
		},
		{
			name:    "browser unavailable",
			err:     domain.NewError(domain.StageLaunching, domain.KindBrowserUnavailable, "Browser could not be started", errors.New("exec failed")),
			status:  503,
			message: "Browser could not be started",
		},
		{
			name:    "render timeout",
			err:     domain.NewError(domain.StageComposing, domain.KindRenderTimeout, "Rendering timed out", nil),
			status:  504,
			message: "Rendering timed out",
		},
		{
			name:    "unclassified",
			err:     errors.New("boom"),
			expose:  true,
			status:  500,
			message: "Resume generation failed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp(&fakeGenerator{err: tt.err}, tt.expose)

			status, _, body := post(t, app, `{"templateId":"x","resumeData":{"fullname":"J"}}`)

			assert.Equal(t, tt.status, status)
			var out map[string]string
			require.NoError(t, json.Unmarshal(body, &out))
			assert.Equal(t, tt.message, out["message"])
			if tt.expose {
				assert.Equal(t, tt.err.Error(), out["error"])
			} else {
				assert.NotContains(t, out, "error")
			}
		})
	}
}

func TestGenerateResume_MalformedBody(t *testing.T) {
	g := &fakeGenerator{}
	app := newApp(g, false)

	status, _, body := post(t, app, `{"templateId":`)

	assert.Equal(t, 400, status)
	assert.JSONEq(t, `{"message":"invalid payload"}`, string(body))
	assert.Empty(t, g.last.TemplateID, "generator is not called")
}

func TestHealth(t *testing.T) {
	app := newApp(&fakeGenerator{}, false)

	resp, err := app.Test(httptest.NewRequest("GET", "/healthz", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)

	assert.Equal(t, 200, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok","templates":["creative","executive","modern"]}`, string(b))
}

func TestHealth_TemplatesDirMissing(t *testing.T) {
	app := fiber.New()
	NewHandler(&fakeGenerator{}, fakeTemplates{err: errors.New("render: list templates: no such directory")}, false, logging.Discard()).Register(app)

	resp, err := app.Test(httptest.NewRequest("GET", "/healthz", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 503, resp.StatusCode)
}
