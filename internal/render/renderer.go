package render

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ai-resume-generator/internal/domain"
)

const templateExt = ".html"

// Registry resolves template identifiers to files in a directory and binds
// records to them.
type Registry struct {
	dir     string
	helpers *Helpers
}

// NewRegistry returns a Registry reading templates from dir. A nil helpers
// uses NewHelpers().
func NewRegistry(dir string, helpers *Helpers) *Registry {
	if helpers == nil {
		helpers = NewHelpers()
	}
	return &Registry{dir: dir, helpers: helpers}
}

// Dir returns the template directory.
func (r *Registry) Dir() string { return r.dir }

// Path returns the file a template identifier resolves to.
func (r *Registry) Path(id domain.TemplateID) string {
	return filepath.Join(r.dir, string(id)+templateExt)
}

// Exists probes for the template file without parsing it.
func (r *Registry) Exists(id domain.TemplateID) error {
	if !id.Valid() {
		return domain.NewError(domain.StageRendering, domain.KindInvalidTemplate,
			fmt.Sprintf("invalid template id %q", id), nil)
	}
	info, err := os.Stat(r.Path(id))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return domain.NewError(domain.StageRendering, domain.KindTemplateNotFound,
			fmt.Sprintf("template %q not found", id), err)
	case err != nil:
		return domain.NewError(domain.StageRendering, domain.KindTemplateNotFound,
			fmt.Sprintf("template %q not readable", id), err)
	case info.IsDir():
		return domain.NewError(domain.StageRendering, domain.KindTemplateNotFound,
			fmt.Sprintf("template %q not found", id), errors.New(r.Path(id)+" is a directory"))
	}
	return nil
}

// Render binds record to the template named id and returns the markup.
// Missing fields render as empty text.
func (r *Registry) Render(id domain.TemplateID, record domain.ResumeRecord) (string, error) {
	if err := r.Exists(id); err != nil {
		return "", err
	}
	path := r.Path(id)
	tpl, err := template.New(filepath.Base(path)).
		Option("missingkey=default").
		Funcs(r.helpers.FuncMap()).
		ParseFiles(path)
	if err != nil {
		return "", domain.NewError(domain.StageRendering, domain.KindRenderFailed,
			fmt.Sprintf("template %q does not compile", id), err)
	}

	data := map[string]interface{}(record)
	if data == nil {
		data = map[string]interface{}{}
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", domain.NewError(domain.StageRendering, domain.KindRenderFailed,
			fmt.Sprintf("template %q failed to render", id), err)
	}
	return buf.String(), nil
}

// Templates lists the identifiers of every template present in the directory.
func (r *Registry) Templates() ([]domain.TemplateID, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("render: list templates: %w", err)
	}
	var ids []domain.TemplateID
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, templateExt) {
			continue
		}
		id := domain.TemplateID(strings.TrimSuffix(name, templateExt))
		if id.Valid() {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
