package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"ai-resume-generator/internal/app"
	"ai-resume-generator/internal/config"
	"ai-resume-generator/internal/domain"
	"ai-resume-generator/internal/usecase"
)

type renderOptions struct {
	input     string
	template  string
	output    string
	noAI      bool
	templates string
}

// RenderResult is the summary printed after a render.
type RenderResult struct {
	Output            string `json:"output"`
	Bytes             int    `json:"bytes"`
	Template          string `json:"template"`
	Enhanced          bool   `json:"enhanced"`
	EnhancementReason string `json:"enhancement_reason,omitempty"`
}

func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &renderOptions{}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Generate a PDF from a JSON or YAML resume record",
		Long: `Run the full generation pipeline locally: optional AI rewrite, template
rendering and PDF export through a headless browser.

The input is either a bare resume record or a request body of the form
{"templateId": "...", "resumeData": {...}}.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, rootOpts, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "record file (.json, .yaml or .yml)")
	cmd.Flags().StringVarP(&opts.template, "template", "t", "", "template id (overrides the file's templateId)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output path (default: derived from the name)")
	cmd.Flags().BoolVar(&opts.noAI, "no-ai", false, "skip AI enhancement")
	cmd.Flags().StringVar(&opts.templates, "templates-dir", "", "template directory (overrides TEMPLATES_DIR)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runRender(cmd *cobra.Command, rootOpts *RootOptions, opts *renderOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if opts.noAI {
		cfg.AI.Enabled = false
	}
	if opts.templates != "" {
		cfg.TemplatesDir = opts.templates
	}

	fileTemplate, record, err := LoadRecord(opts.input)
	if err != nil {
		return err
	}
	templateID := domain.TemplateID(opts.template)
	if templateID == "" {
		templateID = fileTemplate
	}
	if templateID == "" {
		templateID = domain.TemplateModern
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	log := rootOpts.logger(cmd)
	components, err := app.Build(ctx, cfg, log, app.Options{SkipAudit: true})
	if err != nil {
		return err
	}
	defer components.Close()

	doc, err := components.Pipeline.Generate(ctx, usecase.Request{TemplateID: templateID, Record: record})
	if err != nil {
		return err
	}

	out := opts.output
	if out == "" {
		out = doc.Filename
	}
	if err := os.WriteFile(out, doc.PDF, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	res := RenderResult{
		Output:            out,
		Bytes:             len(doc.PDF),
		Template:          string(templateID),
		Enhanced:          doc.Enhanced,
		EnhancementReason: doc.EnhancementReason,
	}
	return rootOpts.emit(cmd.OutOrStdout(), res, func(w io.Writer) {
		fmt.Fprintf(w, "wrote %s (%d bytes, template %s)\n", res.Output, res.Bytes, res.Template)
		if res.Enhanced {
			fmt.Fprintln(w, "content: AI enhanced")
		} else {
			fmt.Fprintf(w, "content: original (%s)\n", res.EnhancementReason)
		}
	})
}

// LoadRecord reads a record file. A file holding a request body yields its
// templateId (or legacy template) too.
func LoadRecord(path string) (domain.TemplateID, domain.ResumeRecord, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("read input: %w", err)
	}

	var raw map[string]interface{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &raw)
	default:
		err = json.Unmarshal(b, &raw)
	}
	if err != nil {
		return "", nil, fmt.Errorf("parse %s: %w", path, err)
	}

	var id domain.TemplateID
	if data, ok := raw["resumeData"].(map[string]interface{}); ok {
		for _, key := range []string{"templateId", "template"} {
			if s, ok := raw[key].(string); ok && s != "" {
				id = domain.TemplateID(s)
				break
			}
		}
		raw = data
	}

	// Normalise YAML scalars to the JSON types the service receives.
	record, err := domain.ResumeRecord(raw).Clone()
	if err != nil {
		return "", nil, fmt.Errorf("normalise %s: %w", path, err)
	}
	return id, record, nil
}
