package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"ai-resume-generator/internal/app"
	"ai-resume-generator/internal/config"
)

// ProbeResult is one step of the discovery chain.
type ProbeResult struct {
	Source string `json:"source"`
	Path   string `json:"path,omitempty"`
	Found  bool   `json:"found"`
}

// BrowsersResult is the full discovery report.
type BrowsersResult struct {
	Probes   []ProbeResult `json:"probes"`
	Selected ProbeResult   `json:"selected"`
}

func NewBrowsersCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "browsers",
		Short: "Show which browser executable the service would launch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			d := app.NewDiscovery(cfg.Browser)

			var res BrowsersResult
			for _, p := range d.Probes() {
				path, ok := p.Probe()
				res.Probes = append(res.Probes, ProbeResult{Source: p.Source, Path: path, Found: ok})
			}
			sel := d.Resolve()
			res.Selected = ProbeResult{Source: sel.Source, Path: sel.Path, Found: sel.Path != ""}

			return rootOpts.emit(cmd.OutOrStdout(), res, func(w io.Writer) {
				for _, p := range res.Probes {
					mark := "-"
					if p.Found {
						mark = "+"
					}
					fmt.Fprintf(w, "%s %-16s %s\n", mark, p.Source, p.Path)
				}
				if res.Selected.Found {
					fmt.Fprintf(w, "selected: %s (%s)\n", res.Selected.Path, res.Selected.Source)
				} else {
					fmt.Fprintln(w, "selected: none, chromedp will search PATH itself")
				}
			})
		},
	}
}
