package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"ai-resume-generator/pkg/infrastructure"
)

// InspectResult describes a PDF file.
type InspectResult struct {
	File   string  `json:"file"`
	Bytes  int     `json:"bytes"`
	Pages  int     `json:"pages"`
	Width  float64 `json:"width_pt"`
	Height float64 `json:"height_pt"`
	A4     bool    `json:"a4"`
}

func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file.pdf>",
		Short: "Report page count and page size of a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			info, err := infrastructure.InspectPDF(b)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			res := InspectResult{
				File:   args[0],
				Bytes:  len(b),
				Pages:  info.Pages,
				Width:  info.Width,
				Height: info.Height,
				A4:     info.IsA4(),
			}
			return rootOpts.emit(cmd.OutOrStdout(), res, func(w io.Writer) {
				fmt.Fprintf(w, "%s: %d page(s), %.2f x %.2f pt, A4: %t\n", res.File, res.Pages, res.Width, res.Height, res.A4)
			})
		},
	}
}
