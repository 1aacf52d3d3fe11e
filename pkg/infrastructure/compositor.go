package infrastructure

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

var (
	// ErrRenderTimeout is returned when the page does not settle and print
	// within the idle window.
	ErrRenderTimeout = errors.New("compositor: page did not settle in time")
	// ErrMarkupTooLarge is returned for documents that exceed the browser's
	// URL length limit.
	ErrMarkupTooLarge = errors.New("compositor: markup too large")
)

// Chrome refuses URLs longer than 2 MiB.
const maxDataURLLen = 2 << 20

// DefaultMarginInches is the page margin on every side.
const DefaultMarginInches = 0.5

// PaperSize is a page size in inches.
type PaperSize struct {
	Width, Height float64
}

// A4 is 210mm x 297mm.
var A4 = PaperSize{Width: 8.27, Height: 11.69}

// CompositorOptions configures PDFCompositor.
type CompositorOptions struct {
	IdleTimeout time.Duration
	Paper       PaperSize
	// MarginInches applies to all four sides.
	MarginInches float64
	Logger       *slog.Logger
}

// PDFCompositor loads markup into a session, waits for the network to go
// idle and prints the page to PDF.
type PDFCompositor struct {
	idle   time.Duration
	paper  PaperSize
	margin float64
	log    *slog.Logger
}

func NewPDFCompositor(opts CompositorOptions) *PDFCompositor {
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = 60 * time.Second
	}
	if opts.Paper == (PaperSize{}) {
		opts.Paper = A4
	}
	if opts.MarginInches < 0 {
		opts.MarginInches = 0
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &PDFCompositor{idle: opts.IdleTimeout, paper: opts.Paper, margin: opts.MarginInches, log: opts.Logger}
}

// DataURL encodes markup so it can be navigated to without touching disk.
func DataURL(markup string) string {
	return "data:text/html;charset=utf-8;base64," + base64.StdEncoding.EncodeToString([]byte(markup))
}

// Compose renders markup in s and returns the PDF bytes. The whole
// load/settle/print sequence shares one idle window.
func (c *PDFCompositor) Compose(ctx context.Context, s Session, markup string) ([]byte, error) {
	url := DataURL(markup)
	if len(url) > maxDataURLLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrMarkupTooLarge, len(markup))
	}

	tctx, cancel := context.WithTimeout(s.Context(), c.idle)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	idle := make(chan cdp.LoaderID, 16)
	chromedp.ListenTarget(tctx, func(ev interface{}) {
		if e, ok := ev.(*page.EventLifecycleEvent); ok && e.Name == "networkIdle" {
			select {
			case idle <- e.LoaderID:
			default:
			}
		}
	})

	var loader cdp.LoaderID
	err := chromedp.Run(tctx,
		page.SetLifecycleEventsEnabled(true),
		chromedp.Navigate(url),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			loader = tree.Frame.LoaderID
			return nil
		}),
	)
	if err != nil {
		return nil, c.classify(ctx, tctx, "load", err)
	}

	if err := waitIdle(tctx, idle, loader); err != nil {
		return nil, c.classify(ctx, tctx, "wait for network idle", err)
	}

	var pdf []byte
	err = chromedp.Run(tctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		pdf, _, err = page.PrintToPDF().
			WithPrintBackground(true).
			WithPaperWidth(c.paper.Width).
			WithPaperHeight(c.paper.Height).
			WithMarginTop(c.margin).
			WithMarginBottom(c.margin).
			WithMarginLeft(c.margin).
			WithMarginRight(c.margin).
			Do(ctx)
		return err
	}))
	if err != nil {
		return nil, c.classify(ctx, tctx, "print", err)
	}
	info, err := InspectPDF(pdf)
	if err != nil {
		return nil, fmt.Errorf("compositor: exported document: %w", err)
	}
	c.log.Debug("compositor: page printed", "bytes", len(pdf), "pages", info.Pages)
	return pdf, nil
}

// waitIdle blocks until the networkIdle event for loader arrives.
func waitIdle(ctx context.Context, events <-chan cdp.LoaderID, loader cdp.LoaderID) error {
	for {
		select {
		case id := <-events:
			if id == loader {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// classify turns an expired idle window into ErrRenderTimeout; a cancelled
// caller context is reported as such.
func (c *PDFCompositor) classify(caller, window context.Context, step string, err error) error {
	if caller.Err() != nil {
		return fmt.Errorf("compositor: %s: %w", step, caller.Err())
	}
	if errors.Is(window.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s after %s", ErrRenderTimeout, step, c.idle)
	}
	return fmt.Errorf("compositor: %s: %w", step, err)
}
