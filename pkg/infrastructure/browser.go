package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
)

// ErrLaunchTimeout is returned when the browser does not come up in time.
var ErrLaunchTimeout = errors.New("browser: launch timed out")

// Session is one browser process with one page, owned by a single request.
type Session interface {
	// Context is the chromedp context bound to the session's page.
	Context() context.Context
	// Close terminates the browser process. It is safe to call twice.
	Close() error
}

// Probe reports an executable path when its source has one.
type Probe func() (string, bool)

// NamedProbe pairs a probe with the source it inspects.
type NamedProbe struct {
	Source string
	Probe  Probe
}

// Resolution is the outcome of executable discovery. An empty Path means
// no candidate was found and chromedp's own lookup is used.
type Resolution struct {
	Path   string
	Source string
}

const (
	SourceOverride  = "override"
	SourceKnownPath = "known-path"
	SourceCache     = "managed-cache"
	SourceDefault   = "library-default"
)

// DiscoveryOptions lists where to look for a browser executable.
type DiscoveryOptions struct {
	ExecPath   string
	KnownPaths []string
	CacheDir   string
}

// Discovery resolves the browser executable through an ordered probe chain:
// explicit override, well-known install paths, then the managed browser
// cache. The first probe that answers wins.
type Discovery struct {
	opts   DiscoveryOptions
	exists func(string) bool
	glob   func(string) ([]string, error)
}

func NewDiscovery(opts DiscoveryOptions) *Discovery {
	return &Discovery{opts: opts, exists: isExecutableFile, glob: filepath.Glob}
}

func isExecutableFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Mode().Perm()&0o111 != 0
}

// cacheLayouts are the directory shapes of browsers installed by the
// puppeteer/chrome-for-testing tooling, relative to the cache root.
var cacheLayouts = []string{
	"chrome/*/chrome-linux64/chrome",
	"chrome-headless-shell/*/chrome-headless-shell-linux64/chrome-headless-shell",
	"chrome/*/chrome-mac-*/Google Chrome for Testing.app/Contents/MacOS/Google Chrome for Testing",
	"chromium/*/chrome-linux/chrome",
}

// Probes returns the chain in evaluation order.
func (d *Discovery) Probes() []NamedProbe {
	return []NamedProbe{
		{Source: SourceOverride, Probe: func() (string, bool) {
			return d.opts.ExecPath, d.opts.ExecPath != ""
		}},
		{Source: SourceKnownPath, Probe: func() (string, bool) {
			for _, p := range d.opts.KnownPaths {
				if d.exists(p) {
					return p, true
				}
			}
			return "", false
		}},
		{Source: SourceCache, Probe: func() (string, bool) {
			if d.opts.CacheDir == "" {
				return "", false
			}
			for _, layout := range cacheLayouts {
				matches, err := d.glob(filepath.Join(d.opts.CacheDir, layout))
				if err != nil || len(matches) == 0 {
					continue
				}
				// Newest version directory sorts last.
				sort.Strings(matches)
				for i := len(matches) - 1; i >= 0; i-- {
					if d.exists(matches[i]) {
						return matches[i], true
					}
				}
			}
			return "", false
		}},
	}
}

// Resolve runs the probe chain. The override is returned as-is without an
// existence check so a bad override fails loudly at launch.
func (d *Discovery) Resolve() Resolution {
	for _, p := range d.Probes() {
		if path, ok := p.Probe(); ok {
			return Resolution{Path: path, Source: p.Source}
		}
	}
	return Resolution{Source: SourceDefault}
}

// LauncherOptions configures ChromeLauncher.
type LauncherOptions struct {
	Discovery     *Discovery
	LaunchTimeout time.Duration
	Logger        *slog.Logger
}

// ChromeLauncher starts a dedicated headless browser per call.
type ChromeLauncher struct {
	discovery *Discovery
	timeout   time.Duration
	log       *slog.Logger
}

func NewChromeLauncher(opts LauncherOptions) *ChromeLauncher {
	if opts.Discovery == nil {
		opts.Discovery = NewDiscovery(DiscoveryOptions{})
	}
	if opts.LaunchTimeout <= 0 {
		opts.LaunchTimeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &ChromeLauncher{discovery: opts.Discovery, timeout: opts.LaunchTimeout, log: opts.Logger}
}

// allocatorOptions are the process flags used for every session. They let
// the browser start inside minimal containers (no setuid helper, small
// /dev/shm, no zygote); they are not a sandbox.
func allocatorOptions(execPath string) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-zygote", true),
		chromedp.Flag("single-process", true),
	)
	if execPath != "" {
		opts = append(opts, chromedp.ExecPath(execPath))
	}
	return opts
}

// Launch starts a browser and opens its first page. The returned session
// is detached from ctx's cancellation; the caller must Close it.
func (l *ChromeLauncher) Launch(ctx context.Context) (Session, error) {
	res := l.discovery.Resolve()
	log := l.log.With("browser_source", res.Source, "browser_path", res.Path)
	if res.Source == SourceDefault {
		log.Info("browser: no executable discovered, falling back to library default lookup")
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocatorOptions(res.Path)...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	s := &chromeSession{ctx: browserCtx, cancelBrowser: cancelBrowser, cancelAlloc: cancelAlloc}

	// The first Run allocates the browser; a deadline on its context would
	// later kill the process, so the launch window is enforced out of band.
	started := make(chan error, 1)
	go func() { started <- chromedp.Run(browserCtx) }()

	timer := time.NewTimer(l.timeout)
	defer timer.Stop()
	select {
	case err := <-started:
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("browser: launch %q (%s): %w", res.Path, res.Source, err)
		}
	case <-timer.C:
		_ = s.Close()
		return nil, fmt.Errorf("%w after %s", ErrLaunchTimeout, l.timeout)
	case <-ctx.Done():
		_ = s.Close()
		return nil, fmt.Errorf("browser: launch: %w", ctx.Err())
	}
	log.Debug("browser: session started")
	return s, nil
}

type chromeSession struct {
	ctx           context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc

	once sync.Once
}

func (s *chromeSession) Context() context.Context { return s.ctx }

// Close tears the browser down. cancelBrowser waits on the same allocation
// token chromedp.Cancel consumes, so only one of the two may run; it is
// followed by the allocator cancel, which kills a process still around.
func (s *chromeSession) Close() error {
	s.once.Do(func() {
		s.cancelBrowser()
		s.cancelAlloc()
	})
	return nil
}
