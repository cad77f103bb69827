// Package snapshot renders exported dashboards to PNG with a headless browser.
package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"

	"genderviz/internal/config"
	apperrors "genderviz/internal/errors"
)

// browsers are the executables chromedp can drive, in lookup order
var browsers = []string{
	"headless-shell",
	"chromium",
	"chromium-browser",
	"google-chrome",
	"google-chrome-stable",
	"chrome",
}

// Available reports whether a Chrome or Chromium executable is on PATH
func Available() bool {
	for _, b := range browsers {
		if _, err := exec.LookPath(b); err == nil {
			return true
		}
	}
	return false
}

// Capturer takes screenshots of exported pages
type Capturer struct {
	cfg    config.SnapshotConfig
	logger *slog.Logger
}

// NewCapturer creates a capturer
func NewCapturer(cfg config.SnapshotConfig, logger *slog.Logger) *Capturer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Capturer{cfg: cfg, logger: logger.With(slog.String("component", "snapshot"))}
}

// Capture loads htmlPath in headless Chrome, waits for the chart to be drawn and writes
// a full page PNG to pngPath
func (c *Capturer) Capture(ctx context.Context, htmlPath, pngPath string) error {
	start := time.Now()

	abs, err := filepath.Abs(htmlPath)
	if err != nil {
		return apperrors.NewIOError("failed to resolve page path", err).WithContext("path", htmlPath)
	}
	if _, err := os.Stat(abs); err != nil {
		return apperrors.NewIOError("page not found", err).WithContext("path", htmlPath)
	}
	pageURL := (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.WindowSize(int(c.cfg.Width), int(c.cfg.Height)),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	browserCtx, cancelCtx := chromedp.NewContext(allocCtx)
	defer cancelCtx()

	timeout := c.cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	runCtx, cancelRun := context.WithTimeout(browserCtx, timeout)
	defer cancelRun()

	var drawn bool
	var png []byte
	err = chromedp.Run(runCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("#vis", chromedp.ByID),
		// vega-embed adds a canvas or svg once the view has rendered, or an error block
		chromedp.Poll(`document.querySelector('#vis canvas, #vis svg, #vis div') !== null`, &drawn,
			chromedp.WithPollingTimeout(timeout)),
		chromedp.FullScreenshot(&png, 100),
	)
	if err != nil {
		return apperrors.NewRenderError(fmt.Sprintf("failed to capture %s", filepath.Base(htmlPath)), err)
	}

	if err := os.WriteFile(pngPath, png, 0644); err != nil {
		return apperrors.NewIOError("failed to write snapshot", err).WithContext("path", pngPath)
	}

	c.logger.Info("Snapshot captured",
		slog.String("page", htmlPath),
		slog.String("image", pngPath),
		slog.Int("bytes", len(png)),
		slog.Duration("duration", time.Since(start)))
	return nil
}
