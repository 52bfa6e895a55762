package export

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"image/png"
	"log/slog"
	"strconv"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"resumify/internal/render"
)

// ChromedpCapturer 是基于 chromedp 的备选截图后端，每次截图启动独立的浏览器进程。
type ChromedpCapturer struct {
	execPath string
	timeout  time.Duration
	logger   *slog.Logger
}

func NewChromedpCapturer(execPath string, timeout time.Duration, logger *slog.Logger) *ChromedpCapturer {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ChromedpCapturer{execPath: execPath, timeout: timeout, logger: logger}
}

func (c *ChromedpCapturer) Capture(ctx context.Context, req CaptureRequest) (Bitmap, error) {
	req = req.withDefaults()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if c.execPath != "" {
		opts = append(opts, chromedp.ExecPath(c.execPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()
	runCtx, cancelRun := context.WithTimeout(browserCtx, c.timeout)
	defer cancelRun()

	var found bool
	err := chromedp.Run(runCtx,
		chromedp.EmulateViewport(render.PageWidthPx, render.PageHeightPx, chromedp.EmulateScale(req.Scale)),
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return fmt.Errorf("frame tree: %w", err)
			}
			return page.SetDocumentContent(tree.Frame.ID, req.HTML).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return settle(ctx, req.Settle)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var ok bool
			if err := chromedp.Evaluate("("+fontsReadyJS+")()", &ok, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
				return p.WithAwaitPromise(true)
			}).Do(ctx); err != nil {
				c.logger.Warn("export: document.fonts.ready wait failed, continue", slog.Any("error", err))
			}
			return nil
		}),
		chromedp.Evaluate("document.querySelector("+strconv.Quote(req.Selector)+") !== null", &found),
	)
	if err != nil {
		return Bitmap{}, fmt.Errorf("%w: %w", ErrCapture, err)
	}
	if !found {
		return Bitmap{}, fmt.Errorf("%w: %s", ErrTargetNotFound, req.Selector)
	}

	var shot []byte
	if err := chromedp.Run(runCtx, chromedp.Screenshot(req.Selector, &shot, chromedp.ByQuery)); err != nil {
		return Bitmap{}, fmt.Errorf("%w: screenshot: %w", ErrCapture, err)
	}

	if req.Format == FormatJPEG {
		if shot, err = pngToJPEG(shot, req.Quality); err != nil {
			return Bitmap{}, fmt.Errorf("%w: %w", ErrCapture, err)
		}
	}
	return decodeBitmap(shot, req.Format)
}

// chromedp 的元素截图固定为 PNG。
func pngToJPEG(data []byte, quality int) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode png: %w", err)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// NewCapturer 按配置的后端名构造截图器，未知名称回落到 rod。
func NewCapturer(backend, browserBin string, timeout time.Duration, logger *slog.Logger) Capturer {
	if backend == "chromedp" {
		return NewChromedpCapturer(browserBin, timeout, logger)
	}
	return NewRodCapturer(browserBin, timeout, logger)
}
