package export

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"resumify/internal/render"
)

// RodCapturer 用 go-rod 驱动 Chromium 截图。浏览器在首次截图时启动并复用，
// 每次截图使用独立页面，可并发调用。
type RodCapturer struct {
	bin     string
	timeout time.Duration
	logger  *slog.Logger

	mu      sync.Mutex
	launch  *launcher.Launcher
	browser *rod.Browser
}

// NewRodCapturer 创建截图器；bin 为空时自动查找本机 Chromium。
func NewRodCapturer(bin string, timeout time.Duration, logger *slog.Logger) *RodCapturer {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RodCapturer{bin: bin, timeout: timeout, logger: logger}
}

func (c *RodCapturer) connect() (*rod.Browser, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.browser != nil {
		return c.browser, nil
	}

	launch := launcher.New().
		Headless(true).
		NoSandbox(true).
		Set("disable-dev-shm-usage").
		Set("disable-gpu")
	if c.bin != "" {
		launch = launch.Bin(c.bin)
	} else if path, ok := launcher.LookPath(); ok {
		launch = launch.Bin(path)
	}

	browserURL, err := launch.Launch()
	if err != nil {
		launch.Cleanup()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}
	browser := rod.New().ControlURL(browserURL)
	if err := browser.Connect(); err != nil {
		launch.Cleanup()
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	c.logger.Info("export: chromium started", slog.String("control_url", browserURL))
	c.launch, c.browser = launch, browser
	return browser, nil
}

// Close 关闭共享浏览器，之后的截图会重新启动。
func (c *RodCapturer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.browser == nil {
		return nil
	}
	err := c.browser.Close()
	c.launch.Cleanup()
	c.browser, c.launch = nil, nil
	return err
}

func (c *RodCapturer) Capture(ctx context.Context, req CaptureRequest) (Bitmap, error) {
	req = req.withDefaults()

	browser, err := c.connect()
	if err != nil {
		return Bitmap{}, fmt.Errorf("%w: %w", ErrCapture, err)
	}

	page, err := browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		// 浏览器可能已退出，下次重新启动
		_ = c.Close()
		return Bitmap{}, fmt.Errorf("%w: create page: %w", ErrCapture, err)
	}
	defer func() {
		_ = page.Close()
	}()
	page = page.Timeout(c.timeout)

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             render.PageWidthPx,
		Height:            render.PageHeightPx,
		DeviceScaleFactor: req.Scale,
	}).Call(page); err != nil {
		return Bitmap{}, fmt.Errorf("%w: set device metrics: %w", ErrCapture, err)
	}
	if err := (proto.EmulationSetEmulatedMedia{Media: "screen"}).Call(page); err != nil {
		return Bitmap{}, fmt.Errorf("%w: set emulated media: %w", ErrCapture, err)
	}
	if err := page.SetDocumentContent(req.HTML); err != nil {
		return Bitmap{}, fmt.Errorf("%w: set document content: %w", ErrCapture, err)
	}
	if err := page.WaitLoad(); err != nil {
		return Bitmap{}, fmt.Errorf("%w: wait load: %w", ErrCapture, err)
	}
	if err := settle(ctx, req.Settle); err != nil {
		return Bitmap{}, fmt.Errorf("%w: %w", ErrCapture, err)
	}

	// 字体未就绪时继续，只影响度量精度
	if _, err := page.Timeout(5 * time.Second).Eval(fontsReadyJS); err != nil {
		c.logger.Warn("export: document.fonts.ready wait failed, continue", slog.Any("error", err))
	}

	has, el, err := page.Has(req.Selector)
	if err != nil {
		return Bitmap{}, fmt.Errorf("%w: query %s: %w", ErrCapture, req.Selector, err)
	}
	if !has {
		return Bitmap{}, fmt.Errorf("%w: %s", ErrTargetNotFound, req.Selector)
	}
	shape, err := el.Shape()
	if err != nil {
		return Bitmap{}, fmt.Errorf("%w: element box: %w", ErrCapture, err)
	}
	box := shape.Box()

	shot := &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
		Clip: &proto.PageViewport{
			X:      box.X,
			Y:      box.Y,
			Width:  box.Width,
			Height: box.Height,
			Scale:  1,
		},
		CaptureBeyondViewport: true,
	}
	if req.Format == FormatJPEG {
		shot.Format = proto.PageCaptureScreenshotFormatJpeg
		shot.Quality = &req.Quality
	}
	data, err := page.Screenshot(false, shot)
	if err != nil {
		return Bitmap{}, fmt.Errorf("%w: screenshot: %w", ErrCapture, err)
	}
	return decodeBitmap(data, req.Format)
}
