package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"resumify/internal/auth"
	"resumify/internal/catalog"
	"resumify/internal/render"
	"resumify/internal/resume"
)

var (
	// ErrExportInProgress 表示同一身份已有导出在执行。
	ErrExportInProgress = errors.New("export already in progress")
	// ErrEntitlement 表示身份无权使用该模板，Result.Decision 给出跳转方向。
	ErrEntitlement = errors.New("template requires premium")
)

// Request 是一次导出的输入。Key 标识发起者，同一 Key 同时只允许一次导出。
type Request struct {
	Key      string
	Template catalog.Template
	Data     resume.Data
	Identity *auth.Identity
	// OnState 只观察本次导出的阶段切换，在 Options.OnState 之后调用，可为 nil。
	OnState func(s State)
}

// Result 是导出结果。
type Result struct {
	FileName string
	PDF      []byte
	Pages    int
	State    State
	Decision Decision
}

// Options 配置管线。
type Options struct {
	DeviceScale float64
	SettleDelay time.Duration
	// OnState 在每次阶段切换后调用，可为 nil。
	OnState func(key string, s State)
	Logger  *slog.Logger
}

// Pipeline 执行 闸门 -> 截图 -> 分页 -> PDF。
type Pipeline struct {
	capturer Capturer
	opts     Options

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewPipeline(capturer Capturer, opts Options) *Pipeline {
	if opts.DeviceScale < DefaultDeviceScale {
		opts.DeviceScale = DefaultDeviceScale
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = DefaultSettleDelay
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Pipeline{capturer: capturer, opts: opts, inFlight: make(map[string]struct{})}
}

func (p *Pipeline) acquire(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, busy := p.inFlight[key]; busy {
		return false
	}
	p.inFlight[key] = struct{}{}
	return true
}

func (p *Pipeline) release(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inFlight, key)
}

func (p *Pipeline) enter(req Request, s State) {
	if p.opts.OnState != nil {
		p.opts.OnState(req.Key, s)
	}
	if req.OnState != nil {
		req.OnState(s)
	}
}

// Run 执行一次导出。被闸门拦截时返回 ErrEntitlement 且不进入任何阶段；
// 截图失败时经过 Failed 回到 Idle，不产出文件。
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	log := p.opts.Logger.With(slog.String("template_id", req.Template.ID), slog.String("export_key", req.Key))

	decision := Gate(req.Template, req.Identity)
	if !decision.Allowed {
		return Result{State: StateIdle, Decision: decision}, ErrEntitlement
	}
	if !p.acquire(req.Key) {
		return Result{State: StateIdle, Decision: decision}, ErrExportInProgress
	}
	defer p.release(req.Key)

	opts := render.DocumentOptions{Title: req.Data.Personal.FullName}
	if Watermark(req.Identity) {
		opts.Watermark = render.ExportWatermark
	}
	doc, err := render.HTML(render.Page(req.Template, req.Data, opts))
	if err != nil {
		return Result{State: StateIdle, Decision: decision}, fmt.Errorf("build export document: %w", err)
	}

	fail := func(err error) (Result, error) {
		p.enter(req, StateFailed)
		log.Warn("export: failed", slog.Any("error", err))
		p.enter(req, StateIdle)
		return Result{State: StateFailed, Decision: decision}, err
	}

	p.enter(req, StateCapturing)
	if err := CheckTarget(doc, render.TargetSelector); err != nil {
		return fail(err)
	}
	started := time.Now()
	bmp, err := p.capturer.Capture(ctx, CaptureRequest{
		HTML:     doc,
		Selector: render.TargetSelector,
		Scale:    p.opts.DeviceScale,
		Settle:   p.opts.SettleDelay,
		Format:   FormatPNG,
	})
	if err != nil {
		if !errors.Is(err, ErrTargetNotFound) && !errors.Is(err, ErrCapture) {
			err = fmt.Errorf("%w: %w", ErrCapture, err)
		}
		return fail(err)
	}
	log.Info("export: captured",
		slog.Int("width", bmp.Width),
		slog.Int("height", bmp.Height),
		slog.Duration("elapsed", time.Since(started)),
	)

	p.enter(req, StatePaginating)
	layout, err := Paginate(bmp.Width, bmp.Height)
	if err != nil {
		return fail(fmt.Errorf("%w: %w", ErrCapture, err))
	}
	pdf, err := AssemblePDF(bmp, layout, DocumentInfo{
		Title:  req.Data.Personal.FullName + " - " + req.Template.Name,
		Author: req.Data.Personal.FullName,
	})
	if err != nil {
		return fail(err)
	}

	p.enter(req, StateSaved)
	return Result{
		FileName: FileName(req.Data.Personal.FullName, req.Template.ID),
		PDF:      pdf,
		Pages:    len(layout.Pages),
		State:    StateSaved,
		Decision: decision,
	}, nil
}
