package export

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumify/internal/auth"
	"resumify/internal/catalog"
	"resumify/internal/render"
	"resumify/internal/resume"
)

func pngBitmap(t *testing.T, w, h int) Bitmap {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	for y := 0; y < h; y += 7 {
		img.Set(w/2, y, color.RGBA{R: 30, G: 64, B: 175, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	bmp, err := decodeBitmap(buf.Bytes(), FormatPNG)
	require.NoError(t, err)
	return bmp
}

type fakeCapturer struct {
	mu       sync.Mutex
	bitmap   Bitmap
	err      error
	block    chan struct{}
	started  chan struct{}
	requests []CaptureRequest
}

func (f *fakeCapturer) Capture(ctx context.Context, req CaptureRequest) (Bitmap, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return Bitmap{}, ctx.Err()
		}
	}
	return f.bitmap, f.err
}

func (f *fakeCapturer) calls() []CaptureRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]CaptureRequest(nil), f.requests...)
}

type stateLog struct {
	mu     sync.Mutex
	states []State
}

func (l *stateLog) record(_ string, s State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.states = append(l.states, s)
}

func (l *stateLog) all() []State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]State(nil), l.states...)
}

func template(t *testing.T, id string) catalog.Template {
	t.Helper()
	tpl, err := catalog.Default().Get(id)
	require.NoError(t, err)
	return tpl
}

func TestPaginateSixHundredFiftyMillimetres(t *testing.T) {
	layout, err := Paginate(420, 1300)
	require.NoError(t, err)

	assert.InDelta(t, 650.0, layout.ImageHeightMM, 1e-9)
	assert.Equal(t, PageWidthMM, layout.ImageWidthMM)
	require.Len(t, layout.Pages, 3)
	assert.Equal(t, []PageWindow{{0, 0}, {1, -297}, {2, -594}}, layout.Pages)
}

func TestPaginateCoversWholeImage(t *testing.T) {
	cases := map[string]struct {
		w, h  int
		pages int
	}{
		"tiny":           {w: 794, h: 1, pages: 1},
		"exactly a page": {w: 210, h: 297, pages: 1},
		"two pages":      {w: 210, h: 594, pages: 2},
		"just over one":  {w: 210, h: 298, pages: 2},
		"wide bitmap":    {w: 1588, h: 2245, pages: 1},
		"a4 root at 2x":  {w: 1588, h: 2246, pages: 1},
		"half px over":   {w: 1588, h: 2247, pages: 2},
		"long bitmap":    {w: 1588, h: 9000, pages: 5},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			layout, err := Paginate(tc.w, tc.h)
			require.NoError(t, err)
			require.Len(t, layout.Pages, tc.pages)
			pixelMM := PageWidthMM / float64(tc.w)
			assert.Equal(t, int(math.Max(1, math.Ceil((layout.ImageHeightMM-pixelMM/2)/PageHeightMM))), len(layout.Pages))

			last := layout.Pages[len(layout.Pages)-1]
			assert.GreaterOrEqual(t, -last.OffsetMM+PageHeightMM, layout.ImageHeightMM-pixelMM/2, "last page reaches the bottom")
			for k, p := range layout.Pages {
				assert.Equal(t, k, p.Index)
				assert.Equal(t, -float64(k)*PageHeightMM, p.OffsetMM)
			}
		})
	}
}

func TestPaginateRejectsEmptyBitmap(t *testing.T) {
	_, err := Paginate(0, 100)
	assert.ErrorIs(t, err, ErrEmptyBitmap)
	_, err = Paginate(100, 0)
	assert.ErrorIs(t, err, ErrEmptyBitmap)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "Alex_Morgan_ats-0_Resume.pdf", FileName("Alex Morgan", "ats-0"))
	assert.Equal(t, "Alex_Morgan_ONYX_Resume.pdf", FileName("  Alex \t\n Morgan ", "ONYX"))
	assert.Equal(t, "Prince_pro-3_Resume.pdf", FileName("Prince", "pro-3"))
}

func TestGate(t *testing.T) {
	free := template(t, catalog.Onyx)
	premium := template(t, catalog.Horizon)
	member := &auth.Identity{UserID: 1, IsPremium: true}
	regular := &auth.Identity{UserID: 2}

	assert.Equal(t, Decision{Allowed: true}, Gate(free, nil))
	assert.Equal(t, Decision{Allowed: true}, Gate(free, regular))
	assert.Equal(t, Decision{Allowed: true}, Gate(premium, member))
	assert.Equal(t, Decision{Redirect: RedirectLogin}, Gate(premium, nil))
	assert.Equal(t, Decision{Redirect: RedirectUpgrade}, Gate(premium, regular))

	assert.True(t, Watermark(nil))
	assert.True(t, Watermark(regular))
	assert.False(t, Watermark(member))
}

func TestStateTransitions(t *testing.T) {
	assert.True(t, CanTransition(StateIdle, StateCapturing))
	assert.True(t, CanTransition(StateCapturing, StatePaginating))
	assert.True(t, CanTransition(StatePaginating, StateSaved))
	assert.True(t, CanTransition(StateCapturing, StateFailed))
	assert.True(t, CanTransition(StateFailed, StateIdle))
	assert.False(t, CanTransition(StateIdle, StateSaved))
	assert.False(t, CanTransition(StateFailed, StateSaved))
	assert.Equal(t, "paginating", StatePaginating.String())
}

func TestCheckTarget(t *testing.T) {
	doc, err := render.HTML(render.Page(template(t, "ats-0"), resume.Sample(), render.DocumentOptions{}))
	require.NoError(t, err)
	assert.NoError(t, CheckTarget(doc, render.TargetSelector))
	assert.ErrorIs(t, CheckTarget("<html><body><div>nothing</div></body></html>", render.TargetSelector), ErrTargetNotFound)
}

func TestAssemblePDF(t *testing.T) {
	bmp := pngBitmap(t, 420, 1300)
	layout, err := Paginate(bmp.Width, bmp.Height)
	require.NoError(t, err)

	out, err := AssemblePDF(bmp, layout, DocumentInfo{Title: "Alex Morgan - Onyx"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	pages := regexp.MustCompile(`/Type /Page\b`).FindAll(out, -1)
	assert.Len(t, pages, 3)
}

func TestPipelineRunSaves(t *testing.T) {
	capturer := &fakeCapturer{bitmap: pngBitmap(t, 420, 1300)}
	states := &stateLog{}
	p := NewPipeline(capturer, Options{DeviceScale: 1, OnState: states.record})

	data := resume.Sample()
	res, err := p.Run(context.Background(), Request{Key: "guest:1", Template: template(t, "ats-0"), Data: data})
	require.NoError(t, err)

	assert.Equal(t, StateSaved, res.State)
	assert.Equal(t, "Alex_Morgan_ats-0_Resume.pdf", res.FileName)
	assert.Equal(t, 3, res.Pages)
	assert.True(t, bytes.HasPrefix(res.PDF, []byte("%PDF-")))
	assert.Equal(t, []State{StateCapturing, StatePaginating, StateSaved}, states.all())

	calls := capturer.calls()
	require.Len(t, calls, 1)
	assert.GreaterOrEqual(t, calls[0].Scale, 2.0)
	assert.Equal(t, render.TargetSelector, calls[0].Selector)
	assert.Equal(t, DefaultSettleDelay, calls[0].Settle)
	assert.Contains(t, calls[0].HTML, render.ExportWatermark)
}

func TestPipelinePremiumExportHasNoWatermark(t *testing.T) {
	capturer := &fakeCapturer{bitmap: pngBitmap(t, 210, 297)}
	p := NewPipeline(capturer, Options{})

	member := &auth.Identity{UserID: 9, IsPremium: true}
	res, err := p.Run(context.Background(), Request{Key: "user:9", Template: template(t, catalog.Horizon), Data: resume.Sample(), Identity: member})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Pages)
	assert.NotContains(t, capturer.calls()[0].HTML, render.ExportWatermark)
}

func TestPipelineGateBlocksBeforeCapture(t *testing.T) {
	capturer := &fakeCapturer{bitmap: pngBitmap(t, 210, 297)}
	states := &stateLog{}
	p := NewPipeline(capturer, Options{OnState: states.record})

	res, err := p.Run(context.Background(), Request{Key: "user:2", Template: template(t, "creative-0"), Data: resume.Sample(), Identity: &auth.Identity{UserID: 2}})
	require.ErrorIs(t, err, ErrEntitlement)
	assert.Equal(t, RedirectUpgrade, res.Decision.Redirect)
	assert.Equal(t, StateIdle, res.State)
	assert.Nil(t, res.PDF)
	assert.Empty(t, capturer.calls())
	assert.Empty(t, states.all())

	res, err = p.Run(context.Background(), Request{Key: "guest:x", Template: template(t, "creative-0"), Data: resume.Sample()})
	require.ErrorIs(t, err, ErrEntitlement)
	assert.Equal(t, RedirectLogin, res.Decision.Redirect)
}

func TestPipelineCaptureFailure(t *testing.T) {
	cases := map[string]struct {
		err  error
		want error
	}{
		"browser crash":  {err: errors.New("websocket closed"), want: ErrCapture},
		"missing target": {err: ErrTargetNotFound, want: ErrTargetNotFound},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			states := &stateLog{}
			p := NewPipeline(&fakeCapturer{err: tc.err}, Options{OnState: states.record})

			res, err := p.Run(context.Background(), Request{Key: "k", Template: template(t, catalog.Onyx), Data: resume.Sample()})
			require.ErrorIs(t, err, tc.want)
			assert.Equal(t, StateFailed, res.State)
			assert.Nil(t, res.PDF)
			assert.Empty(t, res.FileName)
			assert.Equal(t, []State{StateCapturing, StateFailed, StateIdle}, states.all())
		})
	}
}

func TestPipelineEmptyBitmapFails(t *testing.T) {
	p := NewPipeline(&fakeCapturer{}, Options{})
	_, err := p.Run(context.Background(), Request{Key: "k", Template: template(t, catalog.Onyx), Data: resume.Sample()})
	assert.ErrorIs(t, err, ErrCapture)
	assert.ErrorIs(t, err, ErrEmptyBitmap)
}

func TestPipelineRejectsConcurrentExportForSameKey(t *testing.T) {
	capturer := &fakeCapturer{
		bitmap:  pngBitmap(t, 210, 297),
		block:   make(chan struct{}),
		started: make(chan struct{}, 2),
	}
	p := NewPipeline(capturer, Options{})
	req := Request{Key: "user:1", Template: template(t, catalog.Onyx), Data: resume.Sample()}

	done := make(chan error, 1)
	go func() {
		_, err := p.Run(context.Background(), req)
		done <- err
	}()
	select {
	case <-capturer.started:
	case <-time.After(5 * time.Second):
		t.Fatal("first export never reached capture")
	}

	_, err := p.Run(context.Background(), req)
	assert.ErrorIs(t, err, ErrExportInProgress)

	other := req
	other.Key = "user:2"
	otherDone := make(chan error, 1)
	go func() {
		_, err := p.Run(context.Background(), other)
		otherDone <- err
	}()
	<-capturer.started

	close(capturer.block)
	require.NoError(t, <-done)
	require.NoError(t, <-otherDone)

	_, err = p.Run(context.Background(), req)
	assert.NoError(t, err, "key is released after the export finishes")
}

func TestSettleHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, settle(ctx, time.Hour), context.Canceled)
	assert.NoError(t, settle(context.Background(), 0))
}

func TestCaptureRequestDefaults(t *testing.T) {
	r := CaptureRequest{Format: FormatJPEG}.withDefaults()
	assert.Equal(t, render.TargetSelector, r.Selector)
	assert.Equal(t, DefaultDeviceScale, r.Scale)
	assert.Equal(t, 90, r.Quality)
}
