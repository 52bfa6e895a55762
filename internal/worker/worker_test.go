package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"resumify/internal/catalog"
	"resumify/internal/database"
	"resumify/internal/errcode"
	"resumify/internal/export"
	"resumify/internal/render"
	"resumify/internal/resume"
	"resumify/internal/storage"
	"resumify/internal/tasks"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memStore) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func (m *memStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memStore) DownloadURL(_ context.Context, key, fileName string, _ time.Duration) (string, error) {
	return "https://minio.test/" + key + "?name=" + fileName, nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

type fakeCapturer struct {
	mu       sync.Mutex
	bitmap   export.Bitmap
	err      error
	requests []export.CaptureRequest
}

func (f *fakeCapturer) Capture(_ context.Context, req export.CaptureRequest) (export.Bitmap, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.bitmap, f.err
}

type published struct {
	channel string
	msg     ExportNotifyMessage
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
}

func (f *fakePublisher) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	var msg ExportNotifyMessage
	_ = json.Unmarshal(message.([]byte), &msg)
	f.mu.Lock()
	f.msgs = append(f.msgs, published{channel: channel, msg: msg})
	f.mu.Unlock()
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(1)
	return cmd
}

func (f *fakePublisher) statuses() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.msgs))
	for _, p := range f.msgs {
		s := p.msg.Status
		if p.msg.State != "" {
			s += ":" + p.msg.State
		}
		out = append(out, s)
	}
	return out
}

func (f *fakePublisher) last() published {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.msgs[len(f.msgs)-1]
}

type fakeReleaser struct {
	mu       sync.Mutex
	released []string
}

func (f *fakeReleaser) Release(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, key)
	return nil
}

type harness struct {
	db        *gorm.DB
	store     *memStore
	capturer  *fakeCapturer
	publisher *fakePublisher
	lock      *fakeReleaser
	handler   *ExportHandler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "worker.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	h := &harness{
		db:        db,
		store:     newMemStore(),
		capturer:  &fakeCapturer{bitmap: export.Bitmap{Data: pngBytes(t, 1588, 1000), Format: export.FormatPNG, Width: 1588, Height: 1000}},
		publisher: &fakePublisher{},
		lock:      &fakeReleaser{},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pipeline := export.NewPipeline(h.capturer, export.Options{SettleDelay: time.Millisecond, Logger: logger})
	h.handler = NewExportHandler(db, h.store, pipeline, catalog.Default(), h.publisher, h.lock, logger)
	return h
}

func (h *harness) createExport(t *testing.T, id string, userID *uint, key, templateID string, data resume.Data) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, h.db.Create(&database.Export{
		ID:         id,
		UserID:     userID,
		ClientKey:  key,
		TemplateID: templateID,
		Snapshot:   raw,
		Status:     database.ExportStatusPending,
	}).Error)
}

func (h *harness) run(t *testing.T, exportID string) error {
	t.Helper()
	task, err := tasks.NewExportGenerateTask(exportID, "corr-1")
	require.NoError(t, err)
	return h.handler.ProcessTask(context.Background(), task)
}

func (h *harness) row(t *testing.T, id string) database.Export {
	t.Helper()
	var row database.Export
	require.NoError(t, h.db.First(&row, "id = ?", id).Error)
	return row
}

func TestExportGuestFreeTemplate(t *testing.T) {
	h := newHarness(t)
	h.createExport(t, "exp-1", nil, "guest:10.0.0.1", "ats-0", resume.Sample())

	require.NoError(t, h.run(t, "exp-1"))

	row := h.row(t, "exp-1")
	assert.Equal(t, database.ExportStatusCompleted, row.Status)
	assert.Equal(t, "exports/exp-1.pdf", row.ObjectKey)
	assert.Equal(t, "Alex_Morgan_ats-0_Resume.pdf", row.FileName)
	assert.Equal(t, 1, row.Pages)
	assert.Equal(t, errcode.OK, row.ErrorCode)

	pdf := h.store.objects["exports/exp-1.pdf"]
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
	assert.Equal(t, "application/pdf", h.store.types["exports/exp-1.pdf"])

	require.Len(t, h.capturer.requests, 1)
	assert.Contains(t, h.capturer.requests[0].HTML, render.ExportWatermark)

	assert.Equal(t, []string{"progress:capturing", "progress:paginating", "completed:saved"}, h.publisher.statuses())
	last := h.publisher.last()
	assert.Equal(t, NotifyChannel("guest:10.0.0.1"), last.channel)
	assert.Equal(t, "exp-1", last.msg.ExportID)
	assert.Equal(t, "corr-1", last.msg.CorrelationID)
	assert.Equal(t, "Alex_Morgan_ats-0_Resume.pdf", last.msg.FileName)
	assert.Equal(t, []string{"guest:10.0.0.1"}, h.lock.released)
}

func TestExportPremiumUserHasNoWatermark(t *testing.T) {
	h := newHarness(t)
	user := database.User{Email: "p@example.com", Name: "P", IsPremium: true}
	require.NoError(t, h.db.Create(&user).Error)
	h.createExport(t, "exp-2", &user.ID, "user:1", catalog.Horizon, resume.Sample())

	require.NoError(t, h.run(t, "exp-2"))

	assert.Equal(t, database.ExportStatusCompleted, h.row(t, "exp-2").Status)
	require.Len(t, h.capturer.requests, 1)
	assert.NotContains(t, h.capturer.requests[0].HTML, render.ExportWatermark)
}

func TestExportGuestPremiumTemplateFails(t *testing.T) {
	h := newHarness(t)
	h.createExport(t, "exp-3", nil, "guest:10.0.0.2", catalog.Horizon, resume.Sample())

	err := h.run(t, "exp-3")
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.ErrorIs(t, err, export.ErrEntitlement)

	row := h.row(t, "exp-3")
	assert.Equal(t, database.ExportStatusFailed, row.Status)
	assert.Equal(t, errcode.LoginRequired, row.ErrorCode)
	assert.Empty(t, h.capturer.requests)
	assert.Equal(t, NotifyError, h.publisher.last().msg.Status)
	assert.Equal(t, []string{"guest:10.0.0.2"}, h.lock.released)
}

func TestExportDowngradedUserGetsUpgradeCode(t *testing.T) {
	h := newHarness(t)
	user := database.User{Email: "lapsed@example.com", Name: "L"}
	require.NoError(t, h.db.Create(&user).Error)
	h.createExport(t, "exp-4", &user.ID, "user:2", catalog.HorizonMinimal, resume.Sample())

	require.Error(t, h.run(t, "exp-4"))
	assert.Equal(t, errcode.UpgradeRequired, h.row(t, "exp-4").ErrorCode)
}

func TestExportCaptureFailureIsRetried(t *testing.T) {
	h := newHarness(t)
	h.capturer.err = errors.New("chrome crashed")
	h.createExport(t, "exp-5", nil, "guest:10.0.0.3", "ats-0", resume.Sample())

	err := h.run(t, "exp-5")
	require.Error(t, err)
	assert.ErrorIs(t, err, export.ErrCapture)
	assert.NotErrorIs(t, err, asynq.SkipRetry)

	// 不是最后一次重试，记录保持处理中，等待下一次执行。
	assert.Equal(t, database.ExportStatusProcessing, h.row(t, "exp-5").Status)
	assert.Empty(t, h.store.objects)
	assert.Empty(t, h.lock.released, "lock is kept until the final attempt")
}

func TestExportInlinesAvatar(t *testing.T) {
	h := newHarness(t)
	avatar := pngBytes(t, 4, 4)
	h.store.objects["avatars/user/1/a.png"] = avatar

	data := resume.Sample()
	data.Personal.AvatarURL = "avatars/user/1/a.png"
	h.createExport(t, "exp-6", nil, "guest:10.0.0.4", catalog.Onyx, data)

	require.NoError(t, h.run(t, "exp-6"))
	require.Len(t, h.capturer.requests, 1)
	assert.Contains(t, h.capturer.requests[0].HTML, "data:image/png;base64,")
	assert.NotContains(t, h.capturer.requests[0].HTML, "avatars/user/1/a.png")
	assert.Equal(t, errcode.OK, h.row(t, "exp-6").ErrorCode)
}

func TestExportMissingAvatar(t *testing.T) {
	h := newHarness(t)
	data := resume.Sample()
	data.Personal.AvatarURL = "avatars/user/1/gone.png"
	h.createExport(t, "exp-7", nil, "guest:10.0.0.5", catalog.Onyx, data)

	require.NoError(t, h.run(t, "exp-7"))

	row := h.row(t, "exp-7")
	assert.Equal(t, database.ExportStatusCompleted, row.Status)
	assert.Equal(t, errcode.ResourceMissing, row.ErrorCode)
	assert.NotContains(t, h.capturer.requests[0].HTML, "gone.png")
	assert.Equal(t, []string{"avatars/user/1/gone.png"}, h.publisher.last().msg.MissingKeys)
}

func TestExportSkipsUnknownAndCompleted(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run(t, "missing"))

	h.createExport(t, "exp-8", nil, "guest:10.0.0.6", "ats-0", resume.Sample())
	require.NoError(t, h.db.Model(&database.Export{}).Where("id = ?", "exp-8").Update("status", database.ExportStatusCompleted).Error)
	require.NoError(t, h.run(t, "exp-8"))
	assert.Empty(t, h.capturer.requests)

	err := h.handler.ProcessTask(context.Background(), asynq.NewTask(tasks.TypeExportGenerate, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestInlineAvatarIgnoresExternalURLs(t *testing.T) {
	d := resume.Sample()
	d.Personal.AvatarURL = "https://cdn.example.com/me.png"
	missing, err := inlineAvatar(context.Background(), newMemStore(), &d)
	require.NoError(t, err)
	assert.Empty(t, missing)
	assert.Equal(t, "https://cdn.example.com/me.png", d.Personal.AvatarURL)
}

func TestInlineAvatarRejectsNonImage(t *testing.T) {
	store := newMemStore()
	store.objects["avatars/user/1/a.png"] = []byte("<html>not an image</html>")
	d := resume.Sample()
	d.Personal.AvatarURL = "avatars/user/1/a.png"

	missing, err := inlineAvatar(context.Background(), store, &d)
	require.NoError(t, err)
	assert.Equal(t, "avatars/user/1/a.png", missing)
	assert.Empty(t, d.Personal.AvatarURL)
}

func TestThumbnailHandler(t *testing.T) {
	h := newHarness(t)
	h.capturer.bitmap = export.Bitmap{Data: []byte("jpeg"), Format: export.FormatJPEG, Width: 320, Height: 453}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	th := NewThumbnailHandler(h.db, h.store, h.capturer, catalog.Default(), 2, logger)

	task, err := tasks.NewThumbnailGenerateTask([]string{"ats-0", catalog.Quartz}, "corr-2")
	require.NoError(t, err)
	require.NoError(t, th.ProcessTask(context.Background(), task))

	assert.Contains(t, h.store.objects, "thumbnails/template/ats-0.jpg")
	assert.Contains(t, h.store.objects, "thumbnails/template/QUARTZ.jpg")

	var previews []database.TemplatePreview
	require.NoError(t, h.db.Order("template_id").Find(&previews).Error)
	require.Len(t, previews, 2)
	assert.InDelta(t, 320.0/794.0, previews[0].Scale, 1e-9)
	assert.Equal(t, 453, previews[0].Height)

	for _, req := range h.capturer.requests {
		assert.Equal(t, export.FormatJPEG, req.Format)
		assert.NotContains(t, req.HTML, render.ExportWatermark)
		assert.True(t, strings.Contains(req.HTML, "Alex Morgan"))
	}

	// 再次生成覆盖原记录。
	require.NoError(t, th.ProcessTask(context.Background(), task))
	var count int64
	require.NoError(t, h.db.Model(&database.TemplatePreview{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestThumbnailHandlerErrors(t *testing.T) {
	h := newHarness(t)
	th := NewThumbnailHandler(h.db, h.store, h.capturer, catalog.Default(), 0, slog.New(slog.NewTextHandler(io.Discard, nil)))

	task, err := tasks.NewThumbnailGenerateTask([]string{"no-such"}, "")
	require.NoError(t, err)
	err = th.ProcessTask(context.Background(), task)
	assert.ErrorIs(t, err, catalog.ErrUnknownTemplate)
	assert.ErrorIs(t, err, asynq.SkipRetry)

	h.capturer.err = export.ErrCapture
	task, err = tasks.NewThumbnailGenerateTask([]string{"ats-0"}, "")
	require.NoError(t, err)
	err = th.ProcessTask(context.Background(), task)
	assert.ErrorIs(t, err, export.ErrCapture)
	assert.Empty(t, h.store.objects)
}
