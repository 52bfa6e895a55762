package api

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"resumify/internal/auth"
	"resumify/internal/catalog"
	"resumify/internal/database"
	"resumify/internal/drafts"
	"resumify/internal/ratelimit"
	"resumify/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var (
	keyOnce sync.Once
	privPEM []byte
	pubPEM  []byte
)

func testKeys(t *testing.T) ([]byte, []byte) {
	t.Helper()
	keyOnce.Do(func() {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
		privPEM = pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
		pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
		if err != nil {
			panic(err)
		}
		pubPEM = pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	})
	return privPEM, pubPEM
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

type fakeQueue struct {
	mu    sync.Mutex
	tasks []*asynq.Task
	err   error

	// onEnqueue 在返回前执行，用来在入队时改变外部状态。
	onEnqueue func()
}

func (q *fakeQueue) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.onEnqueue != nil {
		q.onEnqueue()
	}
	if q.err != nil {
		return nil, q.err
	}
	q.tasks = append(q.tasks, task)
	return &asynq.TaskInfo{ID: fmt.Sprintf("task-%d", len(q.tasks)), Type: task.Type()}, nil
}

type fakeLock struct {
	mu   sync.Mutex
	held map[string]bool
}

func (l *fakeLock) Acquire(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return false, nil
	}
	l.held[key] = true
	return true, nil
}

func (l *fakeLock) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	return nil
}

func (l *fakeLock) isHeld(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held[key]
}

type fakeRevoker struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func (r *fakeRevoker) Revoke(_ context.Context, jti string, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked[jti] = true
	return nil
}

func (r *fakeRevoker) Revoked(_ context.Context, jti string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.revoked[jti], nil
}

type fakeScanner struct {
	err error
}

func (s fakeScanner) Scan(r io.Reader) error {
	_, _ = io.Copy(io.Discard, r)
	return s.err
}

// logBuffer 收集测试中的日志输出，可并发写入。
type logBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *logBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *logBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type harness struct {
	t       *testing.T
	db      *gorm.DB
	router  *gin.Engine
	store   *memStore
	queue   *fakeQueue
	lock    *fakeLock
	revoker *fakeRevoker
	auth    *auth.AuthService
	drafts  *drafts.Store
	logs    *logBuffer
}

func newHarness(t *testing.T, tweak ...func(*Deps)) *harness {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "api.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	priv, pub := testKeys(t)
	svc, err := auth.NewAuthService(priv, pub, 15*time.Minute, time.Hour)
	require.NoError(t, err)

	logs := &logBuffer{}
	logger := slog.New(slog.NewTextHandler(logs, nil))
	h := &harness{
		t:       t,
		db:      db,
		store:   newMemStore(),
		queue:   &fakeQueue{},
		lock:    &fakeLock{held: map[string]bool{}},
		revoker: &fakeRevoker{revoked: map[string]bool{}},
		auth:    svc,
		drafts:  drafts.NewStore(db, logger),
		logs:    logs,
	}

	deps := Deps{
		DB:             db,
		Catalog:        catalog.Default(),
		Drafts:         h.drafts,
		Store:          h.store,
		Queue:          h.queue,
		Auth:           svc,
		Revoker:        h.revoker,
		LoginLimiter:   ratelimit.NewMemory(100, time.Hour),
		ExportLimiter:  ratelimit.NewMemory(100, time.Hour),
		ExportLock:     h.lock,
		Logger:         logger,
		InternalSecret: "s3cret",
		PresignTTL:     10 * time.Minute,
	}
	for _, fn := range tweak {
		fn(&deps)
	}

	h.router = NewRouter(logger, []string{"https://app.example.com"})
	RegisterRoutes(h.router, deps)
	return h
}

// createUser 创建账号并返回访问令牌。
func (h *harness) createUser(email string, premium bool) (database.User, string) {
	h.t.Helper()
	hash, err := auth.HashPassword("correct horse")
	require.NoError(h.t, err)
	user := database.User{Email: email, Name: "Test User", PasswordHash: hash, IsPremium: premium}
	require.NoError(h.t, h.db.Create(&user).Error)

	pair, err := h.auth.GenerateTokenPair(auth.Identity{UserID: user.ID, Name: user.Name, Email: user.Email, IsPremium: premium})
	require.NoError(h.t, err)
	return user, pair.AccessToken
}

// do 发送请求；body 为 string 或 []byte 时原样发送，其余编码为 JSON。
func (h *harness) do(method, path string, body any, token string, headers ...string) *httptest.ResponseRecorder {
	h.t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	case []byte:
		reader = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(h.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

var errBoom = errors.New("boom")
