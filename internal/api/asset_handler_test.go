package api

import (
	"bytes"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumify/internal/auth"
)

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func (h *harness) upload(token string, content []byte) *httptest.ResponseRecorder {
	h.t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", "avatar.bin")
	require.NoError(h.t, err)
	_, err = part.Write(content)
	require.NoError(h.t, err)
	require.NoError(h.t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/assets/avatar", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func TestUploadAvatar(t *testing.T) {
	h := newHarness(t)
	user, token := h.createUser("writer@example.com", false)

	assert.Equal(t, http.StatusUnauthorized, h.upload("", tinyPNG(t)).Code)

	rec := h.upload(token, tinyPNG(t))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode[map[string]string](t, rec)
	key := body["objectKey"]
	assert.True(t, strings.HasPrefix(key, "avatars/user/"), key)
	assert.True(t, strings.HasSuffix(key, ".png"), key)
	assert.True(t, ownsAvatarKey(&auth.Identity{UserID: user.ID}, key))
	assert.Equal(t, "image/png", h.store.types[key])
	assert.Contains(t, body["url"], key)

	rec = h.do(http.MethodGet, "/v1/assets/avatar?key="+key, nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["url"], key)

	_, other := h.createUser("other@example.com", false)
	rec = h.do(http.MethodGet, "/v1/assets/avatar?key="+key, nil, other)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUploadAvatarRejects(t *testing.T) {
	h := newHarness(t)
	_, token := h.createUser("writer@example.com", false)

	rec := h.upload(token, []byte("#!/bin/sh\necho hi\n"))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	rec = h.upload(token, bytes.Repeat([]byte{0}, maxAvatarBytes+1))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Empty(t, h.store.objects)
}

func TestUploadAvatarScanner(t *testing.T) {
	infected := newHarness(t, func(d *Deps) { d.Scanner = fakeScanner{err: ErrInfected} })
	_, token := infected.createUser("writer@example.com", false)
	assert.Equal(t, http.StatusBadRequest, infected.upload(token, tinyPNG(t)).Code)
	assert.Empty(t, infected.store.objects)

	broken := newHarness(t, func(d *Deps) { d.Scanner = fakeScanner{err: errBoom} })
	_, token = broken.createUser("writer@example.com", false)
	assert.Equal(t, http.StatusInternalServerError, broken.upload(token, tinyPNG(t)).Code)

	clean := newHarness(t, func(d *Deps) { d.Scanner = fakeScanner{} })
	_, token = clean.createUser("writer@example.com", false)
	assert.Equal(t, http.StatusCreated, clean.upload(token, tinyPNG(t)).Code)
}

func TestOwnsAvatarKey(t *testing.T) {
	id := &auth.Identity{UserID: 7}
	assert.True(t, ownsAvatarKey(id, "avatars/user/7/a.webp"))
	assert.False(t, ownsAvatarKey(id, "avatars/user/70/a.png"))
	assert.False(t, ownsAvatarKey(id, "avatars/user/7/../8/a.png"))
	assert.False(t, ownsAvatarKey(id, "avatars/user/7//a.png"))
	assert.False(t, ownsAvatarKey(id, "avatars/user/7/a.gif"))
	assert.False(t, ownsAvatarKey(nil, "avatars/user/7/a.png"))

	assert.True(t, checkAvatarReference(nil, "https://cdn.example.com/me.png"))
	assert.True(t, checkAvatarReference(nil, "data:image/png;base64,AAAA"))
	assert.False(t, checkAvatarReference(nil, "avatars/user/7/a.png"))
	assert.True(t, checkAvatarReference(id, "avatars/user/7/a.png"))
}
