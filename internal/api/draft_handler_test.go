package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumify/internal/catalog"
	"resumify/internal/errcode"
	"resumify/internal/resume"
)

func TestDraftsRequireLogin(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodGet, "/v1/drafts", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDraftLifecycle(t *testing.T) {
	h := newHarness(t)
	_, token := h.createUser("writer@example.com", false)

	rec := h.do(http.MethodGet, "/v1/drafts", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	initial := decode[draftResponse](t, rec)
	assert.False(t, initial.Saved)
	assert.Equal(t, "Alex Morgan", initial.Data.Personal.FullName)

	data := resume.Sample()
	data.Personal.FullName = "Sam Rivera"
	data.Skills = []resume.Skill{{ID: "s1", Name: "Go", Level: 9}}
	rec = h.do(http.MethodPut, "/v1/drafts", data, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	saved := decode[draftResponse](t, rec)
	assert.True(t, saved.Saved)
	assert.Equal(t, 5, saved.Data.Skills[0].Level)

	rec = h.do(http.MethodPost, "/v1/drafts/skills", resume.Skill{ID: "s2", Name: "SQL", Level: 3}, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decode[draftResponse](t, rec).Data.Skills, 2)

	rec = h.do(http.MethodPut, "/v1/drafts/skills/s2", resume.Skill{Name: "PostgreSQL", Level: 4}, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	skills := decode[draftResponse](t, rec).Data.Skills
	assert.Equal(t, "PostgreSQL", skills[1].Name)
	assert.Equal(t, "s2", skills[1].ID)

	rec = h.do(http.MethodDelete, "/v1/drafts/skills/s1", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[draftResponse](t, rec).Data.Skills, 1)

	rec = h.do(http.MethodDelete, "/v1/drafts/skills/s1", nil, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(http.MethodPut, "/v1/drafts/personal", resume.Personal{FullName: "Sam R."}, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Sam R.", decode[draftResponse](t, rec).Data.Personal.FullName)

	rec = h.do(http.MethodGet, "/v1/drafts", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	final := decode[draftResponse](t, rec)
	assert.True(t, final.Saved)
	assert.Equal(t, "Sam R.", final.Data.Personal.FullName)
	assert.Equal(t, "PostgreSQL", final.Data.Skills[0].Name)
}

func TestDraftRejectsInvalidContent(t *testing.T) {
	h := newHarness(t)
	_, token := h.createUser("writer@example.com", false)

	rec := h.do(http.MethodPut, "/v1/drafts", `{"personal":{}}`, token)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	data := resume.Sample()
	data.Links = []resume.Link{{ID: "x"}, {ID: "x"}}
	rec = h.do(http.MethodPut, "/v1/drafts", data, token)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = h.do(http.MethodPost, "/v1/drafts/hobbies", map[string]any{}, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(http.MethodPost, "/v1/drafts/links", resume.Link{Label: "no id"}, token)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestSelectTemplateGate(t *testing.T) {
	h := newHarness(t)
	_, basic := h.createUser("basic@example.com", false)
	_, pro := h.createUser("pro@example.com", true)

	rec := h.do(http.MethodPut, "/v1/drafts/template", map[string]string{"templateId": catalog.Horizon}, basic)
	require.Equal(t, http.StatusPaymentRequired, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "upgrade", body["redirect"])
	assert.EqualValues(t, errcode.UpgradeRequired, body["code"])

	rec = h.do(http.MethodPut, "/v1/drafts/template", map[string]string{"templateId": "missing"}, basic)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(http.MethodPut, "/v1/drafts/template", map[string]string{"templateId": catalog.Horizon}, pro)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(http.MethodGet, "/v1/drafts", nil, pro)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, catalog.Horizon, decode[draftResponse](t, rec).TemplateID)
}
