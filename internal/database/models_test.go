package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestMigrateAndExportRoundTrip(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	user := User{Email: "alex@example.com", Name: "Alex Morgan", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)

	exp := Export{
		ID:         "5b7d3c1e-0000-4000-8000-000000000001",
		UserID:     &user.ID,
		TemplateID: "ats-0",
		Snapshot:   datatypes.JSON(`{"personal":{"fullName":"Alex Morgan"}}`),
		Status:     ExportStatusPending,
	}
	require.NoError(t, db.Create(&exp).Error)

	guest := Export{ID: "5b7d3c1e-0000-4000-8000-000000000002", ClientKey: "guest:127.0.0.1", TemplateID: "ONYX", Status: ExportStatusPending}
	require.NoError(t, db.Create(&guest).Error)

	var got Export
	require.NoError(t, db.First(&got, "id = ?", exp.ID).Error)
	require.NotNil(t, got.UserID)
	assert.Equal(t, user.ID, *got.UserID)
	assert.JSONEq(t, `{"personal":{"fullName":"Alex Morgan"}}`, string(got.Snapshot))

	var gotGuest Export
	require.NoError(t, db.First(&gotGuest, "id = ?", guest.ID).Error)
	assert.Nil(t, gotGuest.UserID)
}
