package database

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	"DemoHub/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open("oracle", "x", slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}

func TestOpenMemoryMigratesAndTranslatesErrors(t *testing.T) {
	db, err := OpenMemory()
	require.NoError(t, err)

	for _, m := range []any{&models.User{}, &models.Chat{}, &models.Message{}, &models.ModelInfo{}} {
		assert.True(t, db.Migrator().HasTable(m))
	}

	require.NoError(t, db.Create(&models.User{Email: "a@example.com", Provider: models.ProviderEmail}).Error)
	err = db.Create(&models.User{Email: "a@example.com", Provider: models.ProviderEmail}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestQueryLogsGoToSlog(t *testing.T) {
	var buf bytes.Buffer
	db, err := openMemory(slog.New(slog.NewJSONHandler(&buf, nil)))
	require.NoError(t, err)
	buf.Reset()

	var u models.User
	err = db.First(&u, "email = ?", "nobody@example.com").Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String())

	require.NoError(t, db.Create(&models.User{Email: "a@example.com", Provider: models.ProviderEmail}).Error)
	require.Error(t, db.Create(&models.User{Email: "a@example.com", Provider: models.ProviderEmail}).Error)
	assert.Contains(t, buf.String(), `"component":"db"`)
	assert.Contains(t, buf.String(), `"level":"ERROR"`)
	assert.NotContains(t, buf.String(), "\x1b[")
}
