package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skynet-legal/legaleagle-api/internal/models"
)

func newSettingsRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func TestSettingsRepositoryListByUser(t *testing.T) {
	db, mock, cleanup := newSettingsRepoMock(t)
	defer cleanup()

	repo := NewSettingsRepository(db)
	rows := sqlmock.NewRows([]string{"user_id", "key", "value", "type", "updated_at"}).
		AddRow("user-1", "auto_notify", "true", "BOOLEAN", time.Now()).
		AddRow("user-1", "gateway_url", "https://gateway.example/send", "STRING", time.Now())
	mock.ExpectQuery("SELECT user_id, key, value").
		WithArgs("user-1").
		WillReturnRows(rows)

	result, err := repo.ListByUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "auto_notify", result[0].Key)
	assert.Equal(t, models.SettingTypeBoolean, result[0].Type)
}

func TestSettingsRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newSettingsRepoMock(t)
	defer cleanup()

	repo := NewSettingsRepository(db)
	mock.ExpectExec("INSERT INTO settings").
		WithArgs("user-1", "gateway_url", "https://gateway.example/send", "STRING", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	s := &models.Setting{
		UserID: "user-1",
		Key:    models.SettingGatewayURL,
		Value:  "https://gateway.example/send",
		Type:   models.SettingTypeString,
	}
	require.NoError(t, repo.Upsert(context.Background(), s))
	assert.False(t, s.UpdatedAt.IsZero())
}

func TestSettingsRepositoryBulkUpsert(t *testing.T) {
	db, mock, cleanup := newSettingsRepoMock(t)
	defer cleanup()

	repo := NewSettingsRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO settings").
		WithArgs("user-1", "admin_phone", "+628111", "STRING", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO settings").
		WithArgs("user-1", "auto_notify", "false", "BOOLEAN", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	items := []models.Setting{
		{UserID: "user-1", Key: models.SettingAdminPhone, Value: "+628111", Type: models.SettingTypeString},
		{UserID: "user-1", Key: models.SettingAutoNotify, Value: "false", Type: models.SettingTypeBoolean},
	}
	require.NoError(t, repo.BulkUpsert(context.Background(), items))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsRepositoryBulkUpsertEmptyIsNoop(t *testing.T) {
	db, mock, cleanup := newSettingsRepoMock(t)
	defer cleanup()

	repo := NewSettingsRepository(db)
	require.NoError(t, repo.BulkUpsert(context.Background(), nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsRepositoryListAutoNotifyUsers(t *testing.T) {
	db, mock, cleanup := newSettingsRepoMock(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"user_id"}).AddRow("user-1").AddRow("user-7")
	mock.ExpectQuery(`SELECT user_id FROM settings WHERE key = 'auto_notify' AND value = 'true'`).
		WillReturnRows(rows)

	repo := NewSettingsRepository(db)
	ids, err := repo.ListAutoNotifyUsers(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"user-1", "user-7"}, ids)
	require.NoError(t, mock.ExpectationsWereMet())
}
