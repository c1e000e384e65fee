package gormdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/atvirokodosprendimai/maintlog/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
)

func TestDialectorForPicksDriverByScheme(t *testing.T) {
	assert.Equal(t, "postgres", dialectorFor("postgres://u:p@db:5432/maint").Name())
	assert.Equal(t, "postgres", dialectorFor("postgresql://u:p@db/maint").Name())
	assert.Equal(t, "mysql", dialectorFor("mysql://u:p@tcp(db:3306)/maint").Name())
	assert.Equal(t, "sqlite", dialectorFor("maint.db").Name())

	my, ok := dialectorFor("mysql://u:p@tcp(db:3306)/maint").(*mysql.Dialector)
	if assert.True(t, ok) {
		assert.Equal(t, "u:p@tcp(db:3306)/maint?parseTime=true", my.Config.DSN)
	}

	lite, ok := dialectorFor("sqlite:///var/lib/maint.db").(sqlite.Dialector)
	if assert.True(t, ok) {
		assert.Equal(t, "/var/lib/maint.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", lite.DSN)
	}
}

func TestDSNHelpersKeepExplicitOptions(t *testing.T) {
	assert.Equal(t, "u@tcp(h)/d?charset=utf8mb4&parseTime=true", mysqlDSN("u@tcp(h)/d?charset=utf8mb4"))
	assert.Equal(t, "u@tcp(h)/d?parseTime=false", mysqlDSN("u@tcp(h)/d?parseTime=false"))
	assert.Equal(t, "file.db?mode=ro", sqliteDSN("file.db?mode=ro"))
}

func TestCloseReleasesConnectionPool(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "close_test.db"), zap.NewNop())
	require.NoError(t, err)
	repo := NewRecordRepository(db)
	require.NoError(t, repo.Ping(context.Background()))

	require.NoError(t, Close(db))

	err = repo.Ping(context.Background())
	require.Error(t, err)
	assert.True(t, domain.IsStorage(err))
}
