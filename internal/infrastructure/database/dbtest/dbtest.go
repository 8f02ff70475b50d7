// Package dbtest 为测试提供迁移好的内存 sqlite 库
package dbtest

import (
	"testing"

	"healthloop/internal/infrastructure/database"
	"healthloop/pkg/idgen"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New 每次调用得到独立的库；单连接，事务内的查询必须使用事务句柄
func New(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := "file:" + idgen.NewUUID() + "?mode=memory&cache=shared&_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}
