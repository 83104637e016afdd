package storage

import (
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"tts-server-go/internal/platform/errors"
)

// Open 打开 sqlite 数据库并执行表结构迁移。数据库所在目录不存在时自动创建。
func Open(path string) (*gorm.DB, error) {
	const op = "storage.open"

	if path == "" {
		return nil, errors.New(errors.KindConfig, op, "数据库路径不能为空")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(errors.KindStorage, op, "创建数据库目录失败", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, op, "打开数据库失败", err)
	}

	if err := db.AutoMigrate(&ArtifactRecord{}); err != nil {
		return nil, errors.Wrap(errors.KindStorage, op, "数据库迁移失败", err)
	}

	return db, nil
}

// Close 关闭底层连接，带超时保护
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(errors.KindStorage, "storage.close", "获取底层连接失败", err)
	}
	sqlDB.SetConnMaxIdleTime(time.Second)
	return sqlDB.Close()
}
