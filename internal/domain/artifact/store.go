package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"tts-server-go/internal/domain/audio"
	"tts-server-go/internal/platform/errors"
	"tts-server-go/internal/platform/logging"
)

// Store 管理音频制品：WAV 文件落盘 + 元数据入库。
// 文件名即 "<uuid>.wav"，目录内不会发生同名覆盖。
type Store struct {
	dir    string
	repo   Repository
	logger *logging.Logger
}

// NewStore 创建制品仓库，输出目录不存在时自动创建
func NewStore(dir string, repo Repository, logger *logging.Logger) (*Store, error) {
	const op = "artifact.store"

	if dir == "" {
		return nil, errors.New(errors.KindConfig, op, "输出目录不能为空")
	}
	if repo == nil {
		return nil, errors.New(errors.KindConfig, op, "缺少元数据仓库")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.KindStorage, op, "创建输出目录失败", err)
	}

	return &Store{
		dir:    dir,
		repo:   repo,
		logger: logger,
	}, nil
}

// Save 将采样编码为 WAV 写入磁盘并登记元数据。任一步失败都不留半成品：
// 元数据写入失败时会删除已落盘的文件。
func (s *Store) Save(ctx context.Context, samples []float32, sampleRate int) (*Artifact, error) {
	const op = "artifact.save"

	data, err := audio.Encode(samples, sampleRate)
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, op, "编码 WAV 失败", err)
	}

	id := uuid.NewString()
	filename := id + ".wav"
	path := filepath.Join(s.dir, filename)

	// O_EXCL: uuid 理论上不会撞，真撞了宁可报错也不覆盖
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, op, "创建制品文件失败", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(path)
		return nil, errors.Wrap(errors.KindStorage, op, "写入制品文件失败", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(path)
		return nil, errors.Wrap(errors.KindStorage, op, "关闭制品文件失败", err)
	}

	a := &Artifact{
		ID:         id,
		Filename:   filename,
		Path:       path,
		SampleRate: sampleRate,
		Size:       int64(len(data)),
		CreatedAt:  time.Now(),
	}
	if err := s.repo.Save(ctx, a); err != nil {
		os.Remove(path)
		return nil, errors.Wrap(errors.KindStorage, op, "登记制品元数据失败", err)
	}

	s.logger.DebugTag("存储", "制品已保存: id=%s, size=%d", id, a.Size)
	return a, nil
}

// Open 按 ID 查找可读取的制品。记录不存在、ID 非法或文件已丢失都返回 KindNotFound。
func (s *Store) Open(ctx context.Context, id string) (*Artifact, error) {
	const op = "artifact.open"

	// 先校验 ID 格式，顺带挡掉路径穿越
	if _, err := uuid.Parse(id); err != nil {
		return nil, errors.New(errors.KindNotFound, op, fmt.Sprintf("制品不存在: %s", id))
	}

	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, op, "查询制品元数据失败", err)
	}
	if a == nil {
		return nil, errors.New(errors.KindNotFound, op, fmt.Sprintf("制品不存在: %s", id))
	}

	a.Path = filepath.Join(s.dir, a.Filename)
	if _, err := os.Stat(a.Path); err != nil {
		return nil, errors.New(errors.KindNotFound, op, fmt.Sprintf("制品文件已丢失: %s", id))
	}
	return a, nil
}

// EvictExpired 删除创建时间超过 ttl 的制品，返回删除数量。
// 单个制品删除失败只记日志，不中断整轮清理。
func (s *Store) EvictExpired(ctx context.Context, ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)

	expired, err := s.repo.ListOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.ErrorTag("清理", "查询过期制品失败: %v", err)
		return 0
	}

	removed := 0
	for _, a := range expired {
		path := filepath.Join(s.dir, a.Filename)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.logger.WarnTag("清理", "删除制品文件失败 %s: %v", a.ID, err)
			continue
		}
		if err := s.repo.Delete(ctx, a.ID); err != nil {
			s.logger.WarnTag("清理", "删除制品记录失败 %s: %v", a.ID, err)
			continue
		}
		removed++
	}

	if removed > 0 {
		s.logger.InfoTag("清理", "已清理 %d 个过期制品", removed)
	}
	return removed
}
