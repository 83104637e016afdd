package storage

import (
	"context"
	"time"

	"gorm.io/gorm"

	"tts-server-go/internal/domain/artifact"
	"tts-server-go/internal/platform/errors"
)

// ArtifactRecord 制品元数据表
type ArtifactRecord struct {
	ID         string    `gorm:"primaryKey;size:36"`
	Filename   string    `gorm:"size:64;not null"`
	SampleRate int       `gorm:"not null"`
	Size       int64     `gorm:"not null"`
	CreatedAt  time.Time `gorm:"index;not null"`
}

// TableName 指定表名
func (ArtifactRecord) TableName() string {
	return "artifacts"
}

// ArtifactRepository 基于 gorm 的制品元数据仓库
type ArtifactRepository struct {
	db *gorm.DB
}

var _ artifact.Repository = (*ArtifactRepository)(nil)

// NewArtifactRepository 创建制品元数据仓库
func NewArtifactRepository(db *gorm.DB) *ArtifactRepository {
	return &ArtifactRepository{db: db}
}

// Save 写入一条制品记录
func (r *ArtifactRepository) Save(ctx context.Context, a *artifact.Artifact) error {
	record := toRecord(a)
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return errors.Wrap(errors.KindStorage, "artifact_repo.save", "写入制品记录失败", err)
	}
	return nil
}

// FindByID 按 ID 查询制品记录，未找到返回 (nil, nil)
func (r *ArtifactRepository) FindByID(ctx context.Context, id string) (*artifact.Artifact, error) {
	var record ArtifactRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(errors.KindStorage, "artifact_repo.find", "查询制品记录失败", err)
	}
	return fromRecord(&record), nil
}

// ListOlderThan 返回创建时间早于 cutoff 的全部制品
func (r *ArtifactRepository) ListOlderThan(ctx context.Context, cutoff time.Time) ([]*artifact.Artifact, error) {
	var records []ArtifactRecord
	err := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Find(&records).Error
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "artifact_repo.list_expired", "查询过期制品失败", err)
	}

	artifacts := make([]*artifact.Artifact, 0, len(records))
	for i := range records {
		artifacts = append(artifacts, fromRecord(&records[i]))
	}
	return artifacts, nil
}

// Delete 删除一条制品记录
func (r *ArtifactRepository) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&ArtifactRecord{}).Error
	if err != nil {
		return errors.Wrap(errors.KindStorage, "artifact_repo.delete", "删除制品记录失败", err)
	}
	return nil
}

func toRecord(a *artifact.Artifact) *ArtifactRecord {
	return &ArtifactRecord{
		ID:         a.ID,
		Filename:   a.Filename,
		SampleRate: a.SampleRate,
		Size:       a.Size,
		CreatedAt:  a.CreatedAt,
	}
}

func fromRecord(record *ArtifactRecord) *artifact.Artifact {
	return &artifact.Artifact{
		ID:         record.ID,
		Filename:   record.Filename,
		SampleRate: record.SampleRate,
		Size:       record.Size,
		CreatedAt:  record.CreatedAt,
	}
}
