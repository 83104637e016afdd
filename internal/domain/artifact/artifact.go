package artifact

import (
	"context"
	"time"
)

// Artifact 一次合成落盘产生的音频制品。每次请求都生成独立制品，
// 相同文本不做去重复用。
type Artifact struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Path       string    `json:"-"`
	SampleRate int       `json:"sample_rate"`
	Size       int64     `json:"size"`
	CreatedAt  time.Time `json:"created_at"`
}

// Repository 制品元数据的持久化接口，实现见 platform/storage
type Repository interface {
	// Save 写入一条制品记录
	Save(ctx context.Context, a *Artifact) error
	// FindByID 按 ID 查询，未找到返回 (nil, nil)
	FindByID(ctx context.Context, id string) (*Artifact, error)
	// ListOlderThan 返回创建时间早于 cutoff 的全部制品
	ListOlderThan(ctx context.Context, cutoff time.Time) ([]*Artifact, error)
	// Delete 删除一条制品记录
	Delete(ctx context.Context, id string) error
}
