package inter

import "context"

// Engine 语音合成引擎接口。实现由后端适配器提供，对上层完全不透明。
type Engine interface {
	// Synthesize 将文本合成为音频采样
	Synthesize(ctx context.Context, text string, speakerID int, speed float64) (*Result, error)

	// ModelName 返回引擎加载的模型名称
	ModelName() string

	// Close 释放引擎资源
	Close() error
}

// Result 一次合成调用的原始输出
type Result struct {
	Samples    []float32 `json:"samples"`     // 归一化采样，范围 [-1.0, 1.0]
	SampleRate int       `json:"sample_rate"` // 采样率(Hz)
}

// Duration 返回音频时长(秒)
func (r *Result) Duration() float64 {
	if r == nil || r.SampleRate <= 0 {
		return 0
	}
	return float64(len(r.Samples)) / float64(r.SampleRate)
}

// Empty 判断合成结果是否为空
func (r *Result) Empty() bool {
	return r == nil || len(r.Samples) == 0
}
