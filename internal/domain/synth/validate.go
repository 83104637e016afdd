package synth

import (
	"fmt"
	"strings"

	"tts-server-go/internal/platform/config"
	"tts-server-go/internal/platform/errors"
)

// 参数合法范围。超出即拒绝，不做截断或修正。
const (
	SpeedMin  = 0.5
	SpeedMax  = 2.0
	VolumeMin = 0.5
	VolumeMax = 3.0
)

// RawRequest 客户端提交的原始合成参数。speed/volume 为空指针表示未提供。
type RawRequest struct {
	Text   string   `json:"text"`
	Speed  *float64 `json:"speed"`
	Volume *float64 `json:"volume"`
	Format string   `json:"format"`
}

// Request 通过校验后的合成参数，所有字段已填充默认值
type Request struct {
	Text   string
	Speed  float64
	Volume float64
	Format string
}

// Validator 按固定顺序校验合成参数并填充默认值。
// 默认值只来自配置中的合成参数表，不在校验逻辑里散落字面量。
type Validator struct {
	cfg config.SynthConfig
}

// NewValidator 创建参数校验器
func NewValidator(cfg config.SynthConfig) *Validator {
	return &Validator{cfg: cfg}
}

// Validate 校验原始请求。规则按声明顺序执行，命中第一条失败即返回，
// 不收集全部错误。返回的错误消息指明具体字段和允许范围。
func (v *Validator) Validate(raw *RawRequest) (*Request, error) {
	if raw == nil || strings.TrimSpace(raw.Text) == "" {
		return nil, errors.New(errors.KindValidation, "validate.text",
			"缺少 text 字段或文本为空")
	}
	if n := len([]rune(raw.Text)); n > v.cfg.MaxTextLength {
		return nil, errors.New(errors.KindValidation, "validate.text_length",
			fmt.Sprintf("文本长度 %d 超过上限 %d", n, v.cfg.MaxTextLength))
	}

	speed := v.cfg.DefaultSpeed
	if raw.Speed != nil {
		speed = *raw.Speed
	}
	if speed < SpeedMin || speed > SpeedMax {
		return nil, errors.New(errors.KindValidation, "validate.speed",
			fmt.Sprintf("语速 %.2f 超出允许范围 [%.1f, %.1f]", speed, SpeedMin, SpeedMax))
	}

	volume := v.cfg.DefaultVolume
	if raw.Volume != nil {
		volume = *raw.Volume
	}
	if volume < VolumeMin || volume > VolumeMax {
		return nil, errors.New(errors.KindValidation, "validate.volume",
			fmt.Sprintf("音量 %.2f 超出允许范围 [%.1f, %.1f]", volume, VolumeMin, VolumeMax))
	}

	format := raw.Format
	if format == "" {
		format = v.cfg.DefaultFormat
	}
	if format != "wav" {
		return nil, errors.New(errors.KindValidation, "validate.format",
			fmt.Sprintf("不支持的音频格式: %s", format))
	}

	return &Request{
		Text:   raw.Text,
		Speed:  speed,
		Volume: volume,
		Format: format,
	}, nil
}
