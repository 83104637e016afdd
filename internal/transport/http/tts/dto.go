package tts

// SynthesizeResponse POST /api/tts 的成功返回
type SynthesizeResponse struct {
	Success        bool    `json:"success"`
	FileID         string  `json:"file_id"`
	Filename       string  `json:"filename"`
	DownloadURL    string  `json:"download_url"`
	Duration       float64 `json:"duration"`        // 音频时长(秒)，保留 2 位小数
	SampleRate     int     `json:"sample_rate"`
	GenerationTime float64 `json:"generation_time"` // 合成耗时(秒)，保留 2 位小数
	RTF            float64 `json:"rtf"`             // 实时率 = 合成耗时/音频时长，保留 3 位小数
	Volume         float64 `json:"volume"`
	Speed          float64 `json:"speed"`
	TextLength     int     `json:"text_length"`
	FileSize       int64   `json:"file_size"`
	Timestamp      string  `json:"timestamp"`
}

// HealthResponse GET /health 的返回
type HealthResponse struct {
	Status    string `json:"status"`
	Model     string `json:"model,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}

// InfoResponse GET /api/info 的返回
type InfoResponse struct {
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Languages []string          `json:"languages"`
	Model     ModelInfo         `json:"model"`
	Limits    LimitsInfo        `json:"limits"`
	Endpoints map[string]string `json:"endpoints"`
	System    SystemInfo        `json:"system"`
}

// ModelInfo 模型相关信息
type ModelInfo struct {
	Name       string `json:"name"`
	Dir        string `json:"dir"`
	NumThreads int    `json:"num_threads"`
	Ready      bool   `json:"ready"`
}

// LimitsInfo 参数范围与默认值
type LimitsInfo struct {
	MaxTextLength int      `json:"max_text_length"`
	SpeedMin      float64  `json:"speed_min"`
	SpeedMax      float64  `json:"speed_max"`
	SpeedDefault  float64  `json:"speed_default"`
	VolumeMin     float64  `json:"volume_min"`
	VolumeMax     float64  `json:"volume_max"`
	VolumeDefault float64  `json:"volume_default"`
	Formats       []string `json:"formats"`
}

// SystemInfo 进程与主机资源信息
type SystemInfo struct {
	UptimeSeconds     int64   `json:"uptime_seconds"`
	MemoryUsedPercent float64 `json:"memory_used_percent"`
	ProcessRSSBytes   uint64  `json:"process_rss_bytes"`
	CPUPercent        float64 `json:"cpu_percent"`
}
