package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
	Web    WebConfig    `yaml:"web" mapstructure:"web"`
	Model  ModelConfig  `yaml:"model" mapstructure:"model"`
	Synth  SynthConfig  `yaml:"synth" mapstructure:"synth"`
	Output OutputConfig `yaml:"output" mapstructure:"output"`
}

type ServerConfig struct {
	IP   string `yaml:"ip" mapstructure:"ip"`
	Port int    `yaml:"port" mapstructure:"port"`
}

type LogConfig struct {
	Level string `yaml:"log_level" mapstructure:"log_level"`
	Dir   string `yaml:"log_dir" mapstructure:"log_dir"`
	File  string `yaml:"log_file" mapstructure:"log_file"`
}

type WebConfig struct {
	StaticDir string `yaml:"static_dir" mapstructure:"static_dir"`
}

// ModelConfig 合成模型配置
type ModelConfig struct {
	Name       string `yaml:"name" mapstructure:"name"`
	Dir        string `yaml:"dir" mapstructure:"dir"`
	Binary     string `yaml:"binary" mapstructure:"binary"`
	NumThreads int    `yaml:"num_threads" mapstructure:"num_threads"`
	SpeakerID  int    `yaml:"speaker_id" mapstructure:"speaker_id"`
}

// SynthConfig 合成请求的边界与默认值，校验器只读这一张表
type SynthConfig struct {
	MaxTextLength int     `yaml:"max_text_length" mapstructure:"max_text_length"`
	DefaultSpeed  float64 `yaml:"default_speed" mapstructure:"default_speed"`
	DefaultVolume float64 `yaml:"default_volume" mapstructure:"default_volume"`
	DefaultFormat string  `yaml:"default_format" mapstructure:"default_format"`
}

// OutputConfig 音频产物存储配置
type OutputConfig struct {
	Dir             string        `yaml:"dir" mapstructure:"dir"`
	DatabasePath    string        `yaml:"database_path" mapstructure:"database_path"`
	Retention       time.Duration `yaml:"retention" mapstructure:"retention"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" mapstructure:"cleanup_interval"`
}

// UnmarshalYAML 支持 "1h"/"10m" 这类时长写法。未出现的键保留已有值。
func (o *OutputConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Dir             string `yaml:"dir"`
		DatabasePath    string `yaml:"database_path"`
		Retention       string `yaml:"retention"`
		CleanupInterval string `yaml:"cleanup_interval"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	if raw.Dir != "" {
		o.Dir = raw.Dir
	}
	if raw.DatabasePath != "" {
		o.DatabasePath = raw.DatabasePath
	}
	if raw.Retention != "" {
		d, err := time.ParseDuration(raw.Retention)
		if err != nil {
			return fmt.Errorf("无效的 retention 时长 %q: %w", raw.Retention, err)
		}
		o.Retention = d
	}
	if raw.CleanupInterval != "" {
		d, err := time.ParseDuration(raw.CleanupInterval)
		if err != nil {
			return fmt.Errorf("无效的 cleanup_interval 时长 %q: %w", raw.CleanupInterval, err)
		}
		o.CleanupInterval = d
	}
	return nil
}
