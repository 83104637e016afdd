package config

import "time"

// Default returns the built-in configuration used when no config file exists.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			IP:   "0.0.0.0",
			Port: 5000,
		},
		Log: LogConfig{
			Level: "info",
			Dir:   "logs",
			File:  "server.log",
		},
		Web: WebConfig{
			StaticDir: "./web",
		},
		Model: ModelConfig{
			Name:       "vits-melo-tts-zh_en",
			Dir:        "models/vits-melo-tts-zh_en",
			Binary:     "sherpa-onnx-offline-tts",
			NumThreads: 4,
			SpeakerID:  0,
		},
		Synth: SynthConfig{
			MaxTextLength: 500,
			DefaultSpeed:  1.0,
			DefaultVolume: 1.5,
			DefaultFormat: "wav",
		},
		Output: OutputConfig{
			Dir:             "output",
			DatabasePath:    "output/artifacts.db",
			Retention:       time.Hour,
			CleanupInterval: 10 * time.Minute,
		},
	}
}
