// @title 语音合成服务 API 文档
// @version 1.0
// @description 基于 sherpa-onnx 的离线语音合成服务，包含合成、下载与健康检查接口
// @host localhost:5000
// @BasePath /api
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"tts-server-go/internal/bootstrap"
)

func main() {
	fmt.Printf("[%s] [INFO] [引导] 开始启动 tts-server...\n", time.Now().Format("2006-01-02 15:04:05.000"))
	if err := bootstrap.Run(context.Background()); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "tts-server failed: %v\n", err)
		os.Exit(1)
	}
}
