package logger

import (
	"log"

	"go.uber.org/zap"
)

// New 按运行模式创建 zap 日志器
// release 走 JSON 生产配置，其余走开发配置（彩色、可读）
func New(mode string) *zap.Logger {
	var (
		l   *zap.Logger
		err error
	)

	if mode == "release" {
		l, err = zap.NewProduction()
	} else {
		l, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("日志初始化失败: %v", err)
	}

	return l
}
