package main

import (
	"os"
	"path"
	"runtime"
	"time"

	rotates "github.com/lestrrat-go/file-rotatelogs"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"

	"github.com/haolipeng/webstr/pkg/config"
)

func parseLevel(level string) logrus.Level {
	switch level {
	case "DEBUG":
		return logrus.DebugLevel
	case "INFO":
		return logrus.InfoLevel
	case "WARN":
		return logrus.WarnLevel
	case "ERROR":
		return logrus.ErrorLevel
	case "FATAL":
		return logrus.FatalLevel
	case "PANIC":
		return logrus.PanicLevel
	default:
		return logrus.WarnLevel //默认
	}
}

// InitLogger 初始化日志，设置了日志目录时按时间切割写入文件
func InitLogger(cfg *config.Config) error {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logrus.SetOutput(os.Stderr)
	logrus.SetLevel(parseLevel(cfg.Log.Level))

	if cfg.Log.Dir == "" {
		return nil
	}

	//1、判断文件路径和文件是否存在，不存在则创建
	if _, err := os.Stat(cfg.Log.Dir); os.IsNotExist(err) {
		if err := os.MkdirAll(cfg.Log.Dir, 0755); err != nil {
			return err
		}
	}
	logFileName := path.Join(cfg.Log.Dir, cfg.Log.Filename)

	maxAge := time.Duration(cfg.Log.MaxAge) * time.Hour
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}
	rotateTime := time.Duration(cfg.Log.RotateTime) * time.Hour
	if rotateTime <= 0 {
		rotateTime = time.Hour
	}

	//2、日志切割功能，按时间来切割
	options := []rotates.Option{
		rotates.WithMaxAge(maxAge),
		rotates.WithRotationTime(rotateTime),
	}
	if runtime.GOOS == "linux" {
		options = append(options, rotates.WithLinkName(logFileName)) //文件软链接
	}
	logWriter, err := rotates.New(logFileName+".%Y%m%d%H%M", options...)
	if err != nil {
		return err
	}

	//3、所有级别写入同一个切割文件
	lfHook := lfshook.NewHook(lfshook.WriterMap{
		logrus.DebugLevel: logWriter,
		logrus.InfoLevel:  logWriter,
		logrus.WarnLevel:  logWriter,
		logrus.ErrorLevel: logWriter,
		logrus.FatalLevel: logWriter,
		logrus.PanicLevel: logWriter,
	}, &logrus.TextFormatter{})

	logrus.AddHook(lfHook)
	return nil
}
