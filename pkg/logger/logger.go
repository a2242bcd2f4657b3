package logger

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// Logger 全局日志实例，Init 之前使用 logrus 默认配置
	Logger = logrus.New()
	// currentLogFile 当前日志文件路径
	currentLogFile string
	// fileWriter 当前的轮转 writer，重新 Init 时关闭
	fileWriter *lumberjack.Logger
	logMu      sync.Mutex
)

// Config 日志配置
type Config struct {
	Level      string // 日志级别: debug, info, warn, error
	OutputFile string // 日志文件路径（可选，为空则只输出到控制台）
	MaxSize    int    // 日志文件最大大小（MB）
	MaxBackups int    // 保留的旧日志文件数量
	MaxAge     int    // 保留旧日志文件的天数
	Compress   bool   // 是否压缩旧日志文件
	Quiet      bool   // 不输出到控制台（TUI 场景）
}

func textFormatter() logrus.Formatter {
	return &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "06-01-02 15:04:05", // 格式: yy-mm-dd HH:MM:ss
	}
}

// Init 初始化日志系统
func Init(config Config) error {
	logMu.Lock()
	defer logMu.Unlock()

	logger := logrus.New()

	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	logger.SetFormatter(textFormatter())

	var writers []io.Writer
	if !config.Quiet {
		writers = append(writers, os.Stderr)
	}

	if fileWriter != nil {
		_ = fileWriter.Close()
		fileWriter = nil
		currentLogFile = ""
	}

	if config.OutputFile != "" {
		if err := os.MkdirAll(filepath.Dir(config.OutputFile), 0o755); err != nil {
			return err
		}
		fileWriter = &lumberjack.Logger{
			Filename:   config.OutputFile,
			MaxSize:    config.MaxSize,
			MaxBackups: config.MaxBackups,
			MaxAge:     config.MaxAge,
			Compress:   config.Compress,
		}
		writers = append(writers, fileWriter)
		currentLogFile = config.OutputFile
	}

	if len(writers) == 0 {
		writers = append(writers, io.Discard)
	}
	out := io.MultiWriter(writers...)
	logger.SetOutput(out)

	// 同步全局 logrus，第三方包里直接用 logrus 的地方也写到同一处
	logrus.SetOutput(out)
	logrus.SetLevel(level)
	logrus.SetFormatter(textFormatter())

	Logger = logger
	return nil
}

// InitDefault 使用默认配置初始化日志系统
func InitDefault() error {
	return Init(Config{
		Level:      "info",
		OutputFile: "logs/systock.log",
		MaxSize:    100, // 100MB
		MaxBackups: 3,
		MaxAge:     7, // 7天
		Compress:   true,
	})
}

// Debug 记录 DEBUG 级别日志
func Debug(args ...interface{}) {
	Logger.Debug(args...)
}

// Debugf 记录格式化的 DEBUG 级别日志
func Debugf(format string, args ...interface{}) {
	Logger.Debugf(format, args...)
}

// Info 记录 INFO 级别日志
func Info(args ...interface{}) {
	Logger.Info(args...)
}

// Infof 记录格式化的 INFO 级别日志
func Infof(format string, args ...interface{}) {
	Logger.Infof(format, args...)
}

// Warn 记录 WARN 级别日志
func Warn(args ...interface{}) {
	Logger.Warn(args...)
}

// Warnf 记录格式化的 WARN 级别日志
func Warnf(format string, args ...interface{}) {
	Logger.Warnf(format, args...)
}

// Error 记录 ERROR 级别日志
func Error(args ...interface{}) {
	Logger.Error(args...)
}

// Errorf 记录格式化的 ERROR 级别日志
func Errorf(format string, args ...interface{}) {
	Logger.Errorf(format, args...)
}

// WithField 添加字段到日志上下文
func WithField(key string, value interface{}) *logrus.Entry {
	return Logger.WithField(key, value)
}

// WithFields 添加多个字段到日志上下文
func WithFields(fields logrus.Fields) *logrus.Entry {
	return Logger.WithFields(fields)
}

// GetCurrentLogFile 获取当前日志文件路径
func GetCurrentLogFile() string {
	logMu.Lock()
	defer logMu.Unlock()
	return currentLogFile
}
