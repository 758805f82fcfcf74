package logger

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger 封装zap日志器。报表本身写 stdout，日志只走 stderr 或文件。
type Logger struct {
	*zap.Logger
	config Config
}

// Config 日志配置
type Config struct {
	Enabled    bool     `yaml:"enabled"`
	Level      string   `yaml:"level"`       // debug, info, warn, error
	Outputs    []string `yaml:"outputs"`     // stderr, file
	OutputFile string   `yaml:"output_file"` // 日志文件路径
	Format     string   `yaml:"format"`      // json 或 console
}

// DefaultConfig 返回默认配置（关闭）
func DefaultConfig() Config {
	return Config{
		Enabled: false,
		Level:   "info",
		Outputs: []string{"stderr"},
		Format:  "console",
	}
}

// New 创建新的Logger实例；未启用时返回 no-op logger。
func New(cfg Config) (*Logger, error) {
	if !cfg.Enabled {
		return &Logger{Logger: zap.NewNop(), config: cfg}, nil
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %s: %w", cfg.Level, err)
	}

	var encoderConfig zapcore.EncoderConfig
	if cfg.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	newEncoder := func() zapcore.Encoder {
		if cfg.Format == "console" {
			return zapcore.NewConsoleEncoder(encoderConfig)
		}
		return zapcore.NewJSONEncoder(encoderConfig)
	}

	cores := []zapcore.Core{}

	if contains(cfg.Outputs, "stderr") {
		cores = append(cores, zapcore.NewCore(newEncoder(), zapcore.Lock(os.Stderr), level))
	}

	if contains(cfg.Outputs, "file") && cfg.OutputFile != "" {
		fileWriter, err := os.OpenFile(cfg.OutputFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("open log file failed: %w", err)
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			zapcore.AddSync(fileWriter),
			level,
		))
	}

	if len(cores) == 0 {
		return nil, fmt.Errorf("no usable log output in %v", cfg.Outputs)
	}

	zapLogger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())

	return &Logger{
		Logger: zapLogger,
		config: cfg,
	}, nil
}

// Wrap 包装已有的 zap logger（测试中常用 observer core）。
func Wrap(z *zap.Logger) *Logger {
	return &Logger{Logger: z, config: Config{Enabled: true}}
}

// WithFields 添加字段返回新的logger
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	zapFields := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		zapFields = append(zapFields, zap.Any(k, v))
	}
	return &Logger{
		Logger: l.Logger.With(zapFields...),
		config: l.config,
	}
}

// LogFetch 记录一次交易所/行情请求
func (l *Logger) LogFetch(exchange, kind string, took time.Duration, err error) {
	fields := []zap.Field{
		zap.String("exchange", exchange),
		zap.String("kind", kind),
		zap.Duration("took", took),
	}
	if err != nil {
		l.Error("fetch_failed", append(fields, zap.Error(err))...)
		return
	}
	l.Debug("fetch_ok", fields...)
}

// Close 关闭日志器
func (l *Logger) Close() error {
	err := l.Sync()
	// stderr 在部分平台上不支持 fsync
	if err != nil && l.config.Enabled && !contains(l.config.Outputs, "file") {
		return nil
	}
	return err
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
