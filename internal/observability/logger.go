package observability

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lumilabs/healthd/internal/config"
)

type Logger struct {
	*zap.Logger

	level zap.AtomicLevel
}

func NewLogger(cfg config.LoggingConfig) (*Logger, error) {
	var zapConfig zap.Config

	if cfg.Development {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
	}

	// Set log level
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	// Set output format
	if cfg.Format == "json" {
		zapConfig.Encoding = "json"
	} else {
		zapConfig.Encoding = "console"
	}

	// Set output destination; zap accepts stdout, stderr, or a file path
	if cfg.Output != "" {
		zapConfig.OutputPaths = []string{cfg.Output}
	}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}

	return &Logger{Logger: logger, level: zapConfig.Level}, nil
}

// SetLevel changes the log level at runtime. Used by configuration hot
// reload; unknown level strings are ignored.
func (l *Logger) SetLevel(level string) {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		l.Warn("Ignoring invalid log level", zap.String("level", level))
		return
	}
	l.level.SetLevel(parsed)
}

// Level returns the current log level
func (l *Logger) Level() zapcore.Level {
	return l.level.Level()
}

func (l *Logger) Sync() error {
	return l.Logger.Sync()
}
