package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options select where diagnostics go. They never affect the status line
// the plugin prints on stdout.
type Options struct {
	// Verbose lowers the primary sink from info to debug.
	Verbose	bool
	// LogFile redirects the primary sink from stdout to a rotating file.
	LogFile	string
}

// New builds the process-wide diagnostics logger: a primary sink carrying
// debug through warn, and a stderr sink carrying error and above. It is
// constructed once at startup and never reconfigured.
func New(opts Options) (*zap.SugaredLogger, func()) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoder := zapcore.NewConsoleEncoder(encoderConfig)

	minLevel := zapcore.InfoLevel
	if opts.Verbose {
		minLevel = zapcore.DebugLevel
	}

	var primarySink zapcore.WriteSyncer
	if opts.LogFile != "" {
		primarySink = zapcore.AddSync(&lumberjack.Logger{
			Filename:	opts.LogFile,
			MaxSize:	10,	// megabytes
			MaxBackups:	3,
		})
	} else {
		primarySink = zapcore.Lock(os.Stdout)
	}

	primaryEnabler := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= minLevel && l < zapcore.ErrorLevel
	})
	errorEnabler := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= zapcore.ErrorLevel
	})

	core := zapcore.NewTee(
		zapcore.NewCore(encoder, primarySink, primaryEnabler),
		zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), errorEnabler),
	)

	logger := zap.New(core)
	return logger.Sugar(), func() {
		_ = logger.Sync()
	}
}
