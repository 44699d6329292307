// Copyright 2025 UMH Systems GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logger

import (
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogFormat represents the logging format.
type LogFormat string

const (
	// FormatConsole indicates human-readable console format.
	FormatConsole LogFormat = "CONSOLE"
	// FormatJSON indicates structured JSON format.
	FormatJSON LogFormat = "JSON"

	// EnvLogLevel selects the level (DEBUG, INFO, WARN, ERROR, PRODUCTION).
	EnvLogLevel = "LOGGING_LEVEL"
	// EnvLogFormat selects the format (CONSOLE or JSON).
	EnvLogFormat = "LOGGING_FORMAT"
)

var (
	initOnce sync.Once
	// initialized tracks whether the global logger has been initialized.
	initialized bool
	initMu      sync.RWMutex
)

// parseLevel converts a level name to a zapcore.Level. Unknown names map to INFO.
func parseLevel(level string) zapcore.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return zapcore.DebugLevel
	case "WARN", "WARNING":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	case "DPANIC":
		return zapcore.DPanicLevel
	case "PANIC":
		return zapcore.PanicLevel
	case "FATAL":
		return zapcore.FatalLevel
	default:
		// INFO and PRODUCTION
		return zapcore.InfoLevel
	}
}

func parseFormat(raw string) LogFormat {
	switch LogFormat(strings.ToUpper(strings.TrimSpace(raw))) {
	case FormatJSON:
		return FormatJSON
	default:
		return FormatConsole
	}
}

func timeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("2006-01-02 15:04:05.000 MST"))
}

// New creates a zap logger writing to stdout.
func New(level string, format LogFormat) *zap.Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "component",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	if format == FormatJSON {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoderConfig.EncodeTime = timeEncoder
		encoderConfig.ConsoleSeparator = " | "
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), zap.NewAtomicLevelAt(parseLevel(level)))

	return zap.New(core, zap.AddCaller())
}

// Initialize sets up the global logger from LOGGING_LEVEL and LOGGING_FORMAT.
// Later calls are no-ops.
func Initialize() {
	initOnce.Do(func() {
		level := os.Getenv(EnvLogLevel)
		if level == "" {
			level = "PRODUCTION"
		}
		format := parseFormat(os.Getenv(EnvLogFormat))
		log := New(level, format)

		log.Info("Logger initialized",
			zap.String("level", level),
			zap.String("format", string(format)))

		zap.ReplaceGlobals(log)

		initMu.Lock()
		initialized = true
		initMu.Unlock()
	})
}

func ensureInitialized() {
	initMu.RLock()
	ok := initialized
	initMu.RUnlock()
	if !ok {
		Initialize()
	}
}

// For creates a named logger for a specific component.
func For(component string) *zap.SugaredLogger {
	ensureInitialized()

	return zap.S().Named(component)
}

// GetLogger returns the global logger, initializing it if needed.
func GetLogger() *zap.Logger {
	ensureInitialized()

	return zap.L()
}

// Sync flushes any buffered log entries.
func Sync() error {
	return zap.L().Sync()
}
