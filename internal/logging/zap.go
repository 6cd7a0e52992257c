/*
Copyright 2024 The Torrust Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package logging builds the process-wide logger: it always writes to
// data/logs/log.txt and, depending on verbosity, additionally tees to
// stderr. Command-level spans attach the environment name and command verb
// so every step-level log event inherits them.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level mirrors the teacher's LogLevel flag.Value pattern.
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	ErrorLevel Level = "error"
)

// Mode selects whether logs only go to the file, or also to stderr.
type Mode string

const (
	FileOnly       Mode = "file-only"
	FileAndStderr  Mode = "file-and-stderr"
)

func setCommonEncoderConfigOptions(cfg *zapcore.EncoderConfig) {
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeDuration = zapcore.StringDurationEncoder
}

func zapLevel(level Level) (zapcore.Level, error) {
	switch level {
	case DebugLevel:
		return zap.DebugLevel, nil
	case "", InfoLevel:
		return zap.InfoLevel, nil
	case ErrorLevel:
		return zap.ErrorLevel, nil
	default:
		return 0, fmt.Errorf("invalid log level %q", level)
	}
}

// New builds a logr.Logger that always writes JSON lines to fileWriter and,
// when mode is FileAndStderr, additionally writes console-formatted lines
// to stderr.
func New(level Level, mode Mode, fileWriter io.Writer, stderr io.Writer) (logr.Logger, error) {
	lvl, err := zapLevel(level)
	if err != nil {
		return logr.Logger{}, err
	}

	fileEncCfg := zap.NewProductionEncoderConfig()
	setCommonEncoderConfigOptions(&fileEncCfg)
	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(fileEncCfg),
		zapcore.AddSync(fileWriter),
		lvl,
	)

	cores := []zapcore.Core{fileCore}
	if mode == FileAndStderr {
		stderrEncCfg := zap.NewDevelopmentEncoderConfig()
		setCommonEncoderConfigOptions(&stderrEncCfg)
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(stderrEncCfg),
			zapcore.AddSync(stderr),
			lvl,
		))
	}

	zl := zap.New(zapcore.NewTee(cores...))
	return zapr.NewLogger(zl), nil
}

// CommandSpan returns a logger with the `environment` and `command_type`
// fields set, to be inherited by every step-level log event the command
// emits. commandID correlates every event (and every state_history entry,
// see environment.HistoryEntry) back to one CLI invocation.
func CommandSpan(base logr.Logger, environmentName, commandType, commandID string) logr.Logger {
	return base.WithValues("environment", environmentName, "command_type", commandType, "command_id", commandID)
}

// ParseLevel parses a case-insensitive level string, as given to the CLI's
// --log-level flag.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return InfoLevel, nil
	case "debug":
		return DebugLevel, nil
	case "error":
		return ErrorLevel, nil
	default:
		return "", fmt.Errorf("invalid log level %q", s)
	}
}
