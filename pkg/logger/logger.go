/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package logger provides JSON structured logging using zerolog, with
// optional OTLP export of log records.
package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type Config struct {
	Level      string     `json:"level" yaml:"level" toml:"level"`
	Debug      bool       `json:"debug" yaml:"debug" toml:"debug"`
	Output     string     `json:"output" yaml:"output" toml:"output"`
	TimeFormat string     `json:"time_format" yaml:"time_format" toml:"time_format"`
	OTel       OTelConfig `json:"otel" yaml:"otel" toml:"otel"`
}

// LoggerImpl implements the Logger interface without global state so
// instances can be injected into components independently.
type LoggerImpl struct {
	logger zerolog.Logger
}

// New creates a logger from the given configuration. If config is nil the
// defaults from DefaultConfig are used. The context bounds OTLP exporter
// setup when OTel export is enabled.
func New(ctx context.Context, config *Config) (Logger, error) {
	impl, err := newLoggerImpl(ctx, config)
	if err != nil {
		return nil, err
	}

	return impl, nil
}

// NewComponentLogger creates a logger with the component field pre-set.
func NewComponentLogger(ctx context.Context, component string, config *Config) (Logger, error) {
	impl, err := newLoggerImpl(ctx, config)
	if err != nil {
		return nil, err
	}

	return &LoggerImpl{
		logger: impl.logger.With().Str("component", component).Logger(),
	}, nil
}

func newLoggerImpl(ctx context.Context, config *Config) (*LoggerImpl, error) {
	if config == nil {
		config = DefaultConfig()
	}

	var output io.Writer = os.Stdout
	if config.Output == "stderr" {
		output = os.Stderr
	}

	level := zerolog.InfoLevel

	if config.Debug {
		level = zerolog.DebugLevel
	} else if config.Level != "" {
		var err error

		level, err = zerolog.ParseLevel(config.Level)
		if err != nil {
			return nil, err
		}
	}

	timeFormat := time.RFC3339
	if config.TimeFormat != "" {
		timeFormat = config.TimeFormat
	}

	if config.OTel.Enabled && config.OTel.Endpoint != "" {
		otelWriter, err := NewOTELWriter(ctx, config.OTel)
		if err != nil {
			return nil, err
		}

		output = NewMultiWriter(output, otelWriter)
	}

	zerolog.TimeFieldFormat = timeFormat

	zlog := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()

	return &LoggerImpl{logger: zlog}, nil
}

// Shutdown flushes any pending log exports.
func Shutdown() error {
	return ShutdownOTEL()
}

func (l *LoggerImpl) Trace() *zerolog.Event {
	return l.logger.Trace()
}

func (l *LoggerImpl) Debug() *zerolog.Event {
	return l.logger.Debug()
}

func (l *LoggerImpl) Info() *zerolog.Event {
	return l.logger.Info()
}

func (l *LoggerImpl) Warn() *zerolog.Event {
	return l.logger.Warn()
}

func (l *LoggerImpl) Error() *zerolog.Event {
	return l.logger.Error()
}

func (l *LoggerImpl) Fatal() *zerolog.Event {
	return l.logger.Fatal()
}

func (l *LoggerImpl) Panic() *zerolog.Event {
	return l.logger.Panic()
}

func (l *LoggerImpl) With() zerolog.Context {
	return l.logger.With()
}

func (l *LoggerImpl) WithComponent(component string) zerolog.Logger {
	return l.logger.With().Str("component", component).Logger()
}

func (l *LoggerImpl) WithFields(fields map[string]interface{}) zerolog.Logger {
	ctx := l.logger.With()
	for key, value := range fields {
		ctx = ctx.Interface(key, value)
	}

	return ctx.Logger()
}

func (l *LoggerImpl) SetLevel(level zerolog.Level) {
	l.logger = l.logger.Level(level)
}

func (l *LoggerImpl) SetDebug(debug bool) {
	if debug {
		l.SetLevel(zerolog.DebugLevel)
	} else {
		l.SetLevel(zerolog.InfoLevel)
	}
}

var _ Logger = (*LoggerImpl)(nil)
