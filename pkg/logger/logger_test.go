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

package logger

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
)

func TestNew(t *testing.T) {
	config := &Config{
		Level:  "debug",
		Debug:  true,
		Output: "stdout",
	}

	log, err := New(context.Background(), config)
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	impl, ok := log.(*LoggerImpl)
	if !ok {
		t.Fatalf("Expected *LoggerImpl, got %T", log)
	}

	if impl.logger.GetLevel() != zerolog.DebugLevel {
		t.Errorf("Expected debug level, got %v", impl.logger.GetLevel())
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	config := &Config{Level: "loud"}

	if _, err := New(context.Background(), config); err == nil {
		t.Error("Expected error for invalid level")
	}
}

func TestNew_NilConfigUsesDefaults(t *testing.T) {
	log, err := New(context.Background(), nil)
	if err != nil {
		t.Fatalf("Failed to create logger with nil config: %v", err)
	}

	log.Info().Str("test", "value").Msg("Test message with defaults")
}

func TestSetDebug(t *testing.T) {
	log, err := New(context.Background(), &Config{Level: "info"})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	impl := log.(*LoggerImpl)

	log.SetDebug(true)

	if impl.logger.GetLevel() != zerolog.DebugLevel {
		t.Errorf("Expected debug level after SetDebug(true), got %v", impl.logger.GetLevel())
	}

	log.SetDebug(false)

	if impl.logger.GetLevel() != zerolog.InfoLevel {
		t.Errorf("Expected info level after SetDebug(false), got %v", impl.logger.GetLevel())
	}
}

func TestNewComponentLogger(t *testing.T) {
	log, err := NewComponentLogger(context.Background(), "test-component", &Config{Level: "info"})
	if err != nil {
		t.Fatalf("Failed to create component logger: %v", err)
	}

	componentLogger := log.WithComponent("nested")
	if componentLogger.GetLevel() == zerolog.Disabled {
		t.Error("Component logger should not be disabled")
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Level == "" {
		t.Error("Default config should have a level set")
	}

	if config.Output == "" {
		t.Error("Default config should have an output set")
	}
}

func TestNewTestLogger(t *testing.T) {
	log := NewTestLogger()

	log.Info().Str("discarded", "yes").Msg("should not be visible")
	log.SetLevel(zerolog.WarnLevel)
	log.SetDebug(true)
}
