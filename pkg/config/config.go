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

// Package config loads the agent configuration from files or environment
// variables and validates it before use.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/carverauto/sysconfig/pkg/logger"
)

var errInvalidConfigSource = errors.New("invalid SYSCONFIG_CONFIG_SOURCE value")

const (
	configSourceFile = "file"
	configSourceEnv  = "env"

	defaultEnvPrefix = "SYSCONFIG_"
)

// Loader loads a configuration document into dst.
type Loader interface {
	Load(ctx context.Context, path string, dst any) error
}

// Validator is implemented by configurations that can check themselves.
type Validator interface {
	Validate() error
}

// ValidateConfig validates cfg if it implements Validator.
func ValidateConfig(cfg any) error {
	v, ok := cfg.(Validator)
	if !ok {
		return nil
	}

	return v.Validate()
}

// Service resolves the configured loader and validates what it loads.
type Service struct {
	fileLoader Loader
	envLoader  Loader
	logger     logger.Logger
}

func NewService(log logger.Logger) *Service {
	return &Service{
		fileLoader: NewFileLoader(log),
		envLoader:  NewEnvLoader(log, defaultEnvPrefix),
		logger:     log,
	}
}

// LoadAndValidate loads the configuration at path (or from the environment
// when SYSCONFIG_CONFIG_SOURCE=env) into cfg and validates it.
func (s *Service) LoadAndValidate(ctx context.Context, path string, cfg any) error {
	loader, err := s.resolveLoader()
	if err != nil {
		return err
	}

	if err := loader.Load(ctx, path, cfg); err != nil {
		return err
	}

	return ValidateConfig(cfg)
}

func (s *Service) resolveLoader() (Loader, error) {
	source := strings.ToLower(os.Getenv("SYSCONFIG_CONFIG_SOURCE"))

	switch source {
	case configSourceEnv:
		return s.envLoader, nil
	case configSourceFile, "":
		return s.fileLoader, nil
	default:
		return nil, fmt.Errorf("%w: %s (expected %q or %q)",
			errInvalidConfigSource, source, configSourceFile, configSourceEnv)
	}
}
