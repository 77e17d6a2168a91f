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

package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/carverauto/sysconfig/pkg/logger"
)

var errUnsupportedConfigFormat = errors.New("unsupported config file format")

// FileLoader decodes JSON, TOML or YAML configuration files, picking the
// codec from the file extension.
type FileLoader struct {
	logger logger.Logger
}

func NewFileLoader(log logger.Logger) *FileLoader {
	return &FileLoader{logger: log}
}

func (l *FileLoader) Load(_ context.Context, path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file %q: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, dst)
	case ".toml":
		err = toml.Unmarshal(data, dst)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, dst)
	default:
		return fmt.Errorf("%w: %s", errUnsupportedConfigFormat, path)
	}

	if err != nil {
		return fmt.Errorf("failed to decode %q: %w", path, err)
	}

	l.logger.Debug().Str("path", path).Msg("Loaded configuration file")

	return nil
}
