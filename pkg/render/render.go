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

// Package render produces the managed configuration files (grub drop-in,
// systemd manager limits, cpufrequtils defaults) from embedded templates
// and replaces them atomically on disk.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/carverauto/sysconfig/pkg/logger"
	"github.com/carverauto/sysconfig/pkg/models"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

const (
	grubTemplate    = "grub.conf.tmpl"
	systemdTemplate = "systemd-system.conf.tmpl"
	cpufreqTemplate = "cpufrequtils.tmpl"

	managedFileMode = 0o644
)

// GrubContext selects the kernel command-line additions for the grub
// drop-in. Zero-valued fields emit nothing.
type GrubContext struct {
	CPURange    string
	Hugepages   string
	Hugepagesz  string
	RAID        string
	PTIOff      bool
	IOMMU       bool
	ConfigFlags []models.ConfigFlag
	GrubDefault string
}

// SystemdContext populates the [Manager] section of the systemd limits file.
type SystemdContext struct {
	CPUAffinity string
	ConfigFlags []models.ConfigFlag
}

// CPUFreqContext selects the scaling governor for the cpufrequtils defaults.
type CPUFreqContext struct {
	Governor string
}

// Renderer holds the parsed template set. Rendering the same context twice
// yields identical bytes, so rewrites are idempotent at the file level.
type Renderer struct {
	templates *template.Template
	logger    logger.Logger
}

// New parses the embedded templates.
func New(log logger.Logger) (*Renderer, error) {
	tmpl, err := template.New("sysconfig").
		Funcs(sprig.TxtFuncMap()).
		ParseFS(templatesFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse embedded templates: %w", err)
	}

	return &Renderer{templates: tmpl, logger: log}, nil
}

func (r *Renderer) RenderGrub(data GrubContext) ([]byte, error) {
	return r.render(grubTemplate, data)
}

func (r *Renderer) RenderSystemd(data SystemdContext) ([]byte, error) {
	return r.render(systemdTemplate, data)
}

func (r *Renderer) RenderCPUFreq(data CPUFreqContext) ([]byte, error) {
	return r.render(cpufreqTemplate, data)
}

func (r *Renderer) render(name string, data any) ([]byte, error) {
	var buf bytes.Buffer

	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}

	return buf.Bytes(), nil
}

// WriteFile replaces path with content through a same-directory temp file
// and rename, creating parent directories as needed.
func (r *Renderer) WriteFile(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory %s: %w", dir, err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, content, managedFileMode); err != nil {
		return fmt.Errorf("write temporary config %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath) // best-effort cleanup

		return fmt.Errorf("replace config %s: %w", path, err)
	}

	r.logger.Debug().
		Str("path", path).
		Int("bytes", len(content)).
		Msg("Wrote managed config file")

	return nil
}

// RemoveFile deletes a managed file, reporting whether it existed.
func (r *Renderer) RemoveFile(path string) (bool, error) {
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}

		return false, fmt.Errorf("remove config %s: %w", path, err)
	}

	r.logger.Debug().Str("path", path).Msg("Removed managed config file")

	return true, nil
}
