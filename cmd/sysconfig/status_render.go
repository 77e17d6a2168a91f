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

package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/carverauto/sysconfig/pkg/models"
)

const (
	ansiReset  = "\x1b[0m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"

	statusLabelWidth = 20
)

// renderStatus formats a status report for terminals: a reboot verdict,
// host facts, and a per-domain table.
func renderStatus(st *models.Status, colorize bool) string {
	var b strings.Builder

	if st.RebootRequired {
		verdict := "reboot required to activate: " + strings.Join(st.ChangedDomains, ", ")
		b.WriteString(statusLine("Reboot", verdict, ansiYellow, colorize))
	} else {
		b.WriteString(statusLine("Reboot", "not required", ansiGreen, colorize))
	}

	b.WriteString("\n")
	b.WriteString(statusLine("Boot time", st.BootTime.Format(time.RFC3339), "", colorize))
	b.WriteString("\n")
	b.WriteString(statusLine("Running kernel", st.KernelRunning, "", colorize))
	b.WriteString("\n")

	if st.KernelConfigured != "" {
		b.WriteString(statusLine("Configured kernel", st.KernelConfigured, "", colorize))
		b.WriteString("\n")
	}

	if summary := summarizeGovernors(st.Governors); summary != "" {
		b.WriteString(statusLine("Governors", summary, "", colorize))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(renderDomainTable(st))

	return b.String()
}

func statusLine(label, value, color string, colorize bool) string {
	line := fmt.Sprintf("%-*s %s", statusLabelWidth, label+":", value)
	if colorize && color != "" {
		return color + line + ansiReset
	}

	return line
}

func renderDomainTable(st *models.Status) string {
	changed := make(map[string]bool, len(st.ChangedDomains))
	for _, domain := range st.ChangedDomains {
		changed[domain] = true
	}

	rows := make([][]string, 0, len(models.Domains()))

	for _, domain := range models.Domains() {
		state := "no"
		if changed[domain] {
			state = "yes"
		}

		rows = append(rows, []string{domain, state})
	}

	return renderTable([]string{"DOMAIN", "CHANGED SINCE BOOT"}, rows)
}

// summarizeGovernors collapses the per-core governor map into counts, e.g.
// "performance (4 cores)".
func summarizeGovernors(governors map[int]string) string {
	if len(governors) == 0 {
		return ""
	}

	counts := make(map[string]int)
	for _, governor := range governors {
		counts[governor]++
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}

	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s (%d cores)", name, counts[name]))
	}

	return strings.Join(parts, ", ")
}
