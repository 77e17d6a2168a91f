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

package models

import (
	"errors"
	"fmt"
	"strings"
)

var errInvalidDuration = errors.New("invalid duration")

// Violation describes one configuration field outside its allowed values.
type Violation struct {
	Field   string   `json:"field"`
	Value   string   `json:"value"`
	Allowed []string `json:"allowed"`
}

func (v Violation) String() string {
	allowed := make([]string, 0, len(v.Allowed))
	for _, a := range v.Allowed {
		allowed = append(allowed, fmt.Sprintf("%q", a))
	}

	return fmt.Sprintf("%s=%q (allowed: %s)", v.Field, v.Value, strings.Join(allowed, ", "))
}

// ValidationError aggregates every violated field of a DesiredConfig so
// callers can report all of them at once.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.String())
	}

	return "invalid configuration: " + strings.Join(parts, "; ")
}

// Fields returns the violated field names in report order.
func (e *ValidationError) Fields() []string {
	fields := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		fields = append(fields, v.Field)
	}

	return fields
}
