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
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDurationUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Duration
		wantErr  bool
	}{
		{name: "duration syntax", input: `"5s"`, expected: Duration(5 * time.Second)},
		{name: "integer nanoseconds", input: `2500000000`, expected: Duration(2500 * time.Millisecond)},
		{name: "garbage string", input: `"soon"`, wantErr: true},
		{name: "wrong type", input: `true`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration

			err := json.Unmarshal([]byte(tt.input), &d)

			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, d)
		})
	}
}

func TestDurationUnmarshalText(t *testing.T) {
	var d Duration

	require.NoError(t, d.UnmarshalText([]byte("250ms")))
	assert.Equal(t, Duration(250*time.Millisecond), d)

	require.Error(t, d.UnmarshalText([]byte("whenever")))
}

func TestDurationUnmarshalYAML(t *testing.T) {
	type doc struct {
		Debounce Duration `yaml:"debounce"`
	}

	tests := []struct {
		name     string
		input    string
		expected Duration
		wantErr  bool
	}{
		{name: "duration syntax", input: "debounce: 3s", expected: Duration(3 * time.Second)},
		{name: "integer nanoseconds", input: "debounce: 1000000000", expected: Duration(time.Second)},
		{name: "garbage string", input: "debounce: soon", wantErr: true},
		{name: "wrong type", input: "debounce: [1, 2]", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out doc

			err := yaml.Unmarshal([]byte(tt.input), &out)

			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, out.Debounce)
		})
	}
}

func TestDurationMarshalRoundTrip(t *testing.T) {
	raw, err := json.Marshal(Duration(90 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, `"1m30s"`, string(raw))

	text, err := Duration(time.Second).MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1s", string(text))
}
