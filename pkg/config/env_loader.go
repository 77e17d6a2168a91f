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
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/carverauto/sysconfig/pkg/logger"
)

var (
	// ErrDstMustBeNonNilPointer indicates that the destination must be a non-nil pointer.
	ErrDstMustBeNonNilPointer = errors.New("dst must be a non-nil pointer")
	// ErrDstMustBePointerToStruct indicates that the destination must be a pointer to a struct.
	ErrDstMustBePointerToStruct = errors.New("dst must be a pointer to a struct")
)

// EnvLoader loads configuration from environment variables. Variable names
// follow the json tags with underscore nesting, so SYSCONFIG_DESIRED_GOVERNOR
// maps to cfg.Desired.Governor. A complete JSON document in
// <prefix>CONFIG_JSON takes precedence over individual variables.
type EnvLoader struct {
	logger logger.Logger
	prefix string
}

func NewEnvLoader(log logger.Logger, prefix string) *EnvLoader {
	return &EnvLoader{logger: log, prefix: prefix}
}

// Load implements Loader. The path argument is unused.
func (e *EnvLoader) Load(_ context.Context, _ string, dst any) error {
	if doc := os.Getenv(e.prefix + "CONFIG_JSON"); doc != "" {
		if err := json.Unmarshal([]byte(doc), dst); err != nil {
			return fmt.Errorf("failed to unmarshal %sCONFIG_JSON: %w", e.prefix, err)
		}

		e.logger.Debug().Msg("Loaded configuration from CONFIG_JSON environment variable")

		return nil
	}

	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return ErrDstMustBeNonNilPointer
	}

	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return ErrDstMustBePointerToStruct
	}

	return e.loadStruct(v, e.prefix)
}

func (e *EnvLoader) loadStruct(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.CanSet() {
			continue
		}

		tag := strings.Split(fieldType.Tag.Get("json"), ",")[0]
		if tag == "" || tag == "-" {
			continue
		}

		envName := prefix + strings.ToUpper(tag)

		if err := e.setField(field, envName); err != nil {
			return err
		}
	}

	return nil
}

func (e *EnvLoader) setField(field reflect.Value, envName string) error {
	// Struct fields recurse with a deeper prefix. Pointers to structs are
	// allocated lazily so a plain file config stays nil-free.
	if field.Kind() == reflect.Struct {
		return e.loadStruct(field, envName+"_")
	}

	if field.Kind() == reflect.Ptr && field.Type().Elem().Kind() == reflect.Struct {
		if !anyEnvWithPrefix(envName + "_") {
			return nil
		}

		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}

		return e.loadStruct(field.Elem(), envName+"_")
	}

	envValue := os.Getenv(envName)
	if envValue == "" {
		return nil
	}

	if err := e.setFieldByKind(field, envName, envValue); err != nil {
		return err
	}

	e.logger.Debug().Str("env", envName).Msg("Loaded value from environment variable")

	return nil
}

func (e *EnvLoader) setFieldByKind(field reflect.Value, envName, envValue string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(envValue)
		return nil
	case reflect.Bool:
		b, err := strconv.ParseBool(envValue)
		if err != nil {
			return fmt.Errorf("invalid boolean value for %s: %w", envName, err)
		}

		field.SetBool(b)

		return nil
	case reflect.Int, reflect.Int64:
		return setIntOrDuration(field, envName, envValue)
	case reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(envValue, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid unsigned integer value for %s: %w", envName, err)
		}

		if field.OverflowUint(u) {
			return fmt.Errorf("unsigned integer value %s overflows %s for %s", envValue, field.Kind(), envName)
		}

		field.SetUint(u)

		return nil
	case reflect.Ptr:
		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}

		return e.setFieldByKind(field.Elem(), envName, envValue)
	default:
		// Unusual types fall back to JSON decoding of the raw value.
		if err := json.Unmarshal([]byte(envValue), field.Addr().Interface()); err != nil {
			return fmt.Errorf("unsupported type %s for %s: %w", field.Kind(), envName, err)
		}

		return nil
	}
}

// setIntOrDuration accepts plain integers and duration syntax ("2s") for
// named duration types like models.Duration.
func setIntOrDuration(field reflect.Value, envName, envValue string) error {
	if i, err := strconv.ParseInt(envValue, 10, 64); err == nil {
		field.SetInt(i)
		return nil
	}

	if d, err := time.ParseDuration(envValue); err == nil {
		field.SetInt(int64(d))
		return nil
	}

	return fmt.Errorf("invalid integer or duration value for %s: %q", envName, envValue)
}

// anyEnvWithPrefix reports whether any environment variable starts with the
// prefix, so pointer structs only materialize when actually configured.
func anyEnvWithPrefix(prefix string) bool {
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, prefix) {
			return true
		}
	}

	return false
}
