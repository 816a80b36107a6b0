// Copyright 2025 Google LLC. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package lotl

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration is matched by every *ConfigurationError.
	ErrInvalidConfiguration = errors.New("invalid trust anchor configuration")
	// ErrInvalidPEM is returned when a certificate is not PEM encoded.
	ErrInvalidPEM = errors.New("invalid PEM certificate")
	// ErrHashMismatch is returned when a recorded hash does not match its certificate.
	ErrHashMismatch = errors.New("certificate hash mismatch")
)

// ConfigurationError is returned when a Configuration cannot be built from
// its source data.
type ConfigurationError struct {
	// Field names the offending entry.
	Field string
	// Value is the offending literal, if any.
	Value string
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%v: %s %q: %v", ErrInvalidConfiguration, e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("%v: %s: %v", ErrInvalidConfiguration, e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrInvalidConfiguration) true for any ConfigurationError.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}
