/*
Copyright 2024 The Torrust Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package names implements EnvironmentName: a validated slug that doubles
// as both an environment's identity and its filesystem path component.
package names

import (
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/torrust/tracker-deployer/internal/apperrors"
)

// pattern matches spec.md §3: lowercase, 3-50 chars, starts with a letter,
// ends with a letter or digit, letters/digits/hyphens only in between.
var pattern = regexp.MustCompile(`^[a-z][a-z0-9-]{1,48}[a-z0-9]$`)

// EnvironmentName is immutable once constructed via Parse.
type EnvironmentName struct {
	value string
}

// Parse validates s against spec.md §3's grammar and returns an
// EnvironmentName, or apperrors.KindInvalidEnvironment on rejection.
func Parse(s string) (EnvironmentName, error) {
	if len(s) < 3 || len(s) > 50 {
		return EnvironmentName{}, apperrors.Newf(apperrors.KindInvalidEnvironment,
			"environment name %q must be 3-50 characters, got %d", s, len(s))
	}
	if !pattern.MatchString(s) {
		return EnvironmentName{}, apperrors.Newf(apperrors.KindInvalidEnvironment,
			"environment name %q must start with a lowercase letter, end with a letter or digit, "+
				"and contain only lowercase letters, digits and hyphens", s)
	}
	return EnvironmentName{value: s}, nil
}

// MustParse is Parse but panics on invalid input; only safe for constants
// and tests.
func MustParse(s string) EnvironmentName {
	n, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return n
}

// String returns the validated name.
func (n EnvironmentName) String() string { return n.value }

// IsZero reports whether n was never successfully parsed.
func (n EnvironmentName) IsZero() bool { return n.value == "" }

// MarshalText implements encoding.TextMarshaler so EnvironmentName can be
// used directly as a JSON/YAML scalar.
func (n EnvironmentName) MarshalText() ([]byte, error) {
	return []byte(n.value), nil
}

// UnmarshalText implements encoding.TextUnmarshaler with the same
// validation Parse performs.
func (n *EnvironmentName) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler (gopkg.in/yaml.v3 does not fall
// back to encoding.TextMarshaler for scalar-backed struct types).
func (n EnvironmentName) MarshalYAML() (interface{}, error) {
	return n.value, nil
}

// UnmarshalYAML implements yaml.Unmarshaler (gopkg.in/yaml.v3 signature:
// decode from the scalar node directly) with the same validation Parse
// performs.
func (n *EnvironmentName) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}
