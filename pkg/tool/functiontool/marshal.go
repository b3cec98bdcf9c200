// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package functiontool

import (
	"fmt"
	"reflect"

	"github.com/agriquery/gateway/pkg/gwerr"
	"github.com/mitchellh/mapstructure"
)

// mapToStruct converts a map[string]any of already-JSON-decoded values
// into a typed struct, using mapstructure rather than a JSON
// marshal/unmarshal round-trip. Unrecognized keys are ignored; values that
// cannot be weakly converted to the field's type are rejected.
func mapToStruct(m map[string]any, target any) error {
	if m == nil {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "json",
		WeaklyTypedInput: true,
		ErrorUnused:      false,
	})
	if err != nil {
		return fmt.Errorf("failed to build argument decoder: %w", err)
	}
	if err := decoder.Decode(m); err != nil {
		return gwerr.Wrap(gwerr.KindInvalidInput, err, "invalid arguments")
	}
	return nil
}

// checkRanges validates every declared numeric bound against the decoded
// struct, returning a gwerr.KindInvalidInput naming the first offending
// field. Values are rejected outright, never clamped into range.
func checkRanges(ranges []fieldRange, target any) error {
	v := reflect.ValueOf(target)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}

	for _, r := range ranges {
		fv := v.FieldByName(r.fieldName)
		if !fv.IsValid() {
			continue
		}
		val, ok := numericValue(fv)
		if !ok {
			continue
		}
		if r.min != nil && val < *r.min {
			return gwerr.Newf(gwerr.KindInvalidInput, "%s must be >= %v, got %v", r.jsonName, *r.min, val).WithField(r.jsonName)
		}
		if r.max != nil && val > *r.max {
			return gwerr.Newf(gwerr.KindInvalidInput, "%s must be <= %v, got %v", r.jsonName, *r.max, val).WithField(r.jsonName)
		}
	}
	return nil
}

func numericValue(v reflect.Value) (float64, bool) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	default:
		return 0, false
	}
}
