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
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/invopop/jsonschema"
)

// generateSchema creates a JSON schema from a Go type using struct tags.
//
// Supported tags:
//   - json:"name" - Parameter name
//   - json:",omitempty" - Optional parameter
//   - jsonschema:"required" - Explicitly mark as required
//   - jsonschema:"description=..." - Parameter description
//   - jsonschema:"enum=val1|val2" - Allowed values
//   - jsonschema:"minimum=N,maximum=M" - Numeric constraints, enforced by
//     the tool's handler at call time (extractRanges/checkRanges in
//     marshal.go) — never silently clipped.
func generateSchema[T any]() (map[string]any, error) {
	reflector := &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		DoNotReference:             true,
	}

	schema := reflector.Reflect(new(T))

	schemaMap, err := schemaToMap(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to convert schema to map: %w", err)
	}

	if schemaMap["type"] == "object" {
		result := map[string]any{
			"type":       "object",
			"properties": schemaMap["properties"],
		}
		if req := schemaMap["required"]; req != nil {
			result["required"] = req
		}
		return result, nil
	}
	return schemaMap, nil
}

func schemaToMap(schema *jsonschema.Schema) (map[string]any, error) {
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	delete(result, "$schema")
	delete(result, "$id")
	return result, nil
}

// fieldRange is a declared numeric bound for one struct field.
type fieldRange struct {
	fieldName string // the struct field's Go name, for error messages
	jsonName  string // the wire/map key
	min, max  *float64
}

// extractRanges walks T's fields and collects any jsonschema:"minimum=...,
// maximum=..." constraints, keyed by their JSON field name, so the
// extractor can reject out-of-range input before it ever reaches the tool
// body — never silently clip it to the bound.
func extractRanges[T any]() []fieldRange {
	t := reflect.TypeOf(*new(T))
	if t.Kind() != reflect.Struct {
		return nil
	}

	var ranges []fieldRange
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		jsonName := jsonFieldName(f)
		if jsonName == "" {
			continue
		}

		tag := f.Tag.Get("jsonschema")
		if tag == "" {
			continue
		}

		fr := fieldRange{fieldName: f.Name, jsonName: jsonName}
		for _, part := range strings.Split(tag, ",") {
			kv := strings.SplitN(part, "=", 2)
			if len(kv) != 2 {
				continue
			}
			switch kv[0] {
			case "minimum":
				if v, err := strconv.ParseFloat(kv[1], 64); err == nil {
					fr.min = &v
				}
			case "maximum":
				if v, err := strconv.ParseFloat(kv[1], 64); err == nil {
					fr.max = &v
				}
			}
		}
		if fr.min != nil || fr.max != nil {
			ranges = append(ranges, fr)
		}
	}
	return ranges
}

func jsonFieldName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "" {
		return f.Name
	}
	name := strings.Split(tag, ",")[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}
