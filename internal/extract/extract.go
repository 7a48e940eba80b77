// Copyright 2025 Copyforge Project
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

// Package extract recovers a JSON object from free-form model output.
// Models are asked for bare JSON but routinely add prose, code fences,
// or trailing commentary; extraction tolerates all of that.
package extract

import (
	"encoding/json"
	"regexp"
	"strings"
)

// ExtractionError indicates that no valid JSON object could be
// recovered from the model's text.
type ExtractionError struct {
	Message string
}

func (e *ExtractionError) Error() string {
	return "extraction failed: " + e.Message
}

var fenceMarker = regexp.MustCompile("(?i)```(?:json)?")

var greedyObject = regexp.MustCompile(`(?s)\{.*\}`)

// Object recovers the first parseable JSON object from text. The
// attempts, in order: direct parse of the fence-stripped text, a
// brace-depth scan from the first '{' trying every balanced span, and
// finally a greedy first-'{'-to-last-'}' capture. A candidate that
// fails to parse never aborts the scan; only a successfully parsed
// span is accepted. The returned map is never nil.
func Object(text string) (map[string]json.RawMessage, error) {
	cleaned := strings.TrimSpace(fenceMarker.ReplaceAllString(text, ""))

	if obj, ok := tryParse(cleaned); ok {
		return obj, nil
	}

	start := strings.IndexByte(cleaned, '{')
	if start < 0 {
		return nil, &ExtractionError{Message: "no valid object found"}
	}

	// Scan for balanced spans. Depth never goes below zero so that a
	// brace inside a string value that closes "early" just yields a
	// failed candidate and the scan moves on to the next closure.
	depth := 0
	for i := start; i < len(cleaned); i++ {
		switch cleaned[i] {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
			if depth == 0 {
				if obj, ok := tryParse(cleaned[start : i+1]); ok {
					return obj, nil
				}
			}
		}
	}

	if match := greedyObject.FindString(cleaned); match != "" {
		if obj, ok := tryParse(match); ok {
			return obj, nil
		}
	}

	return nil, &ExtractionError{Message: "no valid object found"}
}

// tryParse parses candidate as a JSON object. A JSON "null" decodes
// into a nil map without error, so that case is rejected explicitly.
func tryParse(candidate string) (map[string]json.RawMessage, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &obj); err != nil {
		return nil, false
	}
	if obj == nil {
		return nil, false
	}
	return obj, true
}
