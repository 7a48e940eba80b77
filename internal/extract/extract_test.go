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

package extract

import (
	"encoding/json"
	"errors"
	"testing"
)

func description(t *testing.T, obj map[string]json.RawMessage) string {
	t.Helper()
	raw, ok := obj["description"]
	if !ok {
		t.Fatal("object has no description key")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		t.Fatalf("description is not a string: %v", err)
	}
	return s
}

func TestObject_CleanJSON(t *testing.T) {
	obj, err := Object(`{"description":"<p>x</p>","socials":null}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := description(t, obj); got != "<p>x</p>" {
		t.Errorf("expected <p>x</p>, got %q", got)
	}
}

func TestObject_CodeFencedWithProse(t *testing.T) {
	input := "Sure! ```json\n{\"description\":\"<p>x</p>\",\"socials\":null}\n```"

	obj, err := Object(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := description(t, obj); got != "<p>x</p>" {
		t.Errorf("expected <p>x</p>, got %q", got)
	}
	if string(obj["socials"]) != "null" {
		t.Errorf("expected socials null, got %s", obj["socials"])
	}
}

func TestObject_BracesInsideStringValue(t *testing.T) {
	input := `Here you go: {"description":"<p>{weird}</p>","socials":null} hope that helps!`

	obj, err := Object(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := description(t, obj); got != "<p>{weird}</p>" {
		t.Errorf("inner braces must not truncate the value, got %q", got)
	}
}

func TestObject_ClosingBraceInsideStringValue(t *testing.T) {
	// The first depth-zero closure lands inside the string; that
	// candidate fails to parse and the scan must keep going.
	input := `{"description":"a } b","socials":null}`

	obj, err := Object(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := description(t, obj); got != "a } b" {
		t.Errorf("expected %q, got %q", "a } b", got)
	}
}

func TestObject_LeadingAndTrailingProse(t *testing.T) {
	input := "Of course, here is the copy you asked for:\n\n" +
		`{"description":"<p>Boots</p>","socials":{"twitter":"tw","instagram":"ig"}}` +
		"\n\nLet me know if you want changes."

	obj, err := Object(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := description(t, obj); got != "<p>Boots</p>" {
		t.Errorf("expected <p>Boots</p>, got %q", got)
	}
}

func TestObject_NoJSONAtAll(t *testing.T) {
	_, err := Object("I'm sorry, I can't help with that.")
	if err == nil {
		t.Fatal("expected an error for text with no JSON")
	}

	var extErr *ExtractionError
	if !errors.As(err, &extErr) {
		t.Errorf("expected *ExtractionError, got %T", err)
	}
}

func TestObject_UnparseableBraces(t *testing.T) {
	_, err := Object("set { x } to { y }")
	var extErr *ExtractionError
	if !errors.As(err, &extErr) {
		t.Errorf("expected *ExtractionError, got %v", err)
	}
}

func TestObject_NullIsNotAnObject(t *testing.T) {
	_, err := Object("null")
	if err == nil {
		t.Fatal("JSON null must not satisfy extraction")
	}
}

func TestObject_ArrayIsNotAnObject(t *testing.T) {
	_, err := Object(`["description","socials"]`)
	if err == nil {
		t.Fatal("a JSON array must not satisfy extraction")
	}
}
