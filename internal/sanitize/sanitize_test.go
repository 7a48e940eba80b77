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

package sanitize

import (
	"strings"
	"testing"
)

func TestHTML_StripsScriptsAndAttributes(t *testing.T) {
	s := New()

	got := s.HTML(`<script>alert(1)</script><p onclick="x()">Hi</p>`)
	if got != "<p>Hi</p>" {
		t.Errorf("expected <p>Hi</p>, got %q", got)
	}
}

func TestHTML_AllowsFormattingTags(t *testing.T) {
	s := New()

	in := "<h2>Boots</h2><p>Made of <strong>leather</strong> and <em>grit</em>.</p><ul><li>Durable</li><li>Stylish</li></ul>"
	got := s.HTML(in)
	if got != in {
		t.Errorf("allow-listed markup should survive unchanged:\n in: %s\nout: %s", in, got)
	}
}

func TestHTML_StripsAllAttributes(t *testing.T) {
	s := New()

	got := s.HTML(`<p class="hero" style="color:red" id="x">Hi</p><h1 data-x="1">Title</h1>`)
	if strings.Contains(got, "class") || strings.Contains(got, "style") ||
		strings.Contains(got, "id") || strings.Contains(got, "data-x") {
		t.Errorf("no attributes may survive, got %q", got)
	}
	if !strings.Contains(got, "<p>Hi</p>") {
		t.Errorf("tag content should survive, got %q", got)
	}
}

func TestHTML_StripsLinks(t *testing.T) {
	s := New()

	got := s.HTML(`<p>Visit <a href="https://evil.example">our shop</a> now</p>`)
	if strings.Contains(got, "href") || strings.Contains(got, "<a") {
		t.Errorf("anchors are not allow-listed, got %q", got)
	}
	if !strings.Contains(got, "our shop") {
		t.Errorf("anchor text should survive, got %q", got)
	}
}

func TestHTML_Idempotent(t *testing.T) {
	s := New()

	once := s.HTML(`<script>x()</script><p align="center">Hi <b>there</b></p><iframe src="x"></iframe>`)
	twice := s.HTML(once)
	if once != twice {
		t.Errorf("sanitization must be idempotent:\n once: %q\ntwice: %q", once, twice)
	}
}

func TestHTML_EmptyInput(t *testing.T) {
	s := New()

	if got := s.HTML(""); got != "" {
		t.Errorf("empty input should yield empty output, got %q", got)
	}
}
