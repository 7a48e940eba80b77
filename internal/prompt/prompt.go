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

// Package prompt builds the instruction string sent to the upstream
// model. Build is a pure function: identical inputs always produce
// byte-identical prompts, which keeps fingerprint-based caching honest.
package prompt

import (
	"fmt"
	"strings"
)

// Metafield is a single piece of structured product metadata.
type Metafield struct {
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Value     string `json:"value"`
}

// Product is the product data the prompt is built from.
type Product struct {
	ID          string
	Title       string
	Description string
	Metafields  []Metafield
}

// Vibe names for the tone directive map.
const (
	VibeEdgy       = "edgy"
	VibeMinimalist = "minimalist"
	VibeRoast      = "roast"
)

// Format names for the structure directive map.
const (
	FormatParagraph = "paragraph"
	FormatBullets   = "bullets"
	FormatFeatures  = "features"
)

var toneDirectives = map[string]string{
	VibeEdgy:       "Write with bold, provocative energy. Punchy sentences, confident claims, a little irreverent.",
	VibeMinimalist: "Write with clean, spare elegance. Short sentences. No filler. Let the product speak for itself.",
	VibeRoast:      "Playfully roast the product while still selling it. Sarcastic and funny, but the reader should still want to buy.",
}

var formatDirectives = map[string]string{
	FormatParagraph: "Structure the description as one or two flowing paragraphs, each wrapped in a <p> tag.",
	FormatBullets:   "Structure the description as a <ul> list of concise selling points, each in an <li> tag.",
	FormatFeatures:  "Structure the description as a short intro <p> followed by a <ul> where each <li> starts with a feature name in <strong> tags and then its benefit.",
}

// Build assembles the generation prompt. Unrecognized vibes fall back
// to the edgy tone and unrecognized formats to the paragraph
// structure. Optional lines are omitted entirely rather than emitted
// blank.
func Build(product Product, vibe, format, keywords string, includeSocials bool) string {
	tone, ok := toneDirectives[vibe]
	if !ok {
		tone = toneDirectives[VibeEdgy]
	}

	structure, ok := formatDirectives[format]
	if !ok {
		structure = formatDirectives[FormatParagraph]
	}

	lines := []string{
		"Write a product description for an online store.",
		fmt.Sprintf("Product title: %s", product.Title),
		fmt.Sprintf("Product metafields: %s", flattenMetafields(product.Metafields)),
		fmt.Sprintf("Existing description: %s", flattenDescription(product.Description)),
		fmt.Sprintf("Tone: %s", tone),
		fmt.Sprintf("Format: %s", structure),
	}

	if keywords != "" {
		lines = append(lines, fmt.Sprintf("Work these SEO keywords in naturally: %s", keywords))
	}

	if includeSocials {
		lines = append(lines, "Also write two short social media captions for this product: one for Twitter and one for Instagram.")
	}

	lines = append(lines, `Respond with a single JSON object with exactly two keys: "description" (the HTML description as a string) and "socials" (an object with "twitter" and "instagram" string keys, or null if no captions were requested). Do not wrap the JSON in code fences and do not add any other text.`)

	return strings.Join(lines, "\n")
}

// flattenMetafields renders metafields as "key: value" pairs joined
// by comma-space, or "None" when there are none.
func flattenMetafields(fields []Metafield) string {
	if len(fields) == 0 {
		return "None"
	}

	pairs := make([]string, 0, len(fields))
	for _, f := range fields {
		pairs = append(pairs, fmt.Sprintf("%s: %s", f.Key, f.Value))
	}
	return strings.Join(pairs, ", ")
}

var newlineReplacer = strings.NewReplacer("\r\n", " ", "\n", " ")

// flattenDescription collapses newlines to spaces so the old
// description reads as a single line, or "None" when empty.
func flattenDescription(desc string) string {
	if desc == "" {
		return "None"
	}
	return newlineReplacer.Replace(desc)
}
