// Copyright 2025 walteh LLC
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

package rewrite

import (
	"fmt"
	"regexp"
	"strings"
)

// 🧩 contextRule is one recognized textual surrounding for an image
// reference. Each rule captures the prefix (path and quoting) around the
// filename and substitutes only the filename token.
type contextRule struct {
	name    string
	pattern *regexp.Regexp
	// template is the ReplaceAllString expansion; the new filename is
	// already spliced in with any `$` escaped.
	template string
}

// 🗺️ entryRules are the compiled rules for a single old→new mapping entry
type entryRules struct {
	oldName string
	newName string
	rules   []contextRule
}

// compileEntry builds the three context rules for one mapping entry.
// Rule order is fixed: quoted attribute, CSS url(), markdown image.
func compileEntry(oldName, newName string) entryRules {
	oldEscaped := regexp.QuoteMeta(oldName)
	newEscaped := strings.ReplaceAll(newName, "$", "$$")

	return entryRules{
		oldName: oldName,
		newName: newName,
		rules: []contextRule{
			{
				name:     "quoted-attribute",
				pattern:  regexp.MustCompile(fmt.Sprintf(`(?i)(["'])([^"']*?)(%s)(["'])`, oldEscaped)),
				template: `${1}${2}` + newEscaped + `${4}`,
			},
			{
				name:     "css-url",
				pattern:  regexp.MustCompile(fmt.Sprintf(`(?i)(url\s*\(\s*)(["']?)([^)]*?)(%s)(["']?\s*\))`, oldEscaped)),
				template: `${1}${2}${3}` + newEscaped + `${5}`,
			},
			{
				name:     "markdown-image",
				pattern:  regexp.MustCompile(fmt.Sprintf(`(?i)(!\[[^\]]*\]\s*\()([^)]*?)(%s)(\))`, oldEscaped)),
				template: `${1}${2}` + newEscaped + `${4}`,
			},
		},
	}
}

// apply runs the entry's rules in order over content, returning the
// updated content and the total match count across all rules.
func (e entryRules) apply(content string) (string, int) {
	replacements := 0
	for _, rule := range e.rules {
		matches := rule.pattern.FindAllStringIndex(content, -1)
		if len(matches) == 0 {
			continue
		}
		content = rule.pattern.ReplaceAllString(content, rule.template)
		replacements += len(matches)
	}
	return content, replacements
}
