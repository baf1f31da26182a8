/*
 * Copyright 2024 The jtx Authors.
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

package compiler

import "regexp"

// refPattern matches an `@name` reference: an `@` immediately followed
// by an identifier. The rewrite is textual, with no understanding of
// strings, comments, or lexical nesting — deliberately, so it is a
// single regexp pass rather than a tokenizer.
var refPattern = regexp.MustCompile(`@([A-Za-z_][\w$]*)`)

// RewriteRefs rewrites every `@name` occurrence in src into a call to
// the reference resolver, `$ref("name")`. The
// rewrite does not special-case string literals or comments; a
// literal "@foo" typed by an author inside a string still becomes
// `$ref("foo")`, which is the documented, deliberate behavior.
func RewriteRefs(src string) string {
	return refPattern.ReplaceAllString(src, `$$ref("$1")`)
}

// ReferencedNames returns the set of distinct names `@`-referenced in
// src, without compiling it.
func ReferencedNames(src string) []string {
	matches := refPattern.FindAllStringSubmatch(src, -1)
	seen := map[string]bool{}
	var out []string
	for _, m := range matches {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}
