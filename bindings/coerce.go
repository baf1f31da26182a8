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

package bindings

import "github.com/bittoy/jtx/refproxy"

// coerceString renders an arbitrary expression result as text/HTML
// source, using the same canonical map-to-string rule (title/text/
// name/value, single-key shorthand, fallback stringify) a bare `@ref`
// uses in string context.
func coerceString(v any) string {
	return refproxy.CanonicalString(v)
}

func isNullish(v any) bool { return v == nil }
