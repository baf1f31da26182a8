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

// Package onattr splits an `on="event:code;
// event:code"` attribute value into event/code pairs while respecting
// string and bracket nesting, so a handler body may itself contain `:`
// or `;` (ternaries, object literals) without being mistaken for a
// clause separator.
package onattr

import (
	"strings"
	"time"

	"github.com/bittoy/jtx/jtxutil"
)

// Entry is one parsed clause of an `on` attribute.
type Entry struct {
	Event string
	Code  string
	// IsEvery and Every are set when Event was the special
	// "every <duration>" form: Code still
	// holds the handler body to run on each tick.
	IsEvery bool
	Every   time.Duration
}

// quote tracks which quoting context (if any) the scanner is inside.
type quote byte

const (
	quoteNone quote = iota
	quoteSingle
	quoteDouble
	quoteBacktick
)

// Parse splits raw into entries, character by character,
// tracking quote state and bracket/brace/paren depth so top-level `;`
// separates entries and each entry's first top-level `:` separates
// its event name from its code. A continuation segment with no colon
// is appended to the previous entry's code (a handler may span
// multiple semicolon-delimited clauses without repeating its event
// name). Entries with empty code are dropped.
func Parse(raw string) []Entry {
	var entries []Entry
	var cur strings.Builder
	var q quote
	depth := 0
	templateDepth := 0 // `${...}` nesting inside a backtick string
	sawColon := false
	var eventName string

	flush := func() {
		defer cur.Reset()
		code := strings.TrimSpace(cur.String())
		if !sawColon {
			// continuation: no colon seen, append to previous entry.
			if code == "" {
				return
			}
			if n := len(entries); n > 0 {
				entries[n-1].Code = strings.TrimSpace(entries[n-1].Code + "; " + code)
			}
			return
		}
		if code == "" {
			sawColon = false
			return
		}
		entries = append(entries, makeEntry(eventName, code))
		sawColon = false
	}

	i, n := 0, len(raw)
	for i < n {
		c := raw[i]

		if q != quoteNone {
			cur.WriteByte(c)
			switch {
			case q == quoteBacktick && c == '$' && i+1 < n && raw[i+1] == '{':
				templateDepth++
				cur.WriteByte('{')
				i++
			case q == quoteBacktick && templateDepth > 0 && c == '}':
				templateDepth--
			case q == quoteSingle && c == '\'' && templateDepth == 0:
				q = quoteNone
			case q == quoteDouble && c == '"' && templateDepth == 0:
				q = quoteNone
			case q == quoteBacktick && c == '`' && templateDepth == 0:
				q = quoteNone
			}
			i++
			continue
		}

		switch c {
		case '\'':
			q = quoteSingle
		case '"':
			q = quoteDouble
		case '`':
			q = quoteBacktick
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth > 0 {
				depth--
			}
		case ':':
			if depth == 0 && !sawColon {
				eventName = strings.TrimSpace(cur.String())
				cur.Reset()
				sawColon = true
				i++
				continue
			}
		case ';':
			if depth == 0 {
				flush()
				i++
				continue
			}
		}
		cur.WriteByte(c)
		i++
	}
	flush()
	return entries
}

func makeEntry(event, code string) Entry {
	if d, ok := jtxutil.ParseEvery(event); ok {
		return Entry{Event: event, Code: code, IsEvery: true, Every: d}
	}
	return Entry{Event: event, Code: code}
}
