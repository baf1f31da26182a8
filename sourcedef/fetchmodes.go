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

package sourcedef

import (
	"time"

	"github.com/bittoy/jtx/jtxutil"
)

// armFetchModes applies the fetch-mode table governing when a fetch
// starts. Streams ignore fetch modes entirely and open
// unconditionally on init.
func (s *Source) armFetchModes() {
	switch s.kind {
	case KindSSE:
		s.openSSE()
		return
	case KindWS:
		s.openWS()
		return
	}

	modes := s.fetchModes
	if len(modes) == 0 {
		modes = []string{FetchOnload}
	}
	for _, mode := range modes {
		if mode == FetchManual {
			return
		}
	}

	for _, mode := range modes {
		if d, ok := jtxutil.ParseEvery(mode); ok {
			s.armInterval(d)
			continue
		}
		switch mode {
		case FetchOnload:
			go s.doFetch()
		case FetchIdle:
			s.armIdle()
		case FetchVisible:
			// No browser IntersectionObserver exists in this headless
			// engine; the host calls NotifyVisible when the element
			// enters view, the Go-native analogue of "firing once when
			// it intersects".
		}
	}
}

// armInterval schedules a recurring fetch for an "every <duration>"
// fetch mode, stopped on element removal.
func (s *Source) armInterval(d time.Duration) {
	ticker := time.NewTicker(d)
	done := make(chan struct{})
	s.onClose(func() { ticker.Stop(); close(done) })
	go func() {
		for {
			select {
			case <-ticker.C:
				s.doFetch()
			case <-done:
				return
			}
		}
	}()
}

// armIdle stands in for requestIdleCallback: a short deferred timer,
// the fallback a browser uses when no idle callback is available.
func (s *Source) armIdle() {
	timer := time.AfterFunc(10*time.Millisecond, s.doFetch)
	s.onClose(func() { timer.Stop() })
}

// NotifyVisible triggers the deferred fetch armed by a "visible" fetch
// mode. The host calls this once, when it determines the source's
// element has entered the viewport.
func (s *Source) NotifyVisible() {
	for _, mode := range s.fetchModes {
		if mode == FetchVisible {
			go s.doFetch()
			return
		}
	}
}
