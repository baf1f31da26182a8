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
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/bittoy/jtx/metrics"
	"github.com/bittoy/jtx/types"
)

// openSSE opens a Server-Sent Events connection. The wire format
// ("event:"/"data:" lines, a blank line terminating each message) is
// hand-scanned with bufio.Scanner.
func (s *Source) openSSE() {
	url := strings.TrimPrefix(s.url, "sse:")
	ctx, cancel := context.WithCancel(context.Background())
	s.trackConn(cancel)
	s.onClose(cancel)

	s.setStatus(StatusLoading, nil)
	go s.sseLoop(ctx, url)
}

// reopenSSE tears down the current connection (via trackConn's
// cancel-previous behavior) and opens a fresh one.
func (s *Source) reopenSSE() {
	s.openSSE()
}

func (s *Source) sseLoop(ctx context.Context, url string) {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		metrics.SourceFetch("sse", time.Since(start).Seconds(), err)
		s.setError(types.NewConnectionError(err.Error(), err))
		return
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := s.deps.Config.HTTP.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		metrics.SourceFetch("sse", time.Since(start).Seconds(), err)
		s.setError(types.NewConnectionError(err.Error(), err))
		return
	}
	defer resp.Body.Close()
	metrics.SourceFetch("sse", time.Since(start).Seconds(), nil)

	s.element.Emit("open", map[string]any{"name": s.name, "type": "sse"})
	s.setStatus(StatusReady, nil)

	var eventType string
	var data strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}
		line := scanner.Text()
		switch {
		case line == "":
			if data.Len() > 0 || eventType != "" {
				s.handleSSEEvent(eventType, data.String())
			}
			eventType, data = "", strings.Builder{}
		case strings.HasPrefix(line, "event:"):
			eventType = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		s.setError(types.NewConnectionError(err.Error(), err))
		return
	}
	if ctx.Err() == nil {
		s.element.Emit("close", map[string]any{"name": s.name})
	}
}

// handleSSEEvent routes an incoming event: the designated
// data event (sseEvent if set, else the default "message") parses the
// payload and updates value; any other named event fans out as a DOM
// event only.
func (s *Source) handleSSEEvent(eventType, data string) {
	dataEvent := s.sseEvent
	if dataEvent == "" {
		dataEvent = "message"
	}
	if eventType == "" {
		eventType = "message"
	}

	s.element.Emit("message", map[string]any{"name": s.name, "type": eventType, "data": data})
	if eventType != "message" {
		// listener fan-out for named event types, so an on="tick: ..."
		// handler on the source element sees them as ordinary DOM
		// events even when they are not the data event.
		s.element.Emit(eventType, map[string]any{"name": s.name, "type": eventType, "data": data})
	}

	if eventType != dataEvent {
		return
	}
	s.ingestPayload(data)
}

func (s *Source) ingestPayload(data string) {
	if strings.TrimSpace(data) == "" {
		s.setValue(nil)
		return
	}
	var parsed any
	if err := json.Unmarshal([]byte(data), &parsed); err != nil {
		s.setError(types.NewFormatError(err.Error(), err))
		return
	}
	s.setValue(parsed)
}
