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
	"context"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bittoy/jtx/metrics"
	"github.com/bittoy/jtx/types"
)

// openWS opens a WebSocket connection with gorilla/websocket. Incoming text frames route through the same message
// handler SSE data events use.
func (s *Source) openWS() {
	ctx, cancel := context.WithCancel(context.Background())
	s.trackConn(cancel)
	s.onClose(cancel)
	s.setStatus(StatusLoading, nil)
	go s.wsLoop(ctx)
}

// reopenWS tears down the current socket (trackConn cancels it) and
// dials again.
func (s *Source) reopenWS() { s.openWS() }

func (s *Source) wsLoop(ctx context.Context) {
	start := time.Now()
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, normalizeWSURL(s.url, s.deps.Config.Origin), nil)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		metrics.SourceFetch("ws", time.Since(start).Seconds(), err)
		s.setError(types.NewConnectionError(err.Error(), err))
		return
	}
	defer conn.Close()
	// unblocks ReadMessage when the connection's teardown fires.
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()
	metrics.SourceFetch("ws", time.Since(start).Seconds(), nil)

	s.element.Emit("open", map[string]any{"name": s.name, "type": "ws"})
	s.setStatus(StatusReady, nil)

	for {
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if ce, ok := err.(*websocket.CloseError); ok {
				s.element.Emit("close", map[string]any{"name": s.name, "code": ce.Code, "reason": ce.Text})
				return
			}
			s.setError(types.NewConnectionError(err.Error(), err))
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		data := string(payload)
		s.element.Emit("message", map[string]any{"name": s.name, "type": "message", "data": data})
		s.ingestPayload(data)
	}
}

// normalizeWSURL resolves a relative or cross-protocol WebSocket
// address to an absolute ws(s):// URL using the page's origin.
// origin is supplied by the host embedding the engine (the
// headless domtree package has no notion of page location); when
// origin is empty the URL is used as-is.
func normalizeWSURL(raw, origin string) string {
	switch {
	case strings.HasPrefix(raw, "ws://"), strings.HasPrefix(raw, "wss://"):
		return raw
	case strings.HasPrefix(raw, "http://"):
		return "ws://" + strings.TrimPrefix(raw, "http://")
	case strings.HasPrefix(raw, "https://"):
		return "wss://" + strings.TrimPrefix(raw, "https://")
	case strings.HasPrefix(raw, "//"):
		return "ws:" + raw
	case strings.HasPrefix(raw, "/"):
		return strings.TrimSuffix(origin, "/") + raw
	default:
		return raw
	}
}
