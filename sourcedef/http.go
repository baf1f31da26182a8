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
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/bittoy/jtx/metrics"
	"github.com/bittoy/jtx/types"
)

// doFetch runs one HTTP request/response cycle. It is always safe to call concurrently with itself — the
// core never cancels an in-flight fetch on refresh, so the last
// response to land simply wins. Each attempt gets its own
// correlation id, so a host's "fetch" listener
// can match a later "update"/"error" event back to the request that
// produced it even when two refreshes race.
func (s *Source) doFetch() {
	headers := s.evalHeaders()
	requestID, _ := uuid.NewV4()
	s.element.Emit("fetch", map[string]any{"url": s.url, "headers": headers, "requestId": requestID.String()})
	s.setStatus(StatusLoading, nil)

	start := time.Now()
	var fetchErr error
	defer func() { metrics.SourceFetch("http", time.Since(start).Seconds(), fetchErr) }()

	req, err := http.NewRequest(http.MethodGet, s.url, nil)
	if err != nil {
		fetchErr = err
		s.setError(types.NewNetworkError(0, err.Error(), err))
		return
	}
	for k, v := range headers {
		req.Header.Set(k, fmt.Sprintf("%v", v))
	}

	client := s.deps.Config.HTTP
	resp, err := client.Do(req)
	if err != nil {
		fetchErr = err
		s.setError(types.NewNetworkError(0, err.Error(), err))
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fetchErr = err
		s.setError(types.NewNetworkError(resp.StatusCode, err.Error(), err))
		return
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		fetchErr = fmt.Errorf("http %d", resp.StatusCode)
		s.setError(types.NewNetworkError(resp.StatusCode, resp.Status, nil))
		return
	}

	if resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(body)) == 0 {
		s.setValue(nil)
		return
	}

	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		fetchErr = err
		s.setError(types.NewFormatError(err.Error(), err))
		return
	}
	s.setValue(parsed)
}
