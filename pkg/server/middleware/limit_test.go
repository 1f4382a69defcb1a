/* Copyright 2025 Lifelog Authors
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

package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/lifelog/lifelog/pkg/assert"
)

func TestGetVisitorConcurrent(t *testing.T) {
	rl := NewRateLimiter()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)

		go func(n int) {
			defer wg.Done()

			for j := 0; j < 100; j++ {
				rl.getVisitor(fmt.Sprintf("10.0.0.%d", n%4))
			}
		}(i)
	}
	wg.Wait()

	rl.mtx.Lock()
	count := len(rl.visitors)
	rl.mtx.Unlock()

	assert.Equal(t, count, 4, "visitor count mismatch")
}

func TestLookupIP(t *testing.T) {
	testCases := []struct {
		remoteAddr   string
		realIP       string
		forwardedFor string
		expected     string
	}{
		{
			remoteAddr: "1.2.3.4:5678",
			expected:   "1.2.3.4:5678",
		},
		{
			remoteAddr: "1.2.3.4:5678",
			realIP:     "5.6.7.8",
			expected:   "5.6.7.8",
		},
		{
			remoteAddr:   "1.2.3.4:5678",
			realIP:       "5.6.7.8",
			forwardedFor: "9.10.11.12, 5.6.7.8",
			expected:     "9.10.11.12",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			req := &http.Request{
				RemoteAddr: tc.remoteAddr,
				Header:     http.Header{},
			}
			if tc.realIP != "" {
				req.Header.Set("X-Real-IP", tc.realIP)
			}
			if tc.forwardedFor != "" {
				req.Header.Set("X-Forwarded-For", tc.forwardedFor)
			}

			assert.Equal(t, lookupIP(req), tc.expected, "ip mismatch")
		})
	}
}
