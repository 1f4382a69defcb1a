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
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lifelog/lifelog/pkg/assert"
	"github.com/lifelog/lifelog/pkg/server/app"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

func TestAuth(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("right key"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(errors.Wrap(err, "hashing test key"))
	}

	testCases := []struct {
		name          string
		accessKeyHash string
		header        string
		expected      int
	}{
		{
			name:          "valid key",
			accessKeyHash: string(hash),
			header:        "Bearer right key",
			expected:      http.StatusOK,
		},
		{
			name:          "wrong key",
			accessKeyHash: string(hash),
			header:        "Bearer wrong key",
			expected:      http.StatusUnauthorized,
		},
		{
			name:          "missing header",
			accessKeyHash: string(hash),
			header:        "",
			expected:      http.StatusUnauthorized,
		},
		{
			name:          "malformed header",
			accessKeyHash: string(hash),
			header:        "right key",
			expected:      http.StatusUnauthorized,
		},
		{
			name:          "auth disabled",
			accessKeyHash: "",
			header:        "",
			expected:      http.StatusOK,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a := &app.App{AccessKeyHash: tc.accessKeyHash}

			handler := Auth(a, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest("GET", "/api/v1/sync/full", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, rec.Code, tc.expected, "status code mismatch")
		})
	}
}

func TestGetCredential(t *testing.T) {
	testCases := []struct {
		header   string
		expected string
	}{
		{"Bearer foo", "foo"},
		{"Bearer foo bar", "foo bar"},
		{"Basic foo", ""},
		{"foo", ""},
		{"", ""},
	}

	for _, tc := range testCases {
		req := httptest.NewRequest("GET", "/", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}

		assert.Equal(t, getCredential(req), tc.expected, tc.header)
	}
}
