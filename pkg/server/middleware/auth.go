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
	"strings"

	"github.com/lifelog/lifelog/pkg/server/app"
	"golang.org/x/crypto/bcrypt"
)

// getCredential extracts the access key from the authorization header
func getCredential(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}

	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}

	return parts[1]
}

// authWithKey checks the request's access key against the configured hash
func authWithKey(a *app.App, r *http.Request) bool {
	key := getCredential(r)
	if key == "" {
		return false
	}

	err := bcrypt.CompareHashAndPassword([]byte(a.AccessKeyHash), []byte(key))
	return err == nil
}

// Auth is an authentication middleware. Authentication is disabled when no
// access key hash is configured.
func Auth(a *app.App, next http.HandlerFunc) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.AccessKeyHash != "" && !authWithKey(a, r) {
			RespondUnauthorized(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}
