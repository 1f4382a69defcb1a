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

package cmd

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate an access key for the sync API",
	RunE:  runKeygen,
}

func init() {
	Register(keygenCmd)
}

func runKeygen(cmd *cobra.Command, args []string) error {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return errors.Wrap(err, "reading random bits")
	}

	key := base64.RawURLEncoding.EncodeToString(b)

	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hashing the key")
	}

	printSuccess("access key generated")
	fmt.Printf("key:  %s\n", key)
	fmt.Printf("hash: %s\n", hash)
	printWarning("store the key with your client and set AccessKeyHash to the hash")

	return nil
}
