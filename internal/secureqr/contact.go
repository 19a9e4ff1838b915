// Copyright 2026 Dominik Schlosser
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package secureqr

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// ContactDigest hashes an email or mobile number the way the payload stores
// it: SHA-256 hex digests chained rounds times.
func ContactDigest(value string, rounds int) string {
	if rounds < 1 {
		rounds = 1
	}
	s := value
	for i := 0; i < rounds; i++ {
		sum := sha256.Sum256([]byte(s))
		s = hex.EncodeToString(sum[:])
	}
	return s
}

// HashRounds returns how many times contact values are hashed: the last
// digit of the Aadhaar number, with 0 and 1 both meaning a single round.
func (d *Data) HashRounds() (int, error) {
	if len(d.ReferenceID) < 4 {
		return 0, fmt.Errorf("%w: reference id %q too short", ErrMalformed, d.ReferenceID)
	}
	c := d.ReferenceID[3]
	if c < '0' || c > '9' {
		return 0, fmt.Errorf("%w: reference id %q does not start with digits", ErrMalformed, d.ReferenceID)
	}
	n := int(c - '0')
	if n < 2 {
		n = 1
	}
	return n, nil
}

// VerifyMobile reports whether mobile matches the mobile hash in the payload.
func (d *Data) VerifyMobile(mobile string) (bool, error) {
	if len(d.MobileHash) == 0 {
		return false, fmt.Errorf("mobile %w", ErrNoHash)
	}
	return d.matchHash(strings.TrimSpace(mobile), d.MobileHash)
}

// VerifyEmail reports whether email matches the email hash in the payload.
func (d *Data) VerifyEmail(email string) (bool, error) {
	if len(d.EmailHash) == 0 {
		return false, fmt.Errorf("email %w", ErrNoHash)
	}
	return d.matchHash(strings.TrimSpace(email), d.EmailHash)
}

func (d *Data) matchHash(value string, hash []byte) (bool, error) {
	rounds, err := d.HashRounds()
	if err != nil {
		return false, err
	}
	return ContactDigest(value, rounds) == hex.EncodeToString(hash), nil
}
