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

// Package attest issues signed tokens asserting that an identity was read
// from a verified Secure QR code.
package attest

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dominikschlosser/aadhaar-verify/internal/verify"
)

// Claims are the token claims. The photo is left out to keep tokens small.
type Claims struct {
	Name             string `json:"name"`
	DOB              string `json:"dob"`
	UID              string `json:"uid"`
	Gender           string `json:"gender"`
	SignatureChecked bool   `json:"signature_checked"`
	jwt.RegisteredClaims
}

// Signer creates HS256 tokens.
type Signer struct {
	key    []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner returns a Signer. The key must not be empty.
func NewSigner(key []byte, issuer string, ttl time.Duration) (*Signer, error) {
	if len(key) == 0 {
		return nil, errors.New("token signing key is empty")
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Signer{key: key, issuer: issuer, ttl: ttl, now: time.Now}, nil
}

// Sign issues a token for a verified result.
func (s *Signer) Sign(res *verify.Result) (string, error) {
	if !res.Verified() {
		return "", errors.New("cannot attest an unverified result")
	}

	now := s.now()
	id := res.Identity
	claims := Claims{
		Name:             id.Name,
		DOB:              id.DOB,
		UID:              id.UID,
		Gender:           id.Gender,
		SignatureChecked: res.SignatureChecked,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.NewString(),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return token, nil
}

// Parse validates a token issued by this Signer and returns its claims.
func (s *Signer) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}
	return claims, nil
}
