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

package verify

import (
	"github.com/dominikschlosser/aadhaar-verify/internal/secureqr"
)

// Kind classifies why a verification failed.
type Kind string

const (
	KindUsage     Kind = "usage"
	KindImageRead Kind = "image_read"
	KindNoQRFound Kind = "no_qr_found"
	KindDecode    Kind = "decode_error"
	KindSignature Kind = "signature_invalid"
)

// Error is a failed verification with its stage.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

// Identity is the reported identity record.
type Identity struct {
	Name   string `json:"name"`
	DOB    string `json:"dob"`
	UID    string `json:"uid"`
	Gender string `json:"gender"`
	Mobile string `json:"mobile"`
	Email  string `json:"email"`
	Photo  string `json:"photo"`
}

// Result is either a decoded identity or an error, never both.
type Result struct {
	Identity *Identity
	Data     *secureqr.Data
	// Candidate is the index of the QR text that decoded.
	Candidate int
	// SignatureChecked is set when a signing key was configured and the
	// signature matched.
	SignatureChecked bool
	Err              *Error
}

// Failure builds a failed Result.
func Failure(kind Kind, err error) *Result {
	return &Result{Err: &Error{Kind: kind, Err: err}}
}

// Verified reports whether the result holds an identity.
func (r *Result) Verified() bool {
	return r.Err == nil && r.Identity != nil
}

// Report is the JSON shape printed for a Result. On success the identity
// fields sit next to "verified"; on failure only "error" and "kind" do.
type Report struct {
	Verified bool `json:"verified"`
	*Identity
	Error string `json:"error,omitempty"`
	Kind  Kind   `json:"kind,omitempty"`
	Token string `json:"token,omitempty"`
}

// Report converts r to its JSON shape.
func (r *Result) Report() Report {
	if r.Verified() {
		return Report{Verified: true, Identity: r.Identity}
	}
	rep := Report{Verified: false}
	if r.Err != nil {
		rep.Error = r.Err.Error()
		rep.Kind = r.Err.Kind
	}
	if rep.Error == "" {
		rep.Error = "verification failed"
	}
	return rep
}
