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

// Package verify runs the Secure QR pipeline: image to QR texts, QR text to
// payload, payload to identity, reporting failures by stage.
package verify

import (
	"bytes"
	"context"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dominikschlosser/aadhaar-verify/internal/input"
	"github.com/dominikschlosser/aadhaar-verify/internal/photo"
	"github.com/dominikschlosser/aadhaar-verify/internal/qr"
	"github.com/dominikschlosser/aadhaar-verify/internal/secureqr"
)

// Options configures a Verifier.
type Options struct {
	// PublicKey, when set, makes signature verification mandatory.
	PublicKey *rsa.PublicKey
	// AllCandidates tries later QR codes when the first fails to decode.
	AllCandidates bool
	// PhotoPNG converts the portrait to PNG before base64 encoding.
	PhotoPNG bool
	// Input resolves sources for VerifySource; nil uses input defaults.
	Input *input.Reader
}

// Verifier is immutable and safe for concurrent use.
type Verifier struct {
	opts Options
}

// New returns a Verifier.
func New(opts Options) *Verifier {
	if opts.Input == nil {
		opts.Input = input.NewReader(15*time.Second, 2)
	}
	return &Verifier{opts: opts}
}

// VerifySource reads an image from a file path, "-" or URL and verifies it.
func (v *Verifier) VerifySource(ctx context.Context, src string) *Result {
	data, err := v.opts.Input.Read(ctx, src)
	if err != nil {
		return Failure(KindImageRead, err)
	}
	return v.VerifyImage(ctx, bytes.NewReader(data))
}

// VerifyImage scans an encoded image for QR codes and verifies them.
func (v *Verifier) VerifyImage(ctx context.Context, r io.Reader) *Result {
	candidates, err := qr.Scan(r)
	if err != nil {
		return ScanFailure(err)
	}
	slog.DebugContext(ctx, "QR codes found", "count", len(candidates))
	return v.VerifyCandidates(ctx, candidates)
}

// ScanFailure classifies an error from the qr package.
func ScanFailure(err error) *Result {
	if errors.Is(err, qr.ErrNoQRCode) {
		return Failure(KindNoQRFound, err)
	}
	return Failure(KindImageRead, err)
}

// VerifyCandidates decodes the first candidate QR text. With AllCandidates
// set, later candidates are tried in order until one verifies; the reported
// error is always the first candidate's.
func (v *Verifier) VerifyCandidates(ctx context.Context, candidates []string) *Result {
	if len(candidates) == 0 {
		return Failure(KindNoQRFound, qr.ErrNoQRCode)
	}

	var first *Result
	for i, text := range candidates {
		res := v.VerifyText(ctx, text)
		if res.Verified() {
			res.Candidate = i
			return res
		}
		if first == nil {
			first = res
		}
		if !v.opts.AllCandidates {
			break
		}
		slog.DebugContext(ctx, "QR candidate rejected", "index", i, "error", res.Err)
	}
	return first
}

// VerifyText decodes a single Secure QR text.
func (v *Verifier) VerifyText(ctx context.Context, text string) *Result {
	data, err := secureqr.Decode(text)
	if err != nil {
		return Failure(KindDecode, fmt.Errorf("decoding secure QR: %w", err))
	}

	res := &Result{Data: data}
	if v.opts.PublicKey != nil {
		if err := data.VerifySignature(v.opts.PublicKey); err != nil {
			return Failure(KindSignature, err)
		}
		res.SignatureChecked = true
	}

	res.Identity = &Identity{
		Name:   data.Name,
		DOB:    data.DOB,
		UID:    data.MaskedUID(),
		Gender: data.Gender,
		Mobile: data.MaskedMobile(),
		Email:  "",
		Photo:  v.encodePhoto(ctx, data.Photo),
	}
	slog.DebugContext(ctx, "Secure QR decoded", "version", data.Version, "contact", data.Contact.String(), "photo_size", len(data.Photo))
	return res
}

func (v *Verifier) encodePhoto(ctx context.Context, raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	if v.opts.PhotoPNG {
		s, err := photo.ToPNGBase64(raw)
		if err == nil {
			return s
		}
		slog.WarnContext(ctx, "Photo conversion failed, returning original bytes", "error", err)
	}
	return base64.StdEncoding.EncodeToString(raw)
}
