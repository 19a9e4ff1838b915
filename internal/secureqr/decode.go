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

// Package secureqr decodes Aadhaar Secure QR payloads: a base-10 integer
// whose bytes form a gzip stream of 0xFF-terminated ISO-8859-1 fields,
// followed by the photo, optional contact hashes and an RSA signature.
package secureqr

import (
	"bytes"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"math/big"
	"regexp"
	"strings"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/text/encoding/charmap"
)

const (
	// SignatureSize is the length of the trailing RSA-2048 signature.
	SignatureSize = 256
	// HashSize is the length of an email or mobile SHA-256 hash.
	HashSize = 32

	fieldDelimiter      = 0xFF
	maxDecompressedSize = 1 << 20

	legacyFieldCount    = 16
	versionedFieldCount = 18
)

var (
	ErrNotNumeric = errors.New("payload is not a base-10 number")
	ErrDecompress = errors.New("payload is not a valid gzip stream")
	ErrMalformed  = errors.New("malformed secure QR payload")
	ErrSignature  = errors.New("signature verification failed")
	ErrNoHash     = errors.New("hash not present in payload")
)

var versionPattern = regexp.MustCompile(`^V[0-9]+$`)

// Decode converts raw QR text into a decoded payload.
func Decode(text string) (*Data, error) {
	raw, err := Inflate(text)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

// Inflate turns the base-10 QR text into the decompressed payload bytes.
func Inflate(text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" || strings.TrimLeft(text, "0123456789") != "" {
		return nil, ErrNotNumeric
	}

	n, ok := new(big.Int).SetString(text, 10)
	if !ok {
		return nil, ErrNotNumeric
	}

	zr, err := gzip.NewReader(bytes.NewReader(n.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecompress, err)
	}
	defer zr.Close()

	out, err := io.ReadAll(io.LimitReader(zr, maxDecompressedSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecompress, err)
	}
	if len(out) > maxDecompressedSize {
		return nil, fmt.Errorf("%w: decompressed size exceeds %d bytes", ErrDecompress, maxDecompressedSize)
	}
	return out, nil
}

// Parse splits decompressed payload bytes into fields.
func Parse(raw []byte) (*Data, error) {
	if len(raw) < SignatureSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the signature", ErrMalformed, len(raw))
	}

	count := legacyFieldCount
	versioned := versionPattern.Match(firstField(raw))
	if versioned {
		count = versionedFieldCount
	}

	fields, photoStart, err := splitFields(raw, count)
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(fields))
	for i, f := range fields {
		s, err := latin1(f)
		if err != nil {
			return nil, fmt.Errorf("%w: field %d: %w", ErrMalformed, i, err)
		}
		texts[i] = s
	}

	d := &Data{}
	if versioned {
		d.Version = texts[0]
		texts = texts[1:]
	}

	d.Contact, err = parseIndicator(texts[0])
	if err != nil {
		return nil, err
	}
	d.ReferenceID = texts[1]
	d.Name = texts[2]
	d.DOB = texts[3]
	d.Gender = texts[4]
	d.CareOf = texts[5]
	d.District = texts[6]
	d.Landmark = texts[7]
	d.House = texts[8]
	d.Location = texts[9]
	d.Pincode = texts[10]
	d.PostOffice = texts[11]
	d.State = texts[12]
	d.Street = texts[13]
	d.SubDistrict = texts[14]
	d.VTC = texts[15]
	if versioned {
		d.MobileLast4 = texts[16]
	}

	sigStart := len(raw) - SignatureSize
	hashStart := sigStart - d.Contact.hashBytes()
	if hashStart < photoStart {
		return nil, fmt.Errorf("%w: payload too short for photo, hashes and signature", ErrMalformed)
	}

	d.Signature = raw[sigStart:]
	d.SignedData = raw[:sigStart]
	d.Photo = raw[photoStart:hashStart]

	// Mobile hash is always the last one before the signature.
	pos := hashStart
	if d.Contact.HasEmail() {
		d.EmailHash = raw[pos : pos+HashSize]
		pos += HashSize
	}
	if d.Contact.HasMobile() {
		d.MobileHash = raw[pos : pos+HashSize]
	}

	return d, nil
}

// VerifySignature checks the payload signature against the UIDAI public key.
func (d *Data) VerifySignature(pub *rsa.PublicKey) error {
	if pub == nil {
		return fmt.Errorf("%w: no public key", ErrSignature)
	}
	digest := sha256.Sum256(d.SignedData)
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], d.Signature); err != nil {
		return fmt.Errorf("%w: %w", ErrSignature, err)
	}
	return nil
}

func firstField(raw []byte) []byte {
	i := bytes.IndexByte(raw, fieldDelimiter)
	if i < 0 {
		return nil
	}
	return raw[:i]
}

// splitFields returns the first count delimiter-terminated fields and the
// offset right after the last terminator.
func splitFields(raw []byte, count int) ([][]byte, int, error) {
	fields := make([][]byte, 0, count)
	start := 0
	for len(fields) < count {
		i := bytes.IndexByte(raw[start:], fieldDelimiter)
		if i < 0 {
			return nil, 0, fmt.Errorf("%w: expected %d fields, found %d", ErrMalformed, count, len(fields))
		}
		fields = append(fields, raw[start:start+i])
		start += i + 1
	}
	return fields, start, nil
}

func parseIndicator(s string) (ContactIndicator, error) {
	switch s {
	case "0":
		return ContactNone, nil
	case "1":
		return ContactEmail, nil
	case "2":
		return ContactMobile, nil
	case "3":
		return ContactBoth, nil
	default:
		return 0, fmt.Errorf("%w: invalid email/mobile indicator %q", ErrMalformed, s)
	}
}

func latin1(b []byte) (string, error) {
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
