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

// Package secureqrtest builds Secure QR payloads and QR images for tests.
package secureqrtest

import (
	"bytes"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/hex"
	"image"
	"image/draw"
	"image/png"
	"math/big"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// Photo is a stand-in for the JPEG2000 portrait. It contains 0xFF bytes on
// purpose so parsers cannot treat the photo as another field.
var Photo = []byte{0xFF, 0x4F, 0xFF, 0x51, 0x00, 0x2F, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0xFF, 0xD9}

// Fixture describes a payload to build.
type Fixture struct {
	// Version is "" for a legacy payload.
	Version     string
	ReferenceID string
	Name        string
	DOB         string
	Gender      string
	CareOf      string
	District    string
	Landmark    string
	House       string
	Location    string
	Pincode     string
	PostOffice  string
	State       string
	Street      string
	SubDistrict string
	VTC         string
	MobileLast4 string

	// Email and Mobile, when set, are stored as hashes.
	Email  string
	Mobile string

	Photo []byte
	// Key signs the payload. A nil key yields an all-zero signature.
	Key *rsa.PrivateKey
}

// Default returns the "Test User" fixture.
func Default() Fixture {
	return Fixture{
		Version:     "V2",
		ReferenceID: "123420190101120000123",
		Name:        "Test User",
		DOB:         "01-01-1990",
		Gender:      "M",
		CareOf:      "S/O: Parent User",
		District:    "Bengaluru",
		Landmark:    "Near Park",
		House:       "12",
		Location:    "Indiranagar",
		Pincode:     "560038",
		PostOffice:  "Indiranagar",
		State:       "Karnataka",
		Street:      "1st Main",
		SubDistrict: "Bengaluru North",
		VTC:         "Bengaluru",
		Photo:       Photo,
	}
}

func (f Fixture) indicator() string {
	switch {
	case f.Email != "" && f.Mobile != "":
		return "3"
	case f.Email != "":
		return "1"
	case f.Mobile != "":
		return "2"
	default:
		return "0"
	}
}

func (f Fixture) rounds() int {
	if len(f.ReferenceID) < 4 {
		return 1
	}
	n := int(f.ReferenceID[3] - '0')
	if n < 2 {
		n = 1
	}
	return n
}

func digest(value string, rounds int) []byte {
	s := value
	for i := 0; i < rounds; i++ {
		sum := sha256.Sum256([]byte(s))
		s = hex.EncodeToString(sum[:])
	}
	b, _ := hex.DecodeString(s)
	return b
}

// Payload returns the decompressed payload bytes, signature included.
func (f Fixture) Payload() []byte {
	var buf bytes.Buffer
	fields := []string{
		f.indicator(), f.ReferenceID, f.Name, f.DOB, f.Gender, f.CareOf,
		f.District, f.Landmark, f.House, f.Location, f.Pincode, f.PostOffice,
		f.State, f.Street, f.SubDistrict, f.VTC,
	}
	if f.Version != "" {
		fields = append([]string{f.Version}, fields...)
		fields = append(fields, f.MobileLast4)
	}
	for _, s := range fields {
		buf.Write(latin1(s))
		buf.WriteByte(0xFF)
	}
	buf.Write(f.Photo)
	if f.Email != "" {
		buf.Write(digest(f.Email, f.rounds()))
	}
	if f.Mobile != "" {
		buf.Write(digest(f.Mobile, f.rounds()))
	}

	sig := make([]byte, 256)
	if f.Key != nil {
		sum := sha256.Sum256(buf.Bytes())
		s, err := rsa.SignPKCS1v15(rand.Reader, f.Key, crypto.SHA256, sum[:])
		if err != nil {
			panic(err)
		}
		sig = s
	}
	buf.Write(sig)
	return buf.Bytes()
}

// Text returns the QR text for the fixture.
func (f Fixture) Text() string {
	return Encode(f.Payload())
}

// Encode gzips raw and renders it as a base-10 integer.
func Encode(raw []byte) string {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Write(raw)
	zw.Close()
	return new(big.Int).SetBytes(buf.Bytes()).String()
}

func latin1(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0xFF {
			r = '?'
		}
		out = append(out, byte(r))
	}
	return out
}

var (
	keyOnce sync.Once
	key     *rsa.PrivateKey
)

// Key returns a shared RSA-2048 key for signing fixtures.
func Key(t testing.TB) *rsa.PrivateKey {
	t.Helper()
	keyOnce.Do(func() {
		k, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			t.Fatalf("generating key: %v", err)
		}
		key = k
	})
	return key
}

// PNG renders text as a QR code image.
func PNG(t testing.TB, text string) []byte {
	t.Helper()
	matrix, err := qrcode.NewQRCodeWriter().Encode(text, gozxing.BarcodeFormat_QR_CODE, 900, 900, nil)
	if err != nil {
		t.Fatalf("encoding QR: %v", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, matrix); err != nil {
		t.Fatalf("encoding PNG: %v", err)
	}
	return buf.Bytes()
}

// WritePNG renders text as a QR code into dir and returns the file path.
func WritePNG(t testing.TB, dir, name, text string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, PNG(t, text), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

// BlankPNG returns a white image without any QR code.
func BlankPNG(t testing.TB) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 200, 200))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding PNG: %v", err)
	}
	return buf.Bytes()
}
