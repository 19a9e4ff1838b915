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

// Package qr scans QR codes from images and screen captures.
package qr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/makiuchi-d/gozxing"
	multiqr "github.com/makiuchi-d/gozxing/multi/qrcode"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// ErrNoQRCode is returned when an image decodes fine but holds no readable QR code.
var ErrNoQRCode = errors.New("no QR code found in image")

// ScanFile opens an image file and returns the text of every QR code in it.
func ScanFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image file: %w", err)
	}
	defer f.Close()

	return Scan(f)
}

// ScanBytes decodes an in-memory image and returns its QR code texts.
func ScanBytes(data []byte) ([]string, error) {
	return Scan(bytes.NewReader(data))
}

// Scan decodes an image (PNG, JPEG or GIF) and returns the text of every QR
// code found, in detection order. The result is never empty when err is nil.
func Scan(r io.Reader) ([]string, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	return decodeQR(img)
}

func decodeQR(img image.Image) ([]string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, fmt.Errorf("creating bitmap: %w", err)
	}

	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}

	if results, err := multiqr.NewQRCodeMultiReader().DecodeMultiple(bmp, hints); err == nil {
		if texts := uniqueTexts(results); len(texts) > 0 {
			return texts, nil
		}
	}

	// The multi reader misses some codes the single reader still finds.
	result, err := qrcode.NewQRCodeReader().Decode(bmp, hints)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoQRCode, err)
	}

	return []string{result.GetText()}, nil
}

func uniqueTexts(results []*gozxing.Result) []string {
	seen := make(map[string]bool, len(results))
	var texts []string
	for _, r := range results {
		if r == nil {
			continue
		}
		t := r.GetText()
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		texts = append(texts, t)
	}
	return texts
}
