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

// Package input resolves an image source given on the command line: a file
// path, "-" for stdin, or an http(s) URL.
package input

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const defaultMaxBytes = 20 << 20

// Reader loads image bytes from a source.
type Reader struct {
	client   *retryablehttp.Client
	maxBytes int64
	stdin    io.Reader
}

// NewReader returns a Reader whose URL downloads time out after timeout and
// are retried up to retries times on transport errors and 5xx responses.
func NewReader(timeout time.Duration, retries int) *Reader {
	client := retryablehttp.NewClient()
	client.RetryMax = retries
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 5 * time.Second
	client.HTTPClient.Timeout = timeout
	client.Logger = slog.Default()

	return &Reader{
		client:   client,
		maxBytes: defaultMaxBytes,
		stdin:    os.Stdin,
	}
}

// Read returns the raw bytes of src.
func (r *Reader) Read(ctx context.Context, src string) ([]byte, error) {
	src = strings.TrimSpace(src)

	if src == "-" {
		if f, ok := r.stdin.(*os.File); ok {
			stat, err := f.Stat()
			if err != nil {
				return nil, fmt.Errorf("cannot read stdin: %w", err)
			}
			if (stat.Mode() & os.ModeCharDevice) != 0 {
				return nil, fmt.Errorf("no image on stdin (pipe an image or pass a file path)")
			}
		}
		b, err := io.ReadAll(io.LimitReader(r.stdin, r.maxBytes))
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return b, nil
	}

	if strings.HasPrefix(src, "https://") || strings.HasPrefix(src, "http://") {
		return r.fetch(ctx, src)
	}

	b, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("opening image file: %w", err)
	}
	return b, nil
}

func (r *Reader) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: HTTP %d", url, resp.StatusCode)
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", url, err)
	}
	return b, nil
}
