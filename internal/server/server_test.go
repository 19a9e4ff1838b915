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

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dominikschlosser/aadhaar-verify/internal/attest"
	"github.com/dominikschlosser/aadhaar-verify/internal/secureqr/secureqrtest"
	"github.com/dominikschlosser/aadhaar-verify/internal/verify"
)

// upload posts image bytes as the given multipart field and returns the recorder.
func upload(t *testing.T, h http.Handler, field string, image []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, "qr.png")
	require.NoError(t, err)
	_, err = fw.Write(image)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/verify-aadhaar", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// decodeResponse unmarshals the response body into a map.
func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var result map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid JSON response: %v\nbody: %s", err, w.Body.String())
	}
	return result
}

func TestVerify_Success(t *testing.T) {
	srv := New(Options{})
	w := upload(t, srv, "aadhaar", secureqrtest.PNG(t, secureqrtest.Default().Text()))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	body := decodeResponse(t, w)
	assert.Equal(t, true, body["verified"])
	assert.Equal(t, "Test User", body["name"])
	assert.Equal(t, "01-01-1990", body["dob"])
	assert.Equal(t, "1234XXXXXXXX", body["uid"])
	assert.Equal(t, "M", body["gender"])
	assert.Equal(t, "", body["mobile"])
	assert.Equal(t, "", body["email"])
	assert.NotEmpty(t, body["photo"])
	assert.NotContains(t, body, "token")
}

func TestVerify_Token(t *testing.T) {
	signer, err := attest.NewSigner([]byte("secret"), "aadhaar-verify", time.Minute)
	require.NoError(t, err)

	srv := New(Options{Signer: signer})
	w := upload(t, srv, "aadhaar", secureqrtest.PNG(t, secureqrtest.Default().Text()))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	token, _ := decodeResponse(t, w)["token"].(string)
	require.NotEmpty(t, token)

	claims, err := signer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "Test User", claims.Name)
	assert.Equal(t, "1234XXXXXXXX", claims.UID)
}

func TestVerify_Failures(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		image    []byte
		status   int
		wantKind string
	}{
		{"no QR code", "aadhaar", secureqrtest.BlankPNG(t), http.StatusUnprocessableEntity, "no_qr_found"},
		{"not an image", "aadhaar", []byte("plain text"), http.StatusUnprocessableEntity, "image_read"},
		{"not a secure QR", "aadhaar", secureqrtest.PNG(t, "hello"), http.StatusUnprocessableEntity, "decode_error"},
		{"wrong field", "file", secureqrtest.BlankPNG(t), http.StatusBadRequest, "usage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := upload(t, New(Options{}), tt.field, tt.image)
			assert.Equal(t, tt.status, w.Code)

			body := decodeResponse(t, w)
			assert.Equal(t, false, body["verified"])
			assert.Equal(t, tt.wantKind, body["kind"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestVerify_SignatureRequired(t *testing.T) {
	key := secureqrtest.Key(t)
	srv := New(Options{Verifier: verify.New(verify.Options{PublicKey: &key.PublicKey})})

	w := upload(t, srv, "aadhaar", secureqrtest.PNG(t, secureqrtest.Default().Text()))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "signature_invalid", decodeResponse(t, w)["kind"])
}

func TestVerify_NotMultipart(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/verify-aadhaar", strings.NewReader(`{"input":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	New(Options{}).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerify_TooLarge(t *testing.T) {
	srv := New(Options{MaxUploadBytes: 512})
	w := upload(t, srv, "aadhaar", bytes.Repeat([]byte("x"), 4096))

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestVerify_MethodNotAllowed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/verify-aadhaar", nil)
	w := httptest.NewRecorder()
	New(Options{}).ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestCORS(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/verify-aadhaar", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	New(Options{}).ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/verify-aadhaar", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	New(Options{AllowedOrigins: []string{"http://localhost:3000"}}).ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	New(Options{}).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeResponse(t, w)["ok"])
}

func TestNotFound(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	w := httptest.NewRecorder()
	New(Options{}).ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListenAndServe_Shutdown(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	l.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ListenAndServe(ctx, addr, New(Options{})) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/api/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
