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

// Package server exposes verification over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/dominikschlosser/aadhaar-verify/internal/attest"
	"github.com/dominikschlosser/aadhaar-verify/internal/logging"
	"github.com/dominikschlosser/aadhaar-verify/internal/verify"
)

const (
	uploadField      = "aadhaar"
	defaultMaxUpload = 10 << 20
	maxMemory        = 8 << 20
)

// Options configures the HTTP API.
type Options struct {
	Verifier *verify.Verifier
	// Signer, when set, adds a token to verified responses.
	Signer         *attest.Signer
	MaxUploadBytes int64
	// AllowedOrigins for CORS; empty allows any origin.
	AllowedOrigins []string
}

// Server handles the HTTP API.
type Server struct {
	verifier  *verify.Verifier
	signer    *attest.Signer
	maxUpload int64
	router    *mux.Router
}

// New builds a Server and its routes.
func New(opts Options) *Server {
	s := &Server{
		verifier:  opts.Verifier,
		signer:    opts.Signer,
		maxUpload: opts.MaxUploadBytes,
	}
	if s.verifier == nil {
		s.verifier = verify.New(verify.Options{})
	}
	if s.maxUpload <= 0 {
		s.maxUpload = defaultMaxUpload
	}

	r := mux.NewRouter()
	r.Use(requestID, cors(opts.AllowedOrigins))
	r.HandleFunc("/api/health", handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/verify-aadhaar", s.handleVerify).Methods(http.MethodPost, http.MethodOptions)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	s.router = r

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves h on addr until ctx is cancelled, then shuts down
// gracefully.
func ListenAndServe(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "address", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Error during server shutdown", "error", err)
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds size limit")
			return
		}
		writeError(w, http.StatusBadRequest, "expected a multipart form upload")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		writeError(w, http.StatusBadRequest, `missing file field "`+uploadField+`"`)
		return
	}
	defer file.Close()

	slog.DebugContext(ctx, "Verifying upload", "filename", header.Filename, "size", header.Size)
	res := s.verifier.VerifyImage(ctx, file)
	rep := res.Report()

	if !rep.Verified {
		slog.InfoContext(ctx, "Verification failed", "kind", rep.Kind, "error", rep.Error)
		writeJSON(w, http.StatusUnprocessableEntity, rep)
		return
	}

	if s.signer != nil {
		token, err := s.signer.Sign(res)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to sign verification token", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to sign verification token")
			return
		}
		rep.Token = token
	}

	slog.InfoContext(ctx, "Verification succeeded", "signature_checked", res.SignatureChecked)
	writeJSON(w, http.StatusOK, rep)
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-ID", id)
		ctx := logging.WithRequestID(r.Context(), id)
		start := time.Now()
		next.ServeHTTP(w, r.WithContext(ctx))
		slog.DebugContext(ctx, "Request handled", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

func cors(allow []string) mux.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allow))
	for _, o := range allow {
		allowed[o] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if _, ok := allowed[origin]; ok || len(allowed) == 0 {
				if origin == "" {
					origin = "*"
				}
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
				w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		slog.Error("failed to write body to http response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, verify.Report{Verified: false, Error: msg, Kind: verify.KindUsage})
}
