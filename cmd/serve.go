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

package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dominikschlosser/aadhaar-verify/internal/attest"
	"github.com/dominikschlosser/aadhaar-verify/internal/server"
)

var port int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP verification API",
	Long:  "Starts an HTTP server exposing POST /api/verify-aadhaar (multipart upload, file field \"aadhaar\") and GET /api/health. Configured through the environment or a .env file; see PORT, HOST, MAX_UPLOAD_BYTES and TOKEN_SIGNING_KEY.",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&port, "port", 0, "Port to listen on (default: PORT or 5000)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if port != 0 {
		cfg.Port = port
	}

	v, err := newVerifier(certPath)
	if err != nil {
		return err
	}

	var signer *attest.Signer
	if cfg.Token.SigningKey != "" {
		signer, err = attest.NewSigner([]byte(cfg.Token.SigningKey), cfg.Token.Issuer, cfg.Token.TTL)
		if err != nil {
			return fmt.Errorf("configuring token signer: %w", err)
		}
	}

	srv := server.New(server.Options{
		Verifier:       v,
		Signer:         signer,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Aadhaar verification API", "signature_check", certPath != "", "tokens", signer != nil)
	return server.ListenAndServe(ctx, cfg.Addr(), srv)
}
