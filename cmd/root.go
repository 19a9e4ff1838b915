// Copyright 2025 Dominik Schlosser
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
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dominikschlosser/aadhaar-verify/internal/config"
	"github.com/dominikschlosser/aadhaar-verify/internal/input"
	"github.com/dominikschlosser/aadhaar-verify/internal/keys"
	"github.com/dominikschlosser/aadhaar-verify/internal/logging"
	"github.com/dominikschlosser/aadhaar-verify/internal/output"
	"github.com/dominikschlosser/aadhaar-verify/internal/qr"
	"github.com/dominikschlosser/aadhaar-verify/internal/verify"
)

var (
	certPath string
	logLevel string
	noColor  bool
	verbose  bool

	textOutput    bool
	strict        bool
	fromScreen    bool
	allCandidates bool
	photoPNG      bool

	cfg config.Config
)

// errVerificationFailed signals a failed verification under --strict. The
// result has already been printed, so Execute stays quiet about it.
var errVerificationFailed = errors.New("verification failed")

var rootCmd = &cobra.Command{
	Use:   "aadhaar-verify [image]",
	Short: "Decode and verify Aadhaar Secure QR codes",
	Long: `Reads an image containing an Aadhaar Secure QR code, decodes the signed payload and prints the identity record as JSON.

The image can be a file path, an http(s) URL, or "-" to read from stdin. Failures are reported as {"verified": false, "error": ..., "kind": ...}; pass --strict to also exit with status 1.`,
	Args:              cobra.MaximumNArgs(1),
	PersistentPreRunE: setup,
	RunE:              runVerify,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&certPath, "cert", "", "UIDAI signing certificate or RSA public key (PEM or DER); enables signature verification")
	pf.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default: LOG_LEVEL or info)")
	pf.BoolVar(&noColor, "no-color", false, "Disable colored output")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	f := rootCmd.Flags()
	f.BoolVar(&textOutput, "text", false, "Print a human-readable view instead of JSON")
	f.BoolVar(&strict, "strict", false, "Exit with status 1 when verification fails")
	f.BoolVar(&fromScreen, "screen", false, "Capture a screen region and scan it for a QR code (macOS only)")
	f.BoolVar(&allCandidates, "all-candidates", false, "Try later QR codes in the image when the first does not decode")
	f.BoolVar(&photoPNG, "photo-png", false, "Convert the photo to a resized PNG before base64 encoding")
}

// setup loads configuration and logging. Flags win over the environment.
func setup(cmd *cobra.Command, args []string) error {
	if noColor {
		color.NoColor = true
	}

	c, err := config.New(".env")
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	cfg = c

	if logLevel == "" {
		logLevel = cfg.LogLevel
	}
	logging.Init(logLevel)

	if certPath == "" {
		certPath = cfg.CertPath
	}
	allCandidates = allCandidates || cfg.AllCandidates
	photoPNG = photoPNG || cfg.PhotoPNG
	return nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !fromScreen {
		return fmt.Errorf("missing image argument\n\nUsage:\n  %s", cmd.UseLine())
	}

	v, err := newVerifier(certPath)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	var res *verify.Result
	if fromScreen {
		candidates, err := qr.ScanScreen()
		if err != nil {
			res = verify.ScanFailure(err)
		} else {
			res = v.VerifyCandidates(ctx, candidates)
		}
	} else {
		res = v.VerifySource(ctx, args[0])
	}

	output.PrintResult(res, output.Options{
		JSON:    !textOutput,
		NoColor: noColor,
		Verbose: verbose,
	})

	if strict && !res.Verified() {
		return errVerificationFailed
	}
	return nil
}

// newVerifier builds a Verifier from flags and configuration. An empty cert
// leaves signature verification off.
func newVerifier(cert string) (*verify.Verifier, error) {
	opts := verify.Options{
		AllCandidates: allCandidates,
		PhotoPNG:      photoPNG,
		Input:         input.NewReader(cfg.Fetch.Timeout, cfg.Fetch.Retries),
	}
	if cert != "" {
		key, err := keys.LoadRSAPublicKey(cert)
		if err != nil {
			return nil, fmt.Errorf("loading certificate: %w", err)
		}
		opts.PublicKey = key
	}
	return verify.New(opts), nil
}

func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errVerificationFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		return err
	}
	return nil
}
