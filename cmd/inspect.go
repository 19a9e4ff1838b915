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
	"context"

	"github.com/spf13/cobra"

	"github.com/dominikschlosser/aadhaar-verify/internal/keys"
	"github.com/dominikschlosser/aadhaar-verify/internal/output"
	"github.com/dominikschlosser/aadhaar-verify/internal/secureqr"
)

var inspectJSON bool

var inspectCmd = &cobra.Command{
	Use:   "inspect <image>",
	Short: "Show every field of a Secure QR payload",
	Long:  "Decodes the Secure QR code in an image and prints the full payload: version, reference id, address fields, contact hashes, photo size and, when a certificate is given, the signature status.",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	data, err := loadPayload(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	signature := "not checked"
	if certPath != "" {
		key, err := keys.LoadRSAPublicKey(certPath)
		if err != nil {
			return err
		}
		if err := data.VerifySignature(key); err != nil {
			signature = "invalid: " + err.Error()
		} else {
			signature = "valid"
		}
	}

	output.PrintData(data, signature, output.Options{
		JSON:    inspectJSON,
		NoColor: noColor,
		Verbose: verbose,
	})
	return nil
}

// loadPayload decodes the Secure QR in src without checking its signature.
func loadPayload(ctx context.Context, src string) (*secureqr.Data, error) {
	v, err := newVerifier("")
	if err != nil {
		return nil, err
	}
	res := v.VerifySource(ctx, src)
	if !res.Verified() {
		return nil, res.Err
	}
	return res.Data, nil
}
