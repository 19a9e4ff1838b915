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

	"github.com/spf13/cobra"

	"github.com/dominikschlosser/aadhaar-verify/internal/output"
)

var (
	contactMobile string
	contactEmail  string
	contactText   bool
)

var contactCmd = &cobra.Command{
	Use:   "contact <image> --mobile <number> --email <address>",
	Short: "Check a mobile number or email against the hashes in a Secure QR",
	Long:  "The Secure QR code carries only SHA-256 hashes of the registered mobile number and email. This command hashes the given values the same way and reports whether they match.",
	Args:  cobra.ExactArgs(1),
	RunE:  runContact,
}

func init() {
	contactCmd.Flags().StringVar(&contactMobile, "mobile", "", "Mobile number to check")
	contactCmd.Flags().StringVar(&contactEmail, "email", "", "Email address to check")
	contactCmd.Flags().BoolVar(&contactText, "text", false, "Print a human-readable view instead of JSON")
	rootCmd.AddCommand(contactCmd)
}

func runContact(cmd *cobra.Command, args []string) error {
	if contactMobile == "" && contactEmail == "" {
		return fmt.Errorf("nothing to check: pass --mobile and/or --email")
	}

	data, err := loadPayload(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	var report output.ContactReport
	if contactMobile != "" {
		report.Mobile = checkContact(data.VerifyMobile, contactMobile)
	}
	if contactEmail != "" {
		report.Email = checkContact(data.VerifyEmail, contactEmail)
	}

	output.PrintContact(report, output.Options{
		JSON:    !contactText,
		NoColor: noColor,
		Verbose: verbose,
	})
	return nil
}

func checkContact(check func(string) (bool, error), value string) *output.ContactCheck {
	ok, err := check(value)
	if err != nil {
		return &output.ContactCheck{Reason: err.Error()}
	}
	return &output.ContactCheck{Checked: true, Match: ok}
}
