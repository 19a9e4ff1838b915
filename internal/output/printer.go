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

package output

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/dominikschlosser/aadhaar-verify/internal/secureqr"
	"github.com/dominikschlosser/aadhaar-verify/internal/verify"
)

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	labelColor   = color.New(color.FgYellow)
	valueColor   = color.New(color.FgWhite)
	dimColor     = color.New(color.Faint)
	successColor = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed)
)

// Options controls how results are printed.
type Options struct {
	JSON    bool
	NoColor bool
	Verbose bool
}

// PrintResult prints a verification result.
func PrintResult(res *verify.Result, opts Options) {
	if opts.JSON {
		PrintJSON(res.Report())
		return
	}

	headerColor.Println("Aadhaar Secure QR")
	headerColor.Println(strings.Repeat("─", 50))

	if !res.Verified() {
		errorColor.Println("  ✗ Not verified")
		if res.Err != nil {
			printKV("Kind", string(res.Err.Kind), 1)
			printKV("Error", res.Err.Error(), 1)
		}
		fmt.Println()
		return
	}

	successColor.Println("  ✓ Verified")
	if res.SignatureChecked {
		successColor.Println("  ✓ Signature valid")
	} else {
		dimColor.Println("  signature not checked (no certificate configured)")
	}

	id := res.Identity
	printSection("Identity")
	printKV("Name", id.Name, 1)
	printKV("Date of Birth", id.DOB, 1)
	printKV("UID", id.UID, 1)
	printKV("Gender", id.Gender, 1)
	printOptional("Mobile", id.Mobile)
	printOptional("Email", id.Email)
	if opts.Verbose {
		printKV("Photo (base64)", id.Photo, 1)
	} else {
		dimColor.Printf("  Photo: %d base64 chars, use -v to show\n", len(id.Photo))
	}

	if opts.Verbose && res.Candidate > 0 {
		dimColor.Printf("\n  decoded from QR code #%d\n", res.Candidate+1)
	}
	fmt.Println()
}

// BuildDataJSON returns the JSON-serializable map for a full payload.
func BuildDataJSON(d *secureqr.Data, signature string) map[string]any {
	out := map[string]any{
		"version":     d.Version,
		"referenceId": d.ReferenceID,
		"name":        d.Name,
		"dob":         d.DOB,
		"gender":      d.Gender,
		"uid":         d.MaskedUID(),
		"address": map[string]any{
			"careOf":      d.CareOf,
			"house":       d.House,
			"street":      d.Street,
			"landmark":    d.Landmark,
			"location":    d.Location,
			"vtc":         d.VTC,
			"postOffice":  d.PostOffice,
			"subDistrict": d.SubDistrict,
			"district":    d.District,
			"state":       d.State,
			"pincode":     d.Pincode,
		},
		"contact": map[string]any{
			"indicator":  d.Contact.String(),
			"emailHash":  hexOrEmpty(d.EmailHash),
			"mobileHash": hexOrEmpty(d.MobileHash),
		},
		"photo":     base64.StdEncoding.EncodeToString(d.Photo),
		"photoSize": len(d.Photo),
		"signature": signature,
	}
	if d.MobileLast4 != "" {
		out["mobileLast4"] = d.MobileLast4
	}
	return out
}

// PrintData prints every field of a decoded payload. signature describes the
// signature check outcome ("valid", "invalid: ...", "not checked").
func PrintData(d *secureqr.Data, signature string, opts Options) {
	if opts.JSON {
		PrintJSON(BuildDataJSON(d, signature))
		return
	}

	headerColor.Println("Aadhaar Secure QR Payload")
	headerColor.Println(strings.Repeat("─", 50))

	printSection("Format")
	version := d.Version
	if version == "" {
		version = "legacy"
	}
	printKV("Version", version, 1)
	printKV("Reference ID", d.ReferenceID, 1)
	printKV("Contact Hashes", d.Contact.String(), 1)
	switch {
	case signature == "valid":
		successColor.Println("  ✓ Signature valid")
	case strings.HasPrefix(signature, "invalid"):
		errorColor.Printf("  ✗ Signature %s\n", signature)
	default:
		dimColor.Printf("  signature %s\n", signature)
	}

	printSection("Demographics")
	printKV("Name", d.Name, 1)
	printKV("Date of Birth", d.DOB, 1)
	printKV("Gender", d.Gender, 1)
	printKV("UID", d.MaskedUID(), 1)
	if d.MobileLast4 != "" {
		printKV("Mobile", d.MaskedMobile(), 1)
	}

	printSection("Address")
	printOptional("Care Of", d.CareOf)
	printOptional("House", d.House)
	printOptional("Street", d.Street)
	printOptional("Landmark", d.Landmark)
	printOptional("Location", d.Location)
	printOptional("VTC", d.VTC)
	printOptional("Post Office", d.PostOffice)
	printOptional("Sub District", d.SubDistrict)
	printOptional("District", d.District)
	printOptional("State", d.State)
	printOptional("Pincode", d.Pincode)

	printSection("Photo")
	printKV("Size", fmt.Sprintf("%d bytes", len(d.Photo)), 1)

	if opts.Verbose {
		printSection("Hashes")
		printOptional("Email SHA-256", hexOrEmpty(d.EmailHash))
		printOptional("Mobile SHA-256", hexOrEmpty(d.MobileHash))
		printKV("Signature", fmt.Sprintf("%x", d.Signature), 1)
	}

	fmt.Println()
}

// ContactCheck is the outcome of comparing one contact value with its hash.
type ContactCheck struct {
	Checked bool   `json:"checked"`
	Match   bool   `json:"match"`
	Reason  string `json:"reason,omitempty"`
}

// ContactReport holds email and mobile checks; unrequested checks are nil.
type ContactReport struct {
	Mobile *ContactCheck `json:"mobile,omitempty"`
	Email  *ContactCheck `json:"email,omitempty"`
}

// PrintContact prints contact hash checks.
func PrintContact(r ContactReport, opts Options) {
	if opts.JSON {
		PrintJSON(r)
		return
	}

	printSection("Contact Verification")
	printCheck("Mobile", r.Mobile)
	printCheck("Email", r.Email)
	fmt.Println()
}

func printCheck(label string, c *ContactCheck) {
	switch {
	case c == nil:
		return
	case !c.Checked:
		dimColor.Printf("  %s: not checked (%s)\n", label, c.Reason)
	case c.Match:
		successColor.Printf("  ✓ %s matches\n", label)
	default:
		errorColor.Printf("  ✗ %s does not match\n", label)
	}
}

func printSection(title string) {
	fmt.Println()
	headerColor.Printf("┌ %s\n", title)
}

func printKV(key, value string, indent int) {
	prefix := strings.Repeat("  ", indent)
	labelColor.Printf("%s%s: ", prefix, key)
	valueColor.Println(value)
}

// printOptional prints key/value at indent 1, or nothing when value is empty.
func printOptional(key, value string) {
	if value == "" {
		return
	}
	printKV(key, value, 1)
}

func hexOrEmpty(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return fmt.Sprintf("%x", b)
}
