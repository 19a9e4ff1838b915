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
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/dominikschlosser/aadhaar-verify/internal/secureqr"
	"github.com/dominikschlosser/aadhaar-verify/internal/verify"
)

// captureOutput captures all terminal output (both fmt and color) during fn execution.
func captureOutput(fn func()) string {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	r, w, _ := os.Pipe()

	oldStdout := os.Stdout
	oldOutput := color.Output
	os.Stdout = w
	color.Output = w

	fn()

	w.Close()
	os.Stdout = oldStdout
	color.Output = oldOutput

	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}

func testResult() *verify.Result {
	return &verify.Result{
		Identity: &verify.Identity{
			Name:   "Test User",
			DOB:    "01-01-1990",
			UID:    "1234XXXXXXXX",
			Gender: "M",
			Photo:  "AAEC",
		},
	}
}

func testData() *secureqr.Data {
	return &secureqr.Data{
		Version:     "V2",
		Contact:     secureqr.ContactMobile,
		ReferenceID: "123420190101120000123",
		Name:        "Test User",
		DOB:         "01-01-1990",
		Gender:      "M",
		House:       "12",
		State:       "Karnataka",
		Pincode:     "560038",
		MobileLast4: "4321",
		Photo:       []byte{1, 2, 3},
		MobileHash:  bytes.Repeat([]byte{0xAB}, secureqr.HashSize),
	}
}

func TestPrintResult_JSONSuccess(t *testing.T) {
	out := captureOutput(func() {
		PrintResult(testResult(), Options{JSON: true})
	})

	want := `{
  "verified": true,
  "name": "Test User",
  "dob": "01-01-1990",
  "uid": "1234XXXXXXXX",
  "gender": "M",
  "mobile": "",
  "email": "",
  "photo": "AAEC"
}
`
	if out != want {
		t.Errorf("got:\n%s\nwant:\n%s", out, want)
	}
}

func TestPrintResult_JSONFailure(t *testing.T) {
	res := verify.Failure(verify.KindDecode, errors.New("payload is not a base-10 number"))

	out := captureOutput(func() {
		PrintResult(res, Options{JSON: true})
	})

	var got map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if got["verified"] != false {
		t.Errorf("verified = %v, want false", got["verified"])
	}
	if got["error"] != "payload is not a base-10 number" {
		t.Errorf("error = %v", got["error"])
	}
	if got["kind"] != "decode_error" {
		t.Errorf("kind = %v", got["kind"])
	}
	if _, ok := got["name"]; ok {
		t.Error("failure output must not carry identity fields")
	}
}

func TestPrintResult_Text(t *testing.T) {
	out := captureOutput(func() {
		PrintResult(testResult(), Options{})
	})

	for _, want := range []string{"✓ Verified", "Name: Test User", "UID: 1234XXXXXXXX", "signature not checked", "use -v to show"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Mobile:") {
		t.Error("empty mobile should be omitted")
	}
}

func TestPrintResult_TextFailure(t *testing.T) {
	out := captureOutput(func() {
		PrintResult(verify.Failure(verify.KindNoQRFound, errors.New("no QR code found in image")), Options{})
	})

	if !strings.Contains(out, "✗ Not verified") || !strings.Contains(out, "no_qr_found") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestBuildDataJSON(t *testing.T) {
	result := BuildDataJSON(testData(), "not checked")

	if result["version"] != "V2" {
		t.Errorf("version = %v, want V2", result["version"])
	}
	if result["uid"] != "1234XXXXXXXX" {
		t.Errorf("uid = %v", result["uid"])
	}
	if result["mobileLast4"] != "4321" {
		t.Errorf("mobileLast4 = %v", result["mobileLast4"])
	}
	contact := result["contact"].(map[string]any)
	if contact["indicator"] != "mobile" {
		t.Errorf("contact.indicator = %v", contact["indicator"])
	}
	if contact["emailHash"] != "" {
		t.Errorf("contact.emailHash = %v, want empty", contact["emailHash"])
	}
	if !strings.HasPrefix(contact["mobileHash"].(string), "abab") {
		t.Errorf("contact.mobileHash = %v", contact["mobileHash"])
	}
	address := result["address"].(map[string]any)
	if address["state"] != "Karnataka" {
		t.Errorf("address.state = %v", address["state"])
	}
	if result["photo"] != "AQID" {
		t.Errorf("photo = %v, want AQID", result["photo"])
	}
}

func TestPrintData_Text(t *testing.T) {
	out := captureOutput(func() {
		PrintData(testData(), "valid", Options{})
	})

	for _, want := range []string{"Version: V2", "✓ Signature valid", "Mobile: XXXXXX4321", "State: Karnataka", "Size: 3 bytes"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Mobile SHA-256") {
		t.Error("hashes should only be shown in verbose mode")
	}
}

func TestPrintData_Verbose(t *testing.T) {
	out := captureOutput(func() {
		PrintData(testData(), "invalid: signature verification failed", Options{Verbose: true})
	})

	if !strings.Contains(out, "✗ Signature invalid") {
		t.Errorf("expected invalid signature line:\n%s", out)
	}
	if !strings.Contains(out, "Mobile SHA-256: abab") {
		t.Errorf("expected mobile hash in verbose output:\n%s", out)
	}
}

func TestPrintContact(t *testing.T) {
	r := ContactReport{
		Mobile: &ContactCheck{Checked: true, Match: true},
		Email:  &ContactCheck{Checked: false, Reason: "email hash not present in payload"},
	}

	out := captureOutput(func() {
		PrintContact(r, Options{})
	})
	if !strings.Contains(out, "✓ Mobile matches") {
		t.Errorf("missing mobile match:\n%s", out)
	}
	if !strings.Contains(out, "Email: not checked (email hash not present in payload)") {
		t.Errorf("missing email reason:\n%s", out)
	}

	out = captureOutput(func() {
		PrintContact(r, Options{JSON: true})
	})
	var got map[string]map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got["mobile"]["match"] != true {
		t.Errorf("mobile.match = %v", got["mobile"]["match"])
	}
	if got["email"]["checked"] != false {
		t.Errorf("email.checked = %v", got["email"]["checked"])
	}
}
