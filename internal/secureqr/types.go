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

package secureqr

// ContactIndicator says which contact hashes a payload carries.
type ContactIndicator int

const (
	ContactNone ContactIndicator = iota
	ContactEmail
	ContactMobile
	ContactBoth
)

// HasEmail reports whether an email hash is present.
func (c ContactIndicator) HasEmail() bool {
	return c == ContactEmail || c == ContactBoth
}

// HasMobile reports whether a mobile hash is present.
func (c ContactIndicator) HasMobile() bool {
	return c == ContactMobile || c == ContactBoth
}

func (c ContactIndicator) hashBytes() int {
	n := 0
	if c.HasEmail() {
		n += HashSize
	}
	if c.HasMobile() {
		n += HashSize
	}
	return n
}

func (c ContactIndicator) String() string {
	switch c {
	case ContactEmail:
		return "email"
	case ContactMobile:
		return "mobile"
	case ContactBoth:
		return "email+mobile"
	default:
		return "none"
	}
}

// Data is a decoded Secure QR payload.
type Data struct {
	// Version is empty for legacy payloads, "V2" and later otherwise.
	Version     string
	Contact     ContactIndicator
	ReferenceID string

	Name        string
	DOB         string
	Gender      string
	CareOf      string
	District    string
	Landmark    string
	House       string
	Location    string
	Pincode     string
	PostOffice  string
	State       string
	Street      string
	SubDistrict string
	VTC         string
	MobileLast4 string

	Photo      []byte
	EmailHash  []byte
	MobileHash []byte

	Signature  []byte
	SignedData []byte
}

// AadhaarLast4 returns the last four digits of the Aadhaar number, which
// prefix the reference id.
func (d *Data) AadhaarLast4() string {
	if len(d.ReferenceID) < 4 {
		return d.ReferenceID
	}
	return d.ReferenceID[:4]
}

// MaskedUID returns the Aadhaar digits known from the payload followed by a
// mask for the rest of the number.
func (d *Data) MaskedUID() string {
	return d.AadhaarLast4() + "XXXXXXXX"
}

// MaskedMobile returns the masked mobile number for versioned payloads, or ""
// when the payload has no mobile digits.
func (d *Data) MaskedMobile() string {
	if d.MobileLast4 == "" {
		return ""
	}
	return "XXXXXX" + d.MobileLast4
}

// Address joins the non-empty address fields in postal order.
func (d *Data) Address() []string {
	var parts []string
	for _, p := range []string{d.CareOf, d.House, d.Street, d.Landmark, d.Location, d.VTC, d.PostOffice, d.SubDistrict, d.District, d.State, d.Pincode} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
