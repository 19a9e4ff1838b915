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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dominikschlosser/aadhaar-verify/internal/secureqr/secureqrtest"
)

func TestContactDigest(t *testing.T) {
	// sha256("abc")
	const once = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	assert.Equal(t, once, ContactDigest("abc", 1))
	assert.Equal(t, once, ContactDigest("abc", 0))
	assert.Equal(t, ContactDigest(once, 1), ContactDigest("abc", 2))
}

func TestHashRounds(t *testing.T) {
	tests := []struct {
		ref  string
		want int
	}{
		{"1230xxxx", 1},
		{"1231xxxx", 1},
		{"1232xxxx", 2},
		{"1239xxxx", 9},
	}
	for _, tt := range tests {
		d := &Data{ReferenceID: tt.ref}
		got, err := d.HashRounds()
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.ref)
	}

	_, err := (&Data{ReferenceID: "12"}).HashRounds()
	assert.ErrorIs(t, err, ErrMalformed)
	_, err = (&Data{ReferenceID: "123X"}).HashRounds()
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestVerifyContacts(t *testing.T) {
	// Reference ids ending the Aadhaar number in 4 (four rounds) and 1 (one round).
	for _, ref := range []string{"123420190101120000123", "567120190101120000123"} {
		t.Run(ref, func(t *testing.T) {
			f := secureqrtest.Default()
			f.ReferenceID = ref
			f.Email = "test.user@example.com"
			f.Mobile = "9800000001"

			d, err := Decode(f.Text())
			require.NoError(t, err)

			ok, err := d.VerifyMobile("9800000001")
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = d.VerifyMobile(" 9800000001 ")
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = d.VerifyMobile("9800000002")
			require.NoError(t, err)
			assert.False(t, ok)

			ok, err = d.VerifyEmail("test.user@example.com")
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = d.VerifyEmail("other@example.com")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestVerifyContacts_NoHash(t *testing.T) {
	d, err := Decode(secureqrtest.Default().Text())
	require.NoError(t, err)

	_, err = d.VerifyMobile("9800000001")
	assert.ErrorIs(t, err, ErrNoHash)
	_, err = d.VerifyEmail("a@b.c")
	assert.ErrorIs(t, err, ErrNoHash)
}
