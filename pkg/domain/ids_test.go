package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "certledger/pkg/domain-errors"
)

// TestParseAddress_Invariants validates the parsing invariant:
// "identities are 20-byte hex values; mixed case must carry a valid checksum"
func TestParseAddress_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseAddress("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects missing prefix", func(t *testing.T) {
		_, err := ParseAddress("5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		_, err := ParseAddress("0x5aaeb6053f3e94c9b9a09f33669435e7ef1bea")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects non-hex characters", func(t *testing.T) {
		_, err := ParseAddress("0xzzaeb6053f3e94c9b9a09f33669435e7ef1beaed")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects bad checksum", func(t *testing.T) {
		_, err := ParseAddress("0x5AAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts lowercase and renders checksum", func(t *testing.T) {
		addr, err := ParseAddress("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")
		require.NoError(t, err)
		assert.Equal(t, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", addr.String())
	})
}

// EIP-55 reference vectors.
func TestAddressChecksumVectors(t *testing.T) {
	vectors := []string{
		"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359",
		"0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB",
		"0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb",
	}
	for _, v := range vectors {
		addr, err := ParseAddress(strings.ToLower(v))
		require.NoError(t, err)
		assert.Equal(t, v, addr.String())

		again, err := ParseAddress(v)
		require.NoError(t, err)
		assert.Equal(t, addr, again)
	}
}

func TestAddressTextRoundTrip(t *testing.T) {
	addr := MustParseAddress("0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359")
	text, err := addr.MarshalText()
	require.NoError(t, err)

	var decoded Address
	require.NoError(t, decoded.UnmarshalText(text))
	assert.Equal(t, addr, decoded)
	assert.False(t, decoded.IsZero())
	assert.True(t, ZeroAddress.IsZero())
}

func TestParseCertificateID(t *testing.T) {
	t.Run("rejects zero", func(t *testing.T) {
		_, err := ParseCertificateID("0")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects negative and garbage", func(t *testing.T) {
		for _, in := range []string{"-1", "abc", "1.5", ""} {
			_, err := ParseCertificateID(in)
			require.Error(t, err, in)
		}
	})

	t.Run("accepts positive integers", func(t *testing.T) {
		id, err := ParseCertificateID(" 42 ")
		require.NoError(t, err)
		assert.Equal(t, CertificateID(42), id)
		assert.Equal(t, "42", id.String())
	})
}

func TestParseContentHash(t *testing.T) {
	_, err := ParseContentHash("   ")
	require.Error(t, err)

	_, err = ParseContentHash(strings.Repeat("a", MaxContentHashLength+1))
	require.Error(t, err)

	h, err := ParseContentHash(" bafkreiabc ")
	require.NoError(t, err)
	assert.Equal(t, ContentHash("bafkreiabc"), h)
}
