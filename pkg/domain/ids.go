// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"encoding/hex"
	"strconv"
	"strings"

	"golang.org/x/crypto/sha3"

	dErrors "certledger/pkg/domain-errors"
)

// AddressLength is the byte length of a ledger identity.
const AddressLength = 20

// MaxContentHashLength bounds content identifiers accepted at trust boundaries.
const MaxContentHashLength = 128

// Distinct ID types - compiler prevents passing a CertificateID where a count is expected.
type (
	// Address identifies a caller, issuer or holder on the ledger.
	Address [AddressLength]byte

	// CertificateID is assigned by the ledger at issuance. Valid IDs start at 1;
	// the zero value is the "no certificate" sentinel.
	CertificateID uint64

	// ContentHash is the content address of an off-ledger metadata blob.
	ContentHash string
)

// ZeroAddress is the null identity. It can never hold or issue a credential.
var ZeroAddress Address

// Parse functions - use at trust boundaries (handlers, API inputs).

// ParseAddress parses a 0x-prefixed hex address. All-lower and all-upper inputs are
// accepted as-is; mixed-case inputs must carry a valid EIP-55 checksum.
func ParseAddress(s string) (Address, error) {
	var addr Address
	s = strings.TrimSpace(s)
	if s == "" {
		return addr, dErrors.New(dErrors.CodeInvalidInput, "address cannot be empty")
	}
	body, ok := strings.CutPrefix(s, "0x")
	if !ok {
		body, ok = strings.CutPrefix(s, "0X")
	}
	if !ok || len(body) != 2*AddressLength {
		return addr, dErrors.New(dErrors.CodeInvalidInput, "invalid address format")
	}
	if _, err := hex.Decode(addr[:], []byte(body)); err != nil {
		return ZeroAddress, dErrors.New(dErrors.CodeInvalidInput, "invalid address format")
	}
	if isMixedCase(body) && checksumHex(addr) != body {
		return ZeroAddress, dErrors.New(dErrors.CodeInvalidInput, "address checksum mismatch")
	}
	return addr, nil
}

// MustParseAddress is for constants and tests only.
func MustParseAddress(s string) Address {
	addr, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return addr
}

func ParseCertificateID(s string) (CertificateID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "certificate ID cannot be empty")
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil || v == 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid certificate ID format")
	}
	return CertificateID(v), nil
}

func ParseContentHash(s string) (ContentHash, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "content hash cannot be empty")
	}
	if len(s) > MaxContentHashLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, "content hash is too long")
	}
	return ContentHash(s), nil
}

// String methods.

// String renders the EIP-55 checksummed form.
func (a Address) String() string { return "0x" + checksumHex(a) }
func (id CertificateID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}
func (h ContentHash) String() string { return string(h) }

// IsZero / IsNil checks - used for service-layer validation.

func (a Address) IsZero() bool       { return a == ZeroAddress }
func (id CertificateID) IsNil() bool { return id == 0 }
func (h ContentHash) IsNil() bool    { return strings.TrimSpace(string(h)) == "" }

// MarshalText lets addresses travel as checksummed strings in JSON and YAML.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// checksumHex applies EIP-55 mixed-case encoding to the lowercase hex body.
func checksumHex(a Address) string {
	lower := hex.EncodeToString(a[:])
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write([]byte(lower))
	digest := h.Sum(nil)

	out := []byte(lower)
	for i, c := range out {
		if c < 'a' || c > 'f' {
			continue
		}
		nibble := digest[i/2]
		if i%2 == 0 {
			nibble >>= 4
		}
		if nibble&0x0f >= 8 {
			out[i] = c - 'a' + 'A'
		}
	}
	return string(out)
}

func isMixedCase(s string) bool {
	return strings.ToLower(s) != s && strings.ToUpper(s) != s
}
