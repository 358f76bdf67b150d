package entities

import (
	"strings"
)

// tokenAddressHexLength is the number of hex digits in a 20-byte address
const tokenAddressHexLength = 40

// TokenAddress identifies the token a ledger accounts in
type TokenAddress string

// ZeroTokenAddress is the null token reference
const ZeroTokenAddress TokenAddress = "0x0000000000000000000000000000000000000000"

// IsZero reports whether the address is empty or the null address
func (a TokenAddress) IsZero() bool {
	s := strings.TrimSpace(string(a))
	if s == "" {
		return true
	}
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	return strings.Trim(s, "0") == ""
}

// IsValid reports whether the address is a non-null 0x-prefixed 20-byte hex value
func (a TokenAddress) IsValid() bool {
	s := strings.ToLower(strings.TrimSpace(string(a)))
	if !strings.HasPrefix(s, "0x") {
		return false
	}
	digits := s[2:]
	if len(digits) != tokenAddressHexLength {
		return false
	}
	for _, c := range digits {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return !a.IsZero()
}

// Normalize returns the address trimmed and lower-cased
func (a TokenAddress) Normalize() TokenAddress {
	return TokenAddress(strings.ToLower(strings.TrimSpace(string(a))))
}

func (a TokenAddress) String() string {
	return string(a)
}
