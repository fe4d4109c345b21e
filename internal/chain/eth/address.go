// Package eth provides Ethereum address, amount and gas helpers shared by
// the transaction coordinator and the contract bindings.
package eth

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"

	gateerr "github.com/paygatehq/paygate/pkg/errors"
)

// IsValidAddress checks if the address is a valid Ethereum address format.
// This validates the format (40 hex chars with 0x prefix) but does not validate checksum.
func IsValidAddress(address string) bool {
	if len(address) != 42 {
		return false
	}
	if !strings.HasPrefix(address, "0x") {
		return false
	}
	for _, c := range address[2:] {
		if !isHexChar(c) {
			return false
		}
	}
	return true
}

// ToChecksumAddress converts an Ethereum address to EIP-55 checksum format.
// If the input is invalid, it returns the original input unchanged.
func ToChecksumAddress(address string) string {
	if !IsValidAddress(address) {
		return address
	}

	addr := strings.ToLower(address[2:])

	hasher := sha3.NewLegacyKeccak256()
	hasher.Write([]byte(addr))
	hash := hex.EncodeToString(hasher.Sum(nil))

	result := make([]byte, 42)
	result[0] = '0'
	result[1] = 'x'

	for i := 0; i < 40; i++ {
		c := addr[i]
		// If the hash nibble is >= 8, uppercase the character
		if hash[i] >= '8' && c >= 'a' && c <= 'f' {
			result[i+2] = c - 32
		} else {
			result[i+2] = c
		}
	}

	return string(result)
}

// ValidateChecksumAddress validates that an Ethereum address has correct EIP-55 checksum.
// All lowercase and all uppercase addresses are considered valid (non-checksummed).
// Mixed-case addresses must have the correct checksum.
func ValidateChecksumAddress(address string) error {
	if !IsValidAddress(address) {
		return gateerr.WithDetails(gateerr.ErrInvalidAddress, map[string]string{
			"address": address,
		})
	}

	addrPart := address[2:]
	if addrPart == strings.ToLower(addrPart) || addrPart == strings.ToUpper(addrPart) {
		return nil
	}

	if address != ToChecksumAddress(address) {
		return gateerr.WithDetails(gateerr.ErrInvalidChecksum, map[string]string{
			"address":  address,
			"expected": ToChecksumAddress(address),
		})
	}
	return nil
}

func isHexChar(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
