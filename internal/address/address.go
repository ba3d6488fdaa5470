package address

import (
	"errors"
	"fmt"
	"strings"
)

const (
	MinLength = 32
	MaxLength = 44

	alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"
)

var ErrInvalidAddress = errors.New("invalid solana address")

// Validate checks the address format only: length and base58 alphabet.
func Validate(addr string) error {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return fmt.Errorf("%w: address is empty", ErrInvalidAddress)
	}

	if len(addr) < MinLength || len(addr) > MaxLength {
		return fmt.Errorf("%w: length %d outside %d-%d", ErrInvalidAddress, len(addr), MinLength, MaxLength)
	}

	for i, r := range addr {
		if !strings.ContainsRune(alphabet, r) {
			return fmt.Errorf("%w: character %q at position %d is not base58", ErrInvalidAddress, r, i)
		}
	}

	return nil
}

// Normalize trims surrounding whitespace; callers validate first.
func Normalize(addr string) string {
	return strings.TrimSpace(addr)
}
