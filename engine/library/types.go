package library

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

type Wallet struct {
	PrivateKey string
	SeedWords  string
	Account    Account
}

// Account is a hex encoded x-only public key.
type Account = string

type Sha256 = string

// Identifier is a 256-bit claim identifier. The zero value is reserved as invalid.
type Identifier [32]byte

func (i Identifier) IsZero() bool {
	return i == Identifier{}
}

func (i Identifier) String() string {
	return hex.EncodeToString(i[:])
}

func (i Identifier) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

func (i *Identifier) UnmarshalText(text []byte) error {
	parsed, err := ParseIdentifier(string(text))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// ParseIdentifier accepts a hex string of up to 64 characters, left padded with zeros.
func ParseIdentifier(s string) (i Identifier, e error) {
	s = strings.TrimPrefix(s, "0x")
	if len(s) > 64 {
		return i, fmt.Errorf("identifier %s is longer than 256 bits", s)
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return i, fmt.Errorf("identifier %s is not valid hex: %w", s, err)
	}
	copy(i[32-len(b):], b)
	return i, nil
}

// ValidAccount reports whether a looks like a 32 byte hex pubkey.
func ValidAccount(a Account) bool {
	if len(a) != 64 {
		return false
	}
	_, err := hex.DecodeString(a)
	return err == nil
}

// ParseAmount parses a non-negative base-10 token amount.
func ParseAmount(s string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%q is not a base 10 integer: %w", s, ErrInvalidAmount)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("%s is negative: %w", s, ErrInvalidAmount)
	}
	return amount, nil
}
