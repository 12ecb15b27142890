package domain

import (
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

const (
	HashSize      = 32
	PubkeySize    = 32
	SignatureSize = 64
)

var ErrInvalidLength = errors.New("invalid decoded length")

// Hash is a 32-byte block, entry or message hash. Its text form is base58.
type Hash [HashSize]byte

// Pubkey is a 32-byte account address.
type Pubkey [PubkeySize]byte

// Signature is a 64-byte ed25519 transaction signature.
type Signature [SignatureSize]byte

func decodeFixed(s string, out []byte) error {
	raw, err := base58.Decode(s)
	if err != nil {
		return fmt.Errorf("invalid base58 %q: %w", s, err)
	}
	if len(raw) != len(out) {
		return fmt.Errorf("%w: %q decodes to %d bytes, want %d", ErrInvalidLength, s, len(raw), len(out))
	}
	copy(out, raw)
	return nil
}

// ParseHash decodes a base58 string into a Hash.
func ParseHash(s string) (Hash, error) {
	var h Hash
	if err := decodeFixed(s, h[:]); err != nil {
		return Hash{}, err
	}
	return h, nil
}

func ParsePubkey(s string) (Pubkey, error) {
	var p Pubkey
	if err := decodeFixed(s, p[:]); err != nil {
		return Pubkey{}, err
	}
	return p, nil
}

func ParseSignature(s string) (Signature, error) {
	var sig Signature
	if err := decodeFixed(s, sig[:]); err != nil {
		return Signature{}, err
	}
	return sig, nil
}

func (h Hash) String() string      { return base58.Encode(h[:]) }
func (p Pubkey) String() string    { return base58.Encode(p[:]) }
func (s Signature) String() string { return base58.Encode(s[:]) }

func (h Hash) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := ParseHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

func (p Pubkey) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Pubkey) UnmarshalText(text []byte) error {
	parsed, err := ParsePubkey(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func (s Signature) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Signature) UnmarshalText(text []byte) error {
	parsed, err := ParseSignature(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
