// Package claims admits new holders. An identifier can be claimed once, and
// only by the account the authority key endorsed for it.
package claims

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"dividendtoken/engine/library"
)

// Endorsement is a compact secp256k1 signature split into its recovery byte and scalars.
type Endorsement struct {
	V byte
	R [32]byte
	S [32]byte
}

func (e Endorsement) compact() []byte {
	b := make([]byte, 0, 65)
	b = append(b, e.V)
	b = append(b, e.R[:]...)
	return append(b, e.S[:]...)
}

// ParseEndorsement accepts r and s as hex.
func ParseEndorsement(v byte, r, s string) (e Endorsement, err error) {
	e.V = v
	if err = decodeScalar(r, &e.R); err != nil {
		return e, fmt.Errorf("r: %w", err)
	}
	if err = decodeScalar(s, &e.S); err != nil {
		return e, fmt.Errorf("s: %w", err)
	}
	return e, nil
}

func decodeScalar(s string, dst *[32]byte) error {
	b, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	if len(b) != 32 {
		return fmt.Errorf("expected 32 bytes, got %d", len(b))
	}
	copy(dst[:], b)
	return nil
}

// Digest is the message the authority signs: sha256(identifier || claimant).
func Digest(id library.Identifier, claimant library.Account) ([32]byte, error) {
	account, err := hex.DecodeString(claimant)
	if err != nil {
		return [32]byte{}, fmt.Errorf("claimant %q is not hex: %w", claimant, err)
	}
	return library.Sha256Bytes(append(id[:], account...)), nil
}

// Endorse signs the claim of id by claimant.
func Endorse(key *btcec.PrivateKey, id library.Identifier, claimant library.Account) (e Endorsement, err error) {
	digest, err := Digest(id, claimant)
	if err != nil {
		return e, err
	}
	sig, err := ecdsa.SignCompact(key, digest[:], true)
	if err != nil {
		return e, err
	}
	e.V = sig[0]
	copy(e.R[:], sig[1:33])
	copy(e.S[:], sig[33:65])
	return e, nil
}

type Gate struct {
	authority *btcec.PublicKey
	claimed   map[library.Identifier]struct{}
}

func New(authority *btcec.PublicKey) *Gate {
	return &Gate{
		authority: authority,
		claimed:   make(map[library.Identifier]struct{}),
	}
}

// Check validates a claim without changing anything.
func (g *Gate) Check(id library.Identifier, claimant library.Account, e Endorsement) error {
	if id.IsZero() {
		return library.ErrInvalidIdentifier
	}
	if err := g.verify(id, claimant, e); err != nil {
		return fmt.Errorf("claim %s by %s: %w", id, claimant, err)
	}
	if g.Claimed(id) {
		return fmt.Errorf("claim %s: %w", id, library.ErrAlreadyClaimed)
	}
	return nil
}

func (g *Gate) verify(id library.Identifier, claimant library.Account, e Endorsement) error {
	if g.authority == nil {
		return library.ErrUnauthorized
	}
	digest, err := Digest(id, claimant)
	if err != nil {
		return library.ErrUnauthorized
	}
	signer, _, err := ecdsa.RecoverCompact(e.compact(), digest[:])
	if err != nil || !signer.IsEqual(g.authority) {
		return library.ErrUnauthorized
	}
	return nil
}

// Mark records id as used. Callers must Check first.
func (g *Gate) Mark(id library.Identifier) {
	g.claimed[id] = struct{}{}
}

func (g *Gate) Claimed(id library.Identifier) bool {
	_, ok := g.claimed[id]
	return ok
}

func (g *Gate) Authority() *btcec.PublicKey {
	return g.authority
}

func (g *Gate) SetAuthority(key *btcec.PublicKey) {
	g.authority = key
}

// ClaimedIdentifiers returns every used identifier in sorted order.
func (g *Gate) ClaimedIdentifiers() []library.Identifier {
	ids := maps.Keys(g.claimed)
	slices.SortFunc(ids, func(a, b library.Identifier) bool {
		return a.String() < b.String()
	})
	return ids
}

func (g *Gate) Restore(authority *btcec.PublicKey, claimed []library.Identifier) {
	g.authority = authority
	g.claimed = make(map[library.Identifier]struct{}, len(claimed))
	for _, id := range claimed {
		g.claimed[id] = struct{}{}
	}
}

// ParseAuthority decodes a hex encoded compressed or uncompressed public key.
func ParseAuthority(s string) (*btcec.PublicKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("authority key is not hex: %w", err)
	}
	return btcec.ParsePubKey(b)
}
