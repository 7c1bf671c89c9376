// Package seal produces the opaque sealed payloads stored in the ledger.
//
// The vault core treats sealed bytes as opaque; this package is the local
// implementation of that opacity. Key distribution and rotation are external
// concerns.
package seal

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// Sealer encrypts and decrypts field payloads with an AEAD. The field
// identifier is bound as associated data so a sealed value cannot be replayed
// under a different field.
type Sealer struct {
	aead cipher.AEAD
}

// New builds a Sealer from a hex-encoded 256-bit key.
func New(hexKey string) (*Sealer, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("decode seal key: %w", err)
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("seal key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("init aead: %w", err)
	}
	return &Sealer{aead: aead}, nil
}

// Seal encrypts plaintext bound to the given field identifier. The nonce is
// prepended to the returned ciphertext.
func (s *Sealer) Seal(field string, plaintext []byte) ([]byte, error) {
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("seal nonce: %w", err)
	}
	sealed := s.aead.Seal(nonce, nonce, plaintext, []byte(field))
	return sealed, nil
}

// Open decrypts a payload produced by Seal for the same field identifier.
func (s *Sealer) Open(field string, sealed []byte) ([]byte, error) {
	if len(sealed) < chacha20poly1305.NonceSizeX {
		return nil, fmt.Errorf("sealed payload too short")
	}
	nonce, ciphertext := sealed[:chacha20poly1305.NonceSizeX], sealed[chacha20poly1305.NonceSizeX:]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, []byte(field))
	if err != nil {
		return nil, fmt.Errorf("open sealed payload: %w", err)
	}
	return plaintext, nil
}
