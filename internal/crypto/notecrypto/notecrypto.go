// Package notecrypto encrypts counseling session notes at rest.
//
// Notes are sealed with XChaCha20-Poly1305 under a process-wide key
// established at startup. The random nonce is prepended to the ciphertext
// and the whole blob is hex-encoded for storage in a text column.
package notecrypto

import (
	"crypto/rand"
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/chacha20poly1305"
)

// KeyLen is the required key length in bytes.
const KeyLen = chacha20poly1305.KeySize

var errCiphertext = errors.New("malformed ciphertext")

// Cipher seals and opens note text with a fixed key.
type Cipher struct {
	key []byte
}

// New validates the key and returns a Cipher.
func New(key []byte) (*Cipher, error) {
	if len(key) != KeyLen {
		return nil, errors.New("encryption key must be 32 bytes")
	}
	k := make([]byte, KeyLen)
	copy(k, key)
	return &Cipher{key: k}, nil
}

// Encrypt seals plaintext and returns hex(nonce || ciphertext).
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	out := make([]byte, 0, len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, nonce...)
	out = append(out, aead.Seal(nil, nonce, []byte(plaintext), nil)...)
	return hex.EncodeToString(out), nil
}

// Decrypt reverses Encrypt. Tampered or truncated input fails authentication.
func (c *Cipher) Decrypt(encoded string) (string, error) {
	blob, err := hex.DecodeString(encoded)
	if err != nil {
		return "", errCiphertext
	}
	if len(blob) < chacha20poly1305.NonceSizeX {
		return "", errCiphertext
	}
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", err
	}
	nonce := blob[:chacha20poly1305.NonceSizeX]
	ct := blob[chacha20poly1305.NonceSizeX:]
	pt, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", errCiphertext
	}
	return string(pt), nil
}
