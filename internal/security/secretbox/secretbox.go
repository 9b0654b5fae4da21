// Package secretbox cifra secretos de configuración con AES-256-GCM.
// El formato es "sb1:" + base64(nonce) + "|" + base64(ciphertext).
package secretbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	nonceSizeGCM      = 12 // AES-GCM nonce (96 bits)
	requiredKeyLength = 32 // AES-256
	sep               = "|"
	prefix            = "sb1:"
)

// ErrMalformed el texto tiene el prefijo pero no el formato esperado.
var ErrMalformed = errors.New("secretbox: malformed ciphertext")

// Box cifra y descifra con una clave fija.
type Box struct {
	aead cipher.AEAD
}

// New crea un Box con una clave de 32 bytes.
func New(key []byte) (*Box, error) {
	if len(key) != requiredKeyLength {
		return nil, fmt.Errorf("secretbox: key must be %d bytes, got %d", requiredKeyLength, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return &Box{aead: aead}, nil
}

// ParseKey acepta base64 (con o sin padding) o hex de 64 caracteres.
func ParseKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if b, err := base64.StdEncoding.DecodeString(s); err == nil && len(b) == requiredKeyLength {
		return b, nil
	}
	if b, err := base64.RawStdEncoding.DecodeString(s); err == nil && len(b) == requiredKeyLength {
		return b, nil
	}
	if len(s) == 2*requiredKeyLength {
		if b, err := hex.DecodeString(s); err == nil {
			return b, nil
		}
	}
	return nil, fmt.Errorf("secretbox: key must decode to %d bytes (base64 or hex)", requiredKeyLength)
}

// IsSealed indica si s ya fue cifrado por Seal.
func IsSealed(s string) bool {
	return strings.HasPrefix(s, prefix)
}

// Seal cifra s. Vacío y ya cifrado se devuelven sin cambios.
func (b *Box) Seal(s string) (string, error) {
	if s == "" || IsSealed(s) {
		return s, nil
	}
	nonce := make([]byte, nonceSizeGCM)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("nonce random: %w", err)
	}
	ct := b.aead.Seal(nil, nonce, []byte(s), nil)
	return prefix + base64.StdEncoding.EncodeToString(nonce) + sep + base64.StdEncoding.EncodeToString(ct), nil
}

// Open descifra s. Un texto sin prefijo se considera plano y se devuelve tal cual.
func (b *Box) Open(s string) (string, error) {
	if !IsSealed(s) {
		return s, nil
	}
	parts := strings.Split(strings.TrimPrefix(s, prefix), sep)
	if len(parts) != 2 {
		return "", ErrMalformed
	}
	nonce, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil || len(nonce) != nonceSizeGCM {
		return "", ErrMalformed
	}
	ct, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", ErrMalformed
	}
	pt, err := b.aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", fmt.Errorf("gcm auth/decrypt: %w", err)
	}
	return string(pt), nil
}
