package session

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	domain "otterpoint/internal/domain/session"
)

// KeySize is the required sealing key length.
const KeySize = chacha20poly1305.KeySize

// ErrBadKey is returned for keys of the wrong length.
var ErrBadKey = fmt.Errorf("session key must be %d bytes", KeySize)

var errShortPayload = errors.New("sealed payload too short")

// Sealer encrypts encoded sessions with XChaCha20-Poly1305.
// The token is bound as additional data so payloads cannot be swapped between rows.
type Sealer struct {
	key []byte
}

// NewSealer creates a sealer for key.
// PRE: len(key) == KeySize
// POST: Returns ErrBadKey otherwise
func NewSealer(key []byte) (*Sealer, error) {
	if len(key) != KeySize {
		return nil, ErrBadKey
	}
	return &Sealer{key: append([]byte(nil), key...)}, nil
}

// RandomKey returns a fresh key. Sessions sealed with it do not survive a restart.
func RandomKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}

// Seal encodes and encrypts s.
// PRE: s is non-nil
// POST: Returns nonce || ciphertext
func (k *Sealer) Seal(s *domain.Session) ([]byte, error) {
	plain, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	aead, err := chacha20poly1305.NewX(k.key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plain)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, plain, []byte(s.Token)), nil
}

// Open decrypts and decodes a payload produced by Seal for token.
// PRE: none
// POST: Returns an error for tampered, foreign or truncated payloads
func (k *Sealer) Open(token string, sealed []byte) (*domain.Session, error) {
	aead, err := chacha20poly1305.NewX(k.key)
	if err != nil {
		return nil, err
	}
	if len(sealed) < aead.NonceSize() {
		return nil, errShortPayload
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ciphertext, []byte(token))
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	var s domain.Session
	if err := json.Unmarshal(plain, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}
