package auth

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/agersant/polaris/internal/apperr"
	"golang.org/x/crypto/chacha20poly1305"
)

// Purpose scopes what a token is good for; a token issued for one purpose
// must never verify for another.
type Purpose string

const (
	PurposeLogin       Purpose = "login"
	PurposeAuthCookie  Purpose = "auth_cookie"
	PurposeLastFMLink  Purpose = "lastfm_link"
)

// SecretSize is the length of the process auth secret persisted under the
// data directory.
const SecretSize = chacha20poly1305.KeySize

// payload is the authenticated content sealed inside a token. Tokens
// carry no expiration: login tokens are valid until the user is deleted
// or the secret is rotated.
type payload struct {
	Subject   string  `json:"subject"`
	Purpose   Purpose `json:"purpose"`
	IssuedAt  int64   `json:"issued_at"`
}

// Claims is the verified, decoded content of a token.
type Claims struct {
	Subject  string
	Purpose  Purpose
	IssuedAt int64
}

// Tokenizer issues and verifies tokens under one 32-byte secret. Every
// component that needs to check a bearer token holds a reference to the
// same Tokenizer instance as the one used to issue it.
type Tokenizer struct {
	aead cipherAEAD
}

// cipherAEAD narrows the crypto/cipher.AEAD interface to what Tokenizer
// uses, so tests can substitute a fake if ever needed.
type cipherAEAD interface {
	Seal(dst, nonce, plaintext, additionalData []byte) []byte
	Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
	NonceSize() int
}

// NewTokenizer builds a Tokenizer over a 32-byte secret (persisted
// separately, as the auth_secret file under the data directory).
func NewTokenizer(secret []byte) (*Tokenizer, error) {
	if len(secret) != SecretSize {
		return nil, fmt.Errorf("auth secret must be %d bytes, got %d", SecretSize, len(secret))
	}
	aead, err := chacha20poly1305.New(secret)
	if err != nil {
		return nil, fmt.Errorf("initialize AEAD: %w", err)
	}
	return &Tokenizer{aead: aead}, nil
}

// GenerateSecret returns a fresh random 32-byte process auth secret.
func GenerateSecret() ([]byte, error) {
	secret := make([]byte, SecretSize)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate auth secret: %w", err)
	}
	return secret, nil
}

// Issue seals a new token for subject under purpose.
func (t *Tokenizer) Issue(subject string, purpose Purpose, issuedAtUnix int64) (string, error) {
	p := payload{Subject: subject, Purpose: purpose, IssuedAt: issuedAtUnix}
	plaintext, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal token payload: %w", err)
	}

	nonce := make([]byte, t.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := t.aead.Seal(nil, nonce, plaintext, nil)
	return base64.RawURLEncoding.EncodeToString(append(nonce, sealed...)), nil
}

// Verify decodes and authenticates token, requiring it to have been
// issued for wantPurpose.
func (t *Tokenizer) Verify(token string, wantPurpose Purpose) (Claims, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Claims{}, apperr.New(apperr.Unauthorized, "malformed token")
	}
	nonceSize := t.aead.NonceSize()
	if len(raw) < nonceSize {
		return Claims{}, apperr.New(apperr.Unauthorized, "malformed token")
	}
	nonce, ciphertext := raw[:nonceSize], raw[nonceSize:]

	plaintext, err := t.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return Claims{}, apperr.New(apperr.Unauthorized, "invalid or forged token")
	}

	var p payload
	if err := json.Unmarshal(plaintext, &p); err != nil {
		return Claims{}, apperr.New(apperr.Unauthorized, "malformed token payload")
	}
	if p.Purpose != wantPurpose {
		return Claims{}, apperr.New(apperr.Unauthorized, "token purpose mismatch")
	}
	return Claims{Subject: p.Subject, Purpose: p.Purpose, IssuedAt: p.IssuedAt}, nil
}
