// Package auth implements password hashing and bearer token issuance and
// verification (C6): the core every privileged operation is gated behind.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/agersant/polaris/internal/apperr"
	"golang.org/x/crypto/pbkdf2"
)

const (
	pbkdf2Iterations = 10000
	pbkdf2SaltLen    = 16
	pbkdf2KeyLen     = 32
)

// HashPassword derives a PBKDF2-HMAC-SHA256 hash and serializes it as
// $pbkdf2-sha256$i=<iter>,l=<len>$<b64salt>$<b64hash>, the format C6 uses
// for storage so verification never needs side-channel parameters.
func HashPassword(password string) (string, error) {
	salt := make([]byte, pbkdf2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	hash := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, pbkdf2KeyLen, sha256.New)
	return serializeHash(pbkdf2Iterations, pbkdf2KeyLen, salt, hash), nil
}

func serializeHash(iter, keyLen int, salt, hash []byte) string {
	return fmt.Sprintf("$pbkdf2-sha256$i=%d,l=%d$%s$%s",
		iter, keyLen,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash))
}

// VerifyPassword reports whether password matches the serialized hash.
// Comparison of the derived hash is constant-time.
func VerifyPassword(serialized, password string) bool {
	iter, keyLen, salt, hash, err := parseHash(serialized)
	if err != nil {
		return false
	}
	candidate := pbkdf2.Key([]byte(password), salt, iter, keyLen, sha256.New)
	return subtle.ConstantTimeCompare(candidate, hash) == 1
}

func parseHash(serialized string) (iter, keyLen int, salt, hash []byte, err error) {
	parts := strings.Split(serialized, "$")
	// parts[0] is "" (leading $); parts[1]=="pbkdf2-sha256"; parts[2]=="i=..,l=..";
	// parts[3]==b64salt; parts[4]==b64hash.
	if len(parts) != 5 || parts[1] != "pbkdf2-sha256" {
		return 0, 0, nil, nil, fmt.Errorf("unrecognized hash format")
	}
	iter, keyLen, err = parseParams(parts[2])
	if err != nil {
		return 0, 0, nil, nil, err
	}
	salt, err = base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil {
		return 0, 0, nil, nil, fmt.Errorf("decode salt: %w", err)
	}
	hash, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return 0, 0, nil, nil, fmt.Errorf("decode hash: %w", err)
	}
	return iter, keyLen, salt, hash, nil
}

func parseParams(params string) (iter, keyLen int, err error) {
	for _, field := range strings.Split(params, ",") {
		kv := strings.SplitN(field, "=", 2)
		if len(kv) != 2 {
			return 0, 0, fmt.Errorf("malformed parameter %q", field)
		}
		n, err := strconv.Atoi(kv[1])
		if err != nil {
			return 0, 0, fmt.Errorf("malformed parameter %q: %w", field, err)
		}
		switch kv[0] {
		case "i":
			iter = n
		case "l":
			keyLen = n
		}
	}
	if iter == 0 || keyLen == 0 {
		return 0, 0, fmt.Errorf("missing i or l parameter")
	}
	return iter, keyLen, nil
}

// ValidatePasswordStrength applies the minimum bar for an initial_password
// set via the config file or an admin user-creation call.
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return apperr.New(apperr.BadRequest, "password must be at least 8 characters long")
	}
	if len(password) > 128 {
		return apperr.New(apperr.BadRequest, "password must be no more than 128 characters long")
	}
	return nil
}
