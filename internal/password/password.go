package password

import (
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/scrypt"
)

// The platform hashes new passwords with bcrypt. Accounts migrated from the
// legacy system carry scrypt hashes stored as "<salt-hex>$<key-hex>" with the
// parameters below; those verify against the old scheme until the user
// changes their password.

const (
	scryptN      = 16384
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
)

// Hash returns a bcrypt hash of the password.
func Hash(pw string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// Verify checks pw against the stored hash under the given scheme.
func Verify(scheme, hash, pw string) bool {
	switch scheme {
	case "scrypt":
		return verifyScrypt(hash, pw)
	default:
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
	}
}

// HashScryptLegacy produces a hash in the legacy format. Kept for data
// migration tooling and tests; new code must use Hash.
func HashScryptLegacy(pw string, salt []byte) (string, error) {
	key, err := scrypt.Key([]byte(pw), salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s$%s", hex.EncodeToString(salt), hex.EncodeToString(key)), nil
}

func verifyScrypt(hash, pw string) bool {
	parts := strings.SplitN(hash, "$", 2)
	if len(parts) != 2 {
		return false
	}
	salt, err := hex.DecodeString(parts[0])
	if err != nil {
		return false
	}
	want, err := hex.DecodeString(parts[1])
	if err != nil {
		return false
	}
	got, err := scrypt.Key([]byte(pw), salt, scryptN, scryptR, scryptP, len(want))
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(got, want) == 1
}
