package utils

import (
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/argon2"
)

// argon2id parameters for the password digest.  The salt is fixed per
// deployment so equal passwords always produce equal digests.
const (
	argonTime    = 1
	argonMemory  = 19 * 1024
	argonThreads = 2
	argonKeyLen  = 32
)

// HashPassword digests password||salt with argon2id keyed by the same fixed
// salt and returns it hex encoded.
func HashPassword(plain, salt string) string {
	sum := argon2.IDKey([]byte(plain+salt), []byte(salt), argonTime, argonMemory, argonThreads, argonKeyLen)
	return hex.EncodeToString(sum)
}

// VerifyPassword recomputes the digest and compares it in constant time.
func VerifyPassword(digest, plain, salt string) bool {
	return subtle.ConstantTimeCompare([]byte(digest), []byte(HashPassword(plain, salt))) == 1
}
