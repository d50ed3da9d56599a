package utils // package utils provides helpers for credentials and artifact identifiers

import (
	"crypto/rand"     // secure random number generation
	"crypto/sha256"   // one-way digest of the owner email
	"crypto/subtle"   // constant-time credential comparison
	"encoding/base64" // URL-safe token encoding
	"encoding/hex"    // hex encoding of the email digest

	"github.com/iliyamo/cmapi/internal/config"
)

const (
	// APIKeyBytes is the entropy of an API key before encoding.
	APIKeyBytes = 32
	// UIDSuffixBytes is the entropy of the random part of a matrix uid.
	UIDSuffixBytes = 16
	// EmailPrefixLen is the number of hex characters kept from the email digest.
	EmailPrefixLen = 8
	// UIDSeparator joins the email prefix and the random suffix.
	UIDSeparator = ":"
)

// NewAPIKey returns a URL-safe token built from 32 random bytes.  Keys are
// issued once at sign-up and never rotated.
func NewAPIKey() (string, error) {
	return randomToken(APIKeyBytes)
}

// EmailPrefix returns the first 8 hex characters of SHA-256(email).  It is
// stable per user but not unique on its own.
func EmailPrefix(email string) string {
	sum := sha256.Sum256([]byte(email))
	return hex.EncodeToString(sum[:])[:EmailPrefixLen]
}

// NewCMUID builds "<email prefix>:<random token>".  The random suffix makes
// the uid unique; the prefix lets an operator associate artifacts with
// their owner without a join.
func NewCMUID(email string) (string, error) {
	suffix, err := randomToken(UIDSuffixBytes)
	if err != nil {
		return "", err
	}
	return EmailPrefix(email) + UIDSeparator + suffix, nil
}

// AuthorizeAdmin reports whether username/password match the configured
// administrator pair.  There is no lockout.
func AuthorizeAdmin(cfg config.AdminConfig, username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(cfg.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(cfg.Password)) == 1
	return userOK && passOK
}

// randomToken returns n bytes of cryptographically secure random data
// encoded as unpadded base64url.
func randomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
