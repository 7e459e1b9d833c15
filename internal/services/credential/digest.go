package credential

import (
	"crypto/sha256"
	"encoding/base64"

	"golang.org/x/crypto/argon2"
)

// DigestFunc maps a username/password pair to an opaque digest string. The
// function must be deterministic: authentication recomputes the digest and
// compares it against the stored one.
type DigestFunc func(username, password string) string

// Argon2id parameters per OWASP recommendations
const (
	argonMemory      = 64 * 1024 // KiB
	argonIterations  = 3
	argonParallelism = 2
	argonKeyLength   = 32
)

// DefaultDigest derives an Argon2id digest keyed on the username. The salt is
// derived from the username rather than random so the digest stays a pure
// function of (username, password), which the append-only account file
// format relies on.
func DefaultDigest(username, password string) string {
	salt := sha256.Sum256([]byte(username))
	key := argon2.IDKey([]byte(password), salt[:16], argonIterations, argonMemory, argonParallelism, argonKeyLength)
	return base64.RawStdEncoding.EncodeToString(key)
}
