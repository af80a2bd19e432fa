package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// hashParams are Argon2id cost parameters. The defaults follow OWASP
// guidance; a verify also accepts hashes minted under different costs,
// since the parameters travel inside the PHC string.
type hashParams struct {
	memory  uint32 // KiB
	time    uint32 // iterations
	threads uint8
}

var defaultHashParams = hashParams{
	memory:  64 * 1024,
	time:    3,
	threads: 1,
}

const (
	saltLen = 16
	keyLen  = 32
)

// HashPassword derives an Argon2id hash of password and encodes it as a
// PHC string, e.g.
//
//	$argon2id$v=19$m=65536,t=3,p=1$<salt>$<key>
//
// This is the format stored in config.yaml for the admin credential.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	p := defaultHashParams
	key := argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, keyLen)
	return encodePHC(p, salt, key), nil
}

// VerifyPassword reports whether password matches the PHC-encoded hash.
// The comparison is constant time.
func VerifyPassword(password, encodedHash string) (bool, error) {
	p, salt, key, err := decodePHC(encodedHash)
	if err != nil {
		return false, err
	}

	candidate := argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, uint32(len(key))) //nolint:gosec // G115: key length always fits uint32
	return subtle.ConstantTimeCompare(key, candidate) == 1, nil
}

func encodePHC(p hashParams, salt, key []byte) string {
	enc := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.memory, p.time, p.threads,
		enc.EncodeToString(salt), enc.EncodeToString(key))
}

func decodePHC(encoded string) (p hashParams, salt, key []byte, err error) {
	// A PHC string has six $-delimited segments, the first empty:
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key.
	seg := strings.Split(encoded, "$")
	if len(seg) != 6 || seg[0] != "" {
		return p, nil, nil, fmt.Errorf("invalid PHC hash format")
	}
	if seg[1] != "argon2id" {
		return p, nil, nil, fmt.Errorf("unsupported algorithm: %s", seg[1])
	}

	var version int
	if _, scanErr := fmt.Sscanf(seg[2], "v=%d", &version); scanErr != nil {
		return p, nil, nil, fmt.Errorf("parsing version: %w", scanErr)
	}
	if _, scanErr := fmt.Sscanf(seg[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); scanErr != nil {
		return p, nil, nil, fmt.Errorf("parsing parameters: %w", scanErr)
	}

	if salt, err = base64.RawStdEncoding.DecodeString(seg[4]); err != nil {
		return p, nil, nil, fmt.Errorf("decoding salt: %w", err)
	}
	if key, err = base64.RawStdEncoding.DecodeString(seg[5]); err != nil {
		return p, nil, nil, fmt.Errorf("decoding hash: %w", err)
	}
	return p, salt, key, nil
}
