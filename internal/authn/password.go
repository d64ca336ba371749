// Package authn hashes and verifies room passwords.
package authn

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// params bundles the Argon2id cost parameters so they travel with the
// encoded hash instead of living in a separate config file.
type params struct {
	memory  uint32
	time    uint32
	threads uint8
	keyLen  uint32
	saltLen uint32
}

var defaultParams = params{
	memory:  64 * 1024, // 64 MiB
	time:    1,
	threads: 4,
	keyLen:  32,
	saltLen: 16,
}

// Hash returns a self-describing Argon2id hash of plaintext, in the
// conventional "$argon2id$v=..$m=..,t=..,p=..$salt$hash" shape. Callers
// should treat empty plaintext as "no password" before calling this.
func Hash(plaintext string) (string, error) {
	p := defaultParams
	salt := make([]byte, p.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("authn: generate salt: %w", err)
	}

	digest := argon2.IDKey([]byte(plaintext), salt, p.time, p.memory, p.threads, p.keyLen)

	encoded := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.memory, p.time, p.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(digest),
	)
	return encoded, nil
}

// Verify reports whether plaintext matches the given encoded hash. A
// malformed hash returns false with no error — callers must never be able
// to mistake a decode failure for a successful match.
func Verify(plaintext, encoded string) bool {
	p, salt, digest, err := decode(encoded)
	if err != nil {
		return false
	}
	candidate := argon2.IDKey([]byte(plaintext), salt, p.time, p.memory, p.threads, uint32(len(digest)))
	return subtle.ConstantTimeCompare(candidate, digest) == 1
}

func decode(encoded string) (params, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, hash
	if len(parts) != 6 || parts[1] != "argon2id" {
		return params{}, nil, nil, errors.New("authn: malformed hash")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return params{}, nil, nil, errors.New("authn: malformed version")
	}
	if version != argon2.Version {
		return params{}, nil, nil, errors.New("authn: unsupported argon2 version")
	}

	var p params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return params{}, nil, nil, errors.New("authn: malformed params")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return params{}, nil, nil, fmt.Errorf("authn: malformed salt: %w", err)
	}
	digest, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return params{}, nil, nil, fmt.Errorf("authn: malformed digest: %w", err)
	}

	return p, salt, digest, nil
}
