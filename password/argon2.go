package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrInvalidHash is returned when an encoded digest cannot be parsed.
var ErrInvalidHash = errors.New("invalid argon2 hash")

// ErrIncompatibleVersion is returned when a digest was produced by an
// unsupported argon2 version.
var ErrIncompatibleVersion = errors.New("incompatible argon2 version")

// Config holds argon2id cost parameters.
type Config struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// Argon2 hashes and verifies passwords with argon2id.
type Argon2 struct {
	cfg Config
}

// NewArgon2 validates the cost parameters and returns a hasher.
func NewArgon2(cfg Config) (*Argon2, error) {
	if cfg.Memory == 0 || cfg.Time == 0 || cfg.Parallelism == 0 {
		return nil, errors.New("argon2 cost parameters must be positive")
	}
	if cfg.SaltLength < 8 {
		return nil, errors.New("argon2 salt must be at least 8 bytes")
	}
	if cfg.KeyLength < 16 {
		return nil, errors.New("argon2 key must be at least 16 bytes")
	}
	return &Argon2{cfg: cfg}, nil
}

// Hash derives an argon2id digest and returns it PHC-encoded:
//
//	$argon2id$v=19$m=65536,t=3,p=2$<salt>$<key>
func (a *Argon2) Hash(plaintext string) (string, error) {
	salt := make([]byte, a.cfg.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(plaintext), salt, a.cfg.Time, a.cfg.Memory, a.cfg.Parallelism, a.cfg.KeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		a.cfg.Memory, a.cfg.Time, a.cfg.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether plaintext matches the encoded digest. The
// comparison is constant-time over the derived key.
func (a *Argon2) Verify(plaintext, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, ErrInvalidHash
	}
	if version != argon2.Version {
		return false, ErrIncompatibleVersion
	}

	var memory, time uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &parallelism); err != nil {
		return false, ErrInvalidHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, ErrInvalidHash
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, ErrInvalidHash
	}

	got := argon2.IDKey([]byte(plaintext), salt, time, memory, parallelism, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}
