package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/angelmondragon/autoshop-backend/pkg/config"
)

var (
	ErrInvalidHash   = errors.New("invalid argon2id hash")
	ErrEmptyPassword = errors.New("password cannot be empty")
)

type argonParams struct {
	memory  uint32
	time    uint32
	threads uint8
	saltLen uint32
	keyLen  uint32
}

// Hasher produces and checks argon2id hashes in PHC string form:
// $argon2id$v=19$m=<KiB>,t=<passes>,p=<threads>$<salt>$<key>.
type Hasher struct {
	params argonParams
	// decoy is verified against when the account does not exist so unknown
	// emails cost the same as wrong passwords.
	decoy string
}

// NewHasher clamps cfg into safe argon2 bounds.
func NewHasher(cfg config.PasswordConfig) (*Hasher, error) {
	h := &Hasher{params: argonParams{
		memory:  uint32(clamp(cfg.ArgonMemoryKB, 8, 512*1024)),
		time:    uint32(clamp(cfg.ArgonTime, 1, 10)),
		threads: uint8(clamp(cfg.ArgonParallelism, 1, 255)),
		saltLen: uint32(clamp(cfg.ArgonSaltLen, 8, 64)),
		keyLen:  uint32(clamp(cfg.ArgonKeyLen, 16, 64)),
	}}
	decoy, err := h.Hash("decoy-" + strconv.Itoa(int(h.params.memory)))
	if err != nil {
		return nil, err
	}
	h.decoy = decoy
	return h, nil
}

func (h *Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	salt := make([]byte, h.params.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}
	p := h.params
	key := argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, p.keyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.memory, p.time, p.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether password matches encoded. rehash is true when the
// stored hash was made with weaker parameters than the hasher's.
func (h *Hasher) Verify(password, encoded string) (ok, rehash bool, err error) {
	p, salt, key, err := parsePHC(encoded)
	if err != nil {
		return false, false, err
	}
	computed := argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, uint32(len(key)))
	if subtle.ConstantTimeCompare(key, computed) != 1 {
		return false, false, nil
	}
	want := h.params
	return true, p.memory < want.memory || p.time < want.time || uint32(len(key)) < want.keyLen, nil
}

// BurnDecoy spends one verification worth of work without any account.
func (h *Hasher) BurnDecoy(password string) {
	_, _, _ = h.Verify(password, h.decoy)
}

func parsePHC(encoded string) (argonParams, []byte, []byte, error) {
	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[0] != "" || fields[1] != "argon2id" {
		return argonParams{}, nil, nil, ErrInvalidHash
	}
	if fields[2] != "v="+strconv.Itoa(argon2.Version) {
		return argonParams{}, nil, nil, ErrInvalidHash
	}

	var p argonParams
	for _, kv := range strings.Split(fields[3], ",") {
		name, raw, found := strings.Cut(kv, "=")
		value, err := strconv.ParseUint(raw, 10, 32)
		if !found || err != nil {
			return argonParams{}, nil, nil, ErrInvalidHash
		}
		switch name {
		case "m":
			p.memory = uint32(value)
		case "t":
			p.time = uint32(value)
		case "p":
			if value > 255 {
				return argonParams{}, nil, nil, ErrInvalidHash
			}
			p.threads = uint8(value)
		default:
			return argonParams{}, nil, nil, ErrInvalidHash
		}
	}
	if p.memory == 0 || p.time == 0 || p.threads == 0 {
		return argonParams{}, nil, nil, ErrInvalidHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(fields[4])
	if err != nil || len(salt) == 0 {
		return argonParams{}, nil, nil, ErrInvalidHash
	}
	key, err := base64.RawStdEncoding.DecodeString(fields[5])
	if err != nil || len(key) == 0 {
		return argonParams{}, nil, nil, ErrInvalidHash
	}
	return p, salt, key, nil
}

func clamp(value, lo, hi int) int {
	return min(max(value, lo), hi)
}
