// Package password hashea y valida contraseñas de la authority interna.
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

// ErrMalformedHash el hash guardado no es un PHC argon2id válido.
var ErrMalformedHash = errors.New("password: malformed argon2id hash")

// Params parámetros de argon2id.
type Params struct {
	Memory      uint32 `yaml:"memory" json:"memory"` // KiB
	Time        uint32 `yaml:"time" json:"time"`
	Parallelism uint8  `yaml:"parallelism" json:"parallelism"`
	KeyLen      uint32 `yaml:"keyLen" json:"keyLen"`
}

// Default parámetros recomendados para producción.
var Default = Params{Memory: 64 * 1024, Time: 3, Parallelism: 1, KeyLen: 32}

const saltLen = 16

// Hash devuelve un PHC string: $argon2id$v=19$m=...,t=...,p=...$<saltB64>$<dkB64>
func (p Params) Hash(plain string) (string, error) {
	if plain == "" {
		return "", fmt.Errorf("password: empty password")
	}
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	dk := argon2.IDKey([]byte(plain), salt, p.Time, p.Memory, p.Parallelism, p.KeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Time, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(dk),
	), nil
}

// Verify compara en tiempo constante. Un hash mal formado es error, no "no coincide".
func Verify(plain, phc string) (bool, error) {
	h, err := parse(phc)
	if err != nil {
		return false, err
	}
	key := argon2.IDKey([]byte(plain), h.salt, h.params.Time, h.params.Memory, h.params.Parallelism, uint32(len(h.key)))
	return subtle.ConstantTimeCompare(key, h.key) == 1, nil
}

// NeedsRehash indica si phc fue generado con parámetros distintos de p.
func (p Params) NeedsRehash(phc string) bool {
	h, err := parse(phc)
	if err != nil {
		return true
	}
	return h.params != p
}

type parsed struct {
	params Params
	salt   []byte
	key    []byte
}

func parse(phc string) (parsed, error) {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(phc, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return parsed{}, ErrMalformedHash
	}
	var v int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &v); err != nil || v != argon2.Version {
		return parsed{}, ErrMalformedHash
	}
	var out parsed
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &out.params.Memory, &out.params.Time, &out.params.Parallelism); err != nil {
		return parsed{}, ErrMalformedHash
	}
	var err error
	if out.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return parsed{}, ErrMalformedHash
	}
	if out.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(out.key) == 0 {
		return parsed{}, ErrMalformedHash
	}
	out.params.KeyLen = uint32(len(out.key))
	return out, nil
}
