// Package password implementa la authority "internal": cuentas locales con
// usuario y contraseña, guardadas por el propio broker.
package password

import (
	"errors"

	pwhash "github.com/dropDatabas3/idbroker/internal/security/password"
)

// AuthorityID id de la authority.
const AuthorityID = "internal"

// Settings de un proveedor interno.
type Settings struct {
	PasswordPolicy pwhash.Policy `yaml:"passwordPolicy"`
	Hashing        pwhash.Params `yaml:"hashing"`
	// RequireAccountConfirmation crea las cuentas INACTIVE hasta su activación.
	RequireAccountConfirmation bool `yaml:"requireAccountConfirmation"`
	EnableUpdate               bool `yaml:"enableUpdate"`
	EnableDelete               bool `yaml:"enableDelete"`
}

type settingsProvider struct{}

func (settingsProvider) Defaults() Settings {
	return Settings{
		PasswordPolicy: pwhash.DefaultPolicy,
		Hashing:        pwhash.Default,
		EnableUpdate:   true,
		EnableDelete:   true,
	}
}

func (settingsProvider) Validate(s Settings) error {
	if !s.PasswordPolicy.Sane() {
		return errors.New("passwordPolicy: maxLength must be >= minLength")
	}
	if s.Hashing.Memory == 0 || s.Hashing.Time == 0 || s.Hashing.Parallelism == 0 || s.Hashing.KeyLen < 16 {
		return errors.New("hashing: invalid argon2id parameters")
	}
	return nil
}
