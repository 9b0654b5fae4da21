// Package oidc implementa la authority "oidc": el principal sale de los claims de
// un ID token emitido por un proveedor OpenID Connect externo.
package oidc

import (
	"crypto/rsa"
	"errors"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// AuthorityID id de la authority.
const AuthorityID = "oidc"

// Settings de un proveedor OIDC.
type Settings struct {
	Issuer       string `yaml:"issuer"`
	ClientID     string `yaml:"clientId"`
	ClientSecret string `yaml:"clientSecret,omitempty"`
	// JWTSigningKey secreto compartido (HS256). Excluyente con JWTPublicKey.
	JWTSigningKey string `yaml:"jwtSigningKey,omitempty"`
	// JWTPublicKey PEM RSA (RS256).
	JWTPublicKey string `yaml:"jwtPublicKey,omitempty"`

	SubjectClaim      string        `yaml:"subjectClaim"`
	UsernameClaim     string        `yaml:"usernameClaim"`
	EmailClaim        string        `yaml:"emailClaim"`
	TrustEmailAddress bool          `yaml:"trustEmailAddress"`
	Scope             string        `yaml:"scope"`
	Leeway            time.Duration `yaml:"leeway"`
	// Linkable permite re-vincular cuentas y borrarlas junto con la identidad.
	Linkable bool `yaml:"linkable"`
}

type settingsProvider struct{}

func (settingsProvider) Defaults() Settings {
	return Settings{
		SubjectClaim:  "sub",
		UsernameClaim: "preferred_username",
		EmailClaim:    "email",
		Scope:         "openid profile email",
		Leeway:        30 * time.Second,
	}
}

func (settingsProvider) Validate(s Settings) error {
	var errs []error
	if strings.TrimSpace(s.Issuer) == "" {
		errs = append(errs, errors.New("issuer is required"))
	}
	if strings.TrimSpace(s.ClientID) == "" {
		errs = append(errs, errors.New("clientId is required"))
	}
	switch {
	case s.JWTSigningKey == "" && s.JWTPublicKey == "":
		errs = append(errs, errors.New("one of jwtSigningKey or jwtPublicKey is required"))
	case s.JWTSigningKey != "" && s.JWTPublicKey != "":
		errs = append(errs, errors.New("jwtSigningKey and jwtPublicKey are mutually exclusive"))
	case s.JWTPublicKey != "":
		if _, err := parsePublicKey(s.JWTPublicKey); err != nil {
			errs = append(errs, err)
		}
	}
	if s.SubjectClaim == "" {
		errs = append(errs, errors.New("subjectClaim is required"))
	}
	if s.Leeway < 0 {
		errs = append(errs, errors.New("leeway must be >= 0"))
	}
	return errors.Join(errs...)
}

func parsePublicKey(pem string) (*rsa.PublicKey, error) {
	return jwtv5.ParseRSAPublicKeyFromPEM([]byte(pem))
}
