package oidc

import (
	"fmt"

	"github.com/dropDatabas3/idbroker/internal/provider"
	"github.com/dropDatabas3/idbroker/internal/security/secretbox"
)

// SealedCodec cifra clientSecret y jwtSigningKey antes de persistir y los
// descifra al construir el proveedor. Acepta valores en claro al importar.
func SealedCodec(box *secretbox.Box) provider.Codec[Settings] {
	return sealedCodec{box: box}
}

type sealedCodec struct {
	inner provider.YAMLCodec[Settings]
	box   *secretbox.Box
}

func (c sealedCodec) Decode(defaults Settings, m map[string]any) (Settings, error) {
	s, err := c.inner.Decode(defaults, m)
	if err != nil {
		return s, err
	}
	if s.ClientSecret, err = c.box.Open(s.ClientSecret); err != nil {
		return s, fmt.Errorf("%w: clientSecret: %v", provider.ErrInvalidConfig, err)
	}
	if s.JWTSigningKey, err = c.box.Open(s.JWTSigningKey); err != nil {
		return s, fmt.Errorf("%w: jwtSigningKey: %v", provider.ErrInvalidConfig, err)
	}
	return s, nil
}

func (c sealedCodec) Encode(s Settings) (map[string]any, error) {
	var err error
	if s.ClientSecret, err = c.box.Seal(s.ClientSecret); err != nil {
		return nil, err
	}
	if s.JWTSigningKey, err = c.box.Seal(s.JWTSigningKey); err != nil {
		return nil, err
	}
	return c.inner.Encode(s)
}
