package password

import (
	"strings"
	"unicode"
)

// Policy reglas de composición de contraseñas.
type Policy struct {
	MinLength     int  `yaml:"minLength" json:"minLength"`
	MaxLength     int  `yaml:"maxLength" json:"maxLength"`
	RequireUpper  bool `yaml:"requireUpper" json:"requireUpper"`
	RequireLower  bool `yaml:"requireLower" json:"requireLower"`
	RequireDigit  bool `yaml:"requireDigit" json:"requireDigit"`
	RequireSymbol bool `yaml:"requireSymbol" json:"requireSymbol"`
	// Denied contraseñas prohibidas (case-insensitive).
	Denied []string `yaml:"denied,omitempty" json:"denied,omitempty"`
}

// DefaultPolicy mínimo razonable.
var DefaultPolicy = Policy{MinLength: 8, MaxLength: 128}

// Validate retorna los motivos de rechazo; vacío si s cumple.
func (p Policy) Validate(s string) (reasons []string) {
	n := len([]rune(s))
	if n < p.MinLength {
		reasons = append(reasons, "too_short")
	}
	if p.MaxLength > 0 && n > p.MaxLength {
		reasons = append(reasons, "too_long")
	}
	var hasU, hasL, hasD, hasS bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			hasU = true
		case unicode.IsLower(r):
			hasL = true
		case unicode.IsDigit(r):
			hasD = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasS = true
		}
	}
	if p.RequireUpper && !hasU {
		reasons = append(reasons, "missing_upper")
	}
	if p.RequireLower && !hasL {
		reasons = append(reasons, "missing_lower")
	}
	if p.RequireDigit && !hasD {
		reasons = append(reasons, "missing_digit")
	}
	if p.RequireSymbol && !hasS {
		reasons = append(reasons, "missing_symbol")
	}
	if p.denied(s) {
		reasons = append(reasons, "denied")
	}
	return reasons
}

// Sane valida la política en sí.
func (p Policy) Sane() bool {
	return p.MinLength >= 0 && (p.MaxLength == 0 || p.MaxLength >= p.MinLength)
}

func (p Policy) denied(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, d := range p.Denied {
		if strings.ToLower(strings.TrimSpace(d)) == s {
			return true
		}
	}
	return false
}
