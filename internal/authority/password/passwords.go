package password

import (
	"context"
	"fmt"
	"strings"

	"github.com/dropDatabas3/idbroker/internal/account"
	"github.com/dropDatabas3/idbroker/internal/credentials"
	"github.com/dropDatabas3/idbroker/internal/domain/repository"
	"github.com/dropDatabas3/idbroker/internal/identity"
	"github.com/dropDatabas3/idbroker/internal/observability/logger"
	pwhash "github.com/dropDatabas3/idbroker/internal/security/password"
)

// CredentialsType tipo de credencial que maneja este servicio.
const CredentialsType = "password"

var (
	// ErrWeakPassword la contraseña no cumple la política.
	ErrWeakPassword = fmt.Errorf("%w: password does not satisfy policy", repository.ErrInvalidInput)
	// ErrBadCredentials usuario o contraseña incorrectos.
	ErrBadCredentials = fmt.Errorf("%w: bad credentials", repository.ErrInvalidInput)
	// ErrAccountLocked la cuenta está bloqueada.
	ErrAccountLocked = fmt.Errorf("%w: account locked", repository.ErrConflict)
	// ErrAccountInactive la cuenta no está activa.
	ErrAccountInactive = fmt.Errorf("%w: account inactive", repository.ErrConflict)
)

// PasswordService administra la credencial de contraseña de las cuentas de un proveedor.
type PasswordService struct {
	authority    string
	providerID   string
	realm        string
	repositoryID string
	settings     Settings
	accounts     *account.Service
	credentials  *credentials.Service
	tx           repository.TxManager
}

// CheckPolicy valida plain contra la política del proveedor.
func (s *PasswordService) CheckPolicy(plain string) error {
	if reasons := s.settings.PasswordPolicy.Validate(plain); len(reasons) > 0 {
		return fmt.Errorf("%w: %s", ErrWeakPassword, strings.Join(reasons, ","))
	}
	return nil
}

// SetPassword reemplaza la contraseña de la cuenta. Las credenciales anteriores se
// revocan y se eliminan en la misma transacción.
func (s *PasswordService) SetPassword(ctx context.Context, accountID, plain string) error {
	if err := s.CheckPolicy(plain); err != nil {
		return err
	}
	a, err := s.accounts.GetAccount(ctx, accountID)
	if err != nil {
		return err
	}
	hash, err := s.settings.Hashing.Hash(plain)
	if err != nil {
		return err
	}
	return s.storeHash(ctx, a, hash)
}

// storeHash reemplaza las credenciales de contraseña de a por hash. Si el ctx ya
// trae una transacción corre dentro de ella.
func (s *PasswordService) storeHash(ctx context.Context, a *repository.Account, hash string) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.credentials.FindCredentialsByAccount(ctx, s.repositoryID, a.AccountID)
		if err != nil {
			return err
		}
		var old []string
		for _, c := range existing {
			if c.Type == CredentialsType {
				old = append(old, c.ID)
			}
		}
		if err := s.credentials.DeleteCredentialsByIDs(ctx, old); err != nil {
			return err
		}
		_, err = s.credentials.AddCredentials(ctx, repository.Credentials{
			Authority:    s.authority,
			Provider:     s.providerID,
			Realm:        s.realm,
			RepositoryID: s.repositoryID,
			AccountID:    a.AccountID,
			UserID:       a.UserID,
			Type:         CredentialsType,
			Value:        []byte(hash),
		})
		return err
	})
}

// VerifyPassword compara plain con la credencial activa de la cuenta.
func (s *PasswordService) VerifyPassword(ctx context.Context, accountID, plain string) (bool, error) {
	c, err := s.credentials.SecretFor(ctx, s.repositoryID, accountID, CredentialsType)
	if err != nil {
		if repository.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	defer c.Erase()
	return pwhash.Verify(plain, string(c.Value))
}

// Authenticate valida la contraseña de accountID y retorna el principal listo para
// el pipeline de conversión.
func (s *PasswordService) Authenticate(ctx context.Context, accountID, plain string) (*identity.DefaultPrincipal, error) {
	a, err := s.accounts.FindAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrBadCredentials
	}
	ok, err := s.VerifyPassword(ctx, a.AccountID, plain)
	if err != nil {
		return nil, err
	}
	if !ok {
		logger.From(ctx).Info("password authentication failed",
			logger.Component("authority.internal"),
			logger.ProviderID(s.providerID),
			logger.AccountID(a.AccountID),
		)
		return nil, ErrBadCredentials
	}
	switch a.Status {
	case repository.AccountLocked:
		return nil, ErrAccountLocked
	case repository.AccountInactive:
		return nil, ErrAccountInactive
	}
	return identity.NewPrincipal(s.authority, s.providerID, s.realm, a.AccountID).
		WithUsername(a.Username).
		WithEmailAddress(a.EmailAddress).
		WithAttributes(a.Attributes), nil
}
