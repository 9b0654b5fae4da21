package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/idbroker/internal/audit"
	"github.com/dropDatabas3/idbroker/internal/domain/repository"
	"github.com/dropDatabas3/idbroker/internal/metrics"
	"github.com/dropDatabas3/idbroker/internal/observability/logger"
)

// LinkGuard permite a un proveedor rechazar un re-link puntual.
type LinkGuard func(ctx context.Context, account *repository.Account, userID string) error

// DeleteHook corre dentro de la transacción de borrado, antes de eliminar la cuenta
// (ej: borrar credenciales).
type DeleteHook func(ctx context.Context, account *repository.Account) error

// ServiceConfig dependencias del pipeline de un proveedor.
type ServiceConfig struct {
	Authority    string
	ProviderID   string
	Realm        string
	RepositoryID string

	Accounts   repository.AccountRepository
	Converter  AccountConverter
	Attributes AttributeProvider // opcional
	Subjects   SubjectAllocator
	Tx         repository.TxManager

	// Authoritative indica que el proveedor es el sistema de registro de sus cuentas:
	// puede re-vincularlas y borra subject + cuenta al eliminar la identidad.
	Authoritative bool
	LinkGuard     LinkGuard
	DeleteHook    DeleteHook
}

// Service es el pipeline de conversión y el acceso a identidades de un proveedor.
type Service struct {
	authority     string
	providerID    string
	realm         string
	repositoryID  string
	accounts      repository.AccountRepository
	converter     AccountConverter
	attributes    AttributeProvider
	subjects      SubjectAllocator
	tx            repository.TxManager
	authoritative bool
	linkGuard     LinkGuard
	deleteHook    DeleteHook
}

// NewService valida las dependencias obligatorias.
func NewService(cfg ServiceConfig) (*Service, error) {
	switch {
	case cfg.Authority == "" || cfg.ProviderID == "" || cfg.Realm == "":
		return nil, fmt.Errorf("%w: authority, provider and realm are required", repository.ErrInvalidInput)
	case cfg.Accounts == nil:
		return nil, fmt.Errorf("%w: account repository is required", repository.ErrInvalidInput)
	case cfg.Converter == nil:
		return nil, fmt.Errorf("%w: account converter is required", repository.ErrInvalidInput)
	case cfg.Subjects == nil:
		return nil, fmt.Errorf("%w: subject allocator is required", repository.ErrInvalidInput)
	case cfg.Tx == nil:
		return nil, fmt.Errorf("%w: tx manager is required", repository.ErrInvalidInput)
	}
	repositoryID := cfg.RepositoryID
	if repositoryID == "" {
		repositoryID = cfg.Realm
	}
	return &Service{
		authority:     cfg.Authority,
		providerID:    cfg.ProviderID,
		realm:         cfg.Realm,
		repositoryID:  repositoryID,
		accounts:      cfg.Accounts,
		converter:     cfg.Converter,
		attributes:    cfg.Attributes,
		subjects:      cfg.Subjects,
		tx:            cfg.Tx,
		authoritative: cfg.Authoritative,
		linkGuard:     cfg.LinkGuard,
		deleteHook:    cfg.DeleteHook,
	}, nil
}

// IsAuthoritative ver ServiceConfig.Authoritative.
func (s *Service) IsAuthoritative() bool { return s.authoritative }

// ConvertIdentity convierte el principal en una cuenta persistida del usuario userID
// y retorna la identidad resultante. Llamadas repetidas con el mismo
// (principalID, userID) actualizan la misma cuenta.
func (s *Service) ConvertIdentity(ctx context.Context, principal Principal, userID string) (*Identity, error) {
	start := time.Now()
	idn, created, err := s.convert(ctx, principal, userID)

	result := "updated"
	switch {
	case err != nil:
		result = "failed"
	case created:
		result = "created"
	}
	metrics.IdentityConversions.WithLabelValues(s.authority, result).Inc()
	metrics.IdentityConversionLatency.WithLabelValues(s.authority).Observe(float64(time.Since(start).Milliseconds()))

	log := s.logger(ctx).With(logger.UserID(userID), logger.Duration(time.Since(start)))
	if err != nil {
		log.Warn("identity conversion failed", logger.Err(err))
		return nil, err
	}
	log.Debug("identity converted", logger.AccountID(idn.AccountID()), logger.String("result", result))
	return idn, nil
}

func (s *Service) convert(ctx context.Context, principal Principal, userID string) (*Identity, bool, error) {
	// PrincipalReceived
	if principal == nil || strings.TrimSpace(principal.PrincipalID()) == "" {
		return nil, false, ErrMissingPrincipalID
	}
	if principal.Authority() != s.authority || principal.ProviderID() != s.providerID {
		return nil, false, ErrForeignPrincipal
	}
	principalID := strings.TrimSpace(principal.PrincipalID())
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, false, ErrMissingUserID
	}

	// AccountResolved
	account, err := s.converter.ConvertAccount(ctx, principal, userID)
	if err != nil {
		return nil, false, err
	}
	if account == nil {
		return nil, false, fmt.Errorf("%w: converter returned no account", repository.ErrInvalidInput)
	}
	if err := checkClaims(account, principal); err != nil {
		return nil, false, err
	}
	account.Authority = s.authority
	account.Provider = s.providerID
	account.Realm = s.realm
	account.RepositoryID = s.repositoryID
	account.AccountID = principalID
	account.UserID = userID

	var (
		attrs   []UserAttributes
		created bool
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		// AccountPersisted
		existing, err := s.accounts.FindByID(ctx, s.repositoryID, principalID)
		switch {
		case repository.IsNotFound(err):
			if account, err = s.createAccount(ctx, account); err != nil {
				return err
			}
			created = true
		case err != nil:
			return err
		default:
			if existing.UserID != userID {
				return ErrOwnerMismatch
			}
			merged := mergeAccount(existing, account)
			if err := s.accounts.Update(ctx, merged); err != nil {
				return err
			}
			account = merged
		}
		if h, ok := principal.(UUIDHolder); ok {
			h.SetUUID(account.UUID)
		}

		// AttributesConverted
		if s.attributes != nil {
			attrs, err = s.attributes.ConvertPrincipalAttributes(ctx, principal, account)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	event := audit.AccountUpdated
	if created {
		event = audit.AccountCreated
	}
	audit.Log(ctx, event, map[string]any{
		"authority":   s.authority,
		"provider_id": s.providerID,
		"realm":       s.realm,
		"account_id":  account.AccountID,
		"uuid":        account.UUID,
		"user_id":     userID,
	})

	// IdentityBuilt
	return &Identity{
		Authority:  s.authority,
		Provider:   s.providerID,
		Realm:      s.realm,
		UserID:     userID,
		Account:    *account,
		Principal:  principal,
		Attributes: attrs,
	}, created, nil
}

// createAccount asigna un subject nuevo y persiste la cuenta. Corre dentro de la tx.
func (s *Service) createAccount(ctx context.Context, account *repository.Account) (*repository.Account, error) {
	uuid := s.subjects.GenerateUUID(repository.SubjectAccount)
	subject, err := s.subjects.AddSubject(ctx, uuid, s.realm, repository.SubjectAccount, accountLabel(account))
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	account.UUID = subject.SubjectID
	if account.Status == "" {
		account.Status = repository.AccountActive
	}
	account.CreatedAt = now
	account.UpdatedAt = now
	if err := s.accounts.Add(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// checkClaims impide que los claims pisen campos de identidad por un canal lateral.
func checkClaims(account *repository.Account, principal Principal) error {
	if u := principal.Username(); account.Username != "" && u != "" && account.Username != u {
		return fmt.Errorf("%w: username", ErrClaimMismatch)
	}
	if e := principal.EmailAddress(); account.EmailAddress != "" && e != "" && !strings.EqualFold(account.EmailAddress, e) {
		return fmt.Errorf("%w: email address", ErrClaimMismatch)
	}
	return nil
}

// mergeAccount pisa los campos mutables de existing con los convertidos.
// UUID, dueño, estado y fecha de creación se conservan.
func mergeAccount(existing, converted *repository.Account) *repository.Account {
	merged := *existing
	merged.Provider = converted.Provider
	merged.Username = converted.Username
	merged.EmailAddress = converted.EmailAddress
	merged.Attributes = converted.Attributes
	merged.UpdatedAt = time.Now().UTC()
	return &merged
}

func accountLabel(a *repository.Account) string {
	if a.Username != "" {
		return a.Username
	}
	if a.EmailAddress != "" {
		return a.EmailAddress
	}
	return a.AccountID
}

func (s *Service) logger(ctx context.Context) *zap.Logger {
	return logger.From(ctx).With(
		logger.Component("identity"),
		logger.Authority(s.authority),
		logger.ProviderID(s.providerID),
		logger.Realm(s.realm),
	)
}

// ignoreNotFound convierte ErrNotFound en nil.
func ignoreNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	return err
}
