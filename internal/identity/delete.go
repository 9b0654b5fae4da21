package identity

import (
	"context"
	"strings"

	"github.com/dropDatabas3/idbroker/internal/audit"
	"github.com/dropDatabas3/idbroker/internal/domain/repository"
	"github.com/dropDatabas3/idbroker/internal/observability/logger"
)

// DeleteIdentity elimina la identidad accountID del usuario userID, que es obligatorio.
// Idempotente: una identidad inexistente no es error.
//
// Si el proveedor es autoritativo borra, en una transacción, lo que cuelga de la
// cuenta (DeleteHook), el subject y la cuenta. Siempre borra los atributos guardados.
func (s *Service) DeleteIdentity(ctx context.Context, userID, accountID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrMissingUserID
	}
	accountID = strings.TrimSpace(accountID)

	// El dueño se verifica dentro de la tx, sobre la fila bloqueada.
	var account *repository.Account
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		found, err := s.accounts.FindByID(ctx, s.repositoryID, accountID)
		switch {
		case repository.IsNotFound(err):
			return nil
		case err != nil:
			return err
		case found.UserID != userID:
			return ErrOwnerMismatch
		}
		account = found
		if !s.authoritative {
			return nil
		}
		if s.deleteHook != nil {
			if err := s.deleteHook(ctx, account); err != nil {
				return err
			}
		}
		if account.UUID != "" {
			if err := ignoreNotFound(s.subjects.DeleteSubject(ctx, account.UUID)); err != nil {
				return err
			}
		}
		return ignoreNotFound(s.accounts.Delete(ctx, s.repositoryID, accountID))
	})
	if err != nil {
		s.logger(ctx).Warn("identity delete failed", logger.AccountID(accountID), logger.Err(err))
		return err
	}

	if s.attributes != nil {
		if err := s.attributes.DeleteAccountAttributes(ctx, accountID); err != nil {
			return err
		}
	}

	if account != nil {
		audit.Log(ctx, audit.IdentityDeleted, map[string]any{
			"authority":   s.authority,
			"provider_id": s.providerID,
			"realm":       s.realm,
			"account_id":  accountID,
			"user_id":     account.UserID,
		})
	}
	return nil
}

// DeleteIdentities elimina todas las identidades del usuario en este proveedor.
func (s *Service) DeleteIdentities(ctx context.Context, userID string) error {
	accounts, err := s.accounts.FindByUser(ctx, s.repositoryID, userID)
	if err != nil {
		return err
	}
	for _, a := range accounts {
		if err := ignoreNotFound(s.DeleteIdentity(ctx, userID, a.AccountID)); err != nil {
			return err
		}
	}
	return nil
}
