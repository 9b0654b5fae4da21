package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/idbroker/internal/audit"
	"github.com/dropDatabas3/idbroker/internal/domain/repository"
	"github.com/dropDatabas3/idbroker/internal/observability/logger"
)

// LinkIdentity transfiere la cuenta accountID al usuario userID.
// Sólo proveedores autoritativos pueden re-vincular.
func (s *Service) LinkIdentity(ctx context.Context, userID, accountID string) (*Identity, error) {
	if !s.authoritative {
		return nil, ErrNotAuthoritative
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrMissingUserID
	}

	var linked *repository.Account
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		account, err := s.accounts.FindByID(ctx, s.repositoryID, strings.TrimSpace(accountID))
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrNoSuchIdentity
			}
			return err
		}
		if s.linkGuard != nil {
			if err := s.linkGuard(ctx, account, userID); err != nil {
				return fmt.Errorf("link rejected: %w", err)
			}
		}
		previous := account.UserID
		account.UserID = userID
		account.UpdatedAt = time.Now().UTC()
		if err := s.accounts.Update(ctx, account); err != nil {
			return err
		}
		audit.Log(ctx, audit.IdentityLinked, map[string]any{
			"authority":     s.authority,
			"provider_id":   s.providerID,
			"realm":         s.realm,
			"account_id":    account.AccountID,
			"user_id":       userID,
			"previous_user": previous,
		})
		linked = account
		return nil
	})
	if err != nil {
		s.logger(ctx).Warn("identity link failed", logger.AccountID(accountID), logger.UserID(userID), logger.Err(err))
		return nil, err
	}
	return s.toIdentity(ctx, linked, false)
}
