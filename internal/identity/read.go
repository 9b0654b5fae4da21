package identity

import (
	"context"
	"strings"

	"github.com/dropDatabas3/idbroker/internal/domain/repository"
)

// FindIdentity busca la identidad accountID. Si userID no es vacío y no coincide con
// el dueño, se comporta como si no existiera. Retorna nil, nil si no existe.
func (s *Service) FindIdentity(ctx context.Context, userID, accountID string, fetchAttributes bool) (*Identity, error) {
	account, err := s.accounts.FindByID(ctx, s.repositoryID, strings.TrimSpace(accountID))
	if err != nil {
		return nil, ignoreNotFound(err)
	}
	if userID != "" && account.UserID != userID {
		return nil, nil
	}
	return s.toIdentity(ctx, account, fetchAttributes)
}

// FindIdentityByUUID busca por uuid global. Retorna nil, nil si no existe o si la
// cuenta pertenece a otro proveedor.
func (s *Service) FindIdentityByUUID(ctx context.Context, userID, uuid string, fetchAttributes bool) (*Identity, error) {
	account, err := s.accounts.FindByUUID(ctx, strings.TrimSpace(uuid))
	if err != nil {
		return nil, ignoreNotFound(err)
	}
	if account.RepositoryID != s.repositoryID || (userID != "" && account.UserID != userID) {
		return nil, nil
	}
	return s.toIdentity(ctx, account, fetchAttributes)
}

// GetIdentity como FindIdentity pero falla con ErrNoSuchIdentity.
func (s *Service) GetIdentity(ctx context.Context, userID, accountID string, fetchAttributes bool) (*Identity, error) {
	idn, err := s.FindIdentity(ctx, userID, accountID, fetchAttributes)
	if err != nil {
		return nil, err
	}
	if idn == nil {
		return nil, ErrNoSuchIdentity
	}
	return idn, nil
}

// ListIdentities retorna las identidades del usuario en este proveedor.
func (s *Service) ListIdentities(ctx context.Context, userID string, fetchAttributes bool) ([]Identity, error) {
	accounts, err := s.accounts.FindByUser(ctx, s.repositoryID, userID)
	if err != nil {
		return nil, err
	}
	out := make([]Identity, 0, len(accounts))
	for i := range accounts {
		idn, err := s.toIdentity(ctx, &accounts[i], fetchAttributes)
		if err != nil {
			return nil, err
		}
		out = append(out, *idn)
	}
	return out, nil
}

func (s *Service) toIdentity(ctx context.Context, account *repository.Account, fetchAttributes bool) (*Identity, error) {
	idn := &Identity{
		Authority: s.authority,
		Provider:  s.providerID,
		Realm:     s.realm,
		UserID:    account.UserID,
		Account:   *account,
	}
	if fetchAttributes && s.attributes != nil {
		attrs, err := s.attributes.GetAccountAttributes(ctx, account)
		if err != nil {
			return nil, err
		}
		idn.Attributes = attrs
	}
	return idn, nil
}
