package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"taller/internal/core/apperror"
	"taller/internal/domain/catalogs/client"
	"taller/internal/infrastructure/storage/postgres"
)

const clientTable = "cat_clients"

// ClientRepo implements client.Repository.
type ClientRepo struct {
	*BaseCatalogRepo[*client.Client]
}

// NewClientRepo creates a new client repository.
func NewClientRepo(txManager *postgres.TxManager) *ClientRepo {
	return &ClientRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			clientTable,
			postgres.ExtractDBColumns[client.Client](),
			func() *client.Client { return &client.Client{} },
		),
	}
}

// FindByRUC retrieves a client by taxpayer number.
func (r *ClientRepo) FindByRUC(ctx context.Context, ruc string) (*client.Client, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"ruc": ruc}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	c, err := r.FindOne(ctx, q)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("client", ruc)
		}
		return nil, err
	}
	return c, nil
}
