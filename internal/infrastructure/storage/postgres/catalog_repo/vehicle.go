package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"taller/internal/core/apperror"
	"taller/internal/core/id"
	"taller/internal/domain"
	"taller/internal/domain/catalogs/vehicle"
	"taller/internal/domain/filter"
	"taller/internal/infrastructure/storage/postgres"
)

const vehicleTable = "cat_vehicles"

// VehicleRepo implements vehicle.Repository.
type VehicleRepo struct {
	*BaseCatalogRepo[*vehicle.Vehicle]
}

// NewVehicleRepo creates a new vehicle repository.
func NewVehicleRepo(txManager *postgres.TxManager) *VehicleRepo {
	return &VehicleRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			vehicleTable,
			postgres.ExtractDBColumns[vehicle.Vehicle](),
			func() *vehicle.Vehicle { return &vehicle.Vehicle{} },
		),
	}
}

// FindByPlate retrieves a vehicle by normalized license plate.
func (r *VehicleRepo) FindByPlate(ctx context.Context, plate string) (*vehicle.Vehicle, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"plate": vehicle.NormalizePlate(plate)}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	v, err := r.FindOne(ctx, q)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("vehicle", plate)
		}
		return nil, err
	}
	return v, nil
}

// ListByClient retrieves all vehicles of a client.
func (r *VehicleRepo) ListByClient(ctx context.Context, clientID id.ID, f domain.ListFilter) (domain.ListResult[*vehicle.Vehicle], error) {
	f.AdvancedFilters = append(f.AdvancedFilters, filter.Item{
		Field:    "client_id",
		Operator: filter.Equal,
		Value:    clientID,
	})
	return r.List(ctx, f)
}
