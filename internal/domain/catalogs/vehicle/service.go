package vehicle

import (
	"context"
	"fmt"
	"time"

	"taller/internal/core/apperror"
	"taller/internal/core/id"
	"taller/internal/core/tx"
	"taller/internal/domain"
	"taller/pkg/numerator"
)

// ClientChecker verifies a client exists before a vehicle is attached to it.
// Satisfied by the client catalog service.
type ClientChecker interface {
	Exists(ctx context.Context, clientID id.ID) (bool, error)
}

// Service provides business logic for the Vehicle catalog.
type Service struct {
	*domain.CatalogService[*Vehicle]
	repo      Repository
	clients   ClientChecker
	numerator numerator.Generator
}

// NewService creates a new Vehicle service.
func NewService(repo Repository, txManager tx.Manager, clients ClientChecker, gen numerator.Generator) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Vehicle]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "vehicle",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		clients:        clients,
		numerator:      gen,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)
	base.Hooks().OnBeforeUpdate(svc.prepareForUpdate)

	return svc
}

func (s *Service) prepareForCreate(ctx context.Context, v *Vehicle) error {
	v.Plate = NormalizePlate(v.Plate)

	if v.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("VH"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		v.Code = code
	}

	ok, err := s.clients.Exists(ctx, v.ClientID)
	if err != nil {
		return fmt.Errorf("check client: %w", err)
	}
	if !ok {
		return apperror.NewNotFound("client", v.ClientID.String())
	}

	if exists, _ := s.checkPlateExists(ctx, v.Plate, v.ID); exists {
		return apperror.NewConflict("vehicle with this plate already exists").
			WithDetail("plate", v.Plate)
	}

	return nil
}

func (s *Service) prepareForUpdate(ctx context.Context, v *Vehicle) error {
	v.Plate = NormalizePlate(v.Plate)

	if exists, _ := s.checkPlateExists(ctx, v.Plate, v.ID); exists {
		return apperror.NewConflict("vehicle with this plate already exists").
			WithDetail("plate", v.Plate)
	}
	return nil
}

// FindByPlate retrieves a vehicle by license plate.
func (s *Service) FindByPlate(ctx context.Context, plate string) (*Vehicle, error) {
	return s.repo.FindByPlate(ctx, NormalizePlate(plate))
}

// ListByClient retrieves all vehicles of a client.
func (s *Service) ListByClient(ctx context.Context, clientID id.ID, filter domain.ListFilter) (domain.ListResult[*Vehicle], error) {
	return s.repo.ListByClient(ctx, clientID, filter)
}

func (s *Service) checkPlateExists(ctx context.Context, plate string, excludeID id.ID) (bool, error) {
	existing, err := s.repo.FindByPlate(ctx, plate)
	if err != nil {
		return false, nil
	}
	return existing.ID != excludeID, nil
}
