package client

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

// Service provides business logic for the Client catalog.
// Uses composition with domain.CatalogService for common CRUD operations.
type Service struct {
	*domain.CatalogService[*Client]
	repo      Repository
	numerator numerator.Generator
}

// NewService creates a new Client service.
func NewService(repo Repository, txManager tx.Manager, gen numerator.Generator) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Client]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "client",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		numerator:      gen,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)
	base.Hooks().OnBeforeUpdate(svc.prepareForUpdate)

	return svc
}

// prepareForCreate handles code generation and RUC uniqueness.
func (s *Service) prepareForCreate(ctx context.Context, c *Client) error {
	if c.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("CL"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		c.Code = code
	}

	if c.RUC != nil && *c.RUC != "" {
		if exists, _ := s.checkRUCExists(ctx, *c.RUC, c.ID); exists {
			return apperror.NewConflict("client with this RUC already exists").
				WithDetail("ruc", *c.RUC)
		}
	}

	return nil
}

func (s *Service) prepareForUpdate(ctx context.Context, c *Client) error {
	if c.RUC != nil && *c.RUC != "" {
		if exists, _ := s.checkRUCExists(ctx, *c.RUC, c.ID); exists {
			return apperror.NewConflict("client with this RUC already exists").
				WithDetail("ruc", *c.RUC)
		}
	}
	return nil
}

// FindByRUC retrieves a client by taxpayer number.
func (s *Service) FindByRUC(ctx context.Context, ruc string) (*Client, error) {
	return s.repo.FindByRUC(ctx, ruc)
}

func (s *Service) checkRUCExists(ctx context.Context, ruc string, excludeID id.ID) (bool, error) {
	existing, err := s.repo.FindByRUC(ctx, ruc)
	if err != nil {
		return false, nil
	}
	return existing.ID != excludeID, nil
}
