// Package catalog manages the provider and model records the generation
// pipeline selects from. Records are created and edited here (by
// administrators) and read-only everywhere else.
package catalog

import (
	"context"
	"strings"

	"github.com/nekoko-ai/platform/internal/app/domain/catalog"
	"github.com/nekoko-ai/platform/internal/app/storage"
	"github.com/nekoko-ai/platform/internal/errors"
	"github.com/nekoko-ai/platform/pkg/logger"
)

// Service manages providers and models.
type Service struct {
	store storage.CatalogStore
	log   *logger.Logger
}

// New constructs a catalog service.
func New(store storage.CatalogStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("catalog")
	}
	return &Service{store: store, log: log}
}

// CreateProvider registers an upstream endpoint.
func (s *Service) CreateProvider(ctx context.Context, p catalog.Provider) (catalog.Provider, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.BaseURL = strings.TrimRight(strings.TrimSpace(p.BaseURL), "/")
	if p.Name == "" {
		return catalog.Provider{}, errors.InvalidInput("provider name is required")
	}
	if p.BaseURL == "" {
		return catalog.Provider{}, errors.InvalidInput("provider base URL is required")
	}
	if p.Status == "" {
		p.Status = catalog.StatusActive
	}

	created, err := s.store.CreateProvider(ctx, p)
	if err != nil {
		return catalog.Provider{}, err
	}
	s.log.Infof("provider %s created", created.ID)
	return created, nil
}

// UpdateProvider overwrites mutable fields of a provider record.
func (s *Service) UpdateProvider(ctx context.Context, p catalog.Provider) (catalog.Provider, error) {
	existing, err := s.store.GetProvider(ctx, p.ID)
	if err != nil {
		return catalog.Provider{}, err
	}

	if strings.TrimSpace(p.Name) == "" {
		p.Name = existing.Name
	}
	if strings.TrimSpace(p.BaseURL) == "" {
		p.BaseURL = existing.BaseURL
	} else {
		p.BaseURL = strings.TrimRight(strings.TrimSpace(p.BaseURL), "/")
	}
	if p.APIKey == "" {
		p.APIKey = existing.APIKey
	}
	if p.Status == "" {
		p.Status = existing.Status
	}

	updated, err := s.store.UpdateProvider(ctx, p)
	if err != nil {
		return catalog.Provider{}, err
	}
	s.log.Infof("provider %s updated", p.ID)
	return updated, nil
}

// GetProvider retrieves a provider by identifier.
func (s *Service) GetProvider(ctx context.Context, id string) (catalog.Provider, error) {
	return s.store.GetProvider(ctx, id)
}

// ListProviders returns all provider records.
func (s *Service) ListProviders(ctx context.Context) ([]catalog.Provider, error) {
	return s.store.ListProviders(ctx)
}

// DeleteProvider removes a provider that no model references.
func (s *Service) DeleteProvider(ctx context.Context, id string) error {
	if err := s.store.DeleteProvider(ctx, id); err != nil {
		return err
	}
	s.log.Infof("provider %s deleted", id)
	return nil
}

// CreateModel registers a billable generation capability.
func (s *Service) CreateModel(ctx context.Context, m catalog.Model) (catalog.Model, error) {
	m.Name = strings.TrimSpace(m.Name)
	m.UpstreamID = strings.TrimSpace(m.UpstreamID)
	if m.Name == "" {
		return catalog.Model{}, errors.InvalidInput("model name is required")
	}
	if m.UpstreamID == "" {
		return catalog.Model{}, errors.InvalidInput("upstream model id is required")
	}
	if m.ProviderID == "" {
		return catalog.Model{}, errors.InvalidInput("provider id is required")
	}
	if m.PricePerCall < 0 {
		return catalog.Model{}, errors.InvalidInput("price per call must not be negative")
	}
	if m.Type == "" {
		m.Type = catalog.TypeTextToImage
	}
	if m.Type != catalog.TypeTextToImage && m.Type != catalog.TypeImageToImage {
		return catalog.Model{}, errors.InvalidInput("unknown generation type")
	}
	if m.Status == "" {
		m.Status = catalog.StatusActive
	}
	if m.DefaultWidth <= 0 {
		m.DefaultWidth = 1024
	}
	if m.DefaultHeight <= 0 {
		m.DefaultHeight = 1024
	}

	created, err := s.store.CreateModel(ctx, m)
	if err != nil {
		return catalog.Model{}, err
	}
	s.log.Infof("model %s created", created.ID)
	return created, nil
}

// UpdateModel overwrites mutable fields of a model record.
func (s *Service) UpdateModel(ctx context.Context, m catalog.Model) (catalog.Model, error) {
	existing, err := s.store.GetModel(ctx, m.ID)
	if err != nil {
		return catalog.Model{}, err
	}

	if strings.TrimSpace(m.Name) == "" {
		m.Name = existing.Name
	}
	if strings.TrimSpace(m.UpstreamID) == "" {
		m.UpstreamID = existing.UpstreamID
	}
	if m.ProviderID == "" {
		m.ProviderID = existing.ProviderID
	}
	if m.Type == "" {
		m.Type = existing.Type
	}
	if m.Status == "" {
		m.Status = existing.Status
	}
	if m.PricePerCall < 0 {
		return catalog.Model{}, errors.InvalidInput("price per call must not be negative")
	}
	if m.DefaultWidth <= 0 {
		m.DefaultWidth = existing.DefaultWidth
	}
	if m.DefaultHeight <= 0 {
		m.DefaultHeight = existing.DefaultHeight
	}

	updated, err := s.store.UpdateModel(ctx, m)
	if err != nil {
		return catalog.Model{}, err
	}
	s.log.Infof("model %s updated", m.ID)
	return updated, nil
}

// GetModel retrieves a model by identifier.
func (s *Service) GetModel(ctx context.Context, id string) (catalog.Model, error) {
	return s.store.GetModel(ctx, id)
}

// ListModels returns all model records in creation order.
func (s *Service) ListModels(ctx context.Context) ([]catalog.Model, error) {
	return s.store.ListModels(ctx)
}

// ListActiveModels returns the selectable models in creation order.
func (s *Service) ListActiveModels(ctx context.Context) ([]catalog.Model, error) {
	return s.store.ListActiveModels(ctx)
}

// DeleteModel removes a model record.
func (s *Service) DeleteModel(ctx context.Context, id string) error {
	if err := s.store.DeleteModel(ctx, id); err != nil {
		return err
	}
	s.log.Infof("model %s deleted", id)
	return nil
}
