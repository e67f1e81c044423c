package services

import (
	"context"
	"time"

	"storefront/internal/catalog"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/realtime"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// CatalogResult is one page of the filtered catalog plus the facets of
// everything that matched.
type CatalogResult struct {
	catalog.Page
	Facets catalog.Facets `json:"facets"`
}

// CatalogServiceImpl serves product listings and admin product changes
type CatalogServiceImpl struct {
	products ProductRepository
	hub      Publisher
	log      *zap.Logger
}

func NewCatalogService(products ProductRepository, hub Publisher, log *zap.Logger) *CatalogServiceImpl {
	return &CatalogServiceImpl{products: products, hub: hub, log: log.Named("catalog")}
}

// List filters, sorts and paginates the active catalog.
func (s *CatalogServiceImpl) List(ctx context.Context, d catalog.Descriptor, page, limit int) (*CatalogResult, error) {
	ctx, span := middleware.StartSpan(ctx, "CatalogService.List",
		attribute.String("catalog.sort", string(d.Sort)),
		attribute.Int("catalog.page", page),
	)
	defer span.End()

	all, err := s.products.ListActive(ctx)
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return nil, err
	}

	matched := catalog.Apply(all, d)
	span.SetAttributes(attribute.Int("catalog.matched", len(matched)))

	return &CatalogResult{
		Page:   catalog.Paginate(matched, page, limit),
		Facets: catalog.BuildFacets(matched),
	}, nil
}

// Get returns one product and tells admins someone looked at it. viewerID
// is empty for anonymous visitors.
func (s *CatalogServiceImpl) Get(ctx context.Context, id, viewerID string) (*models.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.hub.Publish(realtime.Envelope{
		Kind:   realtime.KindProductView,
		Target: realtime.ToAdmins(),
		Payload: models.AnalyticsEvent{
			Kind:       models.AnalyticsProductView,
			UserID:     viewerID,
			ProductID:  product.ID,
			Category:   product.Category,
			Price:      product.Price,
			OccurredAt: time.Now(),
		},
	})
	return product, nil
}

func (s *CatalogServiceImpl) Create(ctx context.Context, in *models.ProductCreate) (*models.Product, error) {
	product, err := s.products.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	s.log.Info("product created", zap.String("product_id", product.ID), zap.String("name", product.Name))
	return product, nil
}

func (s *CatalogServiceImpl) Update(ctx context.Context, id string, in *models.ProductUpdate) (*models.Product, error) {
	product, err := s.products.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.log.Info("product updated", zap.String("product_id", product.ID), zap.Int("stock", product.Stock))
	return product, nil
}

func (s *CatalogServiceImpl) Delete(ctx context.Context, id string) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("product deleted", zap.String("product_id", id))
	return nil
}
