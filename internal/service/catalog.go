package service

import (
	"context"
	"errors"
	"strings"

	"github.com/fullcourse/fullcourse-api/internal/model"
	"github.com/fullcourse/fullcourse-api/internal/repository"
)

const (
	DefaultProductPageSize = 20
	MaxProductPageSize     = 100
)

// CatalogService reads the product catalog.
type CatalogService struct {
	products ProductStore
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(products ProductStore) *CatalogService {
	return &CatalogService{products: products}
}

// Search returns one page of products filtered by free text and manufacturer.
func (s *CatalogService) Search(ctx context.Context, q model.ProductQuery) (model.ProductPage, error) {
	q.Search = strings.TrimSpace(q.Search)
	q.Manufacturer = strings.TrimSpace(q.Manufacturer)
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultProductPageSize
	}
	if q.Limit > MaxProductPageSize {
		q.Limit = MaxProductPageSize
	}

	products, total, err := s.products.Search(ctx, q)
	if err != nil {
		return model.ProductPage{}, err
	}

	return model.ProductPage{
		Products:   products,
		Total:      total,
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: totalPages(total, q.Limit),
	}, nil
}

// Product returns one product.
func (s *CatalogService) Product(ctx context.Context, id int64) (*model.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return p, nil
}
