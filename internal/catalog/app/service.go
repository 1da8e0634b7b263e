package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dwikikusuma/storefront/internal/catalog/domain"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrNoCategories  = errors.New("categories not configured")
)

const maxImages = 10

type Service struct {
	repo       ProductRepo
	categories CategoryRepo
}

type Option func(*Service)

// WithCategories enables category management. Products may then only name
// categories that exist.
func WithCategories(repo CategoryRepo) Option {
	return func(s *Service) { s.categories = repo }
}

func NewService(repo ProductRepo, opts ...Option) *Service {
	s := &Service{
		repo: repo,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type NewProduct struct {
	Name        string
	Description string
	Category    string
	Currency    string
	Amount      int64
	Stock       int32
	Images      []string
}

func (s *Service) CreateProduct(ctx context.Context, in NewProduct) (domain.Product, error) {
	name := strings.TrimSpace(in.Name)
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))

	if name == "" || currency == "" || in.Amount <= 0 || in.Stock < 0 || len(in.Images) > maxImages {
		return domain.Product{}, ErrInvalidInput
	}

	category, err := s.resolveCategory(ctx, in.Category)
	if err != nil {
		return domain.Product{}, err
	}

	p := domain.Product{
		Name:        name,
		Description: in.Description,
		Category:    category,
		Price: domain.Money{
			Currency: currency,
			Amount:   in.Amount,
		},
		Stock:  in.Stock,
		Images: in.Images,
	}

	product, err := s.repo.Create(ctx, p)
	if err != nil {
		return domain.Product{}, err
	}

	return product, nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Product{}, ErrInvalidInput
	}
	return s.repo.Get(ctx, strings.TrimSpace(id))
}

func (s *Service) ListProducts(ctx context.Context, filter ListFilter) ([]domain.Product, string, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	filter.Query = strings.TrimSpace(filter.Query)
	filter.Category = strings.TrimSpace(filter.Category)
	return s.repo.List(ctx, filter)
}

func (s *Service) UpdateStock(ctx context.Context, id string, stock int32) (domain.Product, error) {
	if strings.TrimSpace(id) == "" || stock < 0 {
		return domain.Product{}, ErrInvalidInput
	}
	return s.repo.SetStock(ctx, strings.TrimSpace(id), stock)
}

// ProductUpdate changes the fields that are set. The price currency is fixed
// at creation.
type ProductUpdate struct {
	Name        *string
	Description *string
	Category    *string
	Amount      *int64
	Stock       *int32
}

func (s *Service) UpdateProduct(ctx context.Context, id string, in ProductUpdate) (domain.Product, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Amount != nil {
		p.Price.Amount = *in.Amount
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if p.Name == "" || p.Price.Amount <= 0 || p.Stock < 0 {
		return domain.Product{}, ErrInvalidInput
	}
	if in.Category != nil {
		if p.Category, err = s.resolveCategory(ctx, *in.Category); err != nil {
			return domain.Product{}, err
		}
	}

	return s.repo.Update(ctx, p)
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidInput
	}
	return s.repo.Delete(ctx, strings.TrimSpace(id))
}

// AddImage appends an image reference; the first image is the primary one.
func (s *Service) AddImage(ctx context.Context, id, ref string) (domain.Product, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return domain.Product{}, ErrInvalidInput
	}
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	if slices.Contains(p.Images, ref) {
		return domain.Product{}, fmt.Errorf("%w: image %s", ErrAlreadyExists, ref)
	}
	if len(p.Images) >= maxImages {
		return domain.Product{}, fmt.Errorf("%w: at most %d images", ErrInvalidInput, maxImages)
	}
	p.Images = append(p.Images, ref)
	return s.repo.Update(ctx, p)
}

func (s *Service) RemoveImage(ctx context.Context, id, ref string) (domain.Product, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	i := slices.Index(p.Images, strings.TrimSpace(ref))
	if i < 0 {
		return domain.Product{}, fmt.Errorf("%w: image %s", ErrNotFound, ref)
	}
	p.Images = slices.Delete(p.Images, i, i+1)
	return s.repo.Update(ctx, p)
}

func (s *Service) AddCategory(ctx context.Context, name string) (domain.Category, error) {
	if s.categories == nil {
		return domain.Category{}, ErrNoCategories
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Category{}, ErrInvalidInput
	}
	return s.categories.Create(ctx, domain.Category{Name: name})
}

func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	if s.categories == nil {
		return nil, ErrNoCategories
	}
	return s.categories.List(ctx)
}

// DeleteCategory removes a category; its products keep existing without one.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	if s.categories == nil {
		return ErrNoCategories
	}
	if strings.TrimSpace(id) == "" {
		return ErrInvalidInput
	}
	return s.categories.Delete(ctx, strings.TrimSpace(id))
}

// resolveCategory returns the stored spelling of a category name. Without a
// category repo any name is accepted as given.
func (s *Service) resolveCategory(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || s.categories == nil {
		return name, nil
	}
	c, err := s.categories.GetByName(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return "", fmt.Errorf("%w: unknown category %q", ErrInvalidInput, name)
	}
	if err != nil {
		return "", err
	}
	return c.Name, nil
}
