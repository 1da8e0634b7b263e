package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dwikikusuma/storefront/internal/catalog/domain"
)

type fakeRepo struct {
	lastFilter ListFilter
	stored     map[string]domain.Product
	deleted    []string
}

func (*fakeRepo) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	p.ID = "generated"
	return p, nil
}
func (f *fakeRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	if f.stored != nil {
		p, ok := f.stored[id]
		if !ok {
			return domain.Product{}, ErrNotFound
		}
		return p, nil
	}
	return domain.Product{ID: id}, nil
}
func (f *fakeRepo) List(ctx context.Context, filter ListFilter) ([]domain.Product, string, error) {
	f.lastFilter = filter
	return nil, "", nil
}
func (*fakeRepo) SetStock(ctx context.Context, id string, stock int32) (domain.Product, error) {
	return domain.Product{ID: id, Stock: stock}, nil
}
func (f *fakeRepo) Update(ctx context.Context, p domain.Product) (domain.Product, error) {
	if f.stored != nil {
		f.stored[p.ID] = p
	}
	return p, nil
}
func (f *fakeRepo) Delete(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeCategories struct {
	byName map[string]domain.Category
}

func (f *fakeCategories) Create(ctx context.Context, c domain.Category) (domain.Category, error) {
	key := strings.ToLower(c.Name)
	if _, ok := f.byName[key]; ok {
		return domain.Category{}, ErrAlreadyExists
	}
	c.ID = "c-" + key
	f.byName[key] = c
	return c, nil
}
func (f *fakeCategories) List(ctx context.Context) ([]domain.Category, error) {
	out := make([]domain.Category, 0, len(f.byName))
	for _, c := range f.byName {
		out = append(out, c)
	}
	return out, nil
}
func (f *fakeCategories) GetByName(ctx context.Context, name string) (domain.Category, error) {
	c, ok := f.byName[strings.ToLower(name)]
	if !ok {
		return domain.Category{}, ErrNotFound
	}
	return c, nil
}
func (f *fakeCategories) Delete(ctx context.Context, id string) error {
	for k, c := range f.byName {
		if c.ID == id {
			delete(f.byName, k)
			return nil
		}
	}
	return ErrNotFound
}

func TestCreateProductValidation(t *testing.T) {
	svc := NewService(&fakeRepo{})
	valid := NewProduct{Name: "Keyboard", Currency: "INR", Amount: 100, Stock: 3}

	t.Run("empty name -> invalid", func(t *testing.T) {
		in := valid
		in.Name = "   "
		_, err := svc.CreateProduct(context.Background(), in)
		if err != ErrInvalidInput {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("non-positive amount -> invalid", func(t *testing.T) {
		in := valid
		in.Amount = 0
		_, err := svc.CreateProduct(context.Background(), in)
		if err != ErrInvalidInput {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("empty currency -> invalid", func(t *testing.T) {
		in := valid
		in.Currency = "   "
		_, err := svc.CreateProduct(context.Background(), in)
		if err != ErrInvalidInput {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("negative stock -> invalid", func(t *testing.T) {
		in := valid
		in.Stock = -1
		_, err := svc.CreateProduct(context.Background(), in)
		if err != ErrInvalidInput {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("zero stock is allowed", func(t *testing.T) {
		in := valid
		in.Stock = 0
		p, err := svc.CreateProduct(context.Background(), in)
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if p.InStock() {
			t.Fatalf("expected product out of stock")
		}
	})
}

func TestListProductsLimits(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)

	_, _, _ = svc.ListProducts(context.Background(), ListFilter{Limit: 0, Query: "  tea "})
	if repo.lastFilter.Limit != 20 || repo.lastFilter.Query != "tea" {
		t.Fatalf("got %+v", repo.lastFilter)
	}

	_, _, _ = svc.ListProducts(context.Background(), ListFilter{Limit: 500})
	if repo.lastFilter.Limit != 100 {
		t.Fatalf("got %+v", repo.lastFilter)
	}
}

func TestUpdateStockValidation(t *testing.T) {
	svc := NewService(&fakeRepo{})
	if _, err := svc.UpdateStock(context.Background(), "p1", -2); err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	p, err := svc.UpdateStock(context.Background(), "p1", 4)
	if err != nil || p.Stock != 4 {
		t.Fatalf("got %+v, %v", p, err)
	}
}

func ptr[T any](v T) *T { return &v }

func TestUpdateProduct(t *testing.T) {
	ctx := context.Background()
	repo := &fakeRepo{stored: map[string]domain.Product{
		"p1": {ID: "p1", Name: "Kettle", Price: domain.Money{Currency: "INR", Amount: 500}, Stock: 2},
	}}
	cats := &fakeCategories{byName: map[string]domain.Category{}}
	svc := NewService(repo, WithCategories(cats))
	if _, err := svc.AddCategory(ctx, "Kitchen"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	p, err := svc.UpdateProduct(ctx, "p1", ProductUpdate{Amount: ptr(int64(650)), Category: ptr("kitchen")})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if p.Price.Amount != 650 || p.Price.Currency != "INR" || p.Category != "Kitchen" || p.Name != "Kettle" {
		t.Fatalf("got %+v", p)
	}

	t.Run("unknown category", func(t *testing.T) {
		_, err := svc.UpdateProduct(ctx, "p1", ProductUpdate{Category: ptr("garden")})
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("bad values", func(t *testing.T) {
		for _, in := range []ProductUpdate{
			{Name: ptr(" ")},
			{Amount: ptr(int64(0))},
			{Stock: ptr(int32(-1))},
		} {
			if _, err := svc.UpdateProduct(ctx, "p1", in); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput for %+v, got %v", in, err)
			}
		}
		if repo.stored["p1"].Price.Amount != 650 {
			t.Fatalf("rejected update was stored")
		}
	})

	t.Run("missing product", func(t *testing.T) {
		if _, err := svc.UpdateProduct(ctx, "nope", ProductUpdate{}); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestProductImages(t *testing.T) {
	ctx := context.Background()
	repo := &fakeRepo{stored: map[string]domain.Product{
		"p1": {ID: "p1", Name: "Kettle", Price: domain.Money{Currency: "INR", Amount: 500}, Images: []string{"a.png"}},
	}}
	svc := NewService(repo)

	p, err := svc.AddImage(ctx, "p1", "b.png")
	if err != nil || len(p.Images) != 2 || p.PrimaryImage() != "a.png" {
		t.Fatalf("got %+v, %v", p, err)
	}
	if _, err := svc.AddImage(ctx, "p1", "b.png"); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	p, err = svc.RemoveImage(ctx, "p1", "a.png")
	if err != nil || len(p.Images) != 1 || p.PrimaryImage() != "b.png" {
		t.Fatalf("got %+v, %v", p, err)
	}
	if _, err := svc.RemoveImage(ctx, "p1", "a.png"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCategories(t *testing.T) {
	ctx := context.Background()

	if _, err := NewService(&fakeRepo{}).AddCategory(ctx, "Kitchen"); !errors.Is(err, ErrNoCategories) {
		t.Fatalf("expected ErrNoCategories, got %v", err)
	}

	svc := NewService(&fakeRepo{}, WithCategories(&fakeCategories{byName: map[string]domain.Category{}}))
	c, err := svc.AddCategory(ctx, "  Kitchen ")
	if err != nil || c.Name != "Kitchen" {
		t.Fatalf("got %+v, %v", c, err)
	}
	if _, err := svc.AddCategory(ctx, "kitchen"); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	if _, err := svc.AddCategory(ctx, " "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	in := NewProduct{Name: "Mug", Currency: "inr", Amount: 100, Category: "garden"}
	if _, err := svc.CreateProduct(ctx, in); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	in.Category = "KITCHEN"
	p, err := svc.CreateProduct(ctx, in)
	if err != nil || p.Category != "Kitchen" || p.Price.Currency != "INR" {
		t.Fatalf("got %+v, %v", p, err)
	}

	if err := svc.DeleteCategory(ctx, c.ID); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	list, err := svc.ListCategories(ctx)
	if err != nil || len(list) != 0 {
		t.Fatalf("got %+v, %v", list, err)
	}
}
