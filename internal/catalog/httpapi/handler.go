package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dwikikusuma/storefront/internal/catalog/app"
	"github.com/dwikikusuma/storefront/internal/catalog/domain"
	"github.com/dwikikusuma/storefront/pkg/httpx"
)

type Handler struct {
	svc *app.Service
}

func NewHandler(svc *app.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/v1/products", h.listProducts).Methods(http.MethodGet)
	r.HandleFunc("/v1/products", h.createProduct).Methods(http.MethodPost)
	r.HandleFunc("/v1/products/{id}", h.getProduct).Methods(http.MethodGet)
	r.HandleFunc("/v1/products/{id}", h.updateProduct).Methods(http.MethodPatch)
	r.HandleFunc("/v1/products/{id}", h.deleteProduct).Methods(http.MethodDelete)
	r.HandleFunc("/v1/products/{id}/stock", h.updateStock).Methods(http.MethodPatch)
	r.HandleFunc("/v1/products/{id}/images", h.addImage).Methods(http.MethodPost)
	r.HandleFunc("/v1/products/{id}/images", h.removeImage).Methods(http.MethodDelete)

	r.HandleFunc("/v1/categories", h.listCategories).Methods(http.MethodGet)
	r.HandleFunc("/v1/categories", h.addCategory).Methods(http.MethodPost)
	r.HandleFunc("/v1/categories/{id}", h.deleteCategory).Methods(http.MethodDelete)
}

type moneyJSON struct {
	Currency string `json:"currency"`
	Amount   int64  `json:"amount"`
}

type createProductRequest struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Price       moneyJSON `json:"price"`
	Stock       int32     `json:"stock"`
	Images      []string  `json:"images"`
}

type updateStockRequest struct {
	Stock *int32 `json:"stock"`
}

type updateProductRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Price       *int64  `json:"price"`
	Stock       *int32  `json:"stock"`
}

type imageRequest struct {
	Ref string `json:"ref"`
}

type categoryRequest struct {
	Name string `json:"name"`
}

type listCategoriesResponse struct {
	Categories []domain.Category `json:"categories"`
}

type listProductsResponse struct {
	Products   []domain.Product `json:"products"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, err)
		return
	}

	p, err := h.svc.CreateProduct(r.Context(), app.NewProduct{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Currency:    req.Price.Currency,
		Amount:      req.Price.Amount,
		Stock:       req.Stock,
		Images:      req.Images,
	})
	if err != nil {
		httpx.WriteError(w, mapErr(err))
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetProduct(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		httpx.WriteError(w, mapErr(err))
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			httpx.WriteError(w, status.Error(codes.InvalidArgument, "limit must be a number"))
			return
		}
		limit = n
	}

	products, next, err := h.svc.ListProducts(r.Context(), app.ListFilter{
		Query:    q.Get("q"),
		Category: q.Get("category"),
		Limit:    limit,
		Cursor:   q.Get("cursor"),
	})
	if err != nil {
		httpx.WriteError(w, mapErr(err))
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	httpx.WriteJSON(w, http.StatusOK, listProductsResponse{Products: products, NextCursor: next})
}

func (h *Handler) updateStock(w http.ResponseWriter, r *http.Request) {
	var req updateStockRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, err)
		return
	}
	if req.Stock == nil {
		httpx.WriteError(w, status.Error(codes.InvalidArgument, "stock is required"))
		return
	}

	p, err := h.svc.UpdateStock(r.Context(), mux.Vars(r)["id"], *req.Stock)
	if err != nil {
		httpx.WriteError(w, mapErr(err))
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var req updateProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, err)
		return
	}

	p, err := h.svc.UpdateProduct(r.Context(), mux.Vars(r)["id"], app.ProductUpdate{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Amount:      req.Price,
		Stock:       req.Stock,
	})
	if err != nil {
		httpx.WriteError(w, mapErr(err))
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteProduct(r.Context(), mux.Vars(r)["id"]); err != nil {
		httpx.WriteError(w, mapErr(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) addImage(w http.ResponseWriter, r *http.Request) {
	var req imageRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, err)
		return
	}
	p, err := h.svc.AddImage(r.Context(), mux.Vars(r)["id"], req.Ref)
	if err != nil {
		httpx.WriteError(w, mapErr(err))
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) removeImage(w http.ResponseWriter, r *http.Request) {
	ref := r.URL.Query().Get("ref")
	if ref == "" {
		httpx.WriteError(w, status.Error(codes.InvalidArgument, "ref is required"))
		return
	}
	p, err := h.svc.RemoveImage(r.Context(), mux.Vars(r)["id"], ref)
	if err != nil {
		httpx.WriteError(w, mapErr(err))
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.svc.ListCategories(r.Context())
	if err != nil {
		httpx.WriteError(w, mapErr(err))
		return
	}
	if cats == nil {
		cats = []domain.Category{}
	}
	httpx.WriteJSON(w, http.StatusOK, listCategoriesResponse{Categories: cats})
}

func (h *Handler) addCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, err)
		return
	}
	c, err := h.svc.AddCategory(r.Context(), req.Name)
	if err != nil {
		httpx.WriteError(w, mapErr(err))
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteCategory(r.Context(), mux.Vars(r)["id"]); err != nil {
		httpx.WriteError(w, mapErr(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, app.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, app.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, app.ErrNoCategories):
		return status.Error(codes.FailedPrecondition, err.Error())
	}
	return status.Error(codes.Internal, "internal error")
}
