package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dwikikusuma/storefront/internal/cart/app"
	"github.com/dwikikusuma/storefront/internal/cart/domain"
	"github.com/dwikikusuma/storefront/pkg/httpx"
)

type Handler struct {
	svc *app.Service
	log *slog.Logger
}

func NewHandler(svc *app.Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, log: log}
}

func (h *Handler) Register(r *mux.Router) {
	const cart = "/v1/carts/{session}"
	r.HandleFunc(cart, h.getCart).Methods(http.MethodGet)
	r.HandleFunc(cart, h.clearCart).Methods(http.MethodDelete)
	r.HandleFunc(cart+"/breakdown", h.breakdown).Methods(http.MethodGet)
	r.HandleFunc(cart+"/items", h.addItem).Methods(http.MethodPost)
	r.HandleFunc(cart+"/items/{product}", h.setQuantity).Methods(http.MethodPut)
	r.HandleFunc(cart+"/items/{product}", h.removeItem).Methods(http.MethodDelete)
	r.HandleFunc(cart+"/items/{product}/increment", h.increment).Methods(http.MethodPost)
	r.HandleFunc(cart+"/items/{product}/decrement", h.decrement).Methods(http.MethodPost)
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int32  `json:"quantity"`
}

type setQuantityRequest struct {
	Quantity int32 `json:"quantity"`
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.Get(r.Context(), mux.Vars(r)["session"])
	h.respond(w, v, err)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Clear(r.Context(), mux.Vars(r)["session"]); err != nil {
		httpx.WriteError(w, mapErr(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) breakdown(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.Breakdown(r.Context(), mux.Vars(r)["session"])
	if err != nil {
		httpx.WriteError(w, mapErr(err))
		return
	}
	httpx.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, err)
		return
	}
	v, err := h.svc.AddItem(r.Context(), mux.Vars(r)["session"], req.ProductID, req.Quantity)
	h.respond(w, v, err)
}

func (h *Handler) setQuantity(w http.ResponseWriter, r *http.Request) {
	var req setQuantityRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, err)
		return
	}
	vars := mux.Vars(r)
	v, err := h.svc.SetQuantity(r.Context(), vars["session"], vars["product"], req.Quantity)
	h.respond(w, v, err)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	h.itemOp(w, r, h.svc.Remove)
}

func (h *Handler) increment(w http.ResponseWriter, r *http.Request) {
	h.itemOp(w, r, h.svc.Increment)
}

func (h *Handler) decrement(w http.ResponseWriter, r *http.Request) {
	h.itemOp(w, r, h.svc.Decrement)
}

func (h *Handler) itemOp(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, sessionID, productID string) (app.View, error)) {
	vars := mux.Vars(r)
	v, err := op(r.Context(), vars["session"], vars["product"])
	h.respond(w, v, err)
}

func (h *Handler) respond(w http.ResponseWriter, v app.View, err error) {
	if err != nil {
		mapped := mapErr(err)
		if status.Code(mapped) == codes.Internal {
			h.log.Error("cart request failed", slog.Any("err", err))
		}
		httpx.WriteError(w, mapped)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, v)
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, domain.ErrOutOfStock):
		return httpx.WithReason(status.Error(codes.FailedPrecondition, err.Error()), "OUT_OF_STOCK")
	case errors.Is(err, domain.ErrStockLimitExceeded):
		return httpx.WithReason(status.Error(codes.FailedPrecondition, err.Error()), "STOCK_LIMIT_EXCEEDED")
	case errors.Is(err, app.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidItem),
		errors.Is(err, domain.ErrInvalidQuantity):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, app.ErrCurrencyMismatch):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, app.ErrProductNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	}
	return status.Error(codes.Internal, "internal error")
}
