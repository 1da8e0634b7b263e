package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dwikikusuma/storefront/internal/checkout/app"
	"github.com/dwikikusuma/storefront/internal/checkout/domain"
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
	r.HandleFunc("/v1/checkout/{session}/quote", h.quote).Methods(http.MethodGet)
	r.HandleFunc("/v1/checkout/{session}/orders", h.placeOrder).Methods(http.MethodPost)
}

type placeOrderRequest struct {
	UserID        string              `json:"user_id"`
	PaymentMethod string              `json:"payment_method"`
	Shipping      domain.ShippingInfo `json:"shipping"`
}

type stockChangedBody struct {
	Error     httpx.ErrorDetail `json:"error"`
	Shortages []domain.Shortage `json:"shortages"`
}

type priceChangedBody struct {
	Error   httpx.ErrorDetail    `json:"error"`
	Changes []domain.PriceChange `json:"changes"`
}

func (h *Handler) quote(w http.ResponseWriter, r *http.Request) {
	q, err := h.svc.Quote(r.Context(), mux.Vars(r)["session"])
	if err != nil {
		h.writeErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, q)
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, err)
		return
	}

	placed, err := h.svc.PlaceOrder(r.Context(), app.PlaceOrderRequest{
		SessionID:     mux.Vars(r)["session"],
		UserID:        req.UserID,
		PaymentMethod: req.PaymentMethod,
		Shipping:      req.Shipping,
	})
	if err != nil {
		h.writeErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, placed)
}

func (h *Handler) writeErr(w http.ResponseWriter, err error) {
	mapped := mapErr(err)

	var (
		sce *app.StockChangedError
		pce *app.PriceChangedError
	)
	switch {
	case errors.As(err, &sce):
		httpStatus, code, msg := httpx.StatusFromGRPC(mapped)
		httpx.WriteJSON(w, httpStatus, stockChangedBody{
			Error:     httpx.ErrorDetail{Code: code, Message: msg},
			Shortages: sce.Shortages,
		})
		return
	case errors.As(err, &pce):
		httpStatus, code, msg := httpx.StatusFromGRPC(mapped)
		httpx.WriteJSON(w, httpStatus, priceChangedBody{
			Error:   httpx.ErrorDetail{Code: code, Message: msg},
			Changes: pce.Changes,
		})
		return
	}

	if status.Code(mapped) == codes.Internal {
		h.log.Error("checkout request failed", slog.Any("err", err))
	}
	httpx.WriteError(w, mapped)
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, app.ErrEmptyCart):
		return status.Error(codes.NotFound, "cart is empty")
	case errors.Is(err, app.ErrStockChanged):
		return httpx.WithReason(status.Error(codes.FailedPrecondition, err.Error()), "STOCK_CHANGED")
	case errors.Is(err, app.ErrPriceChanged):
		return httpx.WithReason(status.Error(codes.FailedPrecondition, err.Error()), "PRICE_CHANGED")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	return status.Error(codes.Internal, "internal error")
}
