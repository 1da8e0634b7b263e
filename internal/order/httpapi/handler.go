package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dwikikusuma/storefront/internal/order/app"
	"github.com/dwikikusuma/storefront/internal/order/domain"
	"github.com/dwikikusuma/storefront/pkg/httpx"
)

type Handler struct {
	svc *app.Service
}

func NewHandler(svc *app.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/v1/orders", h.listOrders).Methods(http.MethodGet)
	r.HandleFunc("/v1/orders/{id}", h.getOrder).Methods(http.MethodGet)
	r.HandleFunc("/v1/orders/{id}/process", h.processOrder).Methods(http.MethodPost)
	r.HandleFunc("/v1/admin/orders", h.listAllOrders).Methods(http.MethodGet)
}

type listOrdersResponse struct {
	Orders []domain.Order `json:"orders"`
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.GetOrder(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		httpx.WriteError(w, mapErr(err))
		return
	}
	httpx.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	orders, err := h.svc.ListOrders(r.Context(), q.Get("user_id"), limit)
	if err != nil {
		httpx.WriteError(w, mapErr(err))
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	httpx.WriteJSON(w, http.StatusOK, listOrdersResponse{Orders: orders})
}

func (h *Handler) processOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.ProcessOrder(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		httpx.WriteError(w, mapErr(err))
		return
	}
	httpx.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) listAllOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	orders, err := h.svc.ListAllOrders(r.Context(), q.Get("status"), limit)
	if err != nil {
		httpx.WriteError(w, mapErr(err))
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	httpx.WriteJSON(w, http.StatusOK, listOrdersResponse{Orders: orders})
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, app.ErrInvalidInput), errors.Is(err, app.ErrInvalidOrder):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, app.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, app.ErrOrderFinal):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, app.ErrStatusConflict):
		return status.Error(codes.Aborted, err.Error())
	}
	return status.Error(codes.Internal, "internal error")
}
