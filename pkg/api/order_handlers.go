package api

import (
	"errors"
	"net/http"

	"github.com/storefrontd/storefrontd/pkg/httputil"
	"github.com/storefrontd/storefrontd/pkg/middleware"
	"github.com/storefrontd/storefrontd/pkg/store"
)

type orderStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	subject := middleware.GetSubject(r)
	if subject == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	order, err := s.stores.Orders.CreateFromCart(r.Context(), subject.UserID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrEmptyCart):
			httputil.WriteBadRequest(w, "cart is empty")
		case errors.Is(err, store.ErrOutOfStock):
			httputil.WriteConflict(w, "insufficient stock for one or more items")
		default:
			s.logger.WithError(err).Error("checkout failed")
			httputil.WriteInternalError(w, errors.New("checkout failed"))
		}
		return
	}

	if s.metrics != nil {
		s.metrics.OrdersCreatedTotal.Inc()
	}
	s.logger.WithFields(map[string]interface{}{
		"order_id":    order.ID,
		"user_id":     order.UserID,
		"total_cents": order.TotalCents,
	}).Info("order created")
	httputil.WriteCreated(w, order)
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	subject := middleware.GetSubject(r)
	if subject == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	orders, err := s.stores.Orders.ListByUser(r.Context(), subject.UserID)
	if err != nil {
		s.logger.WithError(err).Error("failed to list orders")
		httputil.WriteInternalError(w, errors.New("failed to list orders"))
		return
	}
	httputil.WriteSuccess(w, orders)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	subject := middleware.GetSubject(r)
	if subject == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	order, err := s.stores.Orders.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteNotFoundError(w, "order not found")
			return
		}
		s.logger.WithError(err).Error("failed to get order")
		httputil.WriteInternalError(w, errors.New("failed to get order"))
		return
	}

	// Users see only their own orders, admins see all.
	if order.UserID != subject.UserID && !subject.IsAdmin() {
		httputil.WriteNotFoundError(w, "order not found")
		return
	}
	httputil.WriteSuccess(w, order)
}

func (s *Server) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req orderStatusRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	err := s.stores.Orders.UpdateStatus(r.Context(), id, store.OrderStatus(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, store.ErrInvalidStatus):
			httputil.WriteBadRequest(w, "invalid order status")
		case errors.Is(err, store.ErrNotFound):
			httputil.WriteNotFoundError(w, "order not found")
		default:
			s.logger.WithError(err).Error("failed to update order status")
			httputil.WriteInternalError(w, errors.New("failed to update order status"))
		}
		return
	}
	httputil.WriteNoContent(w)
}
