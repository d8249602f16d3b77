package api

import (
	"errors"
	"net/http"

	"github.com/storefrontd/storefrontd/pkg/httputil"
	"github.com/storefrontd/storefrontd/pkg/middleware"
	"github.com/storefrontd/storefrontd/pkg/store"
)

type cartItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	subject := middleware.GetSubject(r)
	if subject == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	cart, err := s.stores.Carts.Get(r.Context(), subject.UserID)
	if err != nil {
		s.logger.WithError(err).Error("failed to get cart")
		httputil.WriteInternalError(w, errors.New("failed to get cart"))
		return
	}
	httputil.WriteSuccess(w, cart)
}

func (s *Server) handleUpsertCartItem(w http.ResponseWriter, r *http.Request) {
	subject := middleware.GetSubject(r)
	if subject == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	var req cartItemRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequirePositive(w, req.ProductID, "product_id") {
		return
	}

	err := s.stores.Carts.UpsertItem(r.Context(), subject.UserID, req.ProductID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrInvalidQuantity):
			httputil.WriteBadRequest(w, "quantity must be positive")
		case errors.Is(err, store.ErrNotFound):
			httputil.WriteNotFoundError(w, "product not found")
		default:
			s.logger.WithError(err).Error("failed to update cart")
			httputil.WriteInternalError(w, errors.New("failed to update cart"))
		}
		return
	}

	cart, err := s.stores.Carts.Get(r.Context(), subject.UserID)
	if err != nil {
		s.logger.WithError(err).Error("failed to get cart")
		httputil.WriteInternalError(w, errors.New("failed to get cart"))
		return
	}
	httputil.WriteSuccess(w, cart)
}

func (s *Server) handleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	subject := middleware.GetSubject(r)
	if subject == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	productID, ok := httputil.ParsePathInt64OrError(w, r, "productID")
	if !ok {
		return
	}

	if err := s.stores.Carts.RemoveItem(r.Context(), subject.UserID, productID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteNotFoundError(w, "cart item not found")
			return
		}
		s.logger.WithError(err).Error("failed to remove cart item")
		httputil.WriteInternalError(w, errors.New("failed to remove cart item"))
		return
	}
	httputil.WriteNoContent(w)
}

func (s *Server) handleClearCart(w http.ResponseWriter, r *http.Request) {
	subject := middleware.GetSubject(r)
	if subject == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	if err := s.stores.Carts.Clear(r.Context(), subject.UserID); err != nil {
		s.logger.WithError(err).Error("failed to clear cart")
		httputil.WriteInternalError(w, errors.New("failed to clear cart"))
		return
	}
	httputil.WriteNoContent(w)
}
