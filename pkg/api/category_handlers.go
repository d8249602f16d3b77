package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/storefrontd/storefrontd/pkg/cache"
	"github.com/storefrontd/storefrontd/pkg/httputil"
	"github.com/storefrontd/storefrontd/pkg/store"
)

type categoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	if s.cache != nil {
		if data, err := s.cache.Get(r.Context(), cache.CategoriesKey); err == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write(data)
			return
		}
	}

	categories, err := s.stores.Categories.List(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("failed to list categories")
		httputil.WriteInternalError(w, errors.New("failed to list categories"))
		return
	}

	if s.cache != nil {
		if data, err := json.Marshal(categories); err == nil {
			s.cache.Set(r.Context(), cache.CategoriesKey, data)
		}
	}
	httputil.WriteSuccess(w, categories)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	category, err := s.stores.Categories.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteNotFoundError(w, "category not found")
			return
		}
		s.logger.WithError(err).Error("failed to get category")
		httputil.WriteInternalError(w, errors.New("failed to get category"))
		return
	}
	httputil.WriteSuccess(w, category)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Name, "name") {
		return
	}

	category, err := s.stores.Categories.Create(r.Context(), req.Name, req.Description)
	if err != nil {
		s.logger.WithError(err).Error("failed to create category")
		httputil.WriteInternalError(w, errors.New("failed to create category"))
		return
	}

	s.invalidateCatalog(r)
	httputil.WriteCreated(w, category)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req categoryRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Name, "name") {
		return
	}

	category, err := s.stores.Categories.Update(r.Context(), id, req.Name, req.Description)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteNotFoundError(w, "category not found")
			return
		}
		s.logger.WithError(err).Error("failed to update category")
		httputil.WriteInternalError(w, errors.New("failed to update category"))
		return
	}

	s.invalidateCatalog(r)
	httputil.WriteSuccess(w, category)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	if err := s.stores.Categories.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteNotFoundError(w, "category not found")
			return
		}
		s.logger.WithError(err).Error("failed to delete category")
		httputil.WriteInternalError(w, errors.New("failed to delete category"))
		return
	}

	s.invalidateCatalog(r)
	httputil.WriteNoContent(w)
}

func (s *Server) invalidateCatalog(r *http.Request, productIDs ...int64) {
	if s.cache == nil {
		return
	}
	keys := []string{cache.CategoriesKey}
	for _, id := range productIDs {
		keys = append(keys, cache.ProductKey(id))
	}
	if err := s.cache.Invalidate(r.Context(), keys...); err != nil {
		s.logger.WithError(err).Warn("cache invalidation failed")
	}
}
