package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/storefrontd/storefrontd/pkg/cache"
	"github.com/storefrontd/storefrontd/pkg/crypto"
	"github.com/storefrontd/storefrontd/pkg/httputil"
	"github.com/storefrontd/storefrontd/pkg/storage"
	"github.com/storefrontd/storefrontd/pkg/store"
)

const imageKeyLength = 24

type productRequest struct {
	CategoryID  int64  `json:"category_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents"`
	Stock       int64  `json:"stock"`
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	categoryID, err := httputil.ParseQueryInt64(r, "category_id", 0)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	limit, err := httputil.ParseQueryInt(r, "limit", 50)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	offset, err := httputil.ParseQueryInt(r, "offset", 0)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	products, err := s.stores.Products.List(r.Context(), categoryID, limit, offset)
	if err != nil {
		s.logger.WithError(err).Error("failed to list products")
		httputil.WriteInternalError(w, errors.New("failed to list products"))
		return
	}
	httputil.WriteSuccess(w, products)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	if s.cache != nil {
		if data, err := s.cache.Get(r.Context(), cache.ProductKey(id)); err == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write(data)
			return
		}
	}

	product, err := s.stores.Products.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteNotFoundError(w, "product not found")
			return
		}
		s.logger.WithError(err).Error("failed to get product")
		httputil.WriteInternalError(w, errors.New("failed to get product"))
		return
	}

	if s.cache != nil {
		if data, err := json.Marshal(product); err == nil {
			s.cache.Set(r.Context(), cache.ProductKey(id), data)
		}
	}
	httputil.WriteSuccess(w, product)
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Name, "name") {
		return
	}
	if !httputil.RequirePositive(w, req.CategoryID, "category_id") {
		return
	}
	if !httputil.RequirePositive(w, req.PriceCents, "price_cents") {
		return
	}
	if req.Stock < 0 {
		httputil.WriteBadRequest(w, "stock must not be negative")
		return
	}

	product, err := s.stores.Products.Create(r.Context(), &store.Product{
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Stock:       req.Stock,
	})
	if err != nil {
		s.logger.WithError(err).Error("failed to create product")
		httputil.WriteInternalError(w, errors.New("failed to create product"))
		return
	}
	httputil.WriteCreated(w, product)
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req productRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Name, "name") {
		return
	}
	if !httputil.RequirePositive(w, req.PriceCents, "price_cents") {
		return
	}

	product, err := s.stores.Products.Update(r.Context(), &store.Product{
		ID:          id,
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Stock:       req.Stock,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteNotFoundError(w, "product not found")
			return
		}
		s.logger.WithError(err).Error("failed to update product")
		httputil.WriteInternalError(w, errors.New("failed to update product"))
		return
	}

	s.invalidateCatalog(r, id)
	httputil.WriteSuccess(w, product)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	if err := s.stores.Products.Deactivate(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteNotFoundError(w, "product not found")
			return
		}
		s.logger.WithError(err).Error("failed to deactivate product")
		httputil.WriteInternalError(w, errors.New("failed to deactivate product"))
		return
	}

	s.invalidateCatalog(r, id)
	httputil.WriteNoContent(w)
}

func (s *Server) handleUploadProductImage(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	// Product must exist before accepting the upload.
	if _, err := s.stores.Products.Get(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteNotFoundError(w, "product not found")
			return
		}
		s.logger.WithError(err).Error("failed to get product")
		httputil.WriteInternalError(w, errors.New("failed to get product"))
		return
	}

	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		httputil.WriteBadRequest(w, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		httputil.WriteBadRequest(w, "image file is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType != "image/png" && contentType != "image/jpeg" && contentType != "image/webp" {
		httputil.WriteBadRequest(w, "unsupported image type")
		return
	}

	name, err := crypto.RandomFileName(imageKeyLength)
	if err != nil {
		s.logger.WithError(err).Error("failed to generate image key")
		httputil.WriteInternalError(w, errors.New("failed to store image"))
		return
	}
	key := fmt.Sprintf("products/%s", name)

	if err := s.blobs.Put(r.Context(), key, file, contentType); err != nil {
		s.logger.WithError(err).Error("failed to store image blob")
		httputil.WriteInternalError(w, errors.New("failed to store image"))
		return
	}

	if err := s.stores.Products.SetImageKey(r.Context(), id, key); err != nil {
		s.logger.WithError(err).Error("failed to record image key")
		httputil.WriteInternalError(w, errors.New("failed to store image"))
		return
	}

	s.invalidateCatalog(r, id)
	httputil.WriteSuccess(w, map[string]string{"image_key": key})
}

func (s *Server) handleGetProductImage(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	product, err := s.stores.Products.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteNotFoundError(w, "product not found")
			return
		}
		s.logger.WithError(err).Error("failed to get product")
		httputil.WriteInternalError(w, errors.New("failed to get product"))
		return
	}
	if product.ImageKey == "" {
		httputil.WriteNotFoundError(w, "product has no image")
		return
	}

	blob, contentType, err := s.blobs.Get(r.Context(), product.ImageKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httputil.WriteNotFoundError(w, "image not found")
			return
		}
		s.logger.WithError(err).Error("failed to read image blob")
		httputil.WriteInternalError(w, errors.New("failed to read image"))
		return
	}
	defer blob.Close()

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	io.Copy(w, blob)
}
