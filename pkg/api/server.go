// Package api implements the HTTP surface of the storefront service:
// authentication, user profiles, the product catalog, carts, and orders.
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/storefrontd/storefrontd/pkg/auth"
	"github.com/storefrontd/storefrontd/pkg/cache"
	"github.com/storefrontd/storefrontd/pkg/httputil"
	"github.com/storefrontd/storefrontd/pkg/middleware"
	"github.com/storefrontd/storefrontd/pkg/observability"
	"github.com/storefrontd/storefrontd/pkg/storage"
	"github.com/storefrontd/storefrontd/pkg/store"
)

// Stores bundles the persistence layer handed to the server
type Stores struct {
	Users      *store.UserStore
	Categories *store.CategoryStore
	Products   *store.ProductStore
	Carts      *store.CartStore
	Orders     *store.OrderStore
}

// Server is the HTTP API server
type Server struct {
	router      *mux.Router
	stores      Stores
	credentials *auth.CredentialStore
	tokens      *auth.TokenService
	blobs       storage.BlobStore
	cache       *cache.Cache
	logger      *observability.Logger
	metrics     *observability.Metrics

	maxUploadBytes int64
}

// NewServer creates the API server and registers all routes. cache may be
// nil to disable catalog caching.
func NewServer(
	stores Stores,
	credentials *auth.CredentialStore,
	tokens *auth.TokenService,
	blobs storage.BlobStore,
	catalogCache *cache.Cache,
	logger *observability.Logger,
	metrics *observability.Metrics,
	maxUploadBytes int64,
) *Server {
	s := &Server{
		router:         mux.NewRouter(),
		stores:         stores,
		credentials:    credentials,
		tokens:         tokens,
		blobs:          blobs,
		cache:          catalogCache,
		logger:         logger,
		metrics:        metrics,
		maxUploadBytes: maxUploadBytes,
	}
	s.setupRoutes()
	return s
}

// Router returns the configured router for mounting in an http.Server
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.Use(httputil.RequestIDMiddleware)
	s.router.Use(httputil.LoggingMiddleware(s.logger))
	s.router.Use(httputil.RecoveryMiddleware(s.logger))
	s.router.Use(httputil.MaxBytesMiddleware(s.maxUploadBytes))
	if s.metrics != nil {
		s.router.Use(s.metrics.Middleware)
	}

	api := s.router.PathPrefix("/api/v1").Subrouter()

	// Public routes: registration, login, and catalog reads.
	api.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/categories", s.handleListCategories).Methods(http.MethodGet)
	api.HandleFunc("/categories/{id:[0-9]+}", s.handleGetCategory).Methods(http.MethodGet)
	api.HandleFunc("/products", s.handleListProducts).Methods(http.MethodGet)
	api.HandleFunc("/products/{id:[0-9]+}", s.handleGetProduct).Methods(http.MethodGet)
	api.HandleFunc("/products/{id:[0-9]+}/image", s.handleGetProductImage).Methods(http.MethodGet)

	// Protected routes: everything behind the bearer-token gate.
	gate := middleware.NewAuthMiddleware(s.tokens, s.metrics)
	protected := api.NewRoute().Subrouter()
	protected.Use(gate.Handler)

	protected.HandleFunc("/auth/password", s.handleChangePassword).Methods(http.MethodPut)
	protected.HandleFunc("/users/me", s.handleGetMe).Methods(http.MethodGet)
	protected.HandleFunc("/users/me", s.handleUpdateMe).Methods(http.MethodPut)
	protected.HandleFunc("/users/me", s.handleDeleteMe).Methods(http.MethodDelete)

	protected.HandleFunc("/cart", s.handleGetCart).Methods(http.MethodGet)
	protected.HandleFunc("/cart/items", s.handleUpsertCartItem).Methods(http.MethodPut)
	protected.HandleFunc("/cart/items/{productID:[0-9]+}", s.handleRemoveCartItem).Methods(http.MethodDelete)
	protected.HandleFunc("/cart", s.handleClearCart).Methods(http.MethodDelete)

	protected.HandleFunc("/orders", s.handleCheckout).Methods(http.MethodPost)
	protected.HandleFunc("/orders", s.handleListOrders).Methods(http.MethodGet)
	protected.HandleFunc("/orders/{id:[0-9]+}", s.handleGetOrder).Methods(http.MethodGet)

	// Admin routes: catalog writes and order status management.
	admin := protected.NewRoute().Subrouter()
	admin.Use(middleware.RequireRole(auth.RoleAdmin))

	admin.HandleFunc("/categories", s.handleCreateCategory).Methods(http.MethodPost)
	admin.HandleFunc("/categories/{id:[0-9]+}", s.handleUpdateCategory).Methods(http.MethodPut)
	admin.HandleFunc("/categories/{id:[0-9]+}", s.handleDeleteCategory).Methods(http.MethodDelete)
	admin.HandleFunc("/products", s.handleCreateProduct).Methods(http.MethodPost)
	admin.HandleFunc("/products/{id:[0-9]+}", s.handleUpdateProduct).Methods(http.MethodPut)
	admin.HandleFunc("/products/{id:[0-9]+}", s.handleDeleteProduct).Methods(http.MethodDelete)
	admin.HandleFunc("/products/{id:[0-9]+}/image", s.handleUploadProductImage).Methods(http.MethodPost)
	admin.HandleFunc("/orders/{id:[0-9]+}/status", s.handleUpdateOrderStatus).Methods(http.MethodPut)
}
