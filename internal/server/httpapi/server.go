// Package httpapi exposes the admin catalog API over HTTP: product and
// category reads, product deletion, and the multipart submission endpoint
// driving the product workflow.
package httpapi

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/dcampelo/storefront/internal/catalog"
	"github.com/dcampelo/storefront/internal/logging"
	"github.com/dcampelo/storefront/internal/server/auth"
	"github.com/dcampelo/storefront/internal/server/repositories/categories"
	"github.com/dcampelo/storefront/internal/server/repositories/products"
)

// Server wires the admin API handlers into a gorilla/mux router.
type Server struct {
	logger     logging.Logger
	products   products.Repository
	categories categories.Repository
	submitter  *catalog.Submitter
	secret     []byte

	router *mux.Router
}

func NewServer(logger logging.Logger, productRepo products.Repository, categoryRepo categories.Repository,
	submitter *catalog.Submitter, secret []byte) *Server {

	s := &Server{
		logger:     logger,
		products:   productRepo,
		categories: categoryRepo,
		submitter:  submitter,
		secret:     secret,
	}

	router := mux.NewRouter()
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(s.withAuth)
	api.HandleFunc("/products", s.handleListProducts).Methods(http.MethodGet)
	api.HandleFunc("/products/submit", s.handleSubmit).Methods(http.MethodPost)
	api.HandleFunc("/products/slug/{slug}", s.handleGetProductBySlug).Methods(http.MethodGet)
	api.HandleFunc("/products/{id}", s.handleGetProduct).Methods(http.MethodGet)
	api.HandleFunc("/products/{id}", s.handleDeleteProduct).Methods(http.MethodDelete)
	api.HandleFunc("/categories", s.handleListCategories).Methods(http.MethodGet)

	s.router = router
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// withAuth rejects requests without a valid bearer token. The raw token is
// kept available to handlers through bearerToken so the submission workflow
// can re-check it before uploads.
func (s *Server) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}

		if _, err := auth.GetUserIDFromToken(token, s.secret); err != nil {
			s.logger.Warn(r.Context(), "rejected request", "path", r.URL.Path, "error", err.Error())
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
