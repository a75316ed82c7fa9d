package server

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"foodbridge/internal/engine"
	"foodbridge/internal/store"
	"foodbridge/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/go-playground/form/v4"
	"github.com/gorilla/securecookie"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var decoder = form.NewDecoder()

type Service struct {
	logger *logrus.Logger
	config *types.Config

	engine       *engine.Manager
	donations    *store.DonationRepository
	requests     *store.RequestRepository
	transactions *store.TransactionRepository
	events       *store.EventRepository
	catalog      *store.CatalogRepository

	cookie *securecookie.SecureCookie

	jwksCache *jwk.Cache
	jwksURL   string

	server *http.Server
}

func New(
	config *types.Config,
	logger *logrus.Logger,
	manager *engine.Manager,
	donations *store.DonationRepository,
	requests *store.RequestRepository,
	transactions *store.TransactionRepository,
	events *store.EventRepository,
	catalog *store.CatalogRepository,
	jwkCache *jwk.Cache,
	jwksURL string,
) (*Service, error) {
	mux := flow.New()

	hashKey, _ := base64.StdEncoding.DecodeString(config.CookieHashKey)
	blockKey, _ := base64.StdEncoding.DecodeString(config.CookieBlockKey)

	s := &Service{
		logger: logger,
		config: config,
		cookie: securecookie.New(hashKey, blockKey),

		engine:       manager,
		donations:    donations,
		requests:     requests,
		transactions: transactions,
		events:       events,
		catalog:      catalog,

		jwksCache: jwkCache,
		jwksURL:   jwksURL,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.ServerPort),
			Handler:           mux,
			ReadTimeout:       time.Duration(config.ReadTimeoutSec) * time.Second,
			ReadHeaderTimeout: time.Duration(config.ReadTimeoutSec) * time.Second,
			WriteTimeout:      time.Duration(config.WriteTimeoutSec) * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
	}

	s.buildRouter(mux)

	return s, nil
}

func (s *Service) Start() error {
	return s.server.ListenAndServe()
}

func (s *Service) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Service) buildRouter(r *flow.Mux) {
	r.Use(s.StripTrailingSlash)
	r.Use(s.LoggingMiddleware)

	r.HandleFunc("/healthz", s.handleHealth, http.MethodGet)
	r.Handle("/metrics", promhttp.Handler(), http.MethodGet)

	// Browse endpoints, no auth required
	r.HandleFunc("/api/donations", s.handleListDonations, http.MethodGet)
	r.HandleFunc("/api/donations/:id", s.handleGetDonation, http.MethodGet)
	r.HandleFunc("/api/requests", s.handleListRequests, http.MethodGet)
	r.HandleFunc("/api/requests/:id", s.handleGetRequest, http.MethodGet)
	r.HandleFunc("/api/catalog/products", s.handleListProducts, http.MethodGet)
	r.HandleFunc("/api/catalog/meals", s.handleListMeals, http.MethodGet)

	r.Group(func(r *flow.Mux) {
		r.Use(s.RequireAuth)

		r.HandleFunc("/api/donations", s.handleCreateDonation, http.MethodPost)
		r.HandleFunc("/api/donations/:id", s.handleUpdateDonation, http.MethodPut)
		r.HandleFunc("/api/donations/:id", s.handleDeleteDonation, http.MethodDelete)

		r.HandleFunc("/api/requests", s.handleCreateRequest, http.MethodPost)
		r.HandleFunc("/api/requests/:id", s.handleUpdateRequest, http.MethodPut)
		r.HandleFunc("/api/requests/:id", s.handleDeleteRequest, http.MethodDelete)

		r.HandleFunc("/api/transactions", s.handleCreateTransaction, http.MethodPost)
		r.HandleFunc("/api/transactions", s.handleListTransactions, http.MethodGet)
		r.HandleFunc("/api/transactions/:id", s.handleGetTransaction, http.MethodGet)
		r.HandleFunc("/api/transactions/:id/events", s.handleTransactionEvents, http.MethodGet)
		r.HandleFunc("/api/transactions/:id/approve", s.handleApproveTransaction, http.MethodPut)
		r.HandleFunc("/api/transactions/:id/reject", s.handleRejectTransaction, http.MethodPut)
	})
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Service) userIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(contextKeyUserID).(string)
	if !ok {
		return "", fmt.Errorf("user id not found in context")
	}
	return userID, nil
}
